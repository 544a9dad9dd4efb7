package orderengine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

const (
	codeUncoveredOptions = 40310000
	codeZeroOrderSize    = 42210000

	msgUncoveredOptions = "not eligible to trade uncovered option contracts"
	msgZeroOrderSize    = "would result in order size of zero"
)

var rejectionExplanations = map[RejectionReason]string{
	ReasonUncoveredShortStraddle: `Error: Account not eligible to trade short straddles.

A short straddle sells a call and a put on the same underlying with the same
strike and expiration, and requires Level 4 options trading permission.

Alternatives:
- Buy the straddle instead (long straddle)
- Use a defined-risk debit spread
- Write a covered call or a cash-secured put`,

	ReasonUncoveredShortStrangle: `Error: Account not eligible to trade short strangles.

A short strangle sells a call and a put on the same underlying with the same
expiration and different strikes, and requires Level 4 options trading permission.

Alternatives:
- Buy the strangle instead (long strangle)
- Use a defined-risk debit spread
- Write a covered call or a cash-secured put`,

	ReasonUncoveredShortCalendar: `Error: Account not eligible to trade short calendar spreads.

Selling both legs of a same-strike calendar leaves the position uncovered and
requires Level 4 options trading permission.

Alternatives:
- Buy the longer-dated leg instead (long calendar spread)
- Use a defined-risk debit spread
- Write a covered call or a cash-secured put`,

	ReasonUncoveredOptions: `Error: Account not eligible to trade uncovered option contracts.

The order could leave an uncovered position, for example a naked call or a
calendar whose short leg outlives the long leg. Uncovered options require
Level 4 options trading permission.

Alternatives:
- Cover short calls with shares of the underlying
- Use debit spreads instead of naked short legs
- Make sure every short leg is hedged`,

	ReasonZeroQuantity: `Error: Invalid position closure request.

The requested percentage would close less than one share. Either:
1. Use a higher percentage
2. Close the entire position (100%)
3. Pass an exact quantity with qty`,
}

// classifySubmitError maps a failed submission to an OrderError. Only option
// orders get the uncovered and permission explanations; the strategy detection
// is best-effort enrichment of the broker's own rejection.
func classifySubmitError(family entity.OrderFamily, req entity.PlaceOrderRequest, err error) *OrderError {
	var apiErr *entity.BrokerAPIError
	if !errors.As(err, &apiErr) {
		return &OrderError{
			Kind:    FailureTransport,
			Message: err.Error(),
			Cause:   err,
		}
	}

	isOption := family == entity.OrderFamilyOption

	switch {
	case isOption && isUncoveredRejection(apiErr):
		reason := detectUncoveredStrategy(req.OrderClass, req.Legs)
		return &OrderError{
			Kind:    FailureRejected,
			Reason:  reason,
			Message: rejectionExplanations[reason],
			Cause:   err,
		}
	case isOption && apiErr.StatusCode == http.StatusForbidden:
		return &OrderError{
			Kind:    FailureRejected,
			Reason:  ReasonPermissionDenied,
			Message: permissionDeniedExplanation(apiErr),
			Cause:   err,
		}
	default:
		return &OrderError{
			Kind:    FailureRejected,
			Reason:  ReasonGeneric,
			Message: apiErr.Message,
			Cause:   err,
		}
	}
}

// classifyCloseError maps a failed position close. Only the zero-size rejection
// gets a dedicated explanation.
func classifyCloseError(err error) *OrderError {
	var apiErr *entity.BrokerAPIError
	if !errors.As(err, &apiErr) {
		return &OrderError{Kind: FailureTransport, Message: err.Error(), Cause: err}
	}

	if apiErr.Code == codeZeroOrderSize || strings.Contains(apiErr.Message, msgZeroOrderSize) {
		return &OrderError{
			Kind:    FailureRejected,
			Reason:  ReasonZeroQuantity,
			Message: rejectionExplanations[ReasonZeroQuantity],
			Cause:   err,
		}
	}

	return &OrderError{Kind: FailureRejected, Reason: ReasonGeneric, Message: apiErr.Message, Cause: err}
}

// isUncoveredRejection needs the broker's message. 40310000 alone is the generic
// forbidden code and also covers buying power rejections.
func isUncoveredRejection(apiErr *entity.BrokerAPIError) bool {
	if !strings.Contains(strings.ToLower(apiErr.Message), msgUncoveredOptions) {
		return false
	}

	return apiErr.Code == 0 || apiErr.Code == codeUncoveredOptions
}

// detectUncoveredStrategy names the short two-leg strategy the legs form.
// Anything that is not two sold legs on one root falls back to the generic reason.
func detectUncoveredStrategy(orderClass entity.OrderClass, legs []entity.OptionLeg) RejectionReason {
	if orderClass != entity.OrderClassMLEG || len(legs) != 2 {
		return ReasonUncoveredOptions
	}
	if legs[0].Side != entity.OrderSideSell || legs[1].Side != entity.OrderSideSell {
		return ReasonUncoveredOptions
	}

	first, ok := parseOCCSymbol(legs[0].Symbol)
	if !ok {
		return ReasonUncoveredOptions
	}
	second, ok := parseOCCSymbol(legs[1].Symbol)
	if !ok || first.Root != second.Root {
		return ReasonUncoveredOptions
	}

	sameExpiry := first.Expiry == second.Expiry
	sameStrike := first.Strike == second.Strike
	sameRight := first.Right == second.Right

	switch {
	case sameExpiry && sameStrike && !sameRight:
		return ReasonUncoveredShortStraddle
	case sameExpiry && !sameStrike && !sameRight:
		return ReasonUncoveredShortStrangle
	case !sameExpiry && sameStrike && sameRight:
		return ReasonUncoveredShortCalendar
	default:
		return ReasonUncoveredOptions
	}
}

func permissionDeniedExplanation(apiErr *entity.BrokerAPIError) string {
	return fmt.Sprintf(`Error: Permission denied for this order.

Possible reasons:
1. The account level does not allow the requested strategy
2. The account has trading restrictions
3. The account lacks a required permission

Original error: %s`, apiErr.Message)
}
