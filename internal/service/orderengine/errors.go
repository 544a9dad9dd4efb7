package orderengine

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureThrottled  FailureKind = "throttled"
	FailureRejected   FailureKind = "rejected"
	FailureTransport  FailureKind = "transport"
)

type RejectionReason string

const (
	ReasonPermissionDenied       RejectionReason = "permission_denied"
	ReasonZeroQuantity           RejectionReason = "zero_quantity"
	ReasonUncoveredShortStraddle RejectionReason = "uncovered_short_straddle"
	ReasonUncoveredShortStrangle RejectionReason = "uncovered_short_strangle"
	ReasonUncoveredShortCalendar RejectionReason = "uncovered_short_calendar"
	ReasonUncoveredOptions       RejectionReason = "uncovered_options"
	ReasonGeneric                RejectionReason = "generic"
)

// OrderError is the single failure type returned by the dispatcher. Field is
// set for validation failures and Reason for remote rejections.
type OrderError struct {
	Kind    FailureKind
	Reason  RejectionReason
	Field   string
	Message string
	Cause   error
}

func (e *OrderError) Error() string {
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Cause
}

func validationError(field, format string, args ...any) *OrderError {
	return &OrderError{
		Kind:    FailureValidation,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsOrderError unwraps err into an *OrderError when it is one.
func AsOrderError(err error) (*OrderError, bool) {
	var orderErr *OrderError
	if errors.As(err, &orderErr) {
		return orderErr, true
	}

	return nil, false
}

// IsValidation reports whether err was raised before any remote call.
func IsValidation(err error) bool {
	orderErr, ok := AsOrderError(err)
	return ok && orderErr.Kind == FailureValidation
}
