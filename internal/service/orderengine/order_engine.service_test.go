package orderengine

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

type fakeBroker struct {
	submitted []entity.PlaceOrderRequest
	closed    int
	order     *entity.Order
	err       error
}

func (f *fakeBroker) SubmitOrder(_ context.Context, req entity.PlaceOrderRequest) (*entity.Order, error) {
	f.submitted = append(f.submitted, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.order != nil {
		return f.order, nil
	}

	return &entity.Order{
		ID:            "ord-1",
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		TimeInForce:   req.TimeInForce,
		Quantity:      &req.Quantity,
		Status:        "accepted",
	}, nil
}

func (f *fakeBroker) ClosePosition(_ context.Context, symbol string, qty, percentage *decimal.Decimal) (*entity.Order, error) {
	f.closed++
	if f.err != nil {
		return nil, f.err
	}

	return &entity.Order{ID: "close-1", Symbol: symbol, Status: "accepted"}, nil
}

type fakeThrottle struct {
	allowed bool
	err     error
}

func (f fakeThrottle) Allow(context.Context, string, time.Time) (bool, time.Duration, error) {
	return f.allowed, 30 * time.Second, f.err
}

type fakeJournal struct {
	entries []entity.OrderJournal
}

func (f *fakeJournal) Record(_ context.Context, entry entity.OrderJournal) {
	f.entries = append(f.entries, entry)
}

var fixedNow = time.Date(2026, 1, 2, 15, 4, 5, 123456789, time.UTC)

func newTestService(broker *fakeBroker) *OrderEngineService {
	svc := NewOrderEngineService(broker, nil, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func dec(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func requireOrderError(t *testing.T, err error, kind FailureKind) *OrderError {
	t.Helper()

	orderErr, ok := AsOrderError(err)
	if !ok {
		t.Fatalf("expected *OrderError, got %T: %v", err, err)
	}
	if orderErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, orderErr.Kind, orderErr.Message)
	}

	return orderErr
}

func TestPlaceStockOrderMarketSubmitsOnce(t *testing.T) {
	broker := &fakeBroker{}
	svc := newTestService(broker)

	receipt, err := svc.PlaceStockOrder(context.Background(), StockOrderParams{
		Symbol:   "aapl",
		Side:     "buy",
		Quantity: dec("10"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(broker.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(broker.submitted))
	}

	req := broker.submitted[0]
	if req.Symbol != "AAPL" || req.Side != entity.OrderSideBuy || req.Type != entity.OrderTypeMarket || req.TimeInForce != entity.TimeInForceDay {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.LimitPrice != nil || req.StopPrice != nil || req.TrailPrice != nil || req.TrailPercent != nil {
		t.Fatalf("market order must not carry price fields: %+v", req)
	}
	if req.ClientOrderID != "order_1767366245123456789" {
		t.Fatalf("unexpected generated client order id %q", req.ClientOrderID)
	}
	if receipt.Order.ID != "ord-1" || receipt.Family != entity.OrderFamilyStock {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestPlaceStockOrderValidationMakesNoRemoteCall(t *testing.T) {
	tests := []struct {
		name    string
		params  StockOrderParams
		field   string
		message string
	}{
		{
			name:    "limit without limit price",
			params:  StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("10"), OrderType: "limit"},
			field:   "limit_price",
			message: "limit_price is required for LIMIT orders.",
		},
		{
			name:    "invalid side wins over invalid time in force",
			params:  StockOrderParams{Symbol: "AAPL", Side: "hold", Quantity: dec("10"), TimeInForce: "forever"},
			field:   "side",
			message: "Invalid order side: hold. Must be 'buy' or 'sell'.",
		},
		{
			name:    "invalid time in force",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("10"), TimeInForce: "forever"},
			field:   "time_in_force",
			message: "Invalid time_in_force: forever.",
		},
		{
			name:    "empty symbol",
			params:  StockOrderParams{Symbol: "  ", Side: "sell", Quantity: dec("1")},
			field:   "symbol",
			message: "Symbol is required.",
		},
		{
			name:    "zero quantity",
			params:  StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("0")},
			field:   "quantity",
			message: "Invalid quantity: 0. Must be a positive number.",
		},
		{
			name:    "missing quantity",
			params:  StockOrderParams{Symbol: "AAPL", Side: "buy"},
			field:   "quantity",
			message: "Invalid quantity: missing. Must be a positive number.",
		},
		{
			name:    "unknown order type",
			params:  StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1"), OrderType: "iceberg"},
			field:   "order_type",
			message: "Invalid order type: iceberg. Must be one of: MARKET, LIMIT, STOP, STOP_LIMIT, TRAILING_STOP.",
		},
		{
			name:    "negative limit price",
			params:  StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1"), OrderType: "LIMIT", LimitPrice: dec("-1")},
			field:   "limit_price",
			message: "limit_price must be positive for LIMIT orders.",
		},
		{
			name:    "stop without stop price",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("1"), OrderType: "stop"},
			field:   "stop_price",
			message: "stop_price is required for STOP orders.",
		},
		{
			name:    "stop limit missing stop price",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("1"), OrderType: "stop_limit", LimitPrice: dec("10")},
			field:   "stop_price",
			message: "stop_price is required for STOP_LIMIT orders.",
		},
		{
			name:    "stop limit missing limit price",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("1"), OrderType: "stop_limit", StopPrice: dec("10")},
			field:   "limit_price",
			message: "limit_price is required for STOP_LIMIT orders.",
		},
		{
			name:    "trailing stop without trail fields",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("1"), OrderType: "trailing_stop"},
			field:   "trail_price",
			message: "Either trail_price or trail_percent is required for TRAILING_STOP orders.",
		},
		{
			name:    "trailing stop with both trail fields",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("1"), OrderType: "trailing_stop", TrailPrice: dec("1"), TrailPercent: dec("2")},
			field:   "trail_price",
			message: "Only one of trail_price or trail_percent may be set for TRAILING_STOP orders.",
		},
		{
			name:    "trailing stop with zero percent",
			params:  StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("1"), OrderType: "trailing_stop", TrailPercent: dec("0")},
			field:   "trail_percent",
			message: "trail_percent must be positive for TRAILING_STOP orders.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{}
			journal := &fakeJournal{}
			svc := newTestService(broker)
			svc.journal = journal

			_, err := svc.PlaceStockOrder(context.Background(), tt.params)
			orderErr := requireOrderError(t, err, FailureValidation)
			if orderErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, orderErr.Field)
			}
			if orderErr.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, orderErr.Message)
			}
			if len(broker.submitted) != 0 {
				t.Fatalf("expected no submission, got %d", len(broker.submitted))
			}
			if len(journal.entries) != 0 {
				t.Fatalf("validation failures must not be journaled")
			}
		})
	}
}

func TestPlaceStockOrderShapes(t *testing.T) {
	tests := []struct {
		name   string
		params StockOrderParams
		check  func(t *testing.T, req entity.PlaceOrderRequest)
	}{
		{
			name:   "limit",
			params: StockOrderParams{Symbol: "AAPL", Side: "BUY", Quantity: dec("5"), OrderType: "Limit", LimitPrice: dec("150.25")},
			check: func(t *testing.T, req entity.PlaceOrderRequest) {
				if req.Type != entity.OrderTypeLimit || req.LimitPrice == nil || req.LimitPrice.String() != "150.25" || req.StopPrice != nil {
					t.Fatalf("unexpected limit request: %+v", req)
				}
			},
		},
		{
			name:   "stop limit",
			params: StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("5"), OrderType: "stop_limit", StopPrice: dec("140"), LimitPrice: dec("139.5"), TimeInForce: "gtc"},
			check: func(t *testing.T, req entity.PlaceOrderRequest) {
				if req.StopPrice.String() != "140" || req.LimitPrice.String() != "139.5" || req.TimeInForce != entity.TimeInForceGTC {
					t.Fatalf("unexpected stop limit request: %+v", req)
				}
			},
		},
		{
			name:   "trailing stop percent",
			params: StockOrderParams{Symbol: "AAPL", Side: "sell", Quantity: dec("5"), OrderType: "trailing_stop", TrailPercent: dec("2.5")},
			check: func(t *testing.T, req entity.PlaceOrderRequest) {
				if req.TrailPrice != nil || req.TrailPercent == nil || req.TrailPercent.String() != "2.5" {
					t.Fatalf("unexpected trailing stop request: %+v", req)
				}
			},
		},
		{
			name:   "extended hours and caller token",
			params: StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1.5"), OrderType: "limit", LimitPrice: dec("1"), ExtendedHours: true, ClientOrderID: "my-token"},
			check: func(t *testing.T, req entity.PlaceOrderRequest) {
				if !req.ExtendedHours || req.ClientOrderID != "my-token" || req.Quantity.String() != "1.5" {
					t.Fatalf("unexpected request: %+v", req)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{}
			_, err := newTestService(broker).PlaceStockOrder(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(broker.submitted) != 1 {
				t.Fatalf("expected 1 submission, got %d", len(broker.submitted))
			}
			tt.check(t, broker.submitted[0])
		})
	}
}

func TestGeneratedClientOrderIDsDifferAcrossTime(t *testing.T) {
	first, err := BuildStockOrder(StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1")}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildStockOrder(StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1")}, fixedNow.Add(time.Nanosecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ClientOrderID == "" || first.ClientOrderID == second.ClientOrderID {
		t.Fatalf("expected distinct tokens, got %q and %q", first.ClientOrderID, second.ClientOrderID)
	}

	option, err := BuildOptionMarketOrder(OptionOrderParams{Legs: []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "buy", RatioQty: dec("1")}}}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(option.ClientOrderID, "mcp_opt_") || !strings.HasPrefix(first.ClientOrderID, "order_") {
		t.Fatalf("unexpected prefixes: %q %q", option.ClientOrderID, first.ClientOrderID)
	}
}

func TestPlaceOptionMarketOrderValidation(t *testing.T) {
	leg := OptionLegParams{Symbol: "SPY260117C00500000", Side: "buy", RatioQty: dec("1")}

	tests := []struct {
		name    string
		params  OptionOrderParams
		message string
	}{
		{
			name:    "no legs",
			params:  OptionOrderParams{},
			message: "No option legs provided",
		},
		{
			name:    "five legs",
			params:  OptionOrderParams{Legs: []OptionLegParams{leg, leg, leg, leg, leg}},
			message: "a maximum of 4 legs is allowed for option orders, got 5",
		},
		{
			name:    "fractional quantity",
			params:  OptionOrderParams{Legs: []OptionLegParams{leg}, Quantity: dec("1.5")},
			message: "Invalid quantity: 1.5. Must be a positive whole number of contracts.",
		},
		{
			name:    "fractional ratio",
			params:  OptionOrderParams{Legs: []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "buy", RatioQty: dec("1.5")}}},
			message: "Leg 1: ratio_qty must be a positive integer, got 1.5.",
		},
		{
			name:    "oversized ratio",
			params:  OptionOrderParams{Legs: []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "buy", RatioQty: dec("99999999999999999999")}}},
			message: "Leg 1: ratio_qty must be at most 10000, got 99999999999999999999.",
		},
		{
			name:    "missing ratio",
			params:  OptionOrderParams{Legs: []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "buy"}}},
			message: "Leg 1: ratio_qty must be a positive integer, got missing.",
		},
		{
			name:    "bad leg side",
			params:  OptionOrderParams{Legs: []OptionLegParams{leg, {Symbol: "SPY260117P00500000", Side: "short", RatioQty: dec("1")}}},
			message: "Leg 2: invalid side short. Must be 'buy' or 'sell'.",
		},
		{
			name:    "simple class with two legs",
			params:  OptionOrderParams{Legs: []OptionLegParams{leg, leg}, OrderClass: "simple"},
			message: "order_class SIMPLE supports a single leg; use MLEG for 2 legs.",
		},
		{
			name:    "unknown class",
			params:  OptionOrderParams{Legs: []OptionLegParams{leg}, OrderClass: "spread"},
			message: "Invalid order_class: spread. Must be one of: SIMPLE, BRACKET, OCO, OTO, MLEG.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{}
			_, err := newTestService(broker).PlaceOptionMarketOrder(context.Background(), tt.params)
			orderErr := requireOrderError(t, err, FailureValidation)
			if orderErr.Message != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, orderErr.Message)
			}
			if len(broker.submitted) != 0 {
				t.Fatalf("expected no submission, got %d", len(broker.submitted))
			}
		})
	}
}

func TestPlaceOptionMarketOrderClassInference(t *testing.T) {
	broker := &fakeBroker{}
	svc := newTestService(broker)

	_, err := svc.PlaceOptionMarketOrder(context.Background(), OptionOrderParams{
		Legs: []OptionLegParams{
			{Symbol: "spy260117c00500000", Side: "sell", RatioQty: dec("1")},
			{Symbol: "SPY260117P00500000", Side: "sell", RatioQty: dec("2")},
		},
		Quantity: dec("3"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.PlaceOptionMarketOrder(context.Background(), OptionOrderParams{
		Legs:          []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "buy", RatioQty: dec("1")}},
		ClientOrderID: "caller-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	multi := broker.submitted[0]
	if multi.OrderClass != entity.OrderClassMLEG || len(multi.Legs) != 2 || multi.Symbol != "" || multi.Side != "" {
		t.Fatalf("unexpected multi-leg request: %+v", multi)
	}
	if multi.Legs[0].Symbol != "SPY260117C00500000" || multi.Legs[1].RatioQty != 2 || multi.Quantity.String() != "3" {
		t.Fatalf("unexpected legs: %+v", multi.Legs)
	}
	if multi.Type != entity.OrderTypeMarket || multi.TimeInForce != entity.TimeInForceDay {
		t.Fatalf("unexpected type or tif: %+v", multi)
	}

	single := broker.submitted[1]
	if single.OrderClass != entity.OrderClassSimple || len(single.Legs) != 0 || single.Symbol != "SPY260117C00500000" || single.Side != entity.OrderSideBuy {
		t.Fatalf("unexpected single-leg request: %+v", single)
	}
	if single.Quantity.String() != "1" || single.ClientOrderID != "caller-1" {
		t.Fatalf("expected default quantity and caller token, got %+v", single)
	}
}

func TestUncoveredRejectionClassification(t *testing.T) {
	uncovered := &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310000, Message: "account not eligible to trade uncovered option contracts"}

	tests := []struct {
		name   string
		legs   []OptionLegParams
		reason RejectionReason
	}{
		{
			name: "short straddle",
			legs: []OptionLegParams{
				{Symbol: "SPY260117C00500000", Side: "sell", RatioQty: dec("1")},
				{Symbol: "SPY260117P00500000", Side: "sell", RatioQty: dec("1")},
			},
			reason: ReasonUncoveredShortStraddle,
		},
		{
			name: "short strangle",
			legs: []OptionLegParams{
				{Symbol: "SPY260117C00510000", Side: "sell", RatioQty: dec("1")},
				{Symbol: "SPY260117P00490000", Side: "sell", RatioQty: dec("1")},
			},
			reason: ReasonUncoveredShortStrangle,
		},
		{
			name: "short calendar",
			legs: []OptionLegParams{
				{Symbol: "SPY260117C00500000", Side: "sell", RatioQty: dec("1")},
				{Symbol: "SPY260220C00500000", Side: "sell", RatioQty: dec("1")},
			},
			reason: ReasonUncoveredShortCalendar,
		},
		{
			name: "one long leg",
			legs: []OptionLegParams{
				{Symbol: "SPY260117C00500000", Side: "buy", RatioQty: dec("1")},
				{Symbol: "SPY260117P00500000", Side: "sell", RatioQty: dec("1")},
			},
			reason: ReasonUncoveredOptions,
		},
		{
			name:   "naked call",
			legs:   []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "sell", RatioQty: dec("1")}},
			reason: ReasonUncoveredOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{err: uncovered}
			_, err := newTestService(broker).PlaceOptionMarketOrder(context.Background(), OptionOrderParams{Legs: tt.legs})

			orderErr := requireOrderError(t, err, FailureRejected)
			if orderErr.Reason != tt.reason {
				t.Fatalf("expected reason %s, got %s", tt.reason, orderErr.Reason)
			}
			if !strings.Contains(orderErr.Message, "Level 4") {
				t.Fatalf("expected Level 4 explanation, got %q", orderErr.Message)
			}
			if !errors.Is(err, uncovered) {
				t.Fatalf("expected cause to be preserved")
			}
			if len(broker.submitted) != 1 {
				t.Fatalf("expected exactly one submission, got %d", len(broker.submitted))
			}
		})
	}
}

func TestSubmitErrorClassification(t *testing.T) {
	optionLegs := []OptionLegParams{{Symbol: "SPY260117C00500000", Side: "sell", RatioQty: dec("1")}}

	tests := []struct {
		name   string
		family entity.OrderFamily
		err    error
		kind   FailureKind
		reason RejectionReason
	}{
		{
			name:   "option uncovered by message without code",
			family: entity.OrderFamilyOption,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusUnprocessableEntity, Message: "Account not eligible to trade uncovered option contracts"},
			kind:   FailureRejected,
			reason: ReasonUncoveredOptions,
		},
		{
			name:   "option forbidden",
			family: entity.OrderFamilyOption,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310100, Message: "trading is not allowed"},
			kind:   FailureRejected,
			reason: ReasonPermissionDenied,
		},
		{
			name:   "option buying power with generic forbidden code",
			family: entity.OrderFamilyOption,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310000, Message: "insufficient buying power"},
			kind:   FailureRejected,
			reason: ReasonPermissionDenied,
		},
		{
			name:   "option uncovered message with another code",
			family: entity.OrderFamilyOption,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusUnprocessableEntity, Code: 42210000, Message: "not eligible to trade uncovered option contracts"},
			kind:   FailureRejected,
			reason: ReasonGeneric,
		},
		{
			name:   "stock buying power with generic forbidden code",
			family: entity.OrderFamilyStock,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310000, Message: "insufficient buying power"},
			kind:   FailureRejected,
			reason: ReasonGeneric,
		},
		{
			name:   "stock forbidden",
			family: entity.OrderFamilyStock,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310100, Message: "trading is not allowed"},
			kind:   FailureRejected,
			reason: ReasonGeneric,
		},
		{
			name:   "stock with uncovered text",
			family: entity.OrderFamilyStock,
			err:    &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310000, Message: "not eligible to trade uncovered option contracts"},
			kind:   FailureRejected,
			reason: ReasonGeneric,
		},
		{
			name:   "network failure",
			family: entity.OrderFamilyStock,
			err:    errors.New("dial tcp: connection refused"),
			kind:   FailureTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{err: tt.err}
			svc := newTestService(broker)

			var err error
			if tt.family == entity.OrderFamilyOption {
				_, err = svc.PlaceOptionMarketOrder(context.Background(), OptionOrderParams{Legs: optionLegs})
			} else {
				_, err = svc.PlaceStockOrder(context.Background(), StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1")})
			}

			orderErr := requireOrderError(t, err, tt.kind)
			if orderErr.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, orderErr.Reason)
			}
			if tt.family == entity.OrderFamilyStock && tt.kind == FailureRejected {
				var apiErr *entity.BrokerAPIError
				if !errors.As(tt.err, &apiErr) || orderErr.Message != apiErr.Message {
					t.Fatalf("expected the broker message for stock orders, got %q", orderErr.Message)
				}
			}
		})
	}
}

func TestThrottle(t *testing.T) {
	t.Run("denied", func(t *testing.T) {
		broker := &fakeBroker{}
		svc := newTestService(broker)
		svc.throttle = fakeThrottle{allowed: false}

		_, err := svc.PlaceStockOrder(context.Background(), StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1")})
		orderErr := requireOrderError(t, err, FailureThrottled)
		if !strings.Contains(orderErr.Message, "30s") {
			t.Fatalf("expected retry hint, got %q", orderErr.Message)
		}
		if len(broker.submitted) != 0 {
			t.Fatalf("throttled order must not be submitted")
		}
	})

	t.Run("unavailable throttle does not block", func(t *testing.T) {
		broker := &fakeBroker{}
		svc := newTestService(broker)
		svc.throttle = fakeThrottle{err: errors.New("redis down")}

		if _, err := svc.PlaceStockOrder(context.Background(), StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("1")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(broker.submitted) != 1 {
			t.Fatalf("expected submission, got %d", len(broker.submitted))
		}
	})
}

func TestJournalEntries(t *testing.T) {
	journal := &fakeJournal{}
	broker := &fakeBroker{}
	svc := newTestService(broker)
	svc.journal = journal
	svc.metrics = NewMetrics(prometheus.NewRegistry())

	if _, err := svc.PlaceStockOrder(context.Background(), StockOrderParams{Symbol: "AAPL", Side: "buy", Quantity: dec("2")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broker.err = &entity.BrokerAPIError{StatusCode: http.StatusForbidden, Code: 40310000, Message: "not eligible to trade uncovered option contracts"}
	_, _ = svc.PlaceOptionMarketOrder(context.Background(), OptionOrderParams{Legs: []OptionLegParams{
		{Symbol: "SPY260117C00500000", Side: "sell", RatioQty: dec("1")},
		{Symbol: "SPY260117P00500000", Side: "sell", RatioQty: dec("1")},
	}})

	if len(journal.entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(journal.entries))
	}

	accepted := journal.entries[0]
	if accepted.Outcome != entity.OrderJournalOutcomeAccepted || accepted.RemoteOrderID.String != "ord-1" || accepted.Family != entity.OrderFamilyStock {
		t.Fatalf("unexpected accepted entry: %+v", accepted)
	}
	if accepted.ID == "" || !accepted.Side.Valid || accepted.Side.String != "BUY" {
		t.Fatalf("unexpected accepted entry identity: %+v", accepted)
	}

	rejected := journal.entries[1]
	if rejected.Outcome != entity.OrderJournalOutcomeRejected || rejected.FailureReason.String != string(ReasonUncoveredShortStraddle) {
		t.Fatalf("unexpected rejected entry: %+v", rejected)
	}
	if rejected.Symbol != "SPY260117C00500000,SPY260117P00500000" || len(rejected.Legs) == 0 || rejected.Side.Valid {
		t.Fatalf("unexpected rejected legs: %+v", rejected)
	}
}

func TestClosePosition(t *testing.T) {
	t.Run("qty and percentage are exclusive", func(t *testing.T) {
		broker := &fakeBroker{}
		_, err := newTestService(broker).ClosePosition(context.Background(), "AAPL", dec("1"), dec("50"))
		requireOrderError(t, err, FailureValidation)
		if broker.closed != 0 {
			t.Fatalf("expected no remote call")
		}
	})

	t.Run("percentage out of range", func(t *testing.T) {
		broker := &fakeBroker{}
		_, err := newTestService(broker).ClosePosition(context.Background(), "AAPL", decimal.NullDecimal{}, dec("150"))
		requireOrderError(t, err, FailureValidation)
	})

	t.Run("zero size rejection", func(t *testing.T) {
		broker := &fakeBroker{err: &entity.BrokerAPIError{StatusCode: http.StatusUnprocessableEntity, Code: 42210000, Message: "request would result in order size of zero"}}
		_, err := newTestService(broker).ClosePosition(context.Background(), "AAPL", decimal.NullDecimal{}, dec("1"))
		orderErr := requireOrderError(t, err, FailureRejected)
		if orderErr.Reason != ReasonZeroQuantity || !strings.Contains(orderErr.Message, "less than one share") {
			t.Fatalf("unexpected rejection: %+v", orderErr)
		}
	})

	t.Run("whole position", func(t *testing.T) {
		broker := &fakeBroker{}
		order, err := newTestService(broker).ClosePosition(context.Background(), "aapl", decimal.NullDecimal{}, decimal.NullDecimal{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Symbol != "AAPL" || broker.closed != 1 {
			t.Fatalf("unexpected close: %+v", order)
		}
	})
}

func TestParseOCCSymbol(t *testing.T) {
	tests := []struct {
		raw  string
		want occSymbol
		ok   bool
	}{
		{raw: "SPY260117C00500000", want: occSymbol{Root: "SPY", Expiry: "260117", Right: 'C', Strike: "00500000"}, ok: true},
		{raw: "aapl  260220p00187500", want: occSymbol{Root: "AAPL", Expiry: "260220", Right: 'P', Strike: "00187500"}, ok: true},
		{raw: "BRKB260117C00500000", want: occSymbol{Root: "BRKB", Expiry: "260117", Right: 'C', Strike: "00500000"}, ok: true},
		{raw: "260117C00500000"},
		{raw: "SPY260117X00500000"},
		{raw: "SPY2601A7C00500000"},
		{raw: "AAPL"},
	}

	for _, tt := range tests {
		got, ok := parseOCCSymbol(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("parseOCCSymbol(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
