package entity

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type OrderSide string
type OrderType string
type TimeInForce string
type OrderClass string
type OrderFamily string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderTypeMarket       OrderType = "MARKET"
	OrderTypeLimit        OrderType = "LIMIT"
	OrderTypeStop         OrderType = "STOP"
	OrderTypeStopLimit    OrderType = "STOP_LIMIT"
	OrderTypeTrailingStop OrderType = "TRAILING_STOP"

	TimeInForceDay TimeInForce = "DAY"
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceOPG TimeInForce = "OPG"
	TimeInForceCLS TimeInForce = "CLS"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"

	OrderClassSimple  OrderClass = "SIMPLE"
	OrderClassBracket OrderClass = "BRACKET"
	OrderClassOCO     OrderClass = "OCO"
	OrderClassOTO     OrderClass = "OTO"
	OrderClassMLEG    OrderClass = "MLEG"

	OrderFamilyStock  OrderFamily = "stock"
	OrderFamilyOption OrderFamily = "option"
)

var (
	orderSides   = []OrderSide{OrderSideBuy, OrderSideSell}
	orderTypes   = []OrderType{OrderTypeMarket, OrderTypeLimit, OrderTypeStop, OrderTypeStopLimit, OrderTypeTrailingStop}
	timeInForces = []TimeInForce{TimeInForceDay, TimeInForceGTC, TimeInForceOPG, TimeInForceCLS, TimeInForceIOC, TimeInForceFOK}
	orderClasses = []OrderClass{OrderClassSimple, OrderClassBracket, OrderClassOCO, OrderClassOTO, OrderClassMLEG}
)

// ParseOrderSide matches raw case-insensitively after trimming.
func ParseOrderSide(raw string) (OrderSide, bool) {
	return parseEnum(raw, orderSides)
}

func ParseOrderType(raw string) (OrderType, bool) {
	return parseEnum(raw, orderTypes)
}

func ParseTimeInForce(raw string) (TimeInForce, bool) {
	return parseEnum(raw, timeInForces)
}

func ParseOrderClass(raw string) (OrderClass, bool) {
	return parseEnum(raw, orderClasses)
}

func parseEnum[T ~string](raw string, values []T) (T, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	for _, v := range values {
		if string(v) == normalized {
			return v, true
		}
	}

	var zero T
	return zero, false
}

// The broker speaks lower-case enum values; internally they stay upper-case.

func (s OrderSide) MarshalJSON() ([]byte, error)    { return marshalLower(string(s)) }
func (s *OrderSide) UnmarshalJSON(b []byte) error   { return unmarshalUpper(b, (*string)(s)) }
func (t OrderType) MarshalJSON() ([]byte, error)    { return marshalLower(string(t)) }
func (t *OrderType) UnmarshalJSON(b []byte) error   { return unmarshalUpper(b, (*string)(t)) }
func (t TimeInForce) MarshalJSON() ([]byte, error)  { return marshalLower(string(t)) }
func (t *TimeInForce) UnmarshalJSON(b []byte) error { return unmarshalUpper(b, (*string)(t)) }
func (c OrderClass) MarshalJSON() ([]byte, error)   { return marshalLower(string(c)) }
func (c *OrderClass) UnmarshalJSON(b []byte) error  { return unmarshalUpper(b, (*string)(c)) }

func marshalLower(v string) ([]byte, error) {
	return json.Marshal(strings.ToLower(v))
}

func unmarshalUpper(b []byte, dst *string) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*dst = ""
		return nil
	}

	*dst = strings.ToUpper(*raw)
	return nil
}

type OptionLeg struct {
	Symbol   string    `json:"symbol"`
	Side     OrderSide `json:"side"`
	RatioQty int       `json:"ratio_qty"`
}

// PlaceOrderRequest is the order body submitted to the broker.
type PlaceOrderRequest struct {
	Symbol        string           `json:"symbol,omitempty"`
	Quantity      decimal.Decimal  `json:"qty"`
	Side          OrderSide        `json:"side,omitempty"`
	Type          OrderType        `json:"type"`
	TimeInForce   TimeInForce      `json:"time_in_force"`
	OrderClass    OrderClass       `json:"order_class,omitempty"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	TrailPrice    *decimal.Decimal `json:"trail_price,omitempty"`
	TrailPercent  *decimal.Decimal `json:"trail_percent,omitempty"`
	ExtendedHours bool             `json:"extended_hours"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
	Legs          []OptionLeg      `json:"legs,omitempty"`
}

type Order struct {
	ID             string           `json:"id"`
	ClientOrderID  string           `json:"client_order_id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	SubmittedAt    *time.Time       `json:"submitted_at"`
	FilledAt       *time.Time       `json:"filled_at"`
	CanceledAt     *time.Time       `json:"canceled_at"`
	Symbol         string           `json:"symbol"`
	AssetClass     string           `json:"asset_class"`
	Quantity       *decimal.Decimal `json:"qty"`
	FilledQuantity decimal.Decimal  `json:"filled_qty"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price"`
	OrderClass     OrderClass       `json:"order_class"`
	Type           OrderType        `json:"type"`
	Side           OrderSide        `json:"side"`
	TimeInForce    TimeInForce      `json:"time_in_force"`
	LimitPrice     *decimal.Decimal `json:"limit_price"`
	StopPrice      *decimal.Decimal `json:"stop_price"`
	TrailPrice     *decimal.Decimal `json:"trail_price"`
	TrailPercent   *decimal.Decimal `json:"trail_percent"`
	Status         string           `json:"status"`
	ExtendedHours  bool             `json:"extended_hours"`
	RatioQty       *decimal.Decimal `json:"ratio_qty"`
	Legs           []Order          `json:"legs"`
}

// TerminalOrderStatuses are the statuses the broker will no longer change.
var TerminalOrderStatuses = []string{"filled", "canceled", "expired", "rejected", "replaced"}

func OrderStatusIsTerminal(status string) bool {
	normalized := strings.ToLower(strings.TrimSpace(status))
	for _, terminal := range TerminalOrderStatuses {
		if terminal == normalized {
			return true
		}
	}

	return false
}

type CancelStatus struct {
	ID     string          `json:"id"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type ClosePositionStatus struct {
	Symbol string          `json:"symbol"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// OrderID extracts the id of the closing order from the response body.
func (s ClosePositionStatus) OrderID() string {
	var body struct {
		ID string `json:"id"`
	}
	if len(s.Body) == 0 || json.Unmarshal(s.Body, &body) != nil {
		return ""
	}

	return body.ID
}
