package orderengine

import (
	"strconv"
	"strings"
	"time"

	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

// OrderShape is the price-field variant of a stock order. Exactly one shape is
// active per request and each shape carries only the fields its type needs.
type OrderShape interface {
	OrderType() entity.OrderType
	apply(req *entity.PlaceOrderRequest)
}

type MarketShape struct{}

type LimitShape struct {
	LimitPrice decimal.Decimal
}

type StopShape struct {
	StopPrice decimal.Decimal
}

type StopLimitShape struct {
	StopPrice  decimal.Decimal
	LimitPrice decimal.Decimal
}

// TrailingStopShape has exactly one of TrailPrice or TrailPercent set.
type TrailingStopShape struct {
	TrailPrice   *decimal.Decimal
	TrailPercent *decimal.Decimal
}

func (MarketShape) OrderType() entity.OrderType       { return entity.OrderTypeMarket }
func (LimitShape) OrderType() entity.OrderType        { return entity.OrderTypeLimit }
func (StopShape) OrderType() entity.OrderType         { return entity.OrderTypeStop }
func (StopLimitShape) OrderType() entity.OrderType    { return entity.OrderTypeStopLimit }
func (TrailingStopShape) OrderType() entity.OrderType { return entity.OrderTypeTrailingStop }

func (MarketShape) apply(req *entity.PlaceOrderRequest) {}

func (s LimitShape) apply(req *entity.PlaceOrderRequest) {
	req.LimitPrice = decimalPtr(s.LimitPrice)
}

func (s StopShape) apply(req *entity.PlaceOrderRequest) {
	req.StopPrice = decimalPtr(s.StopPrice)
}

func (s StopLimitShape) apply(req *entity.PlaceOrderRequest) {
	req.StopPrice = decimalPtr(s.StopPrice)
	req.LimitPrice = decimalPtr(s.LimitPrice)
}

func (s TrailingStopShape) apply(req *entity.PlaceOrderRequest) {
	req.TrailPrice = s.TrailPrice
	req.TrailPercent = s.TrailPercent
}

type StockOrderParams struct {
	Symbol        string
	Side          string
	Quantity      decimal.NullDecimal
	OrderType     string
	TimeInForce   string
	LimitPrice    decimal.NullDecimal
	StopPrice     decimal.NullDecimal
	TrailPrice    decimal.NullDecimal
	TrailPercent  decimal.NullDecimal
	ExtendedHours bool
	ClientOrderID string
}

// BuildStockOrder validates params and returns the request to submit. It
// checks side, time in force, symbol, quantity, order type and then the
// fields of the selected shape, stopping at the first failure.
func BuildStockOrder(params StockOrderParams, now time.Time) (entity.PlaceOrderRequest, error) {
	side, ok := entity.ParseOrderSide(params.Side)
	if !ok {
		return entity.PlaceOrderRequest{}, validationError("side", "Invalid order side: %s. Must be 'buy' or 'sell'.", params.Side)
	}

	timeInForce, orderErr := parseTimeInForce(params.TimeInForce)
	if orderErr != nil {
		return entity.PlaceOrderRequest{}, orderErr
	}

	symbol := strings.ToUpper(strings.TrimSpace(params.Symbol))
	if symbol == "" {
		return entity.PlaceOrderRequest{}, validationError("symbol", "Symbol is required.")
	}

	if !params.Quantity.Valid || !params.Quantity.Decimal.IsPositive() {
		return entity.PlaceOrderRequest{}, validationError("quantity", "Invalid quantity: %s. Must be a positive number.", nullDecimalString(params.Quantity))
	}

	shape, orderErr := resolveOrderShape(params)
	if orderErr != nil {
		return entity.PlaceOrderRequest{}, orderErr
	}

	req := entity.PlaceOrderRequest{
		Symbol:        symbol,
		Quantity:      params.Quantity.Decimal,
		Side:          side,
		Type:          shape.OrderType(),
		TimeInForce:   timeInForce,
		ExtendedHours: params.ExtendedHours,
		ClientOrderID: resolveClientOrderID(params.ClientOrderID, constant.ClientOrderIDStockPrefix, now),
	}
	shape.apply(&req)

	return req, nil
}

func resolveOrderShape(params StockOrderParams) (OrderShape, *OrderError) {
	rawType := strings.TrimSpace(params.OrderType)
	if rawType == "" {
		return MarketShape{}, nil
	}

	orderType, ok := entity.ParseOrderType(rawType)
	if !ok {
		return nil, validationError("order_type", "Invalid order type: %s. Must be one of: MARKET, LIMIT, STOP, STOP_LIMIT, TRAILING_STOP.", params.OrderType)
	}

	switch orderType {
	case entity.OrderTypeMarket:
		return MarketShape{}, nil
	case entity.OrderTypeLimit:
		limitPrice, err := requirePositive("limit_price", params.LimitPrice, orderType)
		if err != nil {
			return nil, err
		}
		return LimitShape{LimitPrice: limitPrice}, nil
	case entity.OrderTypeStop:
		stopPrice, err := requirePositive("stop_price", params.StopPrice, orderType)
		if err != nil {
			return nil, err
		}
		return StopShape{StopPrice: stopPrice}, nil
	case entity.OrderTypeStopLimit:
		stopPrice, err := requirePositive("stop_price", params.StopPrice, orderType)
		if err != nil {
			return nil, err
		}
		limitPrice, err := requirePositive("limit_price", params.LimitPrice, orderType)
		if err != nil {
			return nil, err
		}
		return StopLimitShape{StopPrice: stopPrice, LimitPrice: limitPrice}, nil
	default:
		return resolveTrailingStop(params)
	}
}

func resolveTrailingStop(params StockOrderParams) (OrderShape, *OrderError) {
	switch {
	case !params.TrailPrice.Valid && !params.TrailPercent.Valid:
		return nil, validationError("trail_price", "Either trail_price or trail_percent is required for TRAILING_STOP orders.")
	case params.TrailPrice.Valid && params.TrailPercent.Valid:
		return nil, validationError("trail_price", "Only one of trail_price or trail_percent may be set for TRAILING_STOP orders.")
	case params.TrailPrice.Valid:
		trailPrice, err := requirePositive("trail_price", params.TrailPrice, entity.OrderTypeTrailingStop)
		if err != nil {
			return nil, err
		}
		return TrailingStopShape{TrailPrice: decimalPtr(trailPrice)}, nil
	default:
		trailPercent, err := requirePositive("trail_percent", params.TrailPercent, entity.OrderTypeTrailingStop)
		if err != nil {
			return nil, err
		}
		return TrailingStopShape{TrailPercent: decimalPtr(trailPercent)}, nil
	}
}

func requirePositive(field string, value decimal.NullDecimal, orderType entity.OrderType) (decimal.Decimal, *OrderError) {
	if !value.Valid {
		return decimal.Decimal{}, validationError(field, "%s is required for %s orders.", field, orderType)
	}
	if !value.Decimal.IsPositive() {
		return decimal.Decimal{}, validationError(field, "%s must be positive for %s orders.", field, orderType)
	}

	return value.Decimal, nil
}

func parseTimeInForce(raw string) (entity.TimeInForce, *OrderError) {
	if strings.TrimSpace(raw) == "" {
		return entity.TimeInForceDay, nil
	}

	timeInForce, ok := entity.ParseTimeInForce(raw)
	if !ok {
		return "", validationError("time_in_force", "Invalid time_in_force: %s.", raw)
	}

	return timeInForce, nil
}

// resolveClientOrderID passes a caller token through unchanged and otherwise
// derives one from the submission time. Nanosecond resolution keeps tokens
// distinct for calls made within the same second.
func resolveClientOrderID(raw, prefix string, now time.Time) string {
	if clientOrderID := strings.TrimSpace(raw); clientOrderID != "" {
		return clientOrderID
	}

	return prefix + strconv.FormatInt(now.UnixNano(), 10)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "missing"
	}

	return d.Decimal.String()
}
