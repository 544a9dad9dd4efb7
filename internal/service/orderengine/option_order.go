package orderengine

import (
	"strings"
	"time"

	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

const maxLegRatio = 10000

type OptionLegParams struct {
	Symbol   string
	Side     string
	RatioQty decimal.NullDecimal
}

type OptionOrderParams struct {
	Legs          []OptionLegParams
	OrderClass    string
	Quantity      decimal.NullDecimal
	TimeInForce   string
	ExtendedHours bool
	ClientOrderID string
}

// BuildOptionMarketOrder validates a 1 to 4 leg option market order. The order
// class defaults to MLEG for multiple legs and SIMPLE otherwise; a single-leg
// order outside MLEG is sent as a plain order on the leg's contract.
func BuildOptionMarketOrder(params OptionOrderParams, now time.Time) (entity.PlaceOrderRequest, error) {
	if len(params.Legs) == 0 {
		return entity.PlaceOrderRequest{}, validationError("legs", "No option legs provided")
	}
	if len(params.Legs) > constant.MaxOptionLegs {
		return entity.PlaceOrderRequest{}, validationError("legs", "a maximum of %d legs is allowed for option orders, got %d", constant.MaxOptionLegs, len(params.Legs))
	}

	quantity := decimal.NewFromInt(1)
	if params.Quantity.Valid {
		quantity = params.Quantity.Decimal
	}
	if !quantity.IsPositive() || !quantity.IsInteger() {
		return entity.PlaceOrderRequest{}, validationError("quantity", "Invalid quantity: %s. Must be a positive whole number of contracts.", quantity.String())
	}

	timeInForce, orderErr := parseTimeInForce(params.TimeInForce)
	if orderErr != nil {
		return entity.PlaceOrderRequest{}, orderErr
	}

	orderClass, orderErr := resolveOrderClass(params.OrderClass, len(params.Legs))
	if orderErr != nil {
		return entity.PlaceOrderRequest{}, orderErr
	}

	legs := make([]entity.OptionLeg, 0, len(params.Legs))
	for idx, leg := range params.Legs {
		built, orderErr := buildOptionLeg(idx+1, leg)
		if orderErr != nil {
			return entity.PlaceOrderRequest{}, orderErr
		}
		legs = append(legs, built)
	}

	req := entity.PlaceOrderRequest{
		Quantity:      quantity,
		Type:          entity.OrderTypeMarket,
		TimeInForce:   timeInForce,
		OrderClass:    orderClass,
		ExtendedHours: params.ExtendedHours,
		ClientOrderID: resolveClientOrderID(params.ClientOrderID, constant.ClientOrderIDOptionPrefix, now),
	}

	if orderClass == entity.OrderClassMLEG {
		req.Legs = legs
	} else {
		req.Symbol = legs[0].Symbol
		req.Side = legs[0].Side
	}

	return req, nil
}

func resolveOrderClass(raw string, legCount int) (entity.OrderClass, *OrderError) {
	if strings.TrimSpace(raw) == "" {
		if legCount > 1 {
			return entity.OrderClassMLEG, nil
		}
		return entity.OrderClassSimple, nil
	}

	orderClass, ok := entity.ParseOrderClass(raw)
	if !ok {
		return "", validationError("order_class", "Invalid order_class: %s. Must be one of: SIMPLE, BRACKET, OCO, OTO, MLEG.", raw)
	}

	if orderClass != entity.OrderClassMLEG && legCount > 1 {
		return "", validationError("order_class", "order_class %s supports a single leg; use MLEG for %d legs.", orderClass, legCount)
	}

	return orderClass, nil
}

func buildOptionLeg(position int, leg OptionLegParams) (entity.OptionLeg, *OrderError) {
	symbol := strings.ToUpper(strings.TrimSpace(leg.Symbol))
	if symbol == "" {
		return entity.OptionLeg{}, validationError("legs.symbol", "Leg %d: symbol is required.", position)
	}

	if !leg.RatioQty.Valid || !leg.RatioQty.Decimal.IsPositive() || !leg.RatioQty.Decimal.IsInteger() {
		return entity.OptionLeg{}, validationError("legs.ratio_qty", "Leg %d: ratio_qty must be a positive integer, got %s.", position, nullDecimalString(leg.RatioQty))
	}

	if leg.RatioQty.Decimal.GreaterThan(decimal.NewFromInt(maxLegRatio)) {
		return entity.OptionLeg{}, validationError("legs.ratio_qty", "Leg %d: ratio_qty must be at most %d, got %s.", position, maxLegRatio, nullDecimalString(leg.RatioQty))
	}

	side, ok := entity.ParseOrderSide(leg.Side)
	if !ok {
		return entity.OptionLeg{}, validationError("legs.side", "Leg %d: invalid side %s. Must be 'buy' or 'sell'.", position, leg.Side)
	}

	return entity.OptionLeg{
		Symbol:   symbol,
		Side:     side,
		RatioQty: int(leg.RatioQty.Decimal.IntPart()),
	}, nil
}
