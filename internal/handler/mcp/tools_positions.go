package mcp

import (
	"context"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderengine"
	"github.com/shopspring/decimal"
)

type closePositionArgs struct {
	Symbol     string      `json:"symbol"`
	Qty        null.String `json:"qty"`
	Percentage null.String `json:"percentage"`
}

type closeAllPositionsArgs struct {
	CancelOrders null.Bool `json:"cancel_orders"`
}

const closePositionSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Symbol of the position to close"},
    "qty": {"type": "string", "description": "Number of shares to liquidate"},
    "percentage": {"type": "string", "description": "Percentage of the position to liquidate, must amount to at least one share"}
  },
  "required": ["symbol"]
}`

const closeAllPositionsSchema = `{
  "type": "object",
  "properties": {
    "cancel_orders": {"type": "boolean", "default": false, "description": "Cancel all open orders before liquidating"}
  }
}`

func (ts *toolset) positionTools() []Tool {
	return []Tool{
		typedTool("close_position",
			"Closes all or part of the position in a single symbol.",
			closePositionSchema, ts.closePosition),
		typedTool("close_all_positions",
			"Closes all open positions.",
			closeAllPositionsSchema, ts.closeAllPositions),
	}
}

func (ts *toolset) closePosition(ctx context.Context, args closePositionArgs) Result {
	qty, err := optionalDecimal(args.Qty)
	if err != nil {
		return errorResult("Error closing position: invalid qty %q", args.Qty.ValueOrZero())
	}
	percentage, err := optionalDecimal(args.Percentage)
	if err != nil {
		return errorResult("Error closing position: invalid percentage %q", args.Percentage.ValueOrZero())
	}

	symbol := normalizeSymbol(args.Symbol)
	order, err := ts.Orders.ClosePosition(ctx, symbol, qty, percentage)
	if err != nil {
		orderErr, ok := orderengine.AsOrderError(err)
		switch {
		case !ok:
			return errorResult("Error closing position: %s", err.Error())
		case orderErr.Kind == orderengine.FailureValidation, orderErr.Reason == orderengine.ReasonZeroQuantity:
			return errorResult("%s", orderErr.Message)
		default:
			return errorResult("Error closing position: %s", orderErr.Message)
		}
	}

	var out textBlock
	out.line("Position Closed Successfully:")
	out.line(separatorShort)
	out.field("Symbol", symbol)
	out.field("Order ID", order.ID)
	out.field("Status", order.Status)

	return okResult(out.String())
}

func (ts *toolset) closeAllPositions(ctx context.Context, args closeAllPositionsArgs) Result {
	statuses, err := ts.Trading.CloseAllPositions(ctx, args.CancelOrders.ValueOrZero())
	if err != nil {
		return errorResult("Error closing positions: %s", brokerMessage(err))
	}
	if len(statuses) == 0 {
		return okResult("No positions were found to close.")
	}

	var out textBlock
	out.line("Position Closure Results:")
	out.line(strings.Repeat("-", 30))
	for _, status := range statuses {
		out.field("Symbol", status.Symbol)
		out.field("Status", status.Status)
		if orderID := status.OrderID(); orderID != "" {
			out.field("Order ID", orderID)
		}
		out.line(strings.Repeat("-", 30))
	}

	return okResult(out.String())
}

// optionalDecimal treats a missing or blank string as absent.
func optionalDecimal(raw null.String) (decimal.NullDecimal, error) {
	value := strings.TrimSpace(raw.ValueOrZero())
	if value == "" {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	return decimal.NewNullDecimal(d), nil
}
