package mcp

import (
	"context"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderengine"
	"github.com/shopspring/decimal"
)

const defaultOrdersLimit = 10

type getOrdersArgs struct {
	Status null.String `json:"status"`
	Limit  null.Int    `json:"limit"`
}

type placeStockOrderArgs struct {
	Symbol        string              `json:"symbol"`
	Side          string              `json:"side"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	OrderType     null.String         `json:"order_type"`
	TimeInForce   null.String         `json:"time_in_force"`
	LimitPrice    decimal.NullDecimal `json:"limit_price"`
	StopPrice     decimal.NullDecimal `json:"stop_price"`
	TrailPrice    decimal.NullDecimal `json:"trail_price"`
	TrailPercent  decimal.NullDecimal `json:"trail_percent"`
	ExtendedHours null.Bool           `json:"extended_hours"`
	ClientOrderID null.String         `json:"client_order_id"`
}

type cancelOrderArgs struct {
	OrderID string `json:"order_id"`
}

const getOrdersSchema = `{
  "type": "object",
  "properties": {
    "status": {"type": "string", "enum": ["open", "closed", "all"], "default": "all"},
    "limit": {"type": "integer", "minimum": 1, "default": 10}
  }
}`

const placeStockOrderSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"},
    "side": {"type": "string", "enum": ["buy", "sell"]},
    "quantity": {"type": "number", "exclusiveMinimum": 0, "description": "Number of shares"},
    "order_type": {"type": "string", "enum": ["market", "limit", "stop", "stop_limit", "trailing_stop"], "default": "market"},
    "time_in_force": {"type": "string", "enum": ["day", "gtc", "opg", "cls", "ioc", "fok"], "default": "day"},
    "limit_price": {"type": "number", "description": "Required for limit and stop_limit orders"},
    "stop_price": {"type": "number", "description": "Required for stop and stop_limit orders"},
    "trail_price": {"type": "number", "description": "Trailing stop offset in dollars"},
    "trail_percent": {"type": "number", "description": "Trailing stop offset in percent"},
    "extended_hours": {"type": "boolean", "default": false},
    "client_order_id": {"type": "string", "description": "Optional caller supplied order token"}
  },
  "required": ["symbol", "side", "quantity"]
}`

const cancelOrderSchema = `{
  "type": "object",
  "properties": {
    "order_id": {"type": "string", "description": "The id of the order to cancel"}
  },
  "required": ["order_id"]
}`

func (ts *toolset) orderTools() []Tool {
	return []Tool{
		typedTool("get_orders",
			"Retrieves orders with the specified status.",
			getOrdersSchema, ts.getOrders),
		typedTool("place_stock_order",
			"Places a stock order of type market, limit, stop, stop_limit or trailing_stop.",
			placeStockOrderSchema, ts.placeStockOrder),
		typedTool("cancel_all_orders",
			"Cancels all open orders.",
			emptySchema, runNoArgs(ts.cancelAllOrders)),
		typedTool("cancel_order_by_id",
			"Cancels a specific order by its id.",
			cancelOrderSchema, ts.cancelOrderByID),
		typedTool("place_option_market_order",
			"Places a market order for options, single or multi-leg with up to 4 legs.",
			placeOptionOrderSchema, ts.placeOptionMarketOrder),
	}
}

func (ts *toolset) getOrders(ctx context.Context, args getOrdersArgs) Result {
	status := strings.ToLower(strings.TrimSpace(args.Status.ValueOrZero()))
	if status != "open" && status != "closed" {
		status = "all"
	}
	limit := int(args.Limit.ValueOrZero())
	if limit <= 0 {
		limit = defaultOrdersLimit
	}

	orders, err := ts.Trading.GetOrders(ctx, entity.OrderFilter{Status: status, Limit: limit})
	if err != nil {
		return errorResult("Error fetching orders: %s", brokerMessage(err))
	}
	if len(orders) == 0 {
		return okResult("No " + status + " orders found.")
	}

	var out textBlock
	out.linef("%s Orders (Last %d):", strings.ToUpper(status[:1])+status[1:], len(orders))
	out.line(separatorLong)
	for _, order := range orders {
		out.field("Symbol", order.Symbol)
		out.field("ID", order.ID)
		out.field("Type", wireValue(order.Type))
		out.field("Side", wireValue(order.Side))
		out.field("Quantity", decimalPtrString(order.Quantity))
		out.field("Status", order.Status)
		out.field("Submitted At", formatTimePtr(order.SubmittedAt))
		if order.FilledAt != nil {
			out.field("Filled At", formatTimePtr(order.FilledAt))
		}
		if order.FilledAvgPrice != nil {
			out.field("Filled Price", moneyPtr(order.FilledAvgPrice))
		}
		out.line(separatorLong)
	}

	return okResult(out.String())
}

func (ts *toolset) placeStockOrder(ctx context.Context, args placeStockOrderArgs) Result {
	receipt, err := ts.Orders.PlaceStockOrder(ctx, orderengine.StockOrderParams{
		Symbol:        args.Symbol,
		Side:          args.Side,
		Quantity:      args.Quantity,
		OrderType:     args.OrderType.ValueOrZero(),
		TimeInForce:   args.TimeInForce.ValueOrZero(),
		LimitPrice:    args.LimitPrice,
		StopPrice:     args.StopPrice,
		TrailPrice:    args.TrailPrice,
		TrailPercent:  args.TrailPercent,
		ExtendedHours: args.ExtendedHours.ValueOrZero(),
		ClientOrderID: args.ClientOrderID.ValueOrZero(),
	})
	if err != nil {
		return stockOrderFailure(err)
	}

	order := receipt.Order
	var out textBlock
	out.line("Order Placed Successfully:")
	out.line(separatorShort)
	out.field("Order ID", order.ID)
	out.field("Symbol", order.Symbol)
	out.field("Side", wireValue(order.Side))
	out.field("Quantity", decimalPtrString(order.Quantity))
	out.field("Type", wireValue(order.Type))
	out.field("Time In Force", wireValue(order.TimeInForce))
	out.field("Status", order.Status)
	out.field("Client Order ID", order.ClientOrderID)

	return okResult(out.String())
}

func stockOrderFailure(err error) Result {
	orderErr, ok := orderengine.AsOrderError(err)
	if !ok {
		return errorResult("Error placing order: %s", err.Error())
	}

	switch {
	case orderErr.Kind == orderengine.FailureValidation,
		orderErr.Kind == orderengine.FailureThrottled,
		orderErr.Reason == orderengine.ReasonPermissionDenied:
		return errorResult("%s", orderErr.Message)
	default:
		return errorResult("Error placing order: %s", orderErr.Message)
	}
}

func (ts *toolset) cancelAllOrders(ctx context.Context) Result {
	statuses, err := ts.Trading.CancelAllOrders(ctx)
	if err != nil {
		return errorResult("Error cancelling orders: %s", brokerMessage(err))
	}
	if len(statuses) == 0 {
		return okResult("No orders were found to cancel.")
	}

	var out textBlock
	out.line("Order Cancellation Results:")
	out.line(strings.Repeat("-", 30))
	for _, status := range statuses {
		out.field("Order ID", status.ID)
		out.field("Status", cancelStatusText(status.Status))
		if body := rawBody(status.Body); body != "" {
			out.field("Details", body)
		}
		out.line(strings.Repeat("-", 30))
	}

	return okResult(out.String())
}

func (ts *toolset) cancelOrderByID(ctx context.Context, args cancelOrderArgs) Result {
	orderID := strings.TrimSpace(args.OrderID)
	if orderID == "" {
		return missingArgument("order_id")
	}

	if err := ts.Trading.CancelOrder(ctx, orderID); err != nil {
		return errorResult("Error cancelling order %s: %s", orderID, brokerMessage(err))
	}

	var out textBlock
	out.line("Order Cancellation Result:")
	out.line(separatorShort)
	out.field("Order ID", orderID)
	out.field("Status", "Success")

	return okResult(out.String())
}

func cancelStatusText(code int) string {
	if code == 200 {
		return "Success"
	}

	return "Failed"
}
