package mcp

import (
	"context"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderengine"
	"github.com/shopspring/decimal"
)

type optionContractsArgs struct {
	UnderlyingSymbol string      `json:"underlying_symbol"`
	ExpirationDate   null.String `json:"expiration_date"`
	StrikePriceGTE   null.String `json:"strike_price_gte"`
	StrikePriceLTE   null.String `json:"strike_price_lte"`
	Type             null.String `json:"type"`
	Status           null.String `json:"status"`
	RootSymbol       null.String `json:"root_symbol"`
	Limit            null.Int    `json:"limit"`
}

type optionQuoteArgs struct {
	Symbol string      `json:"symbol"`
	Feed   null.String `json:"feed"`
}

type optionSnapshotArgs struct {
	Symbols symbolList  `json:"symbol_or_symbols"`
	Feed    null.String `json:"feed"`
}

type optionLegArgs struct {
	Symbol   string              `json:"symbol"`
	Side     string              `json:"side"`
	RatioQty decimal.NullDecimal `json:"ratio_qty"`
}

type placeOptionOrderArgs struct {
	Legs          []optionLegArgs     `json:"legs"`
	OrderClass    null.String         `json:"order_class"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	TimeInForce   null.String         `json:"time_in_force"`
	ExtendedHours null.Bool           `json:"extended_hours"`
	ClientOrderID null.String         `json:"client_order_id"`
}

const optionContractsSchema = `{
  "type": "object",
  "properties": {
    "underlying_symbol": {"type": "string", "description": "Symbol of the underlying asset, e.g. AAPL"},
    "expiration_date": {"type": "string", "format": "date", "description": "Expiration date in YYYY-MM-DD format"},
    "strike_price_gte": {"type": "string", "description": "Minimum strike price"},
    "strike_price_lte": {"type": "string", "description": "Maximum strike price"},
    "type": {"type": "string", "enum": ["call", "put"]},
    "status": {"type": "string", "enum": ["active", "inactive"]},
    "root_symbol": {"type": "string"},
    "limit": {"type": "integer", "minimum": 1}
  },
  "required": ["underlying_symbol"]
}`

const optionQuoteSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Option contract symbol, e.g. AAPL230616C00150000"},
    "feed": {"type": "string", "enum": ["opra", "indicative"]}
  },
  "required": ["symbol"]
}`

const optionSnapshotSchema = `{
  "type": "object",
  "properties": {
    "symbol_or_symbols": {
      "anyOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ],
      "description": "One option contract symbol or a list of them"
    },
    "feed": {"type": "string", "enum": ["opra", "indicative"]}
  },
  "required": ["symbol_or_symbols"]
}`

const placeOptionOrderSchema = `{
  "type": "object",
  "properties": {
    "legs": {
      "type": "array",
      "minItems": 1,
      "maxItems": 4,
      "items": {
        "type": "object",
        "properties": {
          "symbol": {"type": "string", "description": "Option contract symbol"},
          "side": {"type": "string", "enum": ["buy", "sell"]},
          "ratio_qty": {"type": "integer", "minimum": 1}
        },
        "required": ["symbol", "side", "ratio_qty"]
      }
    },
    "order_class": {"type": "string", "enum": ["simple", "bracket", "oco", "oto", "mleg"], "description": "Defaults to simple for one leg and mleg for more"},
    "quantity": {"type": "integer", "minimum": 1, "default": 1},
    "time_in_force": {"type": "string", "enum": ["day", "gtc", "opg", "cls", "ioc", "fok"], "default": "day"},
    "extended_hours": {"type": "boolean", "default": false},
    "client_order_id": {"type": "string"}
  },
  "required": ["legs"]
}`

func (ts *toolset) optionTools() []Tool {
	return []Tool{
		typedTool("get_option_contracts",
			"Retrieves option contract metadata for an underlying symbol. Use get_option_latest_quote for prices.",
			optionContractsSchema, ts.getOptionContracts),
		typedTool("get_option_latest_quote",
			"Retrieves the latest quote for an option contract.",
			optionQuoteSchema, ts.getOptionLatestQuote),
		typedTool("get_option_snapshot",
			"Retrieves snapshots of option contracts including latest trade, quote, implied volatility and greeks.",
			optionSnapshotSchema, ts.getOptionSnapshot),
	}
}

func (ts *toolset) getOptionContracts(ctx context.Context, args optionContractsArgs) Result {
	underlying := normalizeSymbol(args.UnderlyingSymbol)
	if underlying == "" {
		return missingArgument("underlying_symbol")
	}

	contracts, err := ts.Trading.GetOptionContracts(ctx, entity.OptionContractFilter{
		UnderlyingSymbol: underlying,
		ExpirationDate:   args.ExpirationDate.ValueOrZero(),
		StrikePriceGTE:   args.StrikePriceGTE.ValueOrZero(),
		StrikePriceLTE:   args.StrikePriceLTE.ValueOrZero(),
		Type:             args.Type.ValueOrZero(),
		Status:           args.Status.ValueOrZero(),
		RootSymbol:       normalizeSymbol(args.RootSymbol.ValueOrZero()),
		Limit:            int(args.Limit.ValueOrZero()),
	})
	if err != nil {
		return errorResult("Error fetching option contracts: %s", brokerMessage(err))
	}
	if len(contracts) == 0 {
		return okResult("No option contracts found for " + underlying + " matching the criteria.")
	}

	var out textBlock
	out.linef("Option Contracts for %s:", underlying)
	out.line("----------------------------------------")
	for _, contract := range contracts {
		out.field("Symbol", contract.Symbol)
		out.field("Name", contract.Name)
		out.field("Type", contract.Type)
		out.field("Strike Price", money(contract.StrikePrice))
		out.field("Expiration Date", contract.ExpirationDate)
		out.field("Status", contract.Status)
		out.field("Root Symbol", contract.RootSymbol)
		out.field("Underlying Symbol", contract.UnderlyingSymbol)
		out.field("Exercise Style", contract.Style)
		out.field("Contract Size", contract.Size)
		out.field("Tradable", yesNo(contract.Tradable))
		out.field("Open Interest", nullDecimalText(contract.OpenInterest))
		out.field("Close Price", nullMoney(contract.ClosePrice))
		out.field("Close Price Date", orDefault(contract.ClosePriceDate, notAvailable))
		out.line("-------------------------")
	}

	return okResult(out.String())
}

func (ts *toolset) getOptionLatestQuote(ctx context.Context, args optionQuoteArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	quote, err := ts.OptionData.GetLatestOptionQuote(ctx, symbol, args.Feed.ValueOrZero())
	if err != nil {
		return errorResult("Error fetching option quote: %s", brokerMessage(err))
	}
	if quote == nil {
		return okResult("No quote data found for " + symbol + ".")
	}

	var out textBlock
	out.linef("Latest Quote for %s:", symbol)
	out.line(separatorShort)
	out.field("Ask Price", money(quote.AskPrice))
	out.field("Ask Size", quote.AskSize.String())
	out.field("Ask Exchange", quote.AskExchange)
	out.field("Bid Price", money(quote.BidPrice))
	out.field("Bid Size", quote.BidSize.String())
	out.field("Bid Exchange", quote.BidExchange)
	out.field("Conditions", quote.Condition)
	out.field("Timestamp", formatTime(quote.Timestamp))

	return okResult(out.String())
}

func (ts *toolset) getOptionSnapshot(ctx context.Context, args optionSnapshotArgs) Result {
	if len(args.Symbols) == 0 {
		return missingArgument("symbol_or_symbols")
	}

	snapshots, err := ts.OptionData.GetOptionSnapshots(ctx, args.Symbols, args.Feed.ValueOrZero())
	if err != nil {
		return errorResult("Error retrieving option snapshots: %s", brokerMessage(err))
	}

	var out textBlock
	out.line("Option Snapshots:")
	out.line("================")
	out.blank()
	for _, symbol := range args.Symbols {
		snapshot, ok := snapshots[symbol]
		if !ok {
			out.linef("No data available for %s", symbol)
			continue
		}
		writeSnapshot(&out, symbol, snapshot)
		out.blank()
	}

	return okResult(out.String())
}

func writeSnapshot(out *textBlock, symbol string, snapshot entity.OptionSnapshot) {
	out.field("Symbol", symbol)
	out.line("-----------------")

	if quote := snapshot.LatestQuote; quote != nil {
		out.line("Latest Quote:")
		out.linef("  Bid Price: %s", price6(quote.BidPrice))
		out.linef("  Bid Size: %s", quote.BidSize.String())
		out.linef("  Bid Exchange: %s", quote.BidExchange)
		out.linef("  Ask Price: %s", price6(quote.AskPrice))
		out.linef("  Ask Size: %s", quote.AskSize.String())
		out.linef("  Ask Exchange: %s", quote.AskExchange)
		if quote.Condition != "" {
			out.linef("  Conditions: %s", quote.Condition)
		}
		out.linef("  Timestamp: %s", quote.Timestamp.UTC().Format(snapshotTime))
	}

	if trade := snapshot.LatestTrade; trade != nil {
		out.line("Latest Trade:")
		out.linef("  Price: %s", price6(trade.Price))
		out.linef("  Size: %s", trade.Size.String())
		if trade.Exchange != "" {
			out.linef("  Exchange: %s", trade.Exchange)
		}
		if trade.Condition != "" {
			out.linef("  Conditions: %s", trade.Condition)
		}
		out.linef("  Timestamp: %s", trade.Timestamp.UTC().Format(snapshotTime))
	}

	if iv := snapshot.ImpliedVolatility; iv != nil {
		out.linef("Implied Volatility: %.2f%%", *iv*100)
	}

	if greeks := snapshot.Greeks; greeks != nil {
		out.line("Greeks:")
		out.linef("  Delta: %.4f", greeks.Delta)
		out.linef("  Gamma: %.4f", greeks.Gamma)
		out.linef("  Rho: %.4f", greeks.Rho)
		out.linef("  Theta: %.4f", greeks.Theta)
		out.linef("  Vega: %.4f", greeks.Vega)
	}
}

func (ts *toolset) placeOptionMarketOrder(ctx context.Context, args placeOptionOrderArgs) Result {
	legs := make([]orderengine.OptionLegParams, 0, len(args.Legs))
	for _, leg := range args.Legs {
		legs = append(legs, orderengine.OptionLegParams{
			Symbol:   leg.Symbol,
			Side:     leg.Side,
			RatioQty: leg.RatioQty,
		})
	}

	receipt, err := ts.Orders.PlaceOptionMarketOrder(ctx, orderengine.OptionOrderParams{
		Legs:          legs,
		OrderClass:    args.OrderClass.ValueOrZero(),
		Quantity:      args.Quantity,
		TimeInForce:   args.TimeInForce.ValueOrZero(),
		ExtendedHours: args.ExtendedHours.ValueOrZero(),
		ClientOrderID: args.ClientOrderID.ValueOrZero(),
	})
	if err != nil {
		return optionOrderFailure(err)
	}

	order := receipt.Order
	var out textBlock
	out.line("Option Market Order Placed Successfully:")
	out.line("--------------------------------------")
	out.field("Order ID", order.ID)
	out.field("Client Order ID", order.ClientOrderID)
	out.field("Order Class", wireValue(order.OrderClass))
	out.field("Order Type", wireValue(order.Type))
	out.field("Time In Force", wireValue(order.TimeInForce))
	out.field("Status", order.Status)
	out.field("Quantity", decimalPtrString(order.Quantity))
	out.field("Created At", formatTime(order.CreatedAt))
	out.field("Updated At", formatTime(order.UpdatedAt))

	if receipt.Request.OrderClass == entity.OrderClassMLEG && len(order.Legs) > 0 {
		out.blank()
		out.line("Legs:")
		for _, leg := range order.Legs {
			out.field("Symbol", leg.Symbol)
			out.field("Side", wireValue(leg.Side))
			out.field("Ratio Quantity", decimalPtrString(leg.RatioQty))
			out.field("Status", leg.Status)
			out.field("Asset Class", leg.AssetClass)
			out.field("Created At", formatTime(leg.CreatedAt))
			out.field("Updated At", formatTime(leg.UpdatedAt))
			out.field("Filled Price", filledText(decimalPtrString(leg.FilledAvgPrice), leg.FilledAvgPrice == nil))
			out.field("Filled Time", filledText(formatTimePtr(leg.FilledAt), leg.FilledAt == nil))
			out.line("-------------------------")
		}
		return okResult(out.String())
	}

	out.blank()
	out.field("Symbol", order.Symbol)
	out.field("Side", wireValue(receipt.Request.Side))
	out.field("Filled Price", filledText(decimalPtrString(order.FilledAvgPrice), order.FilledAvgPrice == nil))
	out.field("Filled Time", filledText(formatTimePtr(order.FilledAt), order.FilledAt == nil))
	out.line("-------------------------")

	return okResult(out.String())
}

func optionOrderFailure(err error) Result {
	orderErr, ok := orderengine.AsOrderError(err)
	if !ok {
		return unexpectedOptionError(err.Error())
	}

	switch {
	case orderErr.Kind == orderengine.FailureValidation:
		return errorResult("Error: %s", orderErr.Message)
	case orderErr.Kind == orderengine.FailureThrottled:
		return errorResult("%s", orderErr.Message)
	case orderErr.Kind == orderengine.FailureTransport:
		return unexpectedOptionError(orderErr.Message)
	case orderErr.Reason == orderengine.ReasonGeneric:
		var out textBlock
		out.linef("Error placing option order: %s", orderErr.Message)
		out.blank()
		out.line("Please check:")
		out.line("1. All option symbols are valid")
		out.line("2. Your account has sufficient buying power")
		out.line("3. The market is open for trading")
		out.line("4. Your account has the required permissions")
		return errorResult("%s", out.String())
	default:
		return errorResult("%s", orderErr.Message)
	}
}

func unexpectedOptionError(message string) Result {
	var out textBlock
	out.linef("Unexpected error placing option order: %s", message)
	out.blank()
	out.line("Please try:")
	out.line("1. Verifying all input parameters")
	out.line("2. Checking your account status")
	out.line("3. Ensuring market is open")
	out.line("4. Contacting support if the issue persists")

	return errorResult("%s", out.String())
}

func filledText(value string, missing bool) string {
	if missing {
		return "Not filled"
	}

	return value
}

func nullDecimalText(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}

	return d.Decimal.String()
}

func nullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}

	return money(d.Decimal)
}

// isOptionSymbol reports whether symbol looks like an OCC contract symbol.
func isOptionSymbol(symbol string) bool {
	return len(symbol) > 15 && strings.ContainsAny(symbol[len(symbol)-9:len(symbol)-8], "CP")
}
