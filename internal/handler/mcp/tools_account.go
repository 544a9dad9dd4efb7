package mcp

import (
	"context"
)

type symbolArgs struct {
	Symbol string `json:"symbol"`
}

const symbolSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Ticker or option contract symbol, e.g. AAPL"}
  },
  "required": ["symbol"]
}`

func (ts *toolset) accountTools() []Tool {
	return []Tool{
		typedTool("get_account_info",
			"Retrieves the current account information including balances and status.",
			emptySchema, runNoArgs(ts.getAccountInfo)),
		typedTool("get_positions",
			"Retrieves all current positions in the portfolio.",
			emptySchema, runNoArgs(ts.getPositions)),
		typedTool("get_open_position",
			"Retrieves details for a specific open position.",
			symbolSchema, ts.getOpenPosition),
	}
}

func (ts *toolset) getAccountInfo(ctx context.Context) Result {
	account, err := ts.Trading.GetAccount(ctx)
	if err != nil {
		return errorResult("Error fetching account information: %s", brokerMessage(err))
	}

	var out textBlock
	out.line("Account Information:")
	out.line(separatorShort)
	out.field("Account ID", account.ID)
	out.field("Status", account.Status)
	out.field("Currency", account.Currency)
	out.field("Buying Power", money(account.BuyingPower))
	out.field("Cash", money(account.Cash))
	out.field("Portfolio Value", money(account.PortfolioValue))
	out.field("Equity", money(account.Equity))
	out.field("Long Market Value", money(account.LongMarketValue))
	out.field("Short Market Value", money(account.ShortMarketValue))
	out.field("Pattern Day Trader", yesNo(account.PatternDayTrader))
	out.field("Day Trades Remaining", account.DaytradeCount)
	out.field("Options Trading Level", account.OptionsTradingLevel)

	return okResult(out.String())
}

func (ts *toolset) getPositions(ctx context.Context) Result {
	positions, err := ts.Trading.GetPositions(ctx)
	if err != nil {
		return errorResult("Error fetching positions: %s", brokerMessage(err))
	}
	if len(positions) == 0 {
		return okResult("No open positions found.")
	}

	var out textBlock
	out.line("Current Positions:")
	out.line(separatorShort)
	for _, position := range positions {
		out.field("Symbol", position.Symbol)
		out.linef("Quantity: %s shares", position.Quantity.String())
		out.field("Market Value", money(position.MarketValue))
		out.field("Average Entry Price", money(position.AvgEntryPrice))
		out.field("Current Price", money(position.CurrentPrice))
		out.linef("Unrealized P/L: %s (%s)", money(position.UnrealizedPL), percentOf(position.UnrealizedPLPC))
		out.line(separatorShort)
	}

	return okResult(out.String())
}

func (ts *toolset) getOpenPosition(ctx context.Context, args symbolArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	position, err := ts.Trading.GetOpenPosition(ctx, symbol)
	if err != nil {
		return errorResult("Error fetching position: %s", brokerMessage(err))
	}

	quantity := position.Quantity.String()
	if position.AssetClass == "us_option" || isOptionSymbol(symbol) {
		quantity += " contracts"
	}

	var out textBlock
	out.linef("Position Details for %s:", symbol)
	out.line(separatorShort)
	out.field("Quantity", quantity)
	out.field("Market Value", money(position.MarketValue))
	out.field("Average Entry Price", money(position.AvgEntryPrice))
	out.field("Current Price", money(position.CurrentPrice))
	out.field("Unrealized P/L", money(position.UnrealizedPL))

	return okResult(out.String())
}
