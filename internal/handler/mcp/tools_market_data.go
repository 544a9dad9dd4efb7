package mcp

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

const (
	defaultLookbackDays    = 5
	defaultStreamSeconds   = 5
	defaultStreamMaxTrades = 20
	maxStreamSeconds       = 60
	dailyTimeframe         = "1Day"
)

type stockBarsArgs struct {
	Symbol string   `json:"symbol"`
	Days   null.Int `json:"days"`
}

type stockTradesArgs struct {
	Symbol   string      `json:"symbol"`
	Days     null.Int    `json:"days"`
	Limit    null.Int    `json:"limit"`
	Sort     null.String `json:"sort"`
	Feed     null.String `json:"feed"`
	Currency null.String `json:"currency"`
	AsOf     null.String `json:"asof"`
}

type latestArgs struct {
	Symbol   string      `json:"symbol"`
	Feed     null.String `json:"feed"`
	Currency null.String `json:"currency"`
}

type streamTradesArgs struct {
	Symbol          string      `json:"symbol"`
	DurationSeconds null.Int    `json:"duration_seconds"`
	MaxTrades       null.Int    `json:"max_trades"`
	Feed            null.String `json:"feed"`
}

const stockBarsSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"},
    "days": {"type": "integer", "minimum": 1, "default": 5, "description": "Number of days to look back"}
  },
  "required": ["symbol"]
}`

const stockTradesSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"},
    "days": {"type": "integer", "minimum": 1, "default": 5, "description": "Number of days to look back"},
    "limit": {"type": "integer", "minimum": 1, "description": "Upper limit of data points to return"},
    "sort": {"type": "string", "enum": ["asc", "desc"], "default": "asc"},
    "feed": {"type": "string", "description": "Stock data feed, e.g. iex, sip, otc"},
    "currency": {"type": "string", "description": "Currency for prices, defaults to USD"},
    "asof": {"type": "string", "description": "As-of date in YYYY-MM-DD format"}
  },
  "required": ["symbol"]
}`

const latestSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"},
    "feed": {"type": "string", "description": "Stock data feed, e.g. iex, sip, otc"},
    "currency": {"type": "string", "description": "Currency for prices, defaults to USD"}
  },
  "required": ["symbol"]
}`

const streamTradesSchema = `{
  "type": "object",
  "properties": {
    "symbol": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"},
    "duration_seconds": {"type": "integer", "minimum": 1, "maximum": 60, "default": 5},
    "max_trades": {"type": "integer", "minimum": 1, "default": 20},
    "feed": {"type": "string", "description": "Stream feed, iex or sip", "default": "iex"}
  },
  "required": ["symbol"]
}`

func (ts *toolset) marketDataTools() []Tool {
	return []Tool{
		typedTool("get_stock_quote",
			"Retrieves the latest quote for a stock.",
			symbolSchema, ts.getStockQuote),
		typedTool("get_stock_bars",
			"Retrieves daily historical price bars for a stock.",
			stockBarsSchema, ts.getStockBars),
		typedTool("get_stock_trades",
			"Retrieves historical trades for a stock.",
			stockTradesSchema, ts.getStockTrades),
		typedTool("get_stock_latest_trade",
			"Retrieves the latest trade for a stock.",
			latestSchema, ts.getStockLatestTrade),
		typedTool("get_stock_latest_bar",
			"Retrieves the latest minute bar for a stock.",
			latestSchema, ts.getStockLatestBar),
		typedTool("stream_stock_trades",
			"Streams live trades for a stock for a few seconds and returns what was received.",
			streamTradesSchema, ts.streamStockTrades),
	}
}

func (ts *toolset) getStockQuote(ctx context.Context, args symbolArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	quote, err := ts.MarketData.GetLatestStockQuote(ctx, symbol)
	if err != nil {
		return errorResult("Error fetching quote for %s: %s", symbol, brokerMessage(err))
	}
	if quote == nil {
		return okResult("No quote data found for " + symbol + ".")
	}

	var out textBlock
	out.linef("Latest Quote for %s:", symbol)
	out.line(separatorShort)
	out.field("Ask Price", money(quote.AskPrice))
	out.field("Bid Price", money(quote.BidPrice))
	out.field("Ask Size", quote.AskSize.String())
	out.field("Bid Size", quote.BidSize.String())
	out.field("Timestamp", formatTime(quote.Timestamp))

	return okResult(out.String())
}

func (ts *toolset) getStockBars(ctx context.Context, args stockBarsArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}
	days := lookbackDays(args.Days)

	now := ts.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)

	bars, err := ts.MarketData.GetStockBars(ctx, entity.StockBarsRequest{
		Symbol:    symbol,
		Timeframe: dailyTimeframe,
		Start:     start,
	})
	if err != nil {
		return errorResult("Error fetching historical data for %s: %s", symbol, brokerMessage(err))
	}
	if len(bars) == 0 {
		return okResult("No historical data found for " + symbol + " in the last " + itoa(days) + " days.")
	}

	var out textBlock
	out.linef("Historical Data for %s (Last %d trading days):", symbol, days)
	out.line(separatorLong)
	for _, bar := range bars {
		out.linef("Date: %s, Open: %s, High: %s, Low: %s, Close: %s, Volume: %s",
			bar.Timestamp.UTC().Format(time.DateOnly),
			money(bar.Open), money(bar.High), money(bar.Low), money(bar.Close),
			bar.Volume.String())
	}

	return okResult(out.String())
}

func (ts *toolset) getStockTrades(ctx context.Context, args stockTradesArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}
	days := lookbackDays(args.Days)

	now := ts.now().UTC()
	trades, err := ts.MarketData.GetStockTrades(ctx, entity.StockTradesRequest{
		Symbol:   symbol,
		Start:    now.AddDate(0, 0, -days),
		End:      now,
		Limit:    int(args.Limit.ValueOrZero()),
		Sort:     orDefault(args.Sort.ValueOrZero(), "asc"),
		Feed:     args.Feed.ValueOrZero(),
		Currency: args.Currency.ValueOrZero(),
		AsOf:     args.AsOf.ValueOrZero(),
	})
	if err != nil {
		return errorResult("Error fetching trades: %s", brokerMessage(err))
	}
	if len(trades) == 0 {
		return okResult("No trade data found for " + symbol + " in the last " + itoa(days) + " days.")
	}

	var out textBlock
	out.linef("Historical Trades for %s (Last %d days):", symbol, days)
	out.line(separatorLong)
	for _, trade := range trades {
		writeTrade(&out, trade)
		out.line(separatorShort)
	}

	return okResult(out.String())
}

func (ts *toolset) getStockLatestTrade(ctx context.Context, args latestArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	trade, err := ts.MarketData.GetLatestStockTrade(ctx, latestRequest(symbol, args))
	if err != nil {
		return errorResult("Error fetching latest trade: %s", brokerMessage(err))
	}
	if trade == nil {
		return okResult("No latest trade data found for " + symbol + ".")
	}

	var out textBlock
	out.linef("Latest Trade for %s:", symbol)
	out.line(separatorShort)
	writeTrade(&out, *trade)

	return okResult(out.String())
}

func (ts *toolset) getStockLatestBar(ctx context.Context, args latestArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	bar, err := ts.MarketData.GetLatestStockBar(ctx, latestRequest(symbol, args))
	if err != nil {
		return errorResult("Error fetching latest bar: %s", brokerMessage(err))
	}
	if bar == nil {
		return okResult("No latest bar data found for " + symbol + ".")
	}

	var out textBlock
	out.linef("Latest Minute Bar for %s:", symbol)
	out.line(separatorShort)
	out.field("Time", formatTime(bar.Timestamp))
	out.field("Open", money(bar.Open))
	out.field("High", money(bar.High))
	out.field("Low", money(bar.Low))
	out.field("Close", money(bar.Close))
	out.field("Volume", bar.Volume.String())

	return okResult(out.String())
}

func (ts *toolset) streamStockTrades(ctx context.Context, args streamTradesArgs) Result {
	symbol := normalizeSymbol(args.Symbol)
	if symbol == "" {
		return missingArgument("symbol")
	}

	seconds := int(args.DurationSeconds.ValueOrZero())
	if seconds <= 0 {
		seconds = defaultStreamSeconds
	}
	if seconds > maxStreamSeconds {
		seconds = maxStreamSeconds
	}
	maxTrades := int(args.MaxTrades.ValueOrZero())
	if maxTrades <= 0 {
		maxTrades = defaultStreamMaxTrades
	}

	trades, err := ts.Streamer.StreamStockTrades(ctx, entity.StreamTradesRequest{
		Symbol:    symbol,
		Feed:      orDefault(args.Feed.ValueOrZero(), constant.DefaultStreamFeed),
		MaxTrades: maxTrades,
		Duration:  time.Duration(seconds) * time.Second,
	})
	if err != nil {
		return errorResult("Error streaming trades for %s: %s", symbol, brokerMessage(err))
	}
	if len(trades) == 0 {
		return okResult("No trades received for " + symbol + " within " + itoa(seconds) + " seconds.")
	}

	var out textBlock
	out.linef("Live Trades for %s (%d received in %ds):", symbol, len(trades), seconds)
	out.line(separatorLong)
	for _, trade := range trades {
		writeTrade(&out, trade.StockTrade)
		out.line(separatorShort)
	}

	return okResult(out.String())
}

func writeTrade(out *textBlock, trade entity.StockTrade) {
	out.field("Time", formatTime(trade.Timestamp))
	out.field("Price", price6(trade.Price))
	out.field("Size", trade.Size.String())
	out.field("Exchange", trade.Exchange)
	out.field("ID", trade.ID)
	out.field("Conditions", conditions(trade.Conditions))
}

func latestRequest(symbol string, args latestArgs) entity.LatestRequest {
	return entity.LatestRequest{
		Symbol:   symbol,
		Feed:     args.Feed.ValueOrZero(),
		Currency: args.Currency.ValueOrZero(),
	}
}

func lookbackDays(days null.Int) int {
	if !days.Valid || days.Int64 <= 0 {
		return defaultLookbackDays
	}

	return int(days.Int64)
}
