package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderengine"
)

// Dependencies are the clients the tools read from and the order dispatcher
// they place orders through.
type Dependencies struct {
	Trading    entity.TradingClient
	MarketData entity.MarketDataClient
	OptionData entity.OptionDataClient
	Streamer   entity.StockTradeStreamer
	Orders     *orderengine.OrderEngineService
}

type toolset struct {
	Dependencies
	now func() time.Time
}

// RegisterTools adds every brokerage tool to registry.
func RegisterTools(registry *Registry, deps Dependencies) error {
	return newToolset(deps, time.Now).register(registry)
}

func newToolset(deps Dependencies, now func() time.Time) *toolset {
	return &toolset{Dependencies: deps, now: now}
}

func (ts *toolset) register(registry *Registry) error {
	groups := [][]Tool{
		ts.accountTools(),
		ts.marketDataTools(),
		ts.orderTools(),
		ts.positionTools(),
		ts.assetTools(),
		ts.watchlistTools(),
		ts.marketInfoTools(),
		ts.optionTools(),
	}

	for _, group := range groups {
		for _, t := range group {
			if err := registry.Register(t); err != nil {
				return err
			}
		}
	}

	return nil
}

func okResult(text string) Result {
	return Result{Text: text}
}

func errorResult(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...), IsError: true}
}

func missingArgument(name string) Result {
	return errorResult("Missing required argument: %s", name)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// symbolList accepts either a single symbol or an array of symbols.
type symbolList []string

func (s *symbolList) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*s = splitSymbols(single)
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected a symbol or a list of symbols: %w", err)
	}

	out := make([]string, 0, len(many))
	for _, symbol := range many {
		out = append(out, splitSymbols(symbol)...)
	}
	*s = out
	return nil
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if symbol := normalizeSymbol(part); symbol != "" {
			out = append(out, symbol)
		}
	}

	return out
}

// noArgs is the argument type of tools that take no parameters.
type noArgs struct{}

const emptySchema = `{"type":"object","properties":{}}`

func runNoArgs(run func(ctx context.Context) Result) func(context.Context, noArgs) Result {
	return func(ctx context.Context, _ noArgs) Result {
		return run(ctx)
	}
}
