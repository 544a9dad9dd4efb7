package alpaca

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

// Stock data endpoints are keyed by symbol; a symbol missing from the
// response map means the feed had nothing for it, which callers see as nil.

func (c *Client) GetLatestStockQuote(ctx context.Context, symbol string) (*entity.StockQuote, error) {
	query := url.Values{}
	query.Set("symbols", symbol)

	var resp struct {
		Quotes map[string]entity.StockQuote `json:"quotes"`
	}
	if err := c.do(ctx, http.MethodGet, c.dataURL("/v2/stocks/quotes/latest", query), nil, &resp); err != nil {
		return nil, err
	}

	quote, ok := resp.Quotes[symbol]
	if !ok {
		return nil, nil
	}

	return &quote, nil
}

func (c *Client) GetStockBars(ctx context.Context, req entity.StockBarsRequest) ([]entity.StockBar, error) {
	query := url.Values{}
	query.Set("symbols", req.Symbol)
	query.Set("timeframe", req.Timeframe)
	if !req.Start.IsZero() {
		query.Set("start", req.Start.UTC().Format(time.RFC3339))
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	setIfPresent(query, "feed", req.Feed)

	var resp struct {
		Bars map[string][]entity.StockBar `json:"bars"`
	}
	if err := c.do(ctx, http.MethodGet, c.dataURL("/v2/stocks/bars", query), nil, &resp); err != nil {
		return nil, err
	}

	return resp.Bars[req.Symbol], nil
}

func (c *Client) GetStockTrades(ctx context.Context, req entity.StockTradesRequest) ([]entity.StockTrade, error) {
	query := url.Values{}
	query.Set("symbols", req.Symbol)
	if !req.Start.IsZero() {
		query.Set("start", req.Start.UTC().Format(time.RFC3339))
	}
	if !req.End.IsZero() {
		query.Set("end", req.End.UTC().Format(time.RFC3339))
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	setIfPresent(query, "sort", strings.ToLower(req.Sort))
	setIfPresent(query, "feed", req.Feed)
	setIfPresent(query, "currency", req.Currency)
	setIfPresent(query, "asof", req.AsOf)

	var resp struct {
		Trades map[string][]entity.StockTrade `json:"trades"`
	}
	if err := c.do(ctx, http.MethodGet, c.dataURL("/v2/stocks/trades", query), nil, &resp); err != nil {
		return nil, err
	}

	return resp.Trades[req.Symbol], nil
}

func (c *Client) GetLatestStockTrade(ctx context.Context, req entity.LatestRequest) (*entity.StockTrade, error) {
	var resp struct {
		Trades map[string]entity.StockTrade `json:"trades"`
	}
	endpoint := c.dataURL("/v2/stocks/trades/latest", latestQuery(req))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	trade, ok := resp.Trades[req.Symbol]
	if !ok {
		return nil, nil
	}

	return &trade, nil
}

func (c *Client) GetLatestStockBar(ctx context.Context, req entity.LatestRequest) (*entity.StockBar, error) {
	var resp struct {
		Bars map[string]entity.StockBar `json:"bars"`
	}
	endpoint := c.dataURL("/v2/stocks/bars/latest", latestQuery(req))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	bar, ok := resp.Bars[req.Symbol]
	if !ok {
		return nil, nil
	}

	return &bar, nil
}

func latestQuery(req entity.LatestRequest) url.Values {
	query := url.Values{}
	query.Set("symbols", req.Symbol)
	setIfPresent(query, "feed", req.Feed)
	setIfPresent(query, "currency", req.Currency)

	return query
}
