package alpaca

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
)

func (c *Client) GetLatestOptionQuote(ctx context.Context, symbol, feed string) (*entity.OptionQuote, error) {
	query := url.Values{}
	query.Set("symbols", symbol)
	setIfPresent(query, "feed", c.resolveOptionsFeed(feed))

	var resp struct {
		Quotes map[string]entity.OptionQuote `json:"quotes"`
	}
	if err := c.do(ctx, http.MethodGet, c.dataURL("/v1beta1/options/quotes/latest", query), nil, &resp); err != nil {
		return nil, err
	}

	quote, ok := resp.Quotes[symbol]
	if !ok {
		return nil, nil
	}

	return &quote, nil
}

func (c *Client) GetOptionSnapshots(ctx context.Context, symbols []string, feed string) (map[string]entity.OptionSnapshot, error) {
	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))
	setIfPresent(query, "feed", c.resolveOptionsFeed(feed))

	var resp struct {
		Snapshots map[string]entity.OptionSnapshot `json:"snapshots"`
	}
	if err := c.do(ctx, http.MethodGet, c.dataURL("/v1beta1/options/snapshots", query), nil, &resp); err != nil {
		return nil, err
	}

	if resp.Snapshots == nil {
		return map[string]entity.OptionSnapshot{}, nil
	}

	return resp.Snapshots, nil
}

func (c *Client) resolveOptionsFeed(feed string) string {
	if feed = strings.ToLower(strings.TrimSpace(feed)); feed != "" {
		return feed
	}

	return strings.ToLower(c.optionsFeed)
}
