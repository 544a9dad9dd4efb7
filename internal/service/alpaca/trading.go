package alpaca

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (c *Client) SubmitOrder(ctx context.Context, req entity.PlaceOrderRequest) (*entity.Order, error) {
	var order entity.Order
	if err := c.do(ctx, http.MethodPost, c.tradeURL("/v2/orders", nil), req, &order); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":        order.ID,
		"client_order_id": order.ClientOrderID,
		"symbol":          order.Symbol,
		"status":          order.Status,
	}).Debug("alpaca order submitted")

	return &order, nil
}

func (c *Client) GetAccount(ctx context.Context) (*entity.Account, error) {
	var account entity.Account
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/account", nil), nil, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

func (c *Client) GetPositions(ctx context.Context) ([]entity.Position, error) {
	var positions []entity.Position
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/positions", nil), nil, &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

func (c *Client) GetOpenPosition(ctx context.Context, symbol string) (*entity.Position, error) {
	var position entity.Position
	endpoint := c.tradeURL("/v2/positions/"+url.PathEscape(symbol), nil)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &position); err != nil {
		return nil, err
	}

	return &position, nil
}

func (c *Client) ClosePosition(ctx context.Context, symbol string, qty, percentage *decimal.Decimal) (*entity.Order, error) {
	query := url.Values{}
	if qty != nil {
		query.Set("qty", qty.String())
	}
	if percentage != nil {
		query.Set("percentage", percentage.String())
	}

	var order entity.Order
	endpoint := c.tradeURL("/v2/positions/"+url.PathEscape(symbol), query)
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (c *Client) CloseAllPositions(ctx context.Context, cancelOrders bool) ([]entity.ClosePositionStatus, error) {
	query := url.Values{}
	query.Set("cancel_orders", strconv.FormatBool(cancelOrders))

	var statuses []entity.ClosePositionStatus
	if err := c.do(ctx, http.MethodDelete, c.tradeURL("/v2/positions", query), nil, &statuses); err != nil {
		return nil, err
	}

	return statuses, nil
}

func (c *Client) GetOrders(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error) {
	query := url.Values{}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query.Set("status", strings.ToLower(status))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var orders []entity.Order
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/orders", query), nil, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	var order entity.Order
	endpoint := c.tradeURL("/v2/orders/"+url.PathEscape(orderID), nil)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	endpoint := c.tradeURL("/v2/orders/"+url.PathEscape(orderID), nil)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) CancelAllOrders(ctx context.Context) ([]entity.CancelStatus, error) {
	var statuses []entity.CancelStatus
	if err := c.do(ctx, http.MethodDelete, c.tradeURL("/v2/orders", nil), nil, &statuses); err != nil {
		return nil, err
	}

	return statuses, nil
}

func (c *Client) GetAsset(ctx context.Context, symbol string) (*entity.Asset, error) {
	var asset entity.Asset
	endpoint := c.tradeURL("/v2/assets/"+url.PathEscape(symbol), nil)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &asset); err != nil {
		return nil, err
	}

	return &asset, nil
}

func (c *Client) GetAssets(ctx context.Context, filter entity.AssetFilter) ([]entity.Asset, error) {
	query := url.Values{}
	setIfPresent(query, "status", filter.Status)
	setIfPresent(query, "asset_class", filter.AssetClass)
	setIfPresent(query, "exchange", filter.Exchange)
	setIfPresent(query, "attributes", filter.Attributes)

	var assets []entity.Asset
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/assets", query), nil, &assets); err != nil {
		return nil, err
	}

	return assets, nil
}

func (c *Client) CreateWatchlist(ctx context.Context, req entity.WatchlistRequest) (*entity.Watchlist, error) {
	var watchlist entity.Watchlist
	if err := c.do(ctx, http.MethodPost, c.tradeURL("/v2/watchlists", nil), req, &watchlist); err != nil {
		return nil, err
	}

	return &watchlist, nil
}

func (c *Client) GetWatchlists(ctx context.Context) ([]entity.Watchlist, error) {
	var watchlists []entity.Watchlist
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/watchlists", nil), nil, &watchlists); err != nil {
		return nil, err
	}

	return watchlists, nil
}

func (c *Client) UpdateWatchlist(ctx context.Context, watchlistID string, req entity.WatchlistRequest) (*entity.Watchlist, error) {
	var watchlist entity.Watchlist
	endpoint := c.tradeURL("/v2/watchlists/"+url.PathEscape(watchlistID), nil)
	if err := c.do(ctx, http.MethodPut, endpoint, req, &watchlist); err != nil {
		return nil, err
	}

	return &watchlist, nil
}

func (c *Client) GetClock(ctx context.Context) (*entity.Clock, error) {
	var clock entity.Clock
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/clock", nil), nil, &clock); err != nil {
		return nil, err
	}

	return &clock, nil
}

func (c *Client) GetCalendar(ctx context.Context, start, end string) ([]entity.CalendarDay, error) {
	query := url.Values{}
	setIfPresent(query, "start", start)
	setIfPresent(query, "end", end)

	var days []entity.CalendarDay
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/calendar", query), nil, &days); err != nil {
		return nil, err
	}

	return days, nil
}

func (c *Client) GetAnnouncements(ctx context.Context, filter entity.AnnouncementFilter) ([]entity.Announcement, error) {
	query := url.Values{}
	if len(filter.CATypes) > 0 {
		query.Set("ca_types", strings.Join(filter.CATypes, ","))
	}
	setIfPresent(query, "since", filter.Since)
	setIfPresent(query, "until", filter.Until)
	setIfPresent(query, "symbol", filter.Symbol)
	setIfPresent(query, "cusip", filter.Cusip)
	setIfPresent(query, "date_type", filter.DateType)

	var announcements []entity.Announcement
	endpoint := c.tradeURL("/v2/corporate_actions/announcements", query)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &announcements); err != nil {
		return nil, err
	}

	return announcements, nil
}

func (c *Client) GetOptionContracts(ctx context.Context, filter entity.OptionContractFilter) ([]entity.OptionContract, error) {
	query := url.Values{}
	setIfPresent(query, "underlying_symbols", filter.UnderlyingSymbol)
	setIfPresent(query, "expiration_date", filter.ExpirationDate)
	setIfPresent(query, "strike_price_gte", filter.StrikePriceGTE)
	setIfPresent(query, "strike_price_lte", filter.StrikePriceLTE)
	setIfPresent(query, "type", strings.ToLower(filter.Type))
	setIfPresent(query, "status", strings.ToLower(filter.Status))
	setIfPresent(query, "root_symbol", filter.RootSymbol)
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var resp struct {
		OptionContracts []entity.OptionContract `json:"option_contracts"`
		NextPageToken   *string                 `json:"next_page_token"`
	}
	if err := c.do(ctx, http.MethodGet, c.tradeURL("/v2/options/contracts", query), nil, &resp); err != nil {
		return nil, err
	}

	return resp.OptionContracts, nil
}

func setIfPresent(query url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		query.Set(key, value)
	}
}
