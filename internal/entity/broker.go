package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BrokerAPIError is a non-2xx response from the broker, carrying its error envelope.
type BrokerAPIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *BrokerAPIError) Error() string {
	return fmt.Sprintf("alpaca api error: status=%d code=%d message=%s", e.StatusCode, e.Code, e.Message)
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error)
}

// OrderBroker is the subset of the trading API that creates orders.
type OrderBroker interface {
	OrderSubmitter
	ClosePosition(ctx context.Context, symbol string, qty, percentage *decimal.Decimal) (*Order, error)
}

type TradingClient interface {
	OrderBroker
	GetAccount(ctx context.Context) (*Account, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetOpenPosition(ctx context.Context, symbol string) (*Position, error)
	CloseAllPositions(ctx context.Context, cancelOrders bool) ([]ClosePositionStatus, error)
	GetOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context) ([]CancelStatus, error)
	GetAsset(ctx context.Context, symbol string) (*Asset, error)
	GetAssets(ctx context.Context, filter AssetFilter) ([]Asset, error)
	CreateWatchlist(ctx context.Context, req WatchlistRequest) (*Watchlist, error)
	GetWatchlists(ctx context.Context) ([]Watchlist, error)
	UpdateWatchlist(ctx context.Context, watchlistID string, req WatchlistRequest) (*Watchlist, error)
	GetClock(ctx context.Context) (*Clock, error)
	GetCalendar(ctx context.Context, start, end string) ([]CalendarDay, error)
	GetAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]Announcement, error)
	GetOptionContracts(ctx context.Context, filter OptionContractFilter) ([]OptionContract, error)
}

type MarketDataClient interface {
	GetLatestStockQuote(ctx context.Context, symbol string) (*StockQuote, error)
	GetStockBars(ctx context.Context, req StockBarsRequest) ([]StockBar, error)
	GetStockTrades(ctx context.Context, req StockTradesRequest) ([]StockTrade, error)
	GetLatestStockTrade(ctx context.Context, req LatestRequest) (*StockTrade, error)
	GetLatestStockBar(ctx context.Context, req LatestRequest) (*StockBar, error)
}

type OptionDataClient interface {
	GetLatestOptionQuote(ctx context.Context, symbol, feed string) (*OptionQuote, error)
	GetOptionSnapshots(ctx context.Context, symbols []string, feed string) (map[string]OptionSnapshot, error)
}

type StockTradeStreamer interface {
	StreamStockTrades(ctx context.Context, req StreamTradesRequest) ([]StreamedTrade, error)
}

type StreamTradesRequest struct {
	Symbol    string
	Feed      string
	MaxTrades int
	Duration  time.Duration
}

type StreamedTrade struct {
	Symbol string `json:"S"`
	StockTrade
}

type OrderThrottle interface {
	Allow(ctx context.Context, key string, now time.Time) (bool, time.Duration, error)
}

type OrderJournaler interface {
	Record(ctx context.Context, entry OrderJournal)
}
