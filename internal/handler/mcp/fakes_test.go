package mcp

import (
	"context"
	"time"

	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

type fakeTrading struct {
	submitted []entity.PlaceOrderRequest
	submitErr error
	order     *entity.Order

	closeErr     error
	closeQty     *decimal.Decimal
	closePercent *decimal.Decimal

	account   *entity.Account
	positions []entity.Position
	orders    []entity.Order
	filter    entity.OrderFilter
	cancelled []string
	statuses  []entity.CancelStatus
	closed    []entity.ClosePositionStatus
	asset     *entity.Asset
	clock     *entity.Clock
	contracts []entity.OptionContract
	readErr   error
}

func (f *fakeTrading) SubmitOrder(_ context.Context, req entity.PlaceOrderRequest) (*entity.Order, error) {
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.order != nil {
		return f.order, nil
	}

	qty := req.Quantity
	return &entity.Order{
		ID:            "order-1",
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Quantity:      &qty,
		Side:          req.Side,
		Type:          req.Type,
		TimeInForce:   req.TimeInForce,
		OrderClass:    req.OrderClass,
		Status:        "accepted",
	}, nil
}

func (f *fakeTrading) ClosePosition(_ context.Context, symbol string, qty, percentage *decimal.Decimal) (*entity.Order, error) {
	f.closeQty, f.closePercent = qty, percentage
	if f.closeErr != nil {
		return nil, f.closeErr
	}

	return &entity.Order{ID: "close-1", Symbol: symbol, Status: "accepted"}, nil
}

func (f *fakeTrading) GetAccount(context.Context) (*entity.Account, error) {
	return f.account, f.readErr
}

func (f *fakeTrading) GetPositions(context.Context) ([]entity.Position, error) {
	return f.positions, f.readErr
}

func (f *fakeTrading) GetOpenPosition(_ context.Context, symbol string) (*entity.Position, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, p := range f.positions {
		if p.Symbol == symbol {
			return &p, nil
		}
	}

	return nil, &entity.BrokerAPIError{StatusCode: 404, Code: 40410000, Message: "position does not exist"}
}

func (f *fakeTrading) CloseAllPositions(context.Context, bool) ([]entity.ClosePositionStatus, error) {
	return f.closed, f.readErr
}

func (f *fakeTrading) GetOrders(_ context.Context, filter entity.OrderFilter) ([]entity.Order, error) {
	f.filter = filter
	return f.orders, f.readErr
}

func (f *fakeTrading) GetOrder(_ context.Context, orderID string) (*entity.Order, error) {
	return &entity.Order{ID: orderID}, f.readErr
}

func (f *fakeTrading) CancelOrder(_ context.Context, orderID string) error {
	f.cancelled = append(f.cancelled, orderID)
	return f.readErr
}

func (f *fakeTrading) CancelAllOrders(context.Context) ([]entity.CancelStatus, error) {
	return f.statuses, f.readErr
}

func (f *fakeTrading) GetAsset(context.Context, string) (*entity.Asset, error) {
	return f.asset, f.readErr
}

func (f *fakeTrading) GetAssets(context.Context, entity.AssetFilter) ([]entity.Asset, error) {
	return nil, f.readErr
}

func (f *fakeTrading) CreateWatchlist(_ context.Context, req entity.WatchlistRequest) (*entity.Watchlist, error) {
	return &entity.Watchlist{ID: "wl-1", Name: req.Name}, f.readErr
}

func (f *fakeTrading) GetWatchlists(context.Context) ([]entity.Watchlist, error) {
	return nil, f.readErr
}

func (f *fakeTrading) UpdateWatchlist(_ context.Context, _ string, req entity.WatchlistRequest) (*entity.Watchlist, error) {
	return &entity.Watchlist{ID: "wl-1", Name: req.Name}, f.readErr
}

func (f *fakeTrading) GetClock(context.Context) (*entity.Clock, error) {
	return f.clock, f.readErr
}

func (f *fakeTrading) GetCalendar(context.Context, string, string) ([]entity.CalendarDay, error) {
	return nil, f.readErr
}

func (f *fakeTrading) GetAnnouncements(context.Context, entity.AnnouncementFilter) ([]entity.Announcement, error) {
	return nil, f.readErr
}

func (f *fakeTrading) GetOptionContracts(context.Context, entity.OptionContractFilter) ([]entity.OptionContract, error) {
	return f.contracts, f.readErr
}

type fakeMarketData struct {
	quote   *entity.StockQuote
	bars    []entity.StockBar
	barsReq entity.StockBarsRequest
	err     error
}

func (f *fakeMarketData) GetLatestStockQuote(context.Context, string) (*entity.StockQuote, error) {
	return f.quote, f.err
}

func (f *fakeMarketData) GetStockBars(_ context.Context, req entity.StockBarsRequest) ([]entity.StockBar, error) {
	f.barsReq = req
	return f.bars, f.err
}

func (f *fakeMarketData) GetStockTrades(context.Context, entity.StockTradesRequest) ([]entity.StockTrade, error) {
	return nil, f.err
}

func (f *fakeMarketData) GetLatestStockTrade(context.Context, entity.LatestRequest) (*entity.StockTrade, error) {
	return nil, f.err
}

func (f *fakeMarketData) GetLatestStockBar(context.Context, entity.LatestRequest) (*entity.StockBar, error) {
	return nil, f.err
}

type fakeOptionData struct {
	snapshots map[string]entity.OptionSnapshot
	symbols   []string
}

func (f *fakeOptionData) GetLatestOptionQuote(context.Context, string, string) (*entity.OptionQuote, error) {
	return nil, nil
}

func (f *fakeOptionData) GetOptionSnapshots(_ context.Context, symbols []string, _ string) (map[string]entity.OptionSnapshot, error) {
	f.symbols = symbols
	return f.snapshots, nil
}

type fakeStreamer struct {
	req    entity.StreamTradesRequest
	trades []entity.StreamedTrade
}

func (f *fakeStreamer) StreamStockTrades(_ context.Context, req entity.StreamTradesRequest) ([]entity.StreamedTrade, error) {
	f.req = req
	return f.trades, nil
}

var fixedNow = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
