package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID                  string          `json:"id"`
	AccountNumber       string          `json:"account_number"`
	Status              string          `json:"status"`
	Currency            string          `json:"currency"`
	BuyingPower         decimal.Decimal `json:"buying_power"`
	Cash                decimal.Decimal `json:"cash"`
	PortfolioValue      decimal.Decimal `json:"portfolio_value"`
	Equity              decimal.Decimal `json:"equity"`
	LongMarketValue     decimal.Decimal `json:"long_market_value"`
	ShortMarketValue    decimal.Decimal `json:"short_market_value"`
	PatternDayTrader    bool            `json:"pattern_day_trader"`
	DaytradeCount       int             `json:"daytrade_count"`
	OptionsTradingLevel int             `json:"options_trading_level"`
}

type Position struct {
	AssetID        string          `json:"asset_id"`
	Symbol         string          `json:"symbol"`
	Exchange       string          `json:"exchange"`
	AssetClass     string          `json:"asset_class"`
	Side           string          `json:"side"`
	Quantity       decimal.Decimal `json:"qty"`
	AvgEntryPrice  decimal.Decimal `json:"avg_entry_price"`
	MarketValue    decimal.Decimal `json:"market_value"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	UnrealizedPL   decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPC decimal.Decimal `json:"unrealized_plpc"`
}

type Asset struct {
	ID           string   `json:"id"`
	Class        string   `json:"class"`
	Exchange     string   `json:"exchange"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Tradable     bool     `json:"tradable"`
	Marginable   bool     `json:"marginable"`
	Shortable    bool     `json:"shortable"`
	EasyToBorrow bool     `json:"easy_to_borrow"`
	Fractionable bool     `json:"fractionable"`
	Attributes   []string `json:"attributes"`
}

type AssetFilter struct {
	Status     string
	AssetClass string
	Exchange   string
	Attributes string
}

type Watchlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Assets    []Asset   `json:"assets"`
}

func (w Watchlist) Symbols() []string {
	symbols := make([]string, 0, len(w.Assets))
	for _, asset := range w.Assets {
		symbols = append(symbols, asset.Symbol)
	}

	return symbols
}

type WatchlistRequest struct {
	Name    string   `json:"name,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

type Clock struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

type CalendarDay struct {
	Date  string `json:"date"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type Announcement struct {
	ID                      string `json:"id"`
	CorporateActionID       string `json:"corporate_action_id"`
	CAType                  string `json:"ca_type"`
	CASubType               string `json:"ca_sub_type"`
	InitiatingSymbol        string `json:"initiating_symbol"`
	InitiatingOriginalCusip string `json:"initiating_original_cusip"`
	TargetSymbol            string `json:"target_symbol"`
	TargetOriginalCusip     string `json:"target_original_cusip"`
	DeclarationDate         string `json:"declaration_date"`
	ExDate                  string `json:"ex_date"`
	RecordDate              string `json:"record_date"`
	PayableDate             string `json:"payable_date"`
	Cash                    string `json:"cash"`
	OldRate                 string `json:"old_rate"`
	NewRate                 string `json:"new_rate"`
}

type AnnouncementFilter struct {
	CATypes  []string
	Since    string
	Until    string
	Symbol   string
	Cusip    string
	DateType string
}

type OrderFilter struct {
	Status string
	Limit  int
}
