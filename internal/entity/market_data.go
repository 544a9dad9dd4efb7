package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockQuote struct {
	Timestamp   time.Time       `json:"t"`
	AskExchange string          `json:"ax"`
	AskPrice    decimal.Decimal `json:"ap"`
	AskSize     decimal.Decimal `json:"as"`
	BidExchange string          `json:"bx"`
	BidPrice    decimal.Decimal `json:"bp"`
	BidSize     decimal.Decimal `json:"bs"`
	Conditions  []string        `json:"c"`
	Tape        string          `json:"z"`
}

type StockBar struct {
	Timestamp  time.Time       `json:"t"`
	Open       decimal.Decimal `json:"o"`
	High       decimal.Decimal `json:"h"`
	Low        decimal.Decimal `json:"l"`
	Close      decimal.Decimal `json:"c"`
	Volume     decimal.Decimal `json:"v"`
	TradeCount int64           `json:"n"`
	VWAP       decimal.Decimal `json:"vw"`
}

type StockTrade struct {
	Timestamp  time.Time       `json:"t"`
	Exchange   string          `json:"x"`
	Price      decimal.Decimal `json:"p"`
	Size       decimal.Decimal `json:"s"`
	Conditions []string        `json:"c"`
	ID         int64           `json:"i"`
	Tape       string          `json:"z"`
}

type StockBarsRequest struct {
	Symbol    string
	Timeframe string
	Start     time.Time
	Limit     int
	Feed      string
}

type StockTradesRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Limit    int
	Sort     string
	Feed     string
	Currency string
	AsOf     string
}

type LatestRequest struct {
	Symbol   string
	Feed     string
	Currency string
}

type OptionQuote struct {
	Timestamp   time.Time       `json:"t"`
	AskExchange string          `json:"ax"`
	AskPrice    decimal.Decimal `json:"ap"`
	AskSize     decimal.Decimal `json:"as"`
	BidExchange string          `json:"bx"`
	BidPrice    decimal.Decimal `json:"bp"`
	BidSize     decimal.Decimal `json:"bs"`
	Condition   string          `json:"c"`
}

type OptionTrade struct {
	Timestamp time.Time       `json:"t"`
	Exchange  string          `json:"x"`
	Price     decimal.Decimal `json:"p"`
	Size      decimal.Decimal `json:"s"`
	Condition string          `json:"c"`
}

type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Rho   float64 `json:"rho"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

type OptionSnapshot struct {
	LatestQuote       *OptionQuote  `json:"latestQuote"`
	LatestTrade       *OptionTrade  `json:"latestTrade"`
	ImpliedVolatility *float64      `json:"impliedVolatility"`
	Greeks            *OptionGreeks `json:"greeks"`
}

type OptionContract struct {
	ID                string              `json:"id"`
	Symbol            string              `json:"symbol"`
	Name              string              `json:"name"`
	Status            string              `json:"status"`
	Tradable          bool                `json:"tradable"`
	ExpirationDate    string              `json:"expiration_date"`
	RootSymbol        string              `json:"root_symbol"`
	UnderlyingSymbol  string              `json:"underlying_symbol"`
	UnderlyingAssetID string              `json:"underlying_asset_id"`
	Type              string              `json:"type"`
	Style             string              `json:"style"`
	StrikePrice       decimal.Decimal     `json:"strike_price"`
	Size              string              `json:"size"`
	OpenInterest      decimal.NullDecimal `json:"open_interest"`
	OpenInterestDate  string              `json:"open_interest_date"`
	ClosePrice        decimal.NullDecimal `json:"close_price"`
	ClosePriceDate    string              `json:"close_price_date"`
}

type OptionContractFilter struct {
	UnderlyingSymbol string
	ExpirationDate   string
	StrikePriceGTE   string
	StrikePriceLTE   string
	Type             string
	Status           string
	RootSymbol       string
	Limit            int
}
