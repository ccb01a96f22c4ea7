package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketPrice is the latest known price for one symbol.
type MarketPrice struct {
	Symbol    string          `gorm:"primaryKey;size:10" json:"symbol"`
	PriceUSD  decimal.Decimal `gorm:"type:decimal(18,2)" json:"price_usd"`
	UpdatedAt time.Time       `json:"-"`
}

// PriceBroadcast is the message pushed to every price subscriber. It always
// carries the full board, not a delta.
type PriceBroadcast struct {
	MarketPrices []MarketPrice `json:"market_prices"`
}
