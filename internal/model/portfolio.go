package model

import "github.com/shopspring/decimal"

// PortfolioView is a point-in-time read of one account: balances, holdings
// and the current price board.
type PortfolioView struct {
	BalanceUSD      decimal.Decimal `json:"balance_usd"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	Assets          []Position      `json:"assets"`
	MarketPrices    []MarketPrice   `json:"market_prices"`
}
