package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a tracked paper-trading portfolio. The deployment is
// single-tenant; exactly one row exists, but the ID stays explicit so the
// ledger never assumes a hidden global.
type Account struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	BalanceUSD      decimal.Decimal `gorm:"type:decimal(18,2)" json:"balance_usd"`
	StartingBalance decimal.Decimal `gorm:"type:decimal(18,2)" json:"starting_balance"`
	CreatedAt       time.Time       `json:"-"`
}
