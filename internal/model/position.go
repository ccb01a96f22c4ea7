package model

import "github.com/shopspring/decimal"

// Position is a held quantity of one symbol plus its accumulated cost basis.
// A position with zero quantity must not exist; it is destroyed on full sell.
type Position struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	AccountID    uint            `gorm:"uniqueIndex:account_symbol_idx" json:"-"`
	Symbol       string          `gorm:"size:10;uniqueIndex:account_symbol_idx" json:"symbol"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,8)" json:"amount"`
	CostBasisUSD decimal.Decimal `gorm:"type:decimal(18,2)" json:"cost_basis_usd"`
}
