package storage

import (
	"context"

	"papertrade/internal/model"
)

// Repository is the durable side of the ledger and price pipeline.
// Implementations must be strongly consistent: a read following a write in
// the same operation observes that write.
type Repository interface {
	// Account returns exception.ErrAccountNotFound when the row is missing.
	Account(ctx context.Context, id uint) (model.Account, error)
	SaveAccount(ctx context.Context, account model.Account) error
	CountAccounts(ctx context.Context) (int64, error)

	Positions(ctx context.Context, accountID uint) ([]model.Position, error)
	Position(ctx context.Context, accountID uint, symbol string) (model.Position, bool, error)
	SavePosition(ctx context.Context, position model.Position) error
	DeletePosition(ctx context.Context, accountID uint, symbol string) error
	DeletePositions(ctx context.Context, accountID uint) error

	SavePrice(ctx context.Context, price model.MarketPrice) error

	// Transaction runs fn against a repository whose writes commit together
	// or not at all.
	Transaction(ctx context.Context, fn func(Repository) error) error
}
