package storage

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"papertrade/internal/model"
)

// EnsureAccount creates the paper account when the store is empty, mirroring
// first-boot bootstrap. An existing account is left untouched.
func EnsureAccount(ctx context.Context, repo Repository, id uint, startingBalance decimal.Decimal) error {
	count, err := repo.CountAccounts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := repo.SaveAccount(ctx, model.Account{
		ID:              id,
		BalanceUSD:      startingBalance,
		StartingBalance: startingBalance,
	}); err != nil {
		return err
	}

	logs.Infof("created paper account %d with balance %s", id, startingBalance)
	return nil
}
