package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/model"
	"papertrade/pkg/exception"
)

func TestAccountRoundTrip(t *testing.T) {
	repo := NewMemory()

	_, err := repo.Account(t.Context(), 1)
	require.ErrorIs(t, err, exception.ErrAccountNotFound)

	saved := model.Account{ID: 1, BalanceUSD: decimal.NewFromInt(100000)}
	require.NoError(t, repo.SaveAccount(t.Context(), saved))

	account, err := repo.Account(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, account.BalanceUSD.Equal(saved.BalanceUSD))

	count, err := repo.CountAccounts(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPositionLifecycle(t *testing.T) {
	repo := NewMemory()

	_, ok, err := repo.Position(t.Context(), 1, "BTC")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.SavePosition(t.Context(), model.Position{
		AccountID: 1, Symbol: "BTC", Quantity: decimal.NewFromInt(1),
	}))
	require.NoError(t, repo.SavePosition(t.Context(), model.Position{
		AccountID: 1, Symbol: "ETH", Quantity: decimal.NewFromInt(2),
	}))

	positions, err := repo.Positions(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "BTC", positions[0].Symbol)

	require.NoError(t, repo.DeletePosition(t.Context(), 1, "BTC"))
	_, ok, err = repo.Position(t.Context(), 1, "BTC")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.DeletePositions(t.Context(), 1))
	positions, err = repo.Positions(t.Context(), 1)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestTransactionCommitsTogether(t *testing.T) {
	repo := NewMemory()
	require.NoError(t, repo.SaveAccount(t.Context(), model.Account{ID: 1, BalanceUSD: decimal.NewFromInt(100)}))

	err := repo.Transaction(t.Context(), func(r Repository) error {
		account, err := r.Account(t.Context(), 1)
		if err != nil {
			return err
		}
		account.BalanceUSD = decimal.NewFromInt(50)
		if err := r.SaveAccount(t.Context(), account); err != nil {
			return err
		}
		return r.SavePosition(t.Context(), model.Position{
			AccountID: 1, Symbol: "BTC", Quantity: decimal.NewFromInt(1),
		})
	})
	require.NoError(t, err)

	account, err := repo.Account(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, account.BalanceUSD.Equal(decimal.NewFromInt(50)))
	_, ok, err := repo.Position(t.Context(), 1, "BTC")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	repo := NewMemory()
	require.NoError(t, repo.SaveAccount(t.Context(), model.Account{ID: 1, BalanceUSD: decimal.NewFromInt(100)}))

	boom := errors.New("boom")
	err := repo.Transaction(t.Context(), func(r Repository) error {
		account, _ := r.Account(t.Context(), 1)
		account.BalanceUSD = decimal.Zero
		if err := r.SaveAccount(t.Context(), account); err != nil {
			return err
		}
		if err := r.SavePosition(t.Context(), model.Position{
			AccountID: 1, Symbol: "BTC", Quantity: decimal.NewFromInt(1),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	account, err := repo.Account(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, account.BalanceUSD.Equal(decimal.NewFromInt(100)))
	_, ok, err := repo.Position(t.Context(), 1, "BTC")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPriceWritesSurviveRolledBackTransaction(t *testing.T) {
	repo := NewMemory()

	boom := errors.New("boom")
	row := model.MarketPrice{Symbol: "BTC", PriceUSD: decimal.NewFromInt(50000), UpdatedAt: time.Now()}
	err := repo.Transaction(t.Context(), func(r Repository) error {
		if err := r.SavePrice(t.Context(), row); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	prices, err := repo.Prices(t.Context())
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "BTC", prices[0].Symbol)
}

func TestEnsureAccountSeedsOnce(t *testing.T) {
	repo := NewMemory()
	balance := decimal.NewFromInt(100000)

	require.NoError(t, EnsureAccount(t.Context(), repo, 1, balance))
	account, err := repo.Account(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, account.BalanceUSD.Equal(balance))
	assert.True(t, account.StartingBalance.Equal(balance))

	// A second boot must not touch the existing account.
	account.BalanceUSD = decimal.NewFromInt(42)
	require.NoError(t, repo.SaveAccount(t.Context(), account))
	require.NoError(t, EnsureAccount(t.Context(), repo, 1, balance))

	account, err = repo.Account(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, account.BalanceUSD.Equal(decimal.NewFromInt(42)))
}
