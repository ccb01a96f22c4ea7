package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"papertrade/internal/model"
	"papertrade/internal/storage"
	"papertrade/pkg/exception"
)

// Quantities carry 8 fractional digits, currency amounts 2. Matches the
// column precision of the stored models.
const (
	quantityScale = 8
	currencyScale = 2
)

// PriceSource is the read side of the price store. The ledger only ever
// reads prices; the feed owns all writes.
type PriceSource interface {
	Get(symbol string) (model.MarketPrice, bool)
	Snapshot() []model.MarketPrice
}

// Ledger is the only component allowed to mutate account and position state.
// Every mutating operation serializes per account and commits through a
// repository transaction, so a failed call leaves no partial state behind.
type Ledger struct {
	repo   storage.Repository
	prices PriceSource

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func New(repo storage.Repository, prices PriceSource) *Ledger {
	return &Ledger{
		repo:   repo,
		prices: prices,
		locks:  make(map[uint]*sync.Mutex),
	}
}

// Locking is per account so a future multi-account deployment stays correct
// without serializing unrelated trades.
func (l *Ledger) lock(accountID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.locks[accountID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[accountID] = mu
	}
	return mu
}

// Snapshot returns balances, holdings and the current price board. Pure read.
func (l *Ledger) Snapshot(ctx context.Context, accountID uint) (model.PortfolioView, error) {
	account, err := l.repo.Account(ctx, accountID)
	if err != nil {
		return model.PortfolioView{}, err
	}
	positions, err := l.repo.Positions(ctx, accountID)
	if err != nil {
		return model.PortfolioView{}, err
	}
	return model.PortfolioView{
		BalanceUSD:      account.BalanceUSD,
		StartingBalance: account.StartingBalance,
		Assets:          positions,
		MarketPrices:    l.prices.Snapshot(),
	}, nil
}

// Buy purchases quantity of symbol at the current price. Cost basis
// accumulates additively; this is the average-cost method expressed
// incrementally and is kept exactly as observed behavior.
func (l *Ledger) Buy(ctx context.Context, accountID uint, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	price, ok := l.prices.Get(symbol)
	if !ok {
		return decimal.Zero, exception.ErrInvalidSymbol
	}
	quantity = quantity.Round(quantityScale)
	if !quantity.IsPositive() {
		return decimal.Zero, exception.ErrInvalidQuantity
	}

	mu := l.lock(accountID)
	mu.Lock()
	defer mu.Unlock()

	var newBalance decimal.Decimal
	err := l.repo.Transaction(ctx, func(r storage.Repository) error {
		account, err := r.Account(ctx, accountID)
		if err != nil {
			return err
		}

		cost := price.PriceUSD.Mul(quantity).Round(currencyScale)
		if cost.GreaterThan(account.BalanceUSD) {
			return exception.ErrInsufficientFunds
		}

		account.BalanceUSD = account.BalanceUSD.Sub(cost)
		if err := r.SaveAccount(ctx, account); err != nil {
			return err
		}

		position, held, err := r.Position(ctx, accountID, symbol)
		if err != nil {
			return err
		}
		if held {
			position.CostBasisUSD = position.CostBasisUSD.Add(cost)
			position.Quantity = position.Quantity.Add(quantity)
		} else {
			position = model.Position{
				AccountID:    accountID,
				Symbol:       symbol,
				Quantity:     quantity,
				CostBasisUSD: cost,
			}
		}
		if err := r.SavePosition(ctx, position); err != nil {
			return err
		}

		newBalance = account.BalanceUSD
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// Sell disposes quantity of symbol at the current price, reducing cost basis
// proportionally. Selling the whole position destroys it.
func (l *Ledger) Sell(ctx context.Context, accountID uint, symbol string, quantity decimal.Decimal) (decimal.Decimal, error) {
	price, ok := l.prices.Get(symbol)
	if !ok {
		return decimal.Zero, exception.ErrInvalidSymbol
	}
	quantity = quantity.Round(quantityScale)
	if !quantity.IsPositive() {
		return decimal.Zero, exception.ErrInvalidQuantity
	}

	mu := l.lock(accountID)
	mu.Lock()
	defer mu.Unlock()

	var newBalance decimal.Decimal
	err := l.repo.Transaction(ctx, func(r storage.Repository) error {
		account, err := r.Account(ctx, accountID)
		if err != nil {
			return err
		}

		position, held, err := r.Position(ctx, accountID, symbol)
		if err != nil {
			return err
		}
		if !held || position.Quantity.LessThan(quantity) {
			return exception.ErrInsufficientHoldings
		}

		proceeds := price.PriceUSD.Mul(quantity).Round(currencyScale)
		account.BalanceUSD = account.BalanceUSD.Add(proceeds)
		if err := r.SaveAccount(ctx, account); err != nil {
			return err
		}

		// cost_reduction = (quantity / position.quantity) * cost_basis,
		// computed multiply-first so a full sell cancels the basis exactly.
		reduction := position.CostBasisUSD.Mul(quantity).DivRound(position.Quantity, currencyScale)
		remaining := position.Quantity.Sub(quantity)
		if remaining.IsZero() {
			if err := r.DeletePosition(ctx, accountID, symbol); err != nil {
				return err
			}
		} else {
			position.Quantity = remaining
			position.CostBasisUSD = position.CostBasisUSD.Sub(reduction)
			if err := r.SavePosition(ctx, position); err != nil {
				return err
			}
		}

		newBalance = account.BalanceUSD
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// Reset destroys all positions and sets both balances to the new amount.
func (l *Ledger) Reset(ctx context.Context, accountID uint, startingBalance decimal.Decimal) error {
	startingBalance = startingBalance.Round(currencyScale)
	if !startingBalance.IsPositive() {
		return exception.ErrInvalidResetAmount
	}

	mu := l.lock(accountID)
	mu.Lock()
	defer mu.Unlock()

	return l.repo.Transaction(ctx, func(r storage.Repository) error {
		account, err := r.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if err := r.DeletePositions(ctx, accountID); err != nil {
			return err
		}
		account.BalanceUSD = startingBalance
		account.StartingBalance = startingBalance
		return r.SaveAccount(ctx, account)
	})
}
