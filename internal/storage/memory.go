package storage

import (
	"context"
	"sort"
	"sync"

	"papertrade/internal/model"
	"papertrade/pkg/exception"
)

// Memory keeps all records in process memory. Used by tests and by the
// "memory" database driver for running without postgres.
type Memory struct {
	mu        sync.RWMutex
	accounts  map[uint]model.Account
	positions map[uint]map[string]model.Position
	nextPosID uint
	prices    *priceTable
	inTx      bool
}

// prices live outside the transaction clone so a feed write landing during a
// trade transaction is never rolled back with it.
type priceTable struct {
	mu   sync.RWMutex
	rows map[string]model.MarketPrice
}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[uint]model.Account),
		positions: make(map[uint]map[string]model.Position),
		nextPosID: 1,
		prices:    &priceTable{rows: make(map[string]model.MarketPrice)},
	}
}

func (m *Memory) Account(ctx context.Context, id uint) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return model.Account{}, exception.ErrAccountNotFound
	}
	return account, nil
}

func (m *Memory) SaveAccount(ctx context.Context, account model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *Memory) CountAccounts(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.accounts)), nil
}

func (m *Memory) Positions(ctx context.Context, accountID uint) ([]model.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.positions[accountID]
	out := make([]model.Position, 0, len(rows))
	for _, position := range rows {
		out = append(out, position)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Position(ctx context.Context, accountID uint, symbol string) (model.Position, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	position, ok := m.positions[accountID][symbol]
	return position, ok, nil
}

func (m *Memory) SavePosition(ctx context.Context, position model.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if position.ID == 0 {
		position.ID = m.nextPosID
		m.nextPosID++
	}
	rows := m.positions[position.AccountID]
	if rows == nil {
		rows = make(map[string]model.Position)
		m.positions[position.AccountID] = rows
	}
	rows[position.Symbol] = position
	return nil
}

func (m *Memory) DeletePosition(ctx context.Context, accountID uint, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions[accountID], symbol)
	return nil
}

func (m *Memory) DeletePositions(ctx context.Context, accountID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, accountID)
	return nil
}

func (m *Memory) SavePrice(ctx context.Context, price model.MarketPrice) error {
	m.prices.mu.Lock()
	defer m.prices.mu.Unlock()
	m.prices.rows[price.Symbol] = price
	return nil
}

// Prices returns the persisted price rows, sorted by symbol.
func (m *Memory) Prices(ctx context.Context) ([]model.MarketPrice, error) {
	m.prices.mu.RLock()
	defer m.prices.mu.RUnlock()

	out := make([]model.MarketPrice, 0, len(m.prices.rows))
	for _, row := range m.prices.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// Transaction clones account and position state, runs fn against the clone,
// and swaps the clone in only when fn succeeds.
func (m *Memory) Transaction(ctx context.Context, fn func(Repository) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.RLock()
	clone := &Memory{
		accounts:  make(map[uint]model.Account, len(m.accounts)),
		positions: make(map[uint]map[string]model.Position, len(m.positions)),
		nextPosID: m.nextPosID,
		prices:    m.prices,
		inTx:      true,
	}
	for id, account := range m.accounts {
		clone.accounts[id] = account
	}
	for id, rows := range m.positions {
		cloned := make(map[string]model.Position, len(rows))
		for symbol, position := range rows {
			cloned[symbol] = position
		}
		clone.positions[id] = cloned
	}
	m.mu.RUnlock()

	if err := fn(clone); err != nil {
		return err
	}

	m.mu.Lock()
	m.accounts = clone.accounts
	m.positions = clone.positions
	m.nextPosID = clone.nextPosID
	m.mu.Unlock()
	return nil
}
