package pricestore

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/model"
)

// Store holds the latest known price per symbol. It is the single source of
// truth for trade valuation; the price feed is the only writer.
type Store struct {
	mu    sync.RWMutex
	rows  map[string]model.MarketPrice
	order []string
}

func New() *Store {
	return &Store{rows: make(map[string]model.MarketPrice)}
}

// Get returns the current price for a symbol, if one has been seen.
func (s *Store) Get(symbol string) (model.MarketPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[symbol]
	return row, ok
}

// Upsert stores the price for a symbol and reports whether the stored value
// actually changed. Comparison is exact decimal equality; equal values do not
// count as a change and must not trigger a broadcast.
func (s *Store) Upsert(symbol string, price decimal.Decimal, at time.Time) (prev model.MarketPrice, existed bool, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := model.MarketPrice{Symbol: symbol, PriceUSD: price, UpdatedAt: at}
	prev, existed = s.rows[symbol]
	if !existed {
		s.rows[symbol] = row
		s.order = append(s.order, symbol)
		return model.MarketPrice{}, false, true
	}

	if prev.PriceUSD.Equal(price) {
		return prev, true, false
	}

	s.rows[symbol] = row
	return prev, true, true
}

// Snapshot returns all known prices in insertion order.
func (s *Store) Snapshot() []model.MarketPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MarketPrice, 0, len(s.order))
	for _, symbol := range s.order {
		out = append(out, s.rows[symbol])
	}
	return out
}

// Len returns the number of tracked symbols.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
