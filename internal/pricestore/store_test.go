package pricestore

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertFirstTickCountsAsChange(t *testing.T) {
	s := New()

	prev, existed, changed := s.Upsert("BTC", decimal.NewFromInt(50000), time.Now())
	require.False(t, existed)
	require.True(t, changed)
	assert.True(t, prev.PriceUSD.IsZero())

	row, ok := s.Get("BTC")
	require.True(t, ok)
	assert.True(t, row.PriceUSD.Equal(decimal.NewFromInt(50000)))
}

func TestUpsertUnchangedValueReportsNoChange(t *testing.T) {
	s := New()
	price := decimal.RequireFromString("50000.10")

	_, _, changed := s.Upsert("BTC", price, time.Now())
	require.True(t, changed)

	// Same numeric value at a different scale is still equal.
	prev, existed, changed := s.Upsert("BTC", decimal.RequireFromString("50000.1"), time.Now())
	require.True(t, existed)
	assert.False(t, changed)
	assert.True(t, prev.PriceUSD.Equal(price))
}

func TestUpsertChangedValue(t *testing.T) {
	s := New()
	s.Upsert("BTC", decimal.NewFromInt(50000), time.Now())

	prev, existed, changed := s.Upsert("BTC", decimal.NewFromInt(60000), time.Now())
	require.True(t, existed)
	require.True(t, changed)
	assert.True(t, prev.PriceUSD.Equal(decimal.NewFromInt(50000)))

	row, _ := s.Get("BTC")
	assert.True(t, row.PriceUSD.Equal(decimal.NewFromInt(60000)))
}

func TestSnapshotKeepsInsertionOrder(t *testing.T) {
	s := New()
	s.Upsert("SOL", decimal.NewFromInt(150), time.Now())
	s.Upsert("BTC", decimal.NewFromInt(50000), time.Now())
	s.Upsert("ETH", decimal.NewFromInt(3000), time.Now())
	s.Upsert("BTC", decimal.NewFromInt(51000), time.Now())

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "SOL", snapshot[0].Symbol)
	assert.Equal(t, "BTC", snapshot[1].Symbol)
	assert.Equal(t, "ETH", snapshot[2].Symbol)
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	s := New()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(0); i < 1000; i++ {
			s.Upsert("BTC", decimal.NewFromInt(50000+i), time.Now())
		}
		close(done)
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if row, ok := s.Get("BTC"); ok {
					// A reader must never observe a torn value.
					assert.False(t, row.PriceUSD.LessThan(decimal.NewFromInt(50000)))
				}
				s.Snapshot()
			}
		}()
	}
	wg.Wait()
}
