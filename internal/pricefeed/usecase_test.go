package pricefeed

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/model"
	"papertrade/internal/pricestore"
)

type recordingPublisher struct {
	boards [][]model.MarketPrice
}

func (p *recordingPublisher) Publish(prices []model.MarketPrice) {
	p.boards = append(p.boards, prices)
}

type recordingWriter struct {
	saved []model.MarketPrice
	err   error
}

func (w *recordingWriter) SavePrice(ctx context.Context, price model.MarketPrice) error {
	w.saved = append(w.saved, price)
	return w.err
}

func newTestUsecase(pub *recordingPublisher, writer *recordingWriter) (*Usecase, *pricestore.Store) {
	store := pricestore.New()
	var pw PriceWriter
	if writer != nil {
		pw = writer
	}
	use := NewUsecase(Config{
		SymbolMap: map[string]string{
			"BTCUSDT": "BTC",
			"ETHUSDT": "ETH",
			"SOLUSDT": "SOL",
		},
	}, store, pub, pw)
	return use, store
}

func tick(symbol, price string) TickerEvent {
	return TickerEvent{EventType: tickerEventType, Symbol: symbol, LastPrice: price}
}

func TestHandleTickerPublishesFullBoardOnChange(t *testing.T) {
	pub := &recordingPublisher{}
	writer := &recordingWriter{}
	use, store := newTestUsecase(pub, writer)

	use.handleTicker(t.Context(), tick("BTCUSDT", "50000.00"))
	use.handleTicker(t.Context(), tick("ETHUSDT", "3000.00"))

	require.Len(t, pub.boards, 2)
	// The broadcast carries the whole board, not just the delta.
	require.Len(t, pub.boards[1], 2)
	assert.Equal(t, "BTC", pub.boards[1][0].Symbol)
	assert.Equal(t, "ETH", pub.boards[1][1].Symbol)

	row, ok := store.Get("BTC")
	require.True(t, ok)
	assert.True(t, row.PriceUSD.Equal(decimal.NewFromInt(50000)))

	require.Len(t, writer.saved, 2)
}

func TestHandleTickerUnchangedPriceDoesNotBroadcast(t *testing.T) {
	pub := &recordingPublisher{}
	use, _ := newTestUsecase(pub, nil)

	use.handleTicker(t.Context(), tick("BTCUSDT", "50000.00"))
	use.handleTicker(t.Context(), tick("BTCUSDT", "50000.00"))

	assert.Len(t, pub.boards, 1)
}

func TestHandleTickerIgnoresUnmappedSymbols(t *testing.T) {
	pub := &recordingPublisher{}
	use, store := newTestUsecase(pub, nil)

	use.handleTicker(t.Context(), tick("DOGEUSDT", "0.10"))

	assert.Empty(t, pub.boards)
	assert.Zero(t, store.Len())
}

func TestHandleTickerDropsUnparsablePrice(t *testing.T) {
	pub := &recordingPublisher{}
	use, store := newTestUsecase(pub, nil)

	use.handleTicker(t.Context(), tick("BTCUSDT", "not-a-price"))
	use.handleTicker(t.Context(), tick("BTCUSDT", "-1"))
	use.handleTicker(t.Context(), tick("BTCUSDT", "0"))

	assert.Empty(t, pub.boards)
	assert.Zero(t, store.Len())
}

func TestHandleTickerRoundsToCents(t *testing.T) {
	pub := &recordingPublisher{}
	use, store := newTestUsecase(pub, nil)

	use.handleTicker(t.Context(), tick("SOLUSDT", "150.12345678"))

	row, ok := store.Get("SOL")
	require.True(t, ok)
	assert.True(t, row.PriceUSD.Equal(decimal.RequireFromString("150.12")))

	// A sub-cent move is not a change after rounding.
	use.handleTicker(t.Context(), tick("SOLUSDT", "150.12411111"))
	assert.Len(t, pub.boards, 1)
}

func TestHandleTickerPersistFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{}
	writer := &recordingWriter{err: context.DeadlineExceeded}
	use, _ := newTestUsecase(pub, writer)

	use.handleTicker(t.Context(), tick("BTCUSDT", "50000.00"))

	// Broadcast still happens when the durable write fails.
	assert.Len(t, pub.boards, 1)
}

func TestCombinedStreamEventDecode(t *testing.T) {
	raw := `{"stream":"btcusdt@ticker","data":{"e":"24hrTicker","E":1700000000000,"s":"BTCUSDT","c":"50000.12000000"}}`

	var event CombinedStreamEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	assert.Equal(t, "btcusdt@ticker", event.Stream)
	assert.Equal(t, tickerEventType, event.Data.EventType)
	assert.Equal(t, "BTCUSDT", event.Data.Symbol)
	assert.Equal(t, "50000.12000000", event.Data.LastPrice)
}

func TestStreamsAreSortedAndLowercase(t *testing.T) {
	use, _ := newTestUsecase(&recordingPublisher{}, nil)

	assert.Equal(t, []string{"btcusdt@ticker", "ethusdt@ticker", "solusdt@ticker"}, use.streams())
}
