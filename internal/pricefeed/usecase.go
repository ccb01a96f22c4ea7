package pricefeed

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"papertrade/internal/model"
	"papertrade/internal/pricestore"
)

const (
	defaultBackoff = 5 * time.Second
	currencyScale  = 2
)

// Config resolves where to connect and which source symbols map to which
// internal ones. Symbols the feed carries but the map omits are ignored.
type Config struct {
	Host      string
	SymbolMap map[string]string
	Backoff   time.Duration
}

// PriceWriter persists a price row. Failures are logged, never fatal; the
// in-memory store stays authoritative.
type PriceWriter interface {
	SavePrice(ctx context.Context, price model.MarketPrice) error
}

// Publisher receives the full price board after every change.
type Publisher interface {
	Publish(prices []model.MarketPrice)
}

// Usecase owns the feed lifecycle: connect, consume, and reconnect forever
// with a fixed backoff. It communicates outward only through price store
// writes and hub publishes.
type Usecase struct {
	host      string
	symbolMap map[string]string
	backoff   time.Duration
	store     *pricestore.Store
	hub       Publisher
	repo      PriceWriter
}

func NewUsecase(cfg Config, store *pricestore.Store, hub Publisher, repo PriceWriter) *Usecase {
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Usecase{
		host:      cfg.Host,
		symbolMap: cfg.SymbolMap,
		backoff:   backoff,
		store:     store,
		hub:       hub,
		repo:      repo,
	}
}

// Run drives the connection loop until shutdown. The feed is never
// considered permanently failed; every disconnect retries after the backoff.
func (use *Usecase) Run(ctx context.Context) {
	for {
		if err := use.runConn(ctx); err != nil {
			logs.Warnf("price stream disconnected, err: %+v", err)
		}

		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case <-time.After(use.backoff):
		}
		logs.Info("reconnecting price stream")
	}
}

func (use *Usecase) runConn(ctx context.Context) error {
	streams := use.streams()
	stream := NewBinanceStream(ctx, use.host, streams)
	defer stream.Close()

	if err := stream.Start(ctx); err != nil {
		return err
	}
	logs.Infof("price stream connected, streams: %v", streams)

	return stream.Observe(ctx, func(t TickerEvent) {
		use.handleTicker(ctx, t)
	})
}

func (use *Usecase) streams() []string {
	out := make([]string, 0, len(use.symbolMap))
	for source := range use.symbolMap {
		out = append(out, StreamName(source))
	}
	sort.Strings(out)
	return out
}

func (use *Usecase) handleTicker(ctx context.Context, t TickerEvent) {
	symbol, ok := use.symbolMap[t.Symbol]
	if !ok {
		return
	}

	price, err := decimal.NewFromString(t.LastPrice)
	if err != nil {
		logs.Errorf("parse ticker price %q for %s, err: %+v", t.LastPrice, t.Symbol, err)
		return
	}
	price = price.Round(currencyScale)
	if !price.IsPositive() {
		logs.Warnf("drop non-positive price %s for %s", price, t.Symbol)
		return
	}

	_, _, changed := use.store.Upsert(symbol, price, time.Now().UTC())
	if !changed {
		return
	}

	if use.repo != nil {
		row, _ := use.store.Get(symbol)
		if err := use.repo.SavePrice(ctx, row); err != nil {
			logs.Errorf("persist price %s, err: %+v", symbol, err)
		}
	}

	use.hub.Publish(use.store.Snapshot())
}
