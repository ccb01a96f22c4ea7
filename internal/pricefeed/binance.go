package pricefeed

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"papertrade/pkg/exception"
)

const defaultStreamHost = "wss://stream.binance.com:9443"

// BinanceStream is one connection to the combined ticker stream. Streams are
// encoded in the URL, so no subscribe handshake is needed after dialing.
type BinanceStream struct {
	wss *ws.WebSocket
}

func NewBinanceStream(ctx context.Context, host string, streams []string) *BinanceStream {
	if host == "" {
		host = defaultStreamHost
	}
	url := fmt.Sprintf("%s/stream?streams=%s", host, strings.Join(streams, "/"))
	return &BinanceStream{
		wss: ws.New(ctx, url),
	}
}

func (repo *BinanceStream) Start(ctx context.Context) error {
	if err := repo.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

func (repo *BinanceStream) Close() {
	repo.wss.Close()
}

// Observe blocks consuming ticker events until the connection drops or the
// context ends. Malformed messages are logged and skipped; they never end
// the stream.
func (repo *BinanceStream) Observe(ctx context.Context, handler func(t TickerEvent)) error {
	ch, cancel := repo.wss.Subscribe()
	defer cancel()

	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return exception.ErrStreamClosed
			}

			resp, ok := ws.ReadMessage[CombinedStreamEvent](m)
			if !ok {
				logs.Warnf("drop malformed stream message: %s", m)
				continue
			}
			if resp.Data.EventType != tickerEventType {
				continue
			}

			handler(resp.Data)
		}
	}
}
