package hub

import (
	"sync"
	"sync/atomic"

	"papertrade/internal/model"
)

const defaultBuffer = 16

// Hub fans price boards out to any number of subscribers. Delivery is
// best-effort: a full subscriber buffer drops the update instead of blocking
// the publisher, so a slow consumer can never stall ingestion.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	dropped atomic.Uint64
}

// Subscription is one receiver attached to a Hub.
type Subscription struct {
	hub  *Hub
	ch   chan []model.MarketPrice
	once sync.Once
}

// New allocates a hub with the given per-subscriber buffer capacity.
func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe attaches a new receiver. The subscription sees only boards
// published after this call; there is no replay.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub: h,
		ch:  make(chan []model.MarketPrice, h.buffer),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers the board to every active subscriber without blocking.
func (h *Hub) Publish(prices []model.MarketPrice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- prices:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were discarded on full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// C is the receive side of the subscription. The channel closes on Cancel.
func (s *Subscription) C() <-chan []model.MarketPrice {
	return s.ch
}

// Cancel detaches the subscription. Safe to call more than once and has no
// effect on other subscribers.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}
