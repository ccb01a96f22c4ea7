package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"papertrade/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS allow list upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handlePrices upgrades the connection and streams one full price board per
// hub publish until the client goes away.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Warnf("upgrade price subscriber, err: %+v", err)
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe()
	defer sub.Cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case prices, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(model.PriceBroadcast{MarketPrices: prices}); err != nil {
				return
			}
		}
	}
}
