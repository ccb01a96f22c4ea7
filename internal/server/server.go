package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"papertrade/internal/hub"
	"papertrade/internal/ledger"
	"papertrade/pkg/exception"
)

// Server is the inbound request surface: four JSON routes mapped 1:1 to
// ledger operations plus the price push endpoint.
type Server struct {
	ledger       *ledger.Ledger
	hub          *hub.Hub
	accountID    uint
	allowOrigins []string
}

func New(l *ledger.Ledger, h *hub.Hub, accountID uint, allowOrigins []string) *Server {
	return &Server{
		ledger:       l,
		hub:          h,
		accountID:    accountID,
		allowOrigins: allowOrigins,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /trade", s.handleBuy)
	mux.HandleFunc("POST /sell", s.handleSell)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /ws/prices", s.handlePrices)
	return s.cors(mux)
}

type tradeRequest struct {
	Symbol string      `json:"symbol"`
	Amount json.Number `json:"amount"`
}

type resetRequest struct {
	StartingBalance json.Number `json:"starting_balance"`
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	view, err := s.ledger.Snapshot(r.Context(), s.accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := decodeTrade(w, r)
	if !ok {
		return
	}

	newBalance, err := s.ledger.Buy(r.Context(), s.accountID, req.Symbol, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Trade Successful!",
		"new_balance": newBalance,
	})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := decodeTrade(w, r)
	if !ok {
		return
	}

	newBalance, err := s.ledger.Sell(r.Context(), s.accountID, req.Symbol, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Sold Successfully!",
		"new_balance": newBalance,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "Invalid request")
		return
	}
	balance, err := decimal.NewFromString(req.StartingBalance.String())
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "Starting balance must be greater than 0")
		return
	}

	if err := s.ledger.Reset(r.Context(), s.accountID, balance); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Portfolio reset!",
		"starting_balance": balance,
	})
}

func decodeTrade(w http.ResponseWriter, r *http.Request) (tradeRequest, decimal.Decimal, bool) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "Invalid request")
		return tradeRequest{}, decimal.Zero, false
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "Invalid amount")
		return tradeRequest{}, decimal.Zero, false
	}
	return req, amount, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exception.ErrAccountNotFound):
		writeErrorBody(w, http.StatusNotFound, "User not found")
	case errors.Is(err, exception.ErrInvalidSymbol):
		writeErrorBody(w, http.StatusBadRequest, "Invalid symbol")
	case errors.Is(err, exception.ErrInvalidQuantity):
		writeErrorBody(w, http.StatusBadRequest, "Invalid amount")
	case errors.Is(err, exception.ErrInsufficientFunds):
		writeErrorBody(w, http.StatusBadRequest, "Not enough money")
	case errors.Is(err, exception.ErrInsufficientHoldings):
		writeErrorBody(w, http.StatusBadRequest, "Not enough coins to sell")
	case errors.Is(err, exception.ErrInvalidResetAmount):
		writeErrorBody(w, http.StatusBadRequest, "Starting balance must be greater than 0")
	default:
		logs.Errorf("request failed, err: %+v", err)
		writeErrorBody(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logs.Errorf("encode response, err: %+v", err)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.resolveOrigin(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) resolveOrigin(origin string) string {
	for _, allowed := range s.allowOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}
	return ""
}
