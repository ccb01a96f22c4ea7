package exception

import "errors"

// Trade errors are caller-correctable and map 1:1 to API validation failures.
var (
	ErrAccountNotFound      = errors.New("trade: account not found")
	ErrInvalidSymbol        = errors.New("trade: invalid symbol")
	ErrInvalidQuantity      = errors.New("trade: invalid quantity")
	ErrInsufficientFunds    = errors.New("trade: insufficient funds")
	ErrInsufficientHoldings = errors.New("trade: insufficient holdings")
	ErrInvalidResetAmount   = errors.New("trade: invalid reset amount")
)
