package exception

import "errors"

var (
	ErrStreamClosed    = errors.New("price feed: stream closed")
	ErrPositionMissing = errors.New("storage: position not found")
)
