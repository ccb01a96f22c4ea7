package pricefeed

import "strings"

// CombinedStreamEvent wraps messages from the combined stream endpoint:
// {"stream":"btcusdt@ticker","data":{...}}
type CombinedStreamEvent struct {
	Stream string      `json:"stream"`
	Data   TickerEvent `json:"data"`
}

// TickerEvent is the 24hr rolling window ticker payload. Only the fields the
// pipeline consumes are decoded.
type TickerEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
}

const tickerEventType = "24hrTicker"

// StreamName builds the combined-stream path segment for a source symbol.
func StreamName(sourceSymbol string) string {
	return strings.ToLower(sourceSymbol) + "@ticker"
}
