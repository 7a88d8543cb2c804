package recorder

import "CoinSentry/internal/model"

// SentAlert is one alert that was successfully delivered to Telegram.
type SentAlert struct {
	Bot      string
	Kind     model.AlertKind
	Symbol   string
	ValueUSD float64
	Message  string
}

// Recorder persists alert history for later analysis. Recording failures
// must never block or fail alert delivery; callers log and move on.
type Recorder interface {
	RecordAlert(a *SentAlert) error
	Close() error
}
