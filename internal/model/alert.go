package model

// AlertKind classifies what triggered an alert.
type AlertKind string

const (
	KindTransfer      AlertKind = "TRANSFER"
	KindLargeTrade    AlertKind = "LARGE_TRADE"
	KindBurst         AlertKind = "BURST"
	KindVolumeAnomaly AlertKind = "VOLUME_ANOMALY"
	KindOrderWall     AlertKind = "ORDER_WALL"
	KindNews          AlertKind = "NEWS"
	KindTweet         AlertKind = "TWEET"
)

// Alert is a formatted notification ready to be delivered to Telegram.
// Delivery is best-effort: a failed send is logged and dropped, never queued.
type Alert struct {
	Kind     AlertKind
	Symbol   string // trading pair or entity tag, empty for news/tweets
	ValueUSD float64
	Text     string // HTML message body
}
