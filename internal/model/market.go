package model

// TradeTick is a single aggregated trade from the Binance stream.
type TradeTick struct {
	Symbol       string
	Price        float64
	Quantity     float64
	TimeMs       int64
	IsBuyerMaker bool // true means the aggressor sold into the bid
}

// Kline is a 5-minute candle update. Only closed candles are evaluated
// by the volume anomaly detector.
type Kline struct {
	Symbol      string
	Closed      bool
	Volume      float64
	ClosePrice  float64
	EventTimeMs int64
}

// DepthLevel is one price level of a partial order-book snapshot.
type DepthLevel struct {
	Price    float64
	Quantity float64
}

// DepthSnapshot is a partial (top-20) order-book snapshot for one symbol.
type DepthSnapshot struct {
	Symbol string
	Bids   []DepthLevel
	Asks   []DepthLevel
}
