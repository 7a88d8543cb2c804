package binance

import (
	"testing"
)

func newTestBot() *StreamBot {
	b := NewStreamBot([]string{"btcusdt", "ethusdt"}, testOptions(), nil, nil)
	b.monitor = NewMonitor(b.opts, map[string]float64{"BTCUSDT": 100})
	return b
}

func TestStreamURL(t *testing.T) {
	b := newTestBot()
	want := defaultStreamBase + "?streams=btcusdt@aggTrade/btcusdt@kline_5m/btcusdt@depth20@100ms/ethusdt@aggTrade/ethusdt@kline_5m/ethusdt@depth20@100ms"
	if got := b.streamURL(); got != want {
		t.Errorf("streamURL =\n%s\nwant\n%s", got, want)
	}
}

func TestHandleFrame_AggTrade(t *testing.T) {
	b := newTestBot()
	frame := []byte(`{"stream":"btcusdt@aggTrade","data":{"p":"60000.5","q":"2.0","T":1715000000000,"m":false}}`)
	alerts := b.handleFrame(frame)
	if len(alerts) != 1 {
		t.Fatalf("expected single-trade alert, got %d", len(alerts))
	}
	if alerts[0].Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q, want BTCUSDT", alerts[0].Symbol)
	}
}

func TestHandleFrame_ClosedKline(t *testing.T) {
	b := newTestBot()
	frame := []byte(`{"stream":"btcusdt@kline_5m","data":{"E":1715000000000,"k":{"v":"400","c":"60000","x":true}}}`)
	alerts := b.handleFrame(frame)
	if len(alerts) != 1 {
		t.Fatalf("expected volume anomaly alert, got %d", len(alerts))
	}

	open := []byte(`{"stream":"btcusdt@kline_5m","data":{"E":1715000000000,"k":{"v":"400","c":"60000","x":false}}}`)
	if alerts := b.handleFrame(open); len(alerts) != 0 {
		t.Errorf("open candle fired %d alerts", len(alerts))
	}
}

func TestHandleFrame_DepthShortKeys(t *testing.T) {
	b := newTestBot()
	frame := []byte(`{"stream":"btcusdt@depth20@100ms","data":{"b":[["50000","200"]],"a":[["60000","0.1"]]}}`)
	alerts := b.handleFrame(frame)
	if len(alerts) != 1 {
		t.Fatalf("expected one wall alert from short-key depth, got %d", len(alerts))
	}
	if alerts[0].Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q, want BTCUSDT", alerts[0].Symbol)
	}
}

func TestHandleFrame_DepthLongKeys(t *testing.T) {
	b := newTestBot()
	frame := []byte(`{"stream":"ethusdt@depth20@100ms","data":{"bids":[["3000","2000"]],"asks":[]}}`)
	alerts := b.handleFrame(frame)
	if len(alerts) != 1 {
		t.Fatalf("expected one wall alert from long-key depth, got %d", len(alerts))
	}
}

func TestHandleFrame_Garbage(t *testing.T) {
	b := newTestBot()
	for _, raw := range []string{
		`not json`,
		`{}`,
		`{"stream":"btcusdt@aggTrade","data":"oops"}`,
	} {
		if alerts := b.handleFrame([]byte(raw)); len(alerts) != 0 {
			t.Errorf("garbage frame %q produced %d alerts", raw, len(alerts))
		}
	}
}
