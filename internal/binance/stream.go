package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"CoinSentry/internal/model"
	"CoinSentry/internal/recorder"

	"github.com/gorilla/websocket"
)

const (
	defaultStreamBase = "wss://stream.binance.com:9443/stream"
	reconnectDelay    = 5 * time.Second
	handshakeTimeout  = 10 * time.Second
)

// Sender delivers one formatted alert.
type Sender interface {
	SendContext(ctx context.Context, text string) error
}

// StreamBot consumes the multiplexed Binance stream (trades, 5m klines and
// partial depth snapshots per symbol) and runs the anomaly detectors.
//
// Frame handling is single-threaded: each frame is processed to completion,
// including its outbound Telegram send, before the next read. A slow send
// backpressures stream consumption.
type StreamBot struct {
	symbols []string
	opts    Options
	sender  Sender
	rec     recorder.Recorder

	// StreamBase can be overridden in tests; defaults to the public endpoint.
	StreamBase string

	monitor *Monitor
}

// NewStreamBot creates the market-stream monitor for the given symbols
// (lowercase pair names).
func NewStreamBot(symbols []string, opts Options, sender Sender, rec recorder.Recorder) *StreamBot {
	return &StreamBot{
		symbols:    symbols,
		opts:       opts,
		sender:     sender,
		rec:        rec,
		StreamBase: defaultStreamBase,
	}
}

// Name implements runner.Bot.
func (b *StreamBot) Name() string { return "binance" }

// streamURL builds the combined-stream URL: three sub-streams per symbol.
func (b *StreamBot) streamURL() string {
	streams := make([]string, 0, len(b.symbols)*3)
	for _, s := range b.symbols {
		s = strings.ToLower(s)
		streams = append(streams, s+"@aggTrade", s+"@kline_5m", s+"@depth20@100ms")
	}
	return b.StreamBase + "?streams=" + strings.Join(streams, "/")
}

// Run connects and consumes frames until ctx ends, reconnecting after a
// fixed delay on any stream error. Detector state persists across
// reconnects; the volume baseline is fetched only once.
func (b *StreamBot) Run(ctx context.Context) error {
	if b.monitor == nil {
		b.monitor = NewMonitor(b.opts, FetchVolumeBaselines(ctx, b.symbols))
	}

	banner := "🤖 <b>币安监控机器人已启动</b>\n监控项: 实时大单 / 密集交易 / 3倍放量 / 挂单墙"
	if err := b.sender.SendContext(ctx, banner); err != nil {
		log.Printf("[WARN] binance: 启动消息发送失败: %v", err)
	}

	for {
		if err := b.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[WARN] binance: 连接断开，%s后重连: %v", reconnectDelay, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// consume runs a single connection lifetime.
func (b *StreamBot) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, b.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log.Printf("[INFO] binance: ✅ WebSocket 连接成功，监听 %d 个币种...", len(b.symbols))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		for _, a := range b.handleFrame(raw) {
			if err := b.sender.SendContext(ctx, a.Text); err != nil {
				log.Printf("[ERROR] binance: 推送失败: %v", err)
				continue
			}
			if err := b.rec.RecordAlert(&recorder.SentAlert{
				Bot: b.Name(), Kind: a.Kind, Symbol: a.Symbol, ValueUSD: a.ValueUSD, Message: a.Text,
			}); err != nil {
				log.Printf("[ERROR] binance: record alert: %v", err)
			}
		}
	}
}

// streamFrame is the combined-stream envelope.
type streamFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type aggTradeJSON struct {
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

type klineJSON struct {
	EventTime int64 `json:"E"`
	K         struct {
		Volume string `json:"v"`
		Close  string `json:"c"`
		Closed bool   `json:"x"`
	} `json:"k"`
}

// depthJSON tolerates both the long and short key forms seen on partial
// depth streams.
type depthJSON struct {
	Bids   [][]string `json:"bids"`
	Asks   [][]string `json:"asks"`
	ShortB [][]string `json:"b"`
	ShortA [][]string `json:"a"`
}

// handleFrame parses one combined-stream frame and runs the matching
// detector. Unparseable frames are logged and skipped.
func (b *StreamBot) handleFrame(raw []byte) []model.Alert {
	var frame streamFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Stream == "" {
		return nil
	}
	symbol := strings.ToUpper(strings.SplitN(frame.Stream, "@", 2)[0])

	switch {
	case strings.Contains(frame.Stream, "aggTrade"):
		var t aggTradeJSON
		if err := json.Unmarshal(frame.Data, &t); err != nil {
			log.Printf("[WARN] binance: decode aggTrade: %v", err)
			return nil
		}
		return b.monitor.ProcessTrade(model.TradeTick{
			Symbol:       symbol,
			Price:        parseFloat(t.Price),
			Quantity:     parseFloat(t.Quantity),
			TimeMs:       t.TradeTime,
			IsBuyerMaker: t.IsBuyerMaker,
		})

	case strings.Contains(frame.Stream, "kline"):
		var k klineJSON
		if err := json.Unmarshal(frame.Data, &k); err != nil {
			log.Printf("[WARN] binance: decode kline: %v", err)
			return nil
		}
		return b.monitor.ProcessKline(model.Kline{
			Symbol:      symbol,
			Closed:      k.K.Closed,
			Volume:      parseFloat(k.K.Volume),
			ClosePrice:  parseFloat(k.K.Close),
			EventTimeMs: k.EventTime,
		})

	case strings.Contains(frame.Stream, "depth"):
		var d depthJSON
		if err := json.Unmarshal(frame.Data, &d); err != nil {
			log.Printf("[WARN] binance: decode depth: %v", err)
			return nil
		}
		bids, asks := d.Bids, d.Asks
		if bids == nil {
			bids = d.ShortB
		}
		if asks == nil {
			asks = d.ShortA
		}
		return b.monitor.ProcessDepth(model.DepthSnapshot{
			Symbol: symbol,
			Bids:   parseLevels(bids),
			Asks:   parseLevels(asks),
		})
	}
	return nil
}

func parseLevels(raw [][]string) []model.DepthLevel {
	levels := make([]model.DepthLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		levels = append(levels, model.DepthLevel{
			Price:    parseFloat(pair[0]),
			Quantity: parseFloat(pair[1]),
		})
	}
	return levels
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
