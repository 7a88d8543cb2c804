package binance

import (
	"fmt"
	"strconv"
	"time"

	"CoinSentry/internal/model"
	"CoinSentry/internal/notifier"
)

const (
	// burstWindowMs bounds the clustering window for the burst detector.
	// Entries older than this are evicted from the head before each check.
	burstWindowMs = 6000

	// wallCooldown suppresses repeat alerts for the same price level, so a
	// resting wall does not produce an alert storm on every snapshot.
	wallCooldown = 300 * time.Second

	// disabledBaseline is the sentinel volume baseline assigned when the
	// historical fetch fails: no real candle will ever exceed it.
	disabledBaseline = 99999999
)

const (
	sideBuy  = "买入挂单"
	sideSell = "卖出挂单"

	dirBuy  = "🟢 主动买入"
	dirSell = "🔴 主动卖出"
)

// Options configures the detectors.
type Options struct {
	SingleQtyThreshold map[string]float64 // per-symbol single-trade quantity floor
	BurstAmountUSD     float64            // per-trade USD floor for burst tracking
	BurstCountTrigger  int                // burst fires when window count strictly exceeds this
	VolumeMultiplier   float64            // closed-candle volume anomaly multiplier
	WallThresholdUSD   float64            // order-book wall notional floor
}

type burstEntry struct {
	timeMs int64
	usd    float64
}

// Monitor holds all per-symbol detector state: rolling burst windows, the
// startup volume baselines and the wall alert cooldown history. The state
// is process state, not connection state: it survives reconnects.
//
// The burst window is cleared entirely when it fires (one-shot reset, not
// a sliding cooldown), and the volume baseline is computed once at startup
// and never refreshed.
type Monitor struct {
	opts     Options
	baseline map[string]float64
	bursts   map[string]map[string][]burstEntry // symbol -> direction -> window
	wallLast map[string]time.Time               // "SYMBOL_side_price" -> last alert

	now func() time.Time
}

// NewMonitor creates a Monitor with the given baselines (symbol -> average
// 5-minute volume over the last 24h).
func NewMonitor(opts Options, baseline map[string]float64) *Monitor {
	if baseline == nil {
		baseline = map[string]float64{}
	}
	return &Monitor{
		opts:     opts,
		baseline: baseline,
		bursts:   make(map[string]map[string][]burstEntry),
		wallLast: make(map[string]time.Time),
		now:      time.Now,
	}
}

// ProcessTrade runs the single-large-trade and burst detectors on one tick.
func (m *Monitor) ProcessTrade(t model.TradeTick) []model.Alert {
	var alerts []model.Alert

	amountUSD := t.Price * t.Quantity
	direction := dirBuy
	if t.IsBuyerMaker {
		direction = dirSell
	}

	// Single large trade: quantity at or above the per-symbol floor.
	if floor, ok := m.opts.SingleQtyThreshold[t.Symbol]; ok && t.Quantity >= floor {
		alerts = append(alerts, model.Alert{
			Kind:     model.KindLargeTrade,
			Symbol:   t.Symbol,
			ValueUSD: amountUSD,
			Text: fmt.Sprintf(
				"⚡ <b>大额成交监控</b>\n币对: %s\n方向: <b>%s</b>\n数量: %.3f\n价格: %s\n金额: <b>%s</b>\n时间: %s",
				t.Symbol, direction, t.Quantity, formatPrice(t.Price),
				notifier.FormatAmount(amountUSD), notifier.FormatClock(t.TimeMs)),
		})
	}

	// Burst: qualifying trades clustered within the rolling window.
	if amountUSD >= m.opts.BurstAmountUSD {
		dirKey := "BUY"
		if t.IsBuyerMaker {
			dirKey = "SELL"
		}
		if m.bursts[t.Symbol] == nil {
			m.bursts[t.Symbol] = make(map[string][]burstEntry)
		}
		window := append(m.bursts[t.Symbol][dirKey], burstEntry{timeMs: t.TimeMs, usd: amountUSD})

		// Evict expired entries from the head.
		start := 0
		for start < len(window) && t.TimeMs-window[start].timeMs > burstWindowMs {
			start++
		}
		window = window[start:]

		if len(window) > m.opts.BurstCountTrigger {
			total := 0.0
			for _, e := range window {
				total += e.usd
			}
			alerts = append(alerts, model.Alert{
				Kind:     model.KindBurst,
				Symbol:   t.Symbol,
				ValueUSD: total,
				Text: fmt.Sprintf(
					"🚨 <b>密集大单报警 (1分钟内)</b>\n币对: %s\n方向: <b>%s</b>\n频次: %d笔\n总金额: <b>%s</b>\n当前价: %s",
					t.Symbol, direction, len(window),
					notifier.FormatAmount(total), formatPrice(t.Price)),
			})
			// One-shot reset: the window restarts empty after firing.
			window = nil
		}
		m.bursts[t.Symbol][dirKey] = window
	}

	return alerts
}

// ProcessKline runs the volume anomaly detector on one candle update.
// In-progress candles never fire, regardless of volume.
func (m *Monitor) ProcessKline(k model.Kline) []model.Alert {
	if !k.Closed {
		return nil
	}
	avg := m.baseline[k.Symbol]
	if avg <= 0 || k.Volume <= avg*m.opts.VolumeMultiplier {
		return nil
	}

	multiple := k.Volume / avg
	amountUSD := k.Volume * k.ClosePrice
	return []model.Alert{{
		Kind:     model.KindVolumeAnomaly,
		Symbol:   k.Symbol,
		ValueUSD: amountUSD,
		Text: fmt.Sprintf(
			"📈 <b>成交量异常飙升</b>\n币对: %s\n时间: %s\n当前量: %s (均量 %s)\n倍数: <b>%.1f倍</b> 🔥\n成交额: %s",
			k.Symbol, notifier.FormatClock(k.EventTimeMs),
			notifier.FormatAmount(k.Volume), notifier.FormatAmount(avg),
			multiple, notifier.FormatAmount(amountUSD)),
	}}
}

// ProcessDepth scans every level of a partial order-book snapshot for walls.
func (m *Monitor) ProcessDepth(d model.DepthSnapshot) []model.Alert {
	var alerts []model.Alert
	for _, lvl := range d.Bids {
		if a := m.checkWall(d.Symbol, sideBuy, lvl); a != nil {
			alerts = append(alerts, *a)
		}
	}
	for _, lvl := range d.Asks {
		if a := m.checkWall(d.Symbol, sideSell, lvl); a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}

func (m *Monitor) checkWall(symbol, side string, lvl model.DepthLevel) *model.Alert {
	amountUSD := lvl.Price * lvl.Quantity
	if amountUSD < m.opts.WallThresholdUSD {
		return nil
	}

	key := fmt.Sprintf("%s_%s_%d", symbol, side, int64(lvl.Price))
	now := m.now()
	if last, ok := m.wallLast[key]; ok && now.Sub(last) < wallCooldown {
		return nil
	}
	m.wallLast[key] = now

	emoji := "🧗"
	if side == sideBuy {
		emoji = "🧱"
	}
	return &model.Alert{
		Kind:     model.KindOrderWall,
		Symbol:   symbol,
		ValueUSD: amountUSD,
		Text: fmt.Sprintf(
			"%s <b>发现巨额挂单 (Order Wall)</b>\n币对: %s\n方向: <b>%s</b>\n价格: %s\n金额: <b>%s</b>",
			emoji, symbol, side, formatPrice(lvl.Price), notifier.FormatAmount(amountUSD)),
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
