package arkham

import (
	"context"
	"fmt"
	"log"
	"time"

	"CoinSentry/internal/model"
	"CoinSentry/internal/notifier"
	"CoinSentry/internal/recorder"

	"github.com/robfig/cron/v3"
)

const (
	pollInterval = 2 * time.Minute
	entityPause  = 1 * time.Second

	// dedupCapacity bounds the processed-hash set. Once exceeded the set is
	// cleared wholesale, so a very old hash can momentarily re-alert after
	// a clear.
	dedupCapacity = 5000
)

// Source fetches transfers for a watched entity.
type Source interface {
	FetchTransfers(ctx context.Context, entity string, minValueUSD float64) ([]model.Transfer, error)
}

// Sender delivers one formatted alert.
type Sender interface {
	SendContext(ctx context.Context, text string) error
}

// Poller polls Arkham for large transfers of the watched entities and
// forwards one alert per previously-unseen transaction.
type Poller struct {
	source      Source
	sender      Sender
	rec         recorder.Recorder
	entities    []string
	minValueUSD float64

	seen map[string]struct{}
}

// NewPoller creates a transfer poller. All state (the dedup set) is owned
// by the returned value; nothing is shared between bots.
func NewPoller(source Source, sender Sender, rec recorder.Recorder, entities []string, minValueUSD float64) *Poller {
	return &Poller{
		source:      source,
		sender:      sender,
		rec:         rec,
		entities:    entities,
		minValueUSD: minValueUSD,
		seen:        make(map[string]struct{}),
	}
}

// Name implements runner.Bot.
func (p *Poller) Name() string { return "arkham" }

// Run executes one scan immediately, then every 2 minutes until ctx ends.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.sender.SendContext(ctx, "🚀 <b>Arkham 监控机器人已启动</b>\n配置检测中..."); err != nil {
		log.Printf("[WARN] arkham: 启动消息发送失败: %v", err)
	}

	p.scan(ctx)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", pollInterval), func() { p.scan(ctx) }); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// scan runs one polling cycle across all watched entities. Upstream errors
// are logged and treated as an empty batch; the next cycle retries naturally.
func (p *Poller) scan(ctx context.Context) {
	log.Println("[INFO] arkham: 开始新一轮扫描...")
	for _, entity := range p.entities {
		if ctx.Err() != nil {
			return
		}
		txs, err := p.source.FetchTransfers(ctx, entity, p.minValueUSD)
		if err != nil {
			log.Printf("[WARN] arkham: %v", err)
			txs = nil
		}
		alerts := p.Evaluate(entity, txs)
		for _, a := range alerts {
			if err := p.sender.SendContext(ctx, a.Text); err != nil {
				log.Printf("[ERROR] arkham: 推送失败: %v", err)
				continue
			}
			if err := p.rec.RecordAlert(&recorder.SentAlert{
				Bot: p.Name(), Kind: a.Kind, Symbol: a.Symbol, ValueUSD: a.ValueUSD, Message: a.Text,
			}); err != nil {
				log.Printf("[ERROR] arkham: record alert: %v", err)
			}
		}
		if len(alerts) > 0 {
			log.Printf("[INFO] arkham: [%s] 推送了 %d 条新交易", entity, len(alerts))
		}
		sleepCtx(ctx, entityPause)
	}
}

// Evaluate dedups one batch of transfers (oldest first, reversing the
// newest-first API order) and returns the alerts to deliver. Each hash
// alerts at most once per dedup-set lifetime.
func (p *Poller) Evaluate(entity string, txs []model.Transfer) []model.Alert {
	var alerts []model.Alert
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		if _, ok := p.seen[tx.TransactionHash]; ok {
			continue
		}
		p.seen[tx.TransactionHash] = struct{}{}
		if len(p.seen) > dedupCapacity {
			p.seen = make(map[string]struct{})
		}
		alerts = append(alerts, model.Alert{
			Kind:     model.KindTransfer,
			Symbol:   entity,
			ValueUSD: tx.ValueUSD,
			Text:     formatTransfer(entity, &tx),
		})
	}
	return alerts
}

// displayLabel renders one side of a transfer: the resolved Arkham label
// when present, otherwise the truncated address.
func displayLabel(cp model.Counterparty) string {
	if cp.Label != "" {
		return cp.Label
	}
	if cp.Address == "" {
		return "Unknown"
	}
	if len(cp.Address) > 8 {
		return cp.Address[:8] + "..."
	}
	return cp.Address
}

func formatTransfer(entity string, tx *model.Transfer) string {
	return fmt.Sprintf(
		"🚨 <b>Arkham 大额异动监控</b>\n\n"+
			"🏢 <b>监控对象:</b> #%s\n"+
			"💰 <b>价值:</b> %s\n"+
			"🪙 <b>代币:</b> %s %s\n"+
			"📤 <b>发送方:</b> %s\n"+
			"📥 <b>接收方:</b> %s\n"+
			"⏰ <b>时间:</b> %s\n"+
			"🔗 <a href='https://platform.arkhamintelligence.com/explorer/tx/%s'>查看 Arkham 详情</a>",
		entity,
		notifier.FormatUSD(tx.ValueUSD),
		notifier.FormatQuantity(tx.TokenAmount), tx.TokenSymbol,
		displayLabel(tx.From),
		displayLabel(tx.To),
		tx.BlockTime,
		tx.TransactionHash,
	)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
