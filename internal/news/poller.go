package news

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"CoinSentry/internal/model"
	"CoinSentry/internal/recorder"

	"github.com/robfig/cron/v3"
)

const pollSpec = "@every 60s"

// Source provides the latest news item.
type Source interface {
	FetchLatest(ctx context.Context) (*model.NewsItem, error)
}

// Sender delivers one formatted alert.
type Sender interface {
	SendContext(ctx context.Context, text string) error
}

// Poller watches the news feed and forwards each new item exactly once.
// Change detection compares the fingerprint of the latest item against
// the persisted one; equal means nothing new.
type Poller struct {
	source    Source
	sender    Sender
	rec       recorder.Recorder
	statePath string

	last string
}

// NewPoller creates the news poller. statePath is the fingerprint file.
func NewPoller(source Source, sender Sender, rec recorder.Recorder, statePath string) *Poller {
	return &Poller{
		source:    source,
		sender:    sender,
		rec:       rec,
		statePath: statePath,
	}
}

// Name implements runner.Bot.
func (p *Poller) Name() string { return "news" }

// Run polls once immediately, then every minute until ctx ends.
func (p *Poller) Run(ctx context.Context) error {
	last, err := LoadFingerprint(p.statePath)
	if err != nil {
		log.Printf("[WARN] news: 读取状态文件失败，将从头开始: %v", err)
	}
	p.last = last
	log.Printf("[INFO] news: 快讯监控已启动 (上次指纹: %q)", p.last)

	p.cycle(ctx)

	c := cron.New()
	if _, err := c.AddFunc(pollSpec, func() { p.cycle(ctx) }); err != nil {
		return fmt.Errorf("schedule news poll: %w", err)
	}
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// cycle fetches the latest item and pushes it when its fingerprint differs
// from the last seen one.
func (p *Poller) cycle(ctx context.Context) {
	item, err := p.source.FetchLatest(ctx)
	if err != nil {
		log.Printf("[WARN] news: 获取快讯失败: %v", err)
		return
	}
	if item == nil {
		return
	}

	fp := item.Fingerprint()
	if fp == p.last {
		return
	}
	p.last = fp
	if err := SaveFingerprint(p.statePath, fp); err != nil {
		log.Printf("[ERROR] news: 保存状态文件失败: %v", err)
	}

	text := FormatItem(item)
	if err := p.sender.SendContext(ctx, text); err != nil {
		log.Printf("[ERROR] news: 推送失败: %v", err)
		return
	}
	if err := p.rec.RecordAlert(&recorder.SentAlert{
		Bot: p.Name(), Kind: model.KindNews, Message: text,
	}); err != nil {
		log.Printf("[ERROR] news: record alert: %v", err)
	}
	log.Printf("[INFO] news: 推送了新快讯: %s", item.Title)
}

// FormatItem renders one news item as a Telegram HTML message.
func FormatItem(item *model.NewsItem) string {
	title := item.Title
	if title == "" {
		title = "无标题"
	}
	content := item.Content
	if content == "" {
		content = "暂无摘要"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📰 Mlion 快讯</b>\n\n<b>• %s</b>\n\n", title)
	fmt.Fprintf(&b, "🗓 %s", formatPubTime(item.PubTime))
	if tags := formatTags(item.Tags); tags != "" {
		b.WriteString(" | " + tags)
	}
	fmt.Fprintf(&b, "\n\n%s", content)
	if item.URL != "" {
		fmt.Fprintf(&b, "\n\n<a href='%s'>🔗 查看详情</a>", item.URL)
	}
	return b.String()
}

// formatPubTime renders an epoch-seconds timestamp as local wall time.
// Non-numeric values pass through untouched.
func formatPubTime(raw string) string {
	if raw == "" {
		return "未知时间"
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return time.Unix(sec, 0).Format("2006-01-02 15:04:05")
}

func formatTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, " ")
}
