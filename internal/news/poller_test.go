package news

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CoinSentry/internal/model"
	"CoinSentry/internal/recorder"
)

type fakeSource struct {
	item *model.NewsItem
	err  error
}

func (f *fakeSource) FetchLatest(ctx context.Context) (*model.NewsItem, error) {
	return f.item, f.err
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendContext(ctx context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func TestFingerprintPriority(t *testing.T) {
	cases := []struct {
		item model.NewsItem
		want string
	}{
		{model.NewsItem{ID: "42", PubTime: "1715000000", Title: "t"}, "42"},
		{model.NewsItem{PubTime: "1715000000", Title: "t"}, "1715000000"},
		{model.NewsItem{Title: "t"}, "t"},
		{model.NewsItem{}, ""},
	}
	for _, c := range cases {
		if got := c.item.Fingerprint(); got != c.want {
			t.Errorf("Fingerprint(%+v) = %q, want %q", c.item, got, c.want)
		}
	}
}

func TestStateRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	// Missing file is an empty fingerprint, not an error.
	fp, err := LoadFingerprint(path)
	if err != nil || fp != "" {
		t.Fatalf("LoadFingerprint(missing) = %q, %v", fp, err)
	}

	if err := SaveFingerprint(path, "abc123"); err != nil {
		t.Fatalf("SaveFingerprint: %v", err)
	}
	fp, err = LoadFingerprint(path)
	if err != nil {
		t.Fatalf("LoadFingerprint: %v", err)
	}
	if fp != "abc123" {
		t.Errorf("fingerprint = %q, want abc123", fp)
	}
}

func TestCycle_NewItemOnce(t *testing.T) {
	src := &fakeSource{item: &model.NewsItem{ID: "1", Title: "BTC突破新高", Content: "正文"}}
	snd := &fakeSender{}
	p := NewPoller(src, snd, recorder.NewNoopRecorder(), filepath.Join(t.TempDir(), "state.json"))

	p.cycle(context.Background())
	if len(snd.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(snd.sent))
	}

	// Same item again: fingerprint unchanged, nothing sent.
	p.cycle(context.Background())
	if len(snd.sent) != 1 {
		t.Fatalf("duplicate item re-sent, %d sends", len(snd.sent))
	}

	// Fingerprint persisted for the next process lifetime.
	fp, err := LoadFingerprint(p.statePath)
	if err != nil || fp != "1" {
		t.Errorf("persisted fingerprint = %q, %v", fp, err)
	}

	src.item = &model.NewsItem{ID: "2", Title: "ETH大涨"}
	p.cycle(context.Background())
	if len(snd.sent) != 2 {
		t.Errorf("new item not sent, %d sends", len(snd.sent))
	}
}

func TestCycle_ErrorAndEmptyFeed(t *testing.T) {
	snd := &fakeSender{}
	p := NewPoller(&fakeSource{err: context.DeadlineExceeded}, snd, recorder.NewNoopRecorder(), filepath.Join(t.TempDir(), "state.json"))
	p.cycle(context.Background())

	p.source = &fakeSource{item: nil}
	p.cycle(context.Background())

	if len(snd.sent) != 0 {
		t.Errorf("error/empty cycles sent %d messages", len(snd.sent))
	}
}

func TestFormatItem(t *testing.T) {
	item := &model.NewsItem{
		Title:   "比特币突破7万美元",
		Content: "市场情绪高涨。",
		PubTime: "1715000000",
		Tags:    []string{"BTC", "行情"},
		URL:     "https://example.com/n/1",
	}

	text := FormatItem(item)
	for _, want := range []string{
		"📰 Mlion 快讯",
		"比特币突破7万美元",
		"#BTC #行情",
		"市场情绪高涨。",
		"https://example.com/n/1",
		time.Unix(1715000000, 0).Format("2006-01-02 15:04:05"),
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

func TestFormatItem_Defaults(t *testing.T) {
	text := FormatItem(&model.NewsItem{PubTime: "not-a-number"})
	for _, want := range []string{"无标题", "暂无摘要", "not-a-number"} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "查看详情") {
		t.Error("empty URL must not render a link")
	}
}
