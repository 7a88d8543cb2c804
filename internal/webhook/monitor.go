package webhook

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

const (
	recentLogCapacity = 100
	recentLogReported = 20
)

// LogEntry is one tracked webhook event.
type LogEntry struct {
	Time   string `json:"time"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ErrorInfo carries the last observed error for status reports.
type ErrorInfo struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// Monitor tracks service-level counters: requests, Telegram delivery and
// per-interface health. All methods are safe for concurrent use.
type Monitor struct {
	mu sync.Mutex

	startTime       time.Time
	requestCount    int
	successCount    int
	errorCount      int
	lastRequestTime *time.Time
	lastErrorTime   *time.Time
	lastErrorMsg    string

	telegramSuccess int
	telegramError   int
	webhookReceived int
	webhookIgnored  int

	// nil = unknown, otherwise healthy/unhealthy
	interfaceStatus map[string]*bool
}

// NewMonitor creates the service monitor.
func NewMonitor() *Monitor {
	httpUp := true
	return &Monitor{
		startTime: time.Now(),
		interfaceStatus: map[string]*bool{
			"telegram_api":     nil,
			"webhook_endpoint": &httpUp,
			"http_server":      &httpUp,
		},
	}
}

// LogRequest records one inbound request to the webhook route.
func (m *Monitor) LogRequest(success bool, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount++
	now := time.Now()
	m.lastRequestTime = &now
	ok := success
	m.interfaceStatus["webhook_endpoint"] = &ok
	if success {
		m.successCount++
	} else {
		m.errorCount++
		m.lastErrorTime = &now
		m.lastErrorMsg = errMsg
	}
}

// LogTelegramResult records one outbound Telegram send.
func (m *Monitor) LogTelegramResult(success bool, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := success
	m.interfaceStatus["telegram_api"] = &ok
	if success {
		m.telegramSuccess++
	} else {
		m.telegramError++
		now := time.Now()
		m.lastErrorTime = &now
		m.lastErrorMsg = errMsg
	}
}

// LogWebhookReceived records one payload, counted as ignored or accepted.
func (m *Monitor) LogWebhookReceived(ignored bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ignored {
		m.webhookIgnored++
	} else {
		m.webhookReceived++
	}
}

// HealthProbe checks Telegram reachability.
type HealthProbe interface {
	HealthCheck(ctx context.Context) bool
}

// RunHealthCheck probes Telegram and records the result.
func (m *Monitor) RunHealthCheck(ctx context.Context, probe HealthProbe) {
	ok := probe.HealthCheck(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interfaceStatus["telegram_api"] = &ok
}

// MetricsReport is the counters block of the status report.
type MetricsReport struct {
	TotalRequests      int    `json:"total_requests"`
	SuccessfulRequests int    `json:"successful_requests"`
	FailedRequests     int    `json:"failed_requests"`
	SuccessRate        string `json:"success_rate"`
	TelegramSuccess    int    `json:"telegram_success"`
	TelegramErrors     int    `json:"telegram_errors"`
	WebhookReceived    int    `json:"webhook_received"`
	WebhookIgnored     int    `json:"webhook_ignored"`
}

// StatusReport is the full service status document.
type StatusReport struct {
	Status          string           `json:"status"`
	Uptime          string           `json:"uptime"`
	UptimeSeconds   float64          `json:"uptime_seconds"`
	Metrics         MetricsReport    `json:"metrics"`
	InterfaceStatus map[string]*bool `json:"interface_status"`
	LastRequest     *string          `json:"last_request"`
	LastError       *ErrorInfo       `json:"last_error"`
	StartTime       string           `json:"start_time"`
}

// Report snapshots the monitor state.
func (m *Monitor) Report() StatusReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	uptime := time.Since(m.startTime).Seconds()
	status := "healthy"
	if m.errorCount > 0 {
		status = "degraded"
	}

	ifaces := make(map[string]*bool, len(m.interfaceStatus))
	for k, v := range m.interfaceStatus {
		ifaces[k] = v
	}

	rep := StatusReport{
		Status:        status,
		Uptime:        formatUptime(uptime),
		UptimeSeconds: uptime,
		Metrics: MetricsReport{
			TotalRequests:      m.requestCount,
			SuccessfulRequests: m.successCount,
			FailedRequests:     m.errorCount,
			SuccessRate:        successRate(m.successCount, m.requestCount),
			TelegramSuccess:    m.telegramSuccess,
			TelegramErrors:     m.telegramError,
			WebhookReceived:    m.webhookReceived,
			WebhookIgnored:     m.webhookIgnored,
		},
		InterfaceStatus: ifaces,
		StartTime:       m.startTime.Format(time.RFC3339),
	}
	if m.lastRequestTime != nil {
		s := m.lastRequestTime.Format(time.RFC3339)
		rep.LastRequest = &s
	}
	if m.lastErrorTime != nil {
		rep.LastError = &ErrorInfo{
			Time:    m.lastErrorTime.Format(time.RFC3339),
			Message: m.lastErrorMsg,
		}
	}
	return rep
}

// PrintStatus writes a human-readable status summary to the log.
func (m *Monitor) PrintStatus() {
	rep := m.Report()
	log.Println(strings.Repeat("=", 60))
	log.Println("📊 监控状态报告")
	log.Printf("🟢 运行时间: %s", rep.Uptime)
	log.Printf("📈 总请求数: %d", rep.Metrics.TotalRequests)
	log.Printf("✅ 成功率: %s", rep.Metrics.SuccessRate)
	log.Printf("📤 Telegram 发送: %d 成功, %d 失败", rep.Metrics.TelegramSuccess, rep.Metrics.TelegramErrors)
	log.Printf("🔗 Webhook 接收: %d 条, %d 条忽略", rep.Metrics.WebhookReceived, rep.Metrics.WebhookIgnored)
	for name, up := range rep.InterfaceStatus {
		icon := "⚪"
		if up != nil {
			if *up {
				icon = "✅"
			} else {
				icon = "❌"
			}
		}
		log.Printf("   %s %s", icon, name)
	}
	log.Println(strings.Repeat("=", 60))
}

// TwitterTracker tracks the tweet pipeline specifically: parsing, keyword
// matching and forwarding, plus a bounded ring of recent events.
type TwitterTracker struct {
	mu sync.Mutex

	startTime time.Time

	requests int
	success  int
	errors   int
	ignored  int

	keywordMatched    int
	keywordNotMatched int
	matchedKeywords   map[string]struct{}

	parsedSuccess int
	parsedError   int
	lastTweetTime *time.Time
	lastErrorMsg  string

	forwardSuccess int
	forwardError   int

	recent []LogEntry
}

// NewTwitterTracker creates the tweet pipeline tracker.
func NewTwitterTracker() *TwitterTracker {
	return &TwitterTracker{
		startTime:       time.Now(),
		matchedKeywords: make(map[string]struct{}),
	}
}

// LogRequest records one inbound webhook request.
func (t *TwitterTracker) LogRequest(success bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests++
	if success {
		t.success++
	} else {
		t.errors++
		t.lastErrorMsg = errMsg
	}
}

// LogIgnored records a skipped payload and why.
func (t *TwitterTracker) LogIgnored(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ignored++
	t.recent = append(t.recent, LogEntry{
		Time:   time.Now().Format(time.RFC3339),
		Type:   "ignored",
		Reason: reason,
	})
	if len(t.recent) > recentLogCapacity {
		t.recent = t.recent[1:]
	}
}

// LogKeywordMatch records one keyword filter decision.
func (t *TwitterTracker) LogKeywordMatch(keyword string, matched bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if matched {
		t.keywordMatched++
		t.matchedKeywords[keyword] = struct{}{}
	} else {
		t.keywordNotMatched++
	}
}

// LogTweetParsed records one extraction attempt.
func (t *TwitterTracker) LogTweetParsed(success bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if success {
		t.parsedSuccess++
		now := time.Now()
		t.lastTweetTime = &now
	} else {
		t.parsedError++
		t.lastErrorMsg = errMsg
	}
}

// LogForward records one Telegram forward attempt.
func (t *TwitterTracker) LogForward(success bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if success {
		t.forwardSuccess++
	} else {
		t.forwardError++
		t.lastErrorMsg = errMsg
	}
}

// TwitterReport is the tweet pipeline status document.
type TwitterReport struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Webhook       struct {
		TotalRequests int    `json:"total_requests"`
		Success       int    `json:"success"`
		Errors        int    `json:"errors"`
		Ignored       int    `json:"ignored"`
		SuccessRate   string `json:"success_rate"`
	} `json:"webhook"`
	KeywordMatching struct {
		Matched         int      `json:"matched"`
		NotMatched      int      `json:"not_matched"`
		UniqueKeywords  int      `json:"unique_keywords"`
		MatchedKeywords []string `json:"matched_keywords"`
	} `json:"keyword_matching"`
	TweetParsing struct {
		Success int `json:"success"`
		Errors  int `json:"errors"`
	} `json:"tweet_parsing"`
	TelegramForward struct {
		Success int `json:"success"`
		Errors  int `json:"errors"`
	} `json:"telegram_forward"`
	LastActivity struct {
		LastTweet *string    `json:"last_tweet"`
		LastError *ErrorInfo `json:"last_error"`
	} `json:"last_activity"`
	RecentLogs []LogEntry `json:"recent_logs"`
}

// Report snapshots the tracker state. The recent-log ring keeps up to 100
// entries; the report carries the newest 20.
func (t *TwitterTracker) Report() TwitterReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	uptime := time.Since(t.startTime).Seconds()
	var rep TwitterReport
	rep.Status = "healthy"
	if t.errors > 0 {
		rep.Status = "degraded"
	}
	rep.Uptime = formatUptime(uptime)
	rep.UptimeSeconds = uptime

	rep.Webhook.TotalRequests = t.requests
	rep.Webhook.Success = t.success
	rep.Webhook.Errors = t.errors
	rep.Webhook.Ignored = t.ignored
	rep.Webhook.SuccessRate = successRate(t.success, t.requests)

	rep.KeywordMatching.Matched = t.keywordMatched
	rep.KeywordMatching.NotMatched = t.keywordNotMatched
	rep.KeywordMatching.UniqueKeywords = len(t.matchedKeywords)
	rep.KeywordMatching.MatchedKeywords = make([]string, 0, len(t.matchedKeywords))
	for kw := range t.matchedKeywords {
		rep.KeywordMatching.MatchedKeywords = append(rep.KeywordMatching.MatchedKeywords, kw)
	}

	rep.TweetParsing.Success = t.parsedSuccess
	rep.TweetParsing.Errors = t.parsedError
	rep.TelegramForward.Success = t.forwardSuccess
	rep.TelegramForward.Errors = t.forwardError

	if t.lastTweetTime != nil {
		s := t.lastTweetTime.Format(time.RFC3339)
		rep.LastActivity.LastTweet = &s
	}
	if t.lastErrorMsg != "" {
		rep.LastActivity.LastError = &ErrorInfo{Message: t.lastErrorMsg}
	}

	n := len(t.recent)
	start := n - recentLogReported
	if start < 0 {
		start = 0
	}
	rep.RecentLogs = append([]LogEntry(nil), t.recent[start:]...)
	return rep
}

// RecentLogs returns the newest n ring entries.
func (t *TwitterTracker) RecentLogs(n int) []LogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := len(t.recent) - n
	if start < 0 {
		start = 0
	}
	return append([]LogEntry(nil), t.recent[start:]...)
}

// PrintStatus writes a human-readable tracker summary to the log.
func (t *TwitterTracker) PrintStatus() {
	rep := t.Report()
	log.Println("==Twitter== " + strings.Repeat("=", 60))
	log.Println("==Twitter== 🐦 Twitter 监控状态报告")
	log.Printf("==Twitter== 🟢 运行时间: %s", rep.Uptime)
	log.Printf("==Twitter== 📨 Webhook: %d 请求, %s 成功率", rep.Webhook.TotalRequests, rep.Webhook.SuccessRate)
	log.Printf("==Twitter== 🔍 关键词: %d 匹配, %d 未匹配", rep.KeywordMatching.Matched, rep.KeywordMatching.NotMatched)
	log.Printf("==Twitter== 📝 解析: %d 成功, %d 失败", rep.TweetParsing.Success, rep.TweetParsing.Errors)
	log.Printf("==Twitter== 📤 转发: %d Telegram成功, %d 失败", rep.TelegramForward.Success, rep.TelegramForward.Errors)
	if len(rep.KeywordMatching.MatchedKeywords) > 0 {
		kws := rep.KeywordMatching.MatchedKeywords
		if len(kws) > 5 {
			kws = kws[:5]
		}
		log.Printf("==Twitter== 📌 已匹配关键词: %s", strings.Join(kws, ", "))
	}
	log.Println("==Twitter== " + strings.Repeat("=", 60))
}

func formatUptime(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := total % 3600 / 60
	secs := total % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
}

func successRate(success, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(success)/float64(total)*100)
}
