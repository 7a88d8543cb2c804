package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"CoinSentry/internal/model"
	"CoinSentry/internal/notifier"
	"CoinSentry/internal/recorder"
)

const shutdownTimeout = 5 * time.Second

// Telegram is the outbound surface the webhook service needs: message
// delivery plus the two connectivity probes exposed as endpoints.
type Telegram interface {
	SendContext(ctx context.Context, text string) error
	HealthCheck(ctx context.Context) bool
	TestConnectivity(ctx context.Context) notifier.TestResult
}

// Server receives relayed tweets over HTTP, filters them by keyword and
// forwards matches to Telegram. It also exposes status and metrics
// endpoints for the whole service.
type Server struct {
	routePath string
	port      int
	keywords  []string
	tg        Telegram
	rec       recorder.Recorder

	monitor *Monitor
	tracker *TwitterTracker
}

// NewServer creates the webhook service.
func NewServer(routePath string, port int, keywords []string, tg Telegram, rec recorder.Recorder) *Server {
	return &Server{
		routePath: routePath,
		port:      port,
		keywords:  keywords,
		tg:        tg,
		rec:       rec,
		monitor:   NewMonitor(),
		tracker:   NewTwitterTracker(),
	}
}

// Name implements runner.Bot.
func (s *Server) Name() string { return "webhook" }

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("[INFO] webhook: 🚀 Webhook 服务已启动，端口 %d，路径 %s", s.port, s.routePath)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Printf("[WARN] webhook: 关闭服务失败: %v", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

// Routes builds the HTTP mux. Exported so tests can drive the handlers
// without binding a port.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(s.routePath, s.handleWebhook)
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/status/print", s.handleStatusPrint)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/telegram/test", s.handleTelegramTest)
	mux.HandleFunc("/twitter/status", s.handleTwitterStatus)
	mux.HandleFunc("/twitter/status/print", s.handleTwitterStatusPrint)
	mux.HandleFunc("/twitter/logs", s.handleTwitterLogs)
	return mux
}

// handleWebhook processes one relayed payload. The relay treats any
// non-200 as a delivery failure and retries, so every outcome, including
// processing errors, answers 200 with a status body.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprint(p)
			log.Printf("[ERROR] webhook: ==Twitter== 处理数据异常: %s", msg)
			s.monitor.LogRequest(false, msg)
			writeJSON(w, map[string]any{"status": "error", "msg": msg})
		}
	}()

	log.Printf("[INFO] webhook: ==Twitter== 收到 Webhook 请求: %s", s.routePath)
	s.monitor.LogRequest(true, "")
	s.tracker.LogRequest(true, "")

	data := decodePayload(r)

	if len(data) == 0 {
		log.Println("[INFO] webhook: ==Twitter== 收到空数据，按握手请求处理")
		s.monitor.LogWebhookReceived(true)
		s.tracker.LogIgnored("handshake/empty_data")
		writeJSON(w, map[string]any{"status": "success", "msg": "Handshake received"})
		return
	}
	s.monitor.LogWebhookReceived(false)

	tweet := ExtractTweet(data)
	s.tracker.LogTweetParsed(true, "")

	if Empty(tweet) {
		log.Println("[INFO] webhook: ==Twitter== 数据有效但不包含内容，跳过发送")
		s.monitor.LogWebhookReceived(true)
		s.tracker.LogIgnored("no_content")
		writeJSON(w, map[string]any{"status": "ignored"})
		return
	}

	keyword, matched := MatchKeyword(tweet.Text, s.keywords)
	if !matched {
		log.Println("[INFO] webhook: ==Twitter== 推文不包含监控关键词，跳过发送")
		s.tracker.LogKeywordMatch("none", false)
		s.monitor.LogWebhookReceived(true)
		writeJSON(w, map[string]any{"status": "ignored", "reason": "no_keyword_match"})
		return
	}
	log.Printf("[INFO] webhook: ==Twitter== 关键词 '%s' 匹配成功", keyword)
	s.tracker.LogKeywordMatch(keyword, true)

	text := FormatTweet(tweet)
	if err := s.tg.SendContext(r.Context(), text); err != nil {
		log.Printf("[ERROR] webhook: 推送失败: %v", err)
		s.monitor.LogTelegramResult(false, err.Error())
		s.tracker.LogForward(false, err.Error())
	} else {
		s.monitor.LogTelegramResult(true, "")
		s.tracker.LogForward(true, "")
		if err := s.rec.RecordAlert(&recorder.SentAlert{
			Bot: s.Name(), Kind: model.KindTweet, Message: text,
		}); err != nil {
			log.Printf("[ERROR] webhook: record alert: %v", err)
		}
	}

	writeJSON(w, map[string]any{"status": "success"})
}

// decodePayload accepts a JSON object body or a form-encoded body.
func decodePayload(r *http.Request) map[string]any {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	data := make(map[string]any)
	if err := json.Unmarshal(body, &data); err == nil {
		return data
	}

	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return nil
	}
	for k, v := range vals {
		if len(v) > 0 {
			data[k] = v[0]
		}
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"status":  "ok",
		"service": "Twitter Webhook Server",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"webhook": s.routePath,
			"health":  "/health",
			"status":  "/status",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.monitor.RunHealthCheck(r.Context(), s.tg)
	writeJSON(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "botsever",
		"port":      s.port,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.Report())
}

func (s *Server) handleStatusPrint(w http.ResponseWriter, r *http.Request) {
	s.monitor.PrintStatus()
	writeJSON(w, map[string]any{"status": "printed", "message": "状态已打印到控制台"})
}

func (s *Server) handleTelegramTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tg.TestConnectivity(r.Context()))
}

func (s *Server) handleTwitterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tracker.Report())
}

func (s *Server) handleTwitterStatusPrint(w http.ResponseWriter, r *http.Request) {
	s.tracker.PrintStatus()
	writeJSON(w, map[string]any{"status": "printed", "message": "Twitter 状态已打印到控制台"})
}

func (s *Server) handleTwitterLogs(w http.ResponseWriter, r *http.Request) {
	logs := s.tracker.RecentLogs(50)
	writeJSON(w, map[string]any{"count": len(logs), "logs": logs})
}

// handleMetrics renders the Prometheus text exposition by hand; the
// counter surface is small enough that a client library would be heavier
// than the output.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rep := s.monitor.Report()
	twRep := s.tracker.Report()

	var b bytes.Buffer
	writeMetric(&b, "botsever_uptime_seconds", "服务运行时间（秒）", "gauge", fmt.Sprintf("%.1f", rep.UptimeSeconds))
	writeMetric(&b, "botsever_requests_total", "总请求数", "counter", fmt.Sprint(rep.Metrics.TotalRequests))
	writeMetric(&b, "botsever_requests_success_total", "成功请求数", "counter", fmt.Sprint(rep.Metrics.SuccessfulRequests))
	writeMetric(&b, "botsever_requests_failed_total", "失败请求数", "counter", fmt.Sprint(rep.Metrics.FailedRequests))
	writeMetric(&b, "botsever_telegram_success_total", "Telegram发送成功次数", "counter", fmt.Sprint(rep.Metrics.TelegramSuccess))
	writeMetric(&b, "botsever_telegram_error_total", "Telegram发送失败次数", "counter", fmt.Sprint(rep.Metrics.TelegramErrors))
	writeMetric(&b, "botsever_webhook_received_total", "Webhook接收次数", "counter", fmt.Sprint(rep.Metrics.WebhookReceived))
	writeMetric(&b, "twitter_webhook_requests_total", "Twitter Webhook请求数", "counter", fmt.Sprint(twRep.Webhook.TotalRequests))
	writeMetric(&b, "twitter_keyword_matched_total", "关键词匹配次数", "counter", fmt.Sprint(twRep.KeywordMatching.Matched))
	writeMetric(&b, "twitter_tweet_parsed_total", "推文解析成功次数", "counter", fmt.Sprint(twRep.TweetParsing.Success))
	writeMetric(&b, "twitter_forward_success_total", "Telegram转发成功次数", "counter", fmt.Sprint(twRep.TelegramForward.Success))

	w.Header().Set("Content-Type", "text/plain")
	w.Write(b.Bytes())
}

func writeMetric(b *bytes.Buffer, name, help, typ, value string) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n%s %s\n", name, help, name, typ, name, value)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] webhook: encode response: %v", err)
	}
}
