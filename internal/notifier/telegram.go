package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultAPIBase = "https://api.telegram.org"

// Browser-like headers; some hosting providers get rate-limited otherwise.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Notifier sends HTML messages to a Telegram chat, optionally scoped to a
// topic/thread. Each bot owns its own Notifier with its own topic id.
//
// Delivery contract: if Telegram rejects the topic id with "message thread
// not found", the send is retried once without the topic id so the message
// still reaches the main chat. Any other failure is returned to the caller,
// who logs it and drops the alert (best-effort, no redelivery).
type Notifier struct {
	BotToken       string
	ChatID         string
	TopicID        int  // 0 means no topic scoping
	DisablePreview bool // suppress link previews (used by the transfer poller)
	APIBase        string
	Client         *http.Client

	limiter *rate.Limiter // nil means unpaced
}

// New creates a Notifier for the given chat and topic.
func New(botToken, chatID string, topicID int) *Notifier {
	return &Notifier{
		BotToken: botToken,
		ChatID:   chatID,
		TopicID:  topicID,
		APIBase:  defaultAPIBase,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WithPacing spaces sends at least interval apart, so a burst of alerts
// does not trip Telegram's outbound rate limits.
func (n *Notifier) WithPacing(interval time.Duration) *Notifier {
	n.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return n
}

// apiResponse is the subset of the sendMessage response we act on.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers one HTML message, waiting on the pacing limiter first.
func (n *Notifier) Send(text string) error {
	return n.SendContext(context.Background(), text)
}

// SendContext delivers one HTML message, honoring ctx for pacing waits.
func (n *Notifier) SendContext(ctx context.Context, text string) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	payload := map[string]any{
		"chat_id":    n.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if n.DisablePreview {
		payload["disable_web_page_preview"] = true
	}
	if n.TopicID != 0 {
		payload["message_thread_id"] = n.TopicID
	}

	result, err := n.post(ctx, payload)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	// Invalid topic id: retry once without it so the message still lands
	// in the main chat.
	if !result.OK && strings.Contains(result.Description, "message thread not found") {
		log.Printf("[WARN] 话题 ID (%d) 无效或不存在，正在尝试发送到主群组...", n.TopicID)
		delete(payload, "message_thread_id")
		result, err = n.post(ctx, payload)
		if err != nil {
			return fmt.Errorf("telegram retry send: %w", err)
		}
	}

	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	return nil
}

func (n *Notifier) post(ctx context.Context, payload map[string]any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.APIBase, n.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return &result, nil
}

// HealthCheck probes the bot API with getMe. Used by the webhook service's
// health endpoint to report Telegram interface status.
func (n *Notifier) HealthCheck(ctx context.Context) bool {
	url := fmt.Sprintf("%s/bot%s/getMe", n.APIBase, n.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// TestResult is the outcome of a manual connectivity test.
type TestResult struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
}

// TestConnectivity sends a live test message and reports the outcome.
// Backs the webhook service's /telegram/test endpoint.
func (n *Notifier) TestConnectivity(ctx context.Context) TestResult {
	ts := time.Now().Format("2006-01-02 15:04:05")
	text := fmt.Sprintf("🔧 <b>Telegram 联通性测试</b>\n\n✅ 测试消息发送成功！\n⏰ 测试时间: %s", ts)

	if err := n.SendContext(ctx, text); err != nil {
		msg := err.Error()
		log.Printf("[ERROR] Telegram 测试失败: %v", err)
		return TestResult{Success: false, Message: "Telegram 连接失败", Error: &msg, Timestamp: ts}
	}
	log.Println("[INFO] Telegram 测试: 联通性正常")
	return TestResult{Success: true, Message: "Telegram 联通性测试成功", Timestamp: ts}
}
