package webhook

import (
	"fmt"
	"strings"

	"CoinSentry/internal/model"
)

const (
	noContentPlaceholder = "无正文内容"
	unknownUser          = "未知用户"
)

// Relay payloads vary by producer; each field is resolved by trying
// candidate keys in order.
var (
	textKeys = []string{"text", "content", "full_text"}
	linkKeys = []string{"link", "url", "tweet_url"}
	userKeys = []string{"user", "author", "screen_name"}
)

// ExtractTweet pulls the tweet fields out of a decoded payload. Missing
// fields get their placeholder (text, user) or stay empty (link).
func ExtractTweet(data map[string]any) model.Tweet {
	return model.Tweet{
		Text: extractField(data, textKeys, noContentPlaceholder),
		Link: extractField(data, linkKeys, ""),
		User: extractField(data, userKeys, unknownUser),
	}
}

// extractField returns the value of the first present candidate key. A key
// that exists wins even when its value is empty.
func extractField(data map[string]any, keys []string, fallback string) string {
	for _, k := range keys {
		v, ok := data[k]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return fallback
}

// Empty reports whether the payload had neither body text nor a link.
func Empty(t model.Tweet) bool {
	return t.Text == noContentPlaceholder && t.Link == ""
}

// MatchKeyword returns the first keyword found in text, case-insensitive
// substring match. Blank keywords are skipped.
func MatchKeyword(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// FormatTweet renders the forwarded Telegram message.
func FormatTweet(t model.Tweet) string {
	return fmt.Sprintf(
		"🚨 <b>新推文提醒</b>\n\n👤 <b>用户:</b> %s\n📝 <b>内容:</b> %s\n\n🔗 <a href='%s'>点击查看推文</a>",
		t.User, t.Text, t.Link)
}
