package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"CoinSentry/internal/model"
)

// Client fetches news flashes from the Mlion REST API.
type Client struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

// NewClient creates a news API client.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		URL:    apiURL,
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// looseString tolerates the API returning a field as a string or a number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// looseTags tolerates tags arriving as a plain string or a string array.
type looseTags []string

func (t *looseTags) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*t = looseTags{v}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		*t = nil
		return nil
	}
	*t = looseTags(arr)
	return nil
}

type newsJSON struct {
	ID      looseString `json:"id"`
	Title   string      `json:"title"`
	Content string      `json:"content"`
	PubTime looseString `json:"pub_time"`
	Tags    looseTags   `json:"tags"`
	URL     string      `json:"url"`
}

type envelope struct {
	Code    *int       `json:"code"`
	Message string     `json:"message"`
	Msg     string     `json:"msg"`
	Data    []newsJSON `json:"data"`
}

// FetchLatest returns the most recent news item, or nil when the feed is
// empty. API-level error codes are surfaced as errors; the poller treats
// any error as "no new item this cycle".
func (c *Client) FetchLatest(ctx context.Context) (*model.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// The API accepts either form depending on deployment; send both.
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("token", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch news: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read news body: %w", err)
	}
	items, err := parseFeed(raw)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	first := items[0]
	return &model.NewsItem{
		ID:      string(first.ID),
		Title:   first.Title,
		Content: first.Content,
		PubTime: string(first.PubTime),
		Tags:    []string(first.Tags),
		URL:     first.URL,
	}, nil
}

// parseFeed accepts both response shapes the API is known to return:
// {"code": ..., "data": [...]} and a bare array.
func parseFeed(raw []byte) ([]newsJSON, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Code != nil && *env.Code != 0 && *env.Code != 200 {
			msg := env.Message
			if msg == "" {
				msg = env.Msg
			}
			return nil, fmt.Errorf("news API 错误: code=%d, message=%s", *env.Code, msg)
		}
		if env.Data != nil {
			return env.Data, nil
		}
	}

	var items []newsJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	return items, nil
}
