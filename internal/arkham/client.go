package arkham

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CoinSentry/internal/model"
)

// Client fetches transfers from the Arkham Intelligence REST API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient creates an Arkham API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// looseFloat tolerates the API returning numeric fields as either numbers
// or strings.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = looseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = looseFloat(v)
	return nil
}

type addressJSON struct {
	Address     string `json:"address"`
	ArkhamLabel *struct {
		Name string `json:"name"`
	} `json:"arkhamLabel"`
}

type transferJSON struct {
	TransactionHash string       `json:"transactionHash"`
	TokenSymbol     string       `json:"tokenSymbol"`
	UnitValue       looseFloat   `json:"unitValue"`
	HistoricalUSD   looseFloat   `json:"historicalUSD"`
	BlockTimestamp  string       `json:"blockTimestamp"`
	FromAddress     *addressJSON `json:"fromAddress"`
	ToAddress       *addressJSON `json:"toAddress"`
}

// counterparty resolves one side of a transfer: the Arkham label when the
// platform knows one, otherwise just the raw address.
func counterparty(a *addressJSON) model.Counterparty {
	if a == nil {
		return model.Counterparty{}
	}
	cp := model.Counterparty{Address: a.Address}
	if a.ArkhamLabel != nil {
		cp.Label = a.ArkhamLabel.Name
	}
	return cp
}

// FetchTransfers returns recent transfers for one watched entity: the last
// 10 minutes, at or above minValueUSD, newest first, capped at 20.
// Non-200 responses are returned as errors; the caller treats them as an
// empty batch and relies on the next cycle to retry.
func (c *Client) FetchTransfers(ctx context.Context, entity string, minValueUSD float64) ([]model.Transfer, error) {
	since := time.Now().Add(-10 * time.Minute)

	q := url.Values{}
	q.Set("base", entity)
	q.Set("limit", "20")
	q.Set("time_gte", strconv.FormatInt(since.UnixMilli(), 10))
	q.Set("value_gte", strconv.FormatFloat(minValueUSD, 'f', -1, 64))
	q.Set("sort", "time")
	q.Set("order", "desc")

	endpoint := fmt.Sprintf("%s/transfers?%s", c.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("API-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transfers: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("arkham API key 无效或过期 (401)")
	case http.StatusForbidden:
		return nil, fmt.Errorf("arkham 拒绝访问 (403) - 可能是 IP 问题")
	default:
		return nil, fmt.Errorf("arkham API 报错 [%s]: %d", entity, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return parseTransfers(raw)
}

// parseTransfers accepts both response shapes the API is known to return:
// {"transfers": [...]} and a bare array.
func parseTransfers(raw []byte) ([]model.Transfer, error) {
	var wrapped struct {
		Transfers []transferJSON `json:"transfers"`
	}
	var items []transferJSON
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Transfers != nil {
		items = wrapped.Transfers
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}

	out := make([]model.Transfer, 0, len(items))
	for _, t := range items {
		blockTime := t.BlockTimestamp
		if blockTime == "" {
			blockTime = "Unknown Time"
		}
		symbol := t.TokenSymbol
		if symbol == "" {
			symbol = "Unknown"
		}
		out = append(out, model.Transfer{
			TransactionHash: t.TransactionHash,
			TokenSymbol:     symbol,
			TokenAmount:     float64(t.UnitValue),
			ValueUSD:        float64(t.HistoricalUSD),
			BlockTime:       blockTime,
			From:            counterparty(t.FromAddress),
			To:              counterparty(t.ToAddress),
		})
	}
	return out, nil
}
