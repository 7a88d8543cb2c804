package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Arkham struct {
		Enabled     bool     `yaml:"enabled"`
		APIKey      string   `yaml:"api_key"`
		BaseURL     string   `yaml:"base_url"`
		TopicID     int      `yaml:"topic_id"`
		MinValueUSD float64  `yaml:"min_value_usd"`
		Entities    []string `yaml:"entities"`
	} `yaml:"arkham"`
	Binance struct {
		Enabled            bool               `yaml:"enabled"`
		TopicID            int                `yaml:"topic_id"`
		Symbols            []string           `yaml:"symbols"`
		SingleQtyThreshold map[string]float64 `yaml:"single_qty_threshold"`
		BurstAmountUSD     float64            `yaml:"burst_amount_usd"`
		BurstCountTrigger  int                `yaml:"burst_count_trigger"`
		VolumeMultiplier   float64            `yaml:"volume_multiplier"`
		WallThresholdUSD   float64            `yaml:"wall_threshold_usd"`
		MarketType         string             `yaml:"market_type"`
	} `yaml:"binance"`
	News struct {
		Enabled   bool   `yaml:"enabled"`
		APIURL    string `yaml:"api_url"`
		APIKey    string `yaml:"api_key"`
		TopicID   int    `yaml:"topic_id"`
		StateFile string `yaml:"state_file"`
	} `yaml:"news"`
	Webhook struct {
		Enabled   bool     `yaml:"enabled"`
		Port      int      `yaml:"port"`
		RoutePath string   `yaml:"route_path"`
		TopicID   int      `yaml:"topic_id"`
		Keywords  []string `yaml:"keywords"`
	} `yaml:"webhook"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

const defaultNewsURL = "https://api.mlion.ai/v2/api/news/real/time?language=cn&time_zone=Asia%2FShanghai&num=100&page=1&client=mlion&is_hot=Y"

// Load reads config from a YAML file, then applies environment variable overrides.
// The news bot ships disabled; everything else is on by default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Arkham.Enabled = true
	cfg.Binance.Enabled = true
	cfg.Webhook.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ARKHAM_API_KEY"); v != "" {
		cfg.Arkham.APIKey = v
	}
	if v := os.Getenv("ARKHAM_BASE_URL"); v != "" {
		cfg.Arkham.BaseURL = v
	}
	if v := os.Getenv("ARKHAM_TOPIC_ID"); v != "" {
		cfg.Arkham.TopicID = envInt(v, cfg.Arkham.TopicID)
	}
	if v := os.Getenv("ARKHAM_MIN_VALUE_USD"); v != "" {
		cfg.Arkham.MinValueUSD = envFloat(v, cfg.Arkham.MinValueUSD)
	}
	if v := os.Getenv("ARKHAM_ENTITIES"); v != "" {
		cfg.Arkham.Entities = splitList(v)
	}
	if v := os.Getenv("BINANCE_TOPIC_ID"); v != "" {
		cfg.Binance.TopicID = envInt(v, cfg.Binance.TopicID)
	}
	if v := os.Getenv("BINANCE_SYMBOLS"); v != "" {
		cfg.Binance.Symbols = splitList(strings.ToLower(v))
	}
	if cfg.Binance.SingleQtyThreshold == nil {
		cfg.Binance.SingleQtyThreshold = map[string]float64{}
	}
	if v := os.Getenv("BINANCE_BTC_THRESHOLD"); v != "" {
		cfg.Binance.SingleQtyThreshold["BTCUSDT"] = envFloat(v, cfg.Binance.SingleQtyThreshold["BTCUSDT"])
	}
	if v := os.Getenv("BINANCE_ETH_THRESHOLD"); v != "" {
		cfg.Binance.SingleQtyThreshold["ETHUSDT"] = envFloat(v, cfg.Binance.SingleQtyThreshold["ETHUSDT"])
	}
	if v := os.Getenv("BINANCE_BURST_AMOUNT_USD"); v != "" {
		cfg.Binance.BurstAmountUSD = envFloat(v, cfg.Binance.BurstAmountUSD)
	}
	if v := os.Getenv("BINANCE_BURST_COUNT_TRIGGER"); v != "" {
		cfg.Binance.BurstCountTrigger = envInt(v, cfg.Binance.BurstCountTrigger)
	}
	if v := os.Getenv("BINANCE_VOLUME_ANOMALY_MULTIPLIER"); v != "" {
		cfg.Binance.VolumeMultiplier = envFloat(v, cfg.Binance.VolumeMultiplier)
	}
	if v := os.Getenv("BINANCE_ORDER_BOOK_WALL_THRESHOLD"); v != "" {
		cfg.Binance.WallThresholdUSD = envFloat(v, cfg.Binance.WallThresholdUSD)
	}
	if v := os.Getenv("BINANCE_MARKET_TYPE"); v != "" {
		cfg.Binance.MarketType = v
	}
	if v := os.Getenv("NEWS_ENABLED"); v != "" {
		cfg.News.Enabled = envBool(v, cfg.News.Enabled)
	}
	if v := os.Getenv("MLION_API_URL"); v != "" {
		cfg.News.APIURL = v
	}
	if v := os.Getenv("MLION_API_KEY"); v != "" {
		cfg.News.APIKey = v
	}
	if v := os.Getenv("ZIXUN_TOPIC_ID"); v != "" {
		cfg.News.TopicID = envInt(v, cfg.News.TopicID)
	}
	if v := os.Getenv("WEBHOOK_ROUTE_PATH"); v != "" {
		cfg.Webhook.RoutePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Webhook.Port = envInt(v, cfg.Webhook.Port)
	}
	if v := os.Getenv("BOTSEVER_TOPIC_ID"); v != "" {
		cfg.Webhook.TopicID = envInt(v, cfg.Webhook.TopicID)
	}
	if v := os.Getenv("TWITTER_KEYWORDS"); v != "" {
		cfg.Webhook.Keywords = splitList(strings.ToLower(v))
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Arkham.BaseURL == "" {
		cfg.Arkham.BaseURL = "https://api.arkhamintelligence.com"
	}
	if cfg.Arkham.TopicID == 0 {
		cfg.Arkham.TopicID = 1
	}
	if cfg.Arkham.MinValueUSD == 0 {
		cfg.Arkham.MinValueUSD = 1000000
	}
	if len(cfg.Arkham.Entities) == 0 {
		cfg.Arkham.Entities = []string{"binance", "blackrock", "jump-trading", "falconx", "us-government", "vitalik-buterin"}
	}
	if cfg.Binance.TopicID == 0 {
		cfg.Binance.TopicID = 3
	}
	if len(cfg.Binance.Symbols) == 0 {
		cfg.Binance.Symbols = []string{"btcusdt", "ethusdt"}
	}
	if _, ok := cfg.Binance.SingleQtyThreshold["BTCUSDT"]; !ok {
		cfg.Binance.SingleQtyThreshold["BTCUSDT"] = 1.0
	}
	if _, ok := cfg.Binance.SingleQtyThreshold["ETHUSDT"]; !ok {
		cfg.Binance.SingleQtyThreshold["ETHUSDT"] = 50.0
	}
	if cfg.Binance.BurstAmountUSD == 0 {
		cfg.Binance.BurstAmountUSD = 100000
	}
	if cfg.Binance.BurstCountTrigger == 0 {
		cfg.Binance.BurstCountTrigger = 1
	}
	if cfg.Binance.VolumeMultiplier == 0 {
		cfg.Binance.VolumeMultiplier = 3.0
	}
	if cfg.Binance.WallThresholdUSD == 0 {
		cfg.Binance.WallThresholdUSD = 5000000
	}
	if cfg.Binance.MarketType == "" {
		cfg.Binance.MarketType = "现货"
	}
	if cfg.News.APIURL == "" {
		cfg.News.APIURL = defaultNewsURL
	}
	if cfg.News.TopicID == 0 {
		cfg.News.TopicID = 4
	}
	if cfg.News.StateFile == "" {
		cfg.News.StateFile = ".zixun_state.json"
	}
	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = 5000
	}
	if cfg.Webhook.RoutePath == "" {
		cfg.Webhook.RoutePath = "/twitter-webhook"
	}
	if cfg.Webhook.TopicID == 0 {
		cfg.Webhook.TopicID = 13
	}
	if len(cfg.Webhook.Keywords) == 0 {
		cfg.Webhook.Keywords = []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "binance", "arkham"}
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coinsentry.db"
	}

	return cfg, nil
}

// Validate checks that all required credentials are present. Missing
// credentials are fatal at startup: the process refuses to run.
func (c *Config) Validate() error {
	var missing []string
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if c.Arkham.Enabled && c.Arkham.APIKey == "" {
		missing = append(missing, "ARKHAM_API_KEY")
	}
	if c.News.Enabled && c.News.APIKey == "" {
		missing = append(missing, "MLION_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("缺少必要配置: %s", strings.Join(missing, ", "))
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(v string, fallback int) int {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return fallback
}

func envFloat(v string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return fallback
}

func envBool(v string, fallback bool) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return fallback
}
