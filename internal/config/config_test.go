package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Arkham.Enabled || !cfg.Binance.Enabled || !cfg.Webhook.Enabled {
		t.Error("arkham/binance/webhook should be enabled by default")
	}
	if cfg.News.Enabled {
		t.Error("news should be disabled by default")
	}
	if cfg.Arkham.MinValueUSD != 1000000 {
		t.Errorf("arkham min value = %v", cfg.Arkham.MinValueUSD)
	}
	if cfg.Arkham.TopicID != 1 || cfg.Binance.TopicID != 3 || cfg.News.TopicID != 4 || cfg.Webhook.TopicID != 13 {
		t.Errorf("default topic ids = %d/%d/%d/%d",
			cfg.Arkham.TopicID, cfg.Binance.TopicID, cfg.News.TopicID, cfg.Webhook.TopicID)
	}
	if len(cfg.Binance.Symbols) != 2 || cfg.Binance.Symbols[0] != "btcusdt" {
		t.Errorf("default symbols = %v", cfg.Binance.Symbols)
	}
	if cfg.Binance.SingleQtyThreshold["BTCUSDT"] != 1.0 || cfg.Binance.SingleQtyThreshold["ETHUSDT"] != 50.0 {
		t.Errorf("default qty thresholds = %v", cfg.Binance.SingleQtyThreshold)
	}
	if cfg.Binance.WallThresholdUSD != 5000000 {
		t.Errorf("default wall threshold = %v", cfg.Binance.WallThresholdUSD)
	}
	if cfg.Webhook.Port != 5000 || cfg.Webhook.RoutePath != "/twitter-webhook" {
		t.Errorf("default webhook = %d %s", cfg.Webhook.Port, cfg.Webhook.RoutePath)
	}
	if len(cfg.Webhook.Keywords) == 0 {
		t.Error("default keywords empty")
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
telegram:
  bot_token: file-token
  chat_id: "-100123"
binance:
  symbols: [solusdt]
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	// Environment beats the file.
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("BINANCE_SYMBOLS", "BTCUSDT, dogeusdt")
	t.Setenv("BINANCE_BTC_THRESHOLD", "2.5")
	t.Setenv("ARKHAM_ENTITIES", "tether,grayscale")
	t.Setenv("NEWS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("bot token = %q, env should win", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "-100123" {
		t.Errorf("chat id = %q, file value should survive", cfg.Telegram.ChatID)
	}
	if len(cfg.Binance.Symbols) != 2 || cfg.Binance.Symbols[0] != "btcusdt" {
		t.Errorf("symbols = %v, want lowercased env list", cfg.Binance.Symbols)
	}
	if cfg.Binance.SingleQtyThreshold["BTCUSDT"] != 2.5 {
		t.Errorf("btc threshold = %v", cfg.Binance.SingleQtyThreshold["BTCUSDT"])
	}
	if len(cfg.Arkham.Entities) != 2 || cfg.Arkham.Entities[1] != "grayscale" {
		t.Errorf("entities = %v", cfg.Arkham.Entities)
	}
	if !cfg.News.Enabled {
		t.Error("NEWS_ENABLED=true not honored")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure without credentials")
	}
	for _, want := range []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "ARKHAM_API_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}

	cfg.Telegram.BotToken = "t"
	cfg.Telegram.ChatID = "c"
	cfg.Arkham.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with credentials: %v", err)
	}

	// A disabled bot's key is not required.
	cfg.Arkham.Enabled = false
	cfg.Arkham.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled arkham still requires key: %v", err)
	}

	cfg.News.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("enabled news must require MLION_API_KEY")
	}
}
