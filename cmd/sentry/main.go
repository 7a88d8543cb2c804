package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinSentry/internal/arkham"
	"CoinSentry/internal/binance"
	"CoinSentry/internal/config"
	"CoinSentry/internal/news"
	"CoinSentry/internal/notifier"
	"CoinSentry/internal/recorder"
	"CoinSentry/internal/runner"
	"CoinSentry/internal/webhook"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinSentry starting...")

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env file")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Each bot posts to its own topic in the same chat.
	var bots []runner.Bot

	if cfg.Arkham.Enabled {
		tn := notifier.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Arkham.TopicID).
			WithPacing(2 * time.Second)
		tn.DisablePreview = true
		client := arkham.NewClient(cfg.Arkham.BaseURL, cfg.Arkham.APIKey)
		bots = append(bots, arkham.NewPoller(client, tn, rec, cfg.Arkham.Entities, cfg.Arkham.MinValueUSD))
	}

	if cfg.Binance.Enabled {
		tn := notifier.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Binance.TopicID)
		opts := binance.Options{
			SingleQtyThreshold: cfg.Binance.SingleQtyThreshold,
			BurstAmountUSD:     cfg.Binance.BurstAmountUSD,
			BurstCountTrigger:  cfg.Binance.BurstCountTrigger,
			VolumeMultiplier:   cfg.Binance.VolumeMultiplier,
			WallThresholdUSD:   cfg.Binance.WallThresholdUSD,
		}
		bots = append(bots, binance.NewStreamBot(cfg.Binance.Symbols, opts, tn, rec))
	}

	if cfg.News.Enabled {
		tn := notifier.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.News.TopicID)
		client := news.NewClient(cfg.News.APIURL, cfg.News.APIKey)
		bots = append(bots, news.NewPoller(client, tn, rec, cfg.News.StateFile))
	}

	if cfg.Webhook.Enabled {
		tn := notifier.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Webhook.TopicID)
		bots = append(bots, webhook.NewServer(cfg.Webhook.RoutePath, cfg.Webhook.Port, cfg.Webhook.Keywords, tn, rec))
	}

	if len(bots) == 0 {
		log.Fatalf("[FATAL] 没有启用任何机器人")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := runner.NewSupervisor(bots...)
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	log.Println("[INFO] CoinSentry is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	<-done
	log.Println("[INFO] CoinSentry stopped")
}
