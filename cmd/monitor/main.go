package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-target-monitor/config"
	"crypto-target-monitor/internal/binance"
	"crypto-target-monitor/internal/market"
	"crypto-target-monitor/internal/metrics"
	"crypto-target-monitor/internal/monitor"
	"crypto-target-monitor/internal/notify"
	platformhttp "crypto-target-monitor/internal/platform/http"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg := config.Load()

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	httpClient := platformhttp.NewClient(platformhttp.ClientOptions{
		Timeout: cfg.RequestTimeout,
	})
	candles := binance.NewClient(httpClient, cfg.BinanceBaseURL)
	sentiment := market.NewSentimentClient(httpClient)
	events := market.NewEventsClient(httpClient, cfg.CoinMarketCalKey)

	var notifier notify.Notifier
	switch {
	case cfg.TelegramToken != "" && cfg.TelegramChatID != 0:
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Telegram setup failed")
		}
		notifier = tg
	case cfg.WebhookURL != "":
		notifier = notify.NewWebhook(cfg.WebhookURL)
	default:
		log.Warn().Msg("No webhook or telegram configured, alerts go to the log")
		notifier = &notify.LogNotifier{Logger: log.Logger}
	}
	notifier = notify.NewChunked(notifier, cfg.MaxMsgLen)

	mtr, registry := metrics.New()
	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr, registry)
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics server listening")
	}

	mon := monitor.New(cfg, candles, sentiment, events, notifier, mtr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, asset := range cfg.Assets {
		asset := asset
		wg.Add(1)
		go func() {
			defer wg.Done()
			mon.Run(ctx, asset)
		}()
	}
	wg.Wait()
}
