package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"crypto-target-monitor/models"
)

// Load reads the full configuration from environment variables, applying a
// default for every option. It never fails on malformed numbers; bad values
// fall back to the default the same way the rest of the option surface does.
func Load() *models.Config {
	cfg := &models.Config{
		Interval:     envString("INTERVAL", "1h"),
		CandleLimit:  envInt("CANDLE_LIMIT", 100),
		PollInterval: time.Duration(envInt("POLL_INTERVAL_MIN", 30)) * time.Minute,

		NearPct:         envFloat("TARGET_NEAR_PCT", 3.0),
		Cooldown:        time.Duration(envInt("TARGET_COOLDOWN_MIN", 60)) * time.Minute,
		SendOnlyTargets: envFlag("SEND_ONLY_TARGETS", true),
		OnlyOnNewBar:    envFlag("ONLY_ON_NEW_BAR", true),
		NearEdgeOnly:    envFlag("NEAR_EDGE_ONLY", true),

		MaxMsgLen:      envInt("MAX_MSG_LEN", 3500),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: envInt64("TELEGRAM_CHAT_ID", 0),

		BinanceBaseURL: envString("BINANCE_BASE_URL", "https://data-api.binance.vision"),
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT", 10)) * time.Second,

		IncludeFearGreed: envFlag("INCLUDE_FG", false),
		IncludeEvents:    envFlag("INCLUDE_EVENTS", false),
		CoinMarketCalKey: os.Getenv("COINMARKETCAL_API_KEY"),

		SqueezeWindow:       envInt("SQUEEZE_WINDOW", 20),
		SqueezeBaselineBars: envInt("SQUEEZE_BASELINE_BARS", 4),
		SqueezeFactor:       envFloat("SQUEEZE_FACTOR", 1.2),

		MetricsAddr: os.Getenv("METRICS_ADDR"),
		LogLevel:    envString("LOG_LEVEL", "info"),
	}

	cfg.Assets = parseAssets(envString("ASSETS", "BTC:btcusdt"))
	return cfg
}

// parseAssets parses "BTC:btcusdt,ETH:ethusdt" and attaches the per-asset
// target and snapshot options keyed by the upper-cased asset name.
func parseAssets(list string) []models.AssetConfig {
	var assets []models.AssetConfig
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, pair, ok := strings.Cut(entry, ":")
		if !ok {
			// Allow a bare name; pair defaults to nameusdt.
			name = entry
			pair = strings.ToLower(entry) + "usdt"
		}
		up := strings.ToUpper(strings.TrimSpace(name))
		assets = append(assets, models.AssetConfig{
			Name:       up,
			Pair:       strings.ToLower(strings.TrimSpace(pair)),
			BuyTarget:  envTarget("TARGET_BUY_" + up),
			SellTarget: envTarget("TARGET_SELL_" + up),
			Snapshot:   envFlag("SNAPSHOT_"+up, false),
		})
	}
	return assets
}

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(name string, def int64) int64 {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envFlag(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// envTarget returns an unset Target when the variable is empty or not a
// valid price.
func envTarget(name string) models.Target {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return models.Target{}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return models.Target{}
	}
	return models.Target{Value: f, Set: true}
}
