package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-target-monitor/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, 100, cfg.CandleLimit)
	assert.Equal(t, 30*time.Minute, cfg.PollInterval)
	assert.Equal(t, 3.0, cfg.NearPct)
	assert.Equal(t, time.Hour, cfg.Cooldown)
	assert.True(t, cfg.SendOnlyTargets)
	assert.True(t, cfg.OnlyOnNewBar)
	assert.True(t, cfg.NearEdgeOnly)
	assert.Equal(t, 3500, cfg.MaxMsgLen)
	assert.Equal(t, "https://data-api.binance.vision", cfg.BinanceBaseURL)
	assert.False(t, cfg.IncludeFearGreed)
	assert.Equal(t, 20, cfg.SqueezeWindow)
	assert.Equal(t, 4, cfg.SqueezeBaselineBars)
	assert.Equal(t, 1.2, cfg.SqueezeFactor)

	require.Len(t, cfg.Assets, 1)
	assert.Equal(t, "BTC", cfg.Assets[0].Name)
	assert.Equal(t, "btcusdt", cfg.Assets[0].Pair)

	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INTERVAL", "15m")
	t.Setenv("POLL_INTERVAL_MIN", "5")
	t.Setenv("TARGET_NEAR_PCT", "1.5")
	t.Setenv("SEND_ONLY_TARGETS", "0")
	t.Setenv("TARGET_COOLDOWN_MIN", "120")

	cfg := Load()
	assert.Equal(t, "15m", cfg.Interval)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, 1.5, cfg.NearPct)
	assert.False(t, cfg.SendOnlyTargets)
	assert.Equal(t, 2*time.Hour, cfg.Cooldown)
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("CANDLE_LIMIT", "lots")
	t.Setenv("TARGET_NEAR_PCT", "many")

	cfg := Load()
	assert.Equal(t, 100, cfg.CandleLimit)
	assert.Equal(t, 3.0, cfg.NearPct)
}

func TestParseAssetsWithTargets(t *testing.T) {
	t.Setenv("ASSETS", "BTC:btcusdt, eth:ETHUSDT, sol")
	t.Setenv("TARGET_BUY_BTC", "95000")
	t.Setenv("TARGET_SELL_BTC", "120000")
	t.Setenv("TARGET_BUY_ETH", "not-a-price")
	t.Setenv("SNAPSHOT_SOL", "1")

	cfg := Load()
	require.Len(t, cfg.Assets, 3)

	btc := cfg.Assets[0]
	assert.Equal(t, "BTC", btc.Name)
	assert.Equal(t, models.Target{Value: 95000, Set: true}, btc.BuyTarget)
	assert.Equal(t, models.Target{Value: 120000, Set: true}, btc.SellTarget)
	assert.False(t, btc.Snapshot)

	eth := cfg.Assets[1]
	assert.Equal(t, "ETH", eth.Name)
	assert.Equal(t, "ethusdt", eth.Pair)
	assert.False(t, eth.BuyTarget.Set)

	// Bare name without a pair defaults to <name>usdt.
	sol := cfg.Assets[2]
	assert.Equal(t, "SOL", sol.Name)
	assert.Equal(t, "solusdt", sol.Pair)
	assert.True(t, sol.Snapshot)
}

func TestEnvFlagSpellings(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"y", true},
		{"0", false},
		{"false", false},
		{"off", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ONLY_ON_NEW_BAR", tt.value)
			assert.Equal(t, tt.want, Load().OnlyOnNewBar)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*models.Config) {}},
		{
			name:    "no assets",
			mutate:  func(c *models.Config) { c.Assets = nil },
			wantErr: true,
		},
		{
			name:    "candle limit too small",
			mutate:  func(c *models.Config) { c.CandleLimit = 10 },
			wantErr: true,
		},
		{
			name:    "non positive near pct",
			mutate:  func(c *models.Config) { c.NearPct = 0 },
			wantErr: true,
		},
		{
			name: "asset missing pair",
			mutate: func(c *models.Config) {
				c.Assets = []models.AssetConfig{{Name: "BTC"}}
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
