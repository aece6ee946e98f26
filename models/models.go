package models

import (
	"fmt"
	"time"
)

// Candle represents a single price bar as returned by the klines endpoint.
// OpenTime and CloseTime are epoch milliseconds.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// Target is a configured buy or sell price level. Set is false when the
// operator left the level unconfigured; an unset target never matches.
type Target struct {
	Value float64
	Set   bool
}

// AlertKind distinguishes cooldown buckets. Kinds are part of the gate key
// space, so renaming them resets live cooldowns.
type AlertKind string

const (
	AlertBuyConfluence  AlertKind = "buy_confluence"
	AlertBuyNear        AlertKind = "buy_near"
	AlertSellConfluence AlertKind = "sell_confluence"
	AlertSellNear       AlertKind = "sell_near"
	AlertEvent          AlertKind = "event"
)

// Alert is a single gated signal ready for delivery.
type Alert struct {
	ID      string    `json:"id"`
	Kind    AlertKind `json:"kind"`
	Text    string    `json:"text"`
	Reasons []string  `json:"reasons,omitempty"`
}

// Confirmed reports whether the alert carries a confluence claim rather than
// plain target proximity.
func (a Alert) Confirmed() bool {
	return a.Kind == AlertBuyConfluence || a.Kind == AlertSellConfluence
}

// Targeted reports whether the alert counts for the SEND_ONLY_TARGETS policy.
// Event alerts do not.
func (a Alert) Targeted() bool {
	switch a.Kind {
	case AlertBuyConfluence, AlertBuyNear, AlertSellConfluence, AlertSellNear:
		return true
	}
	return false
}

// Sentiment is the Fear & Greed reading. OK is false when the collaborator
// was unreachable or disabled; core decisions never depend on it.
type Sentiment struct {
	Value int
	Label string
	OK    bool
}

// Event is one scheduled market event from the calendar collaborator.
type Event struct {
	Title  string
	Date   string
	Impact string
}

// HighImpact reports whether the event should be surfaced in alerts.
func (e Event) HighImpact() bool {
	return e.Impact == "alto" || e.Impact == "high"
}

// AssetConfig holds the per-asset options.
type AssetConfig struct {
	Name       string // e.g. "BTC", used in keys and headers
	Pair       string // e.g. "btcusdt"
	BuyTarget  Target
	SellTarget Target
	Snapshot   bool
}

// Config is the full recognized option set, loaded from the environment.
type Config struct {
	Assets       []AssetConfig
	Interval     string
	CandleLimit  int
	PollInterval time.Duration

	NearPct         float64
	Cooldown        time.Duration
	SendOnlyTargets bool
	OnlyOnNewBar    bool
	NearEdgeOnly    bool

	MaxMsgLen      int
	WebhookURL     string
	TelegramToken  string
	TelegramChatID int64

	BinanceBaseURL string
	RequestTimeout time.Duration

	IncludeFearGreed bool
	IncludeEvents    bool
	CoinMarketCalKey string

	SqueezeWindow       int
	SqueezeBaselineBars int
	SqueezeFactor       float64

	MetricsAddr string
	LogLevel    string
}

// Validate rejects configurations the monitor cannot run with.
func (c *Config) Validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("no assets configured")
	}
	if c.CandleLimit < 30 {
		return fmt.Errorf("candle limit %d too small for indicator lookbacks", c.CandleLimit)
	}
	if c.NearPct <= 0 {
		return fmt.Errorf("near percent must be positive, got %.2f", c.NearPct)
	}
	for _, a := range c.Assets {
		if a.Name == "" || a.Pair == "" {
			return fmt.Errorf("asset entry missing name or pair: %+v", a)
		}
	}
	return nil
}
