// Package report renders the tick's computed state into the outbound
// message: a short human-readable part and the fixed-schema machine block.
// The field keys of the machine block are consumed by the downstream relay
// and must stay stable. The formatter performs no decision logic and is
// deterministic for a given tick state.
package report

import (
	"fmt"
	"strings"
	"time"

	"crypto-target-monitor/models"
)

// brt is the reporting timezone (UTC-3).
var brt = time.FixedZone("BRT", -3*60*60)

// Tick is a pure snapshot of everything computed for one polling tick.
type Tick struct {
	Asset    string
	Pair     string
	Interval string
	Time     time.Time

	Price float64

	RSI        float64
	StochRSI   float64
	StochTrend string
	MACDLine   float64
	MACDSignal float64
	MACDHist   float64
	MACDTrend  string
	OBV        float64
	MFI        float64

	RSIDivergence string // "alta"/"baixa"/empty
	OBVDivergence string

	BBMid            float64
	BBUpper          float64
	BBLower          float64
	ReentryFromAbove bool
	ReentryFromBelow bool

	ATR         float64
	PercentB    float64
	BandWidth   float64
	SpreadVsMA  float64
	VolPct      float64
	Support     float64
	Resistance  float64
	DistSupPct  float64 // percent
	DistResPct  float64
	SqueezeOn   bool
	SqueezeDir  string
	VolumeLast  float64
	VolumeMean  float64
	BottomCount int
	TopCount    int

	Patterns []string

	BuyTarget  models.Target
	SellTarget models.Target
	NearPct    float64

	Sentiment models.Sentiment
	Events    []string
}

// Header is the first line of a regular alert message.
func Header(t Tick) string {
	return fmt.Sprintf("[%s] ⏰ %s - Intervalo %s | Preço: %.2f USDT",
		t.Asset, t.Time.In(brt).Format("02/01/2006 15:04:05"), t.Interval, t.Price)
}

// SnapshotHeader marks the unconditional diagnostic variant.
func SnapshotHeader(t Tick) string {
	return fmt.Sprintf("[%s] 📸 SNAPSHOT — %s - Intervalo %s | Preço: %.2f USDT",
		t.Asset, t.Time.In(brt).Format("02/01/2006 15:04:05"), t.Interval, t.Price)
}

// AlertLines renders the fired alerts, one line per alert plus one joined
// reason line for confirmed ones.
func AlertLines(alerts []models.Alert) []string {
	var lines []string
	for _, a := range alerts {
		lines = append(lines, a.Text)
		if len(a.Reasons) > 0 {
			lines = append(lines, "• "+strings.Join(a.Reasons, " | "))
		}
	}
	return lines
}

// Message assembles the full outbound body for a regular tick.
func Message(t Tick, alerts []models.Alert) string {
	return Header(t) + "\n\n" + strings.Join(AlertLines(alerts), "\n") + "\n\n" + MachineBlock(t)
}

// SnapshotMessage assembles the diagnostic body.
func SnapshotMessage(t Tick) string {
	return SnapshotHeader(t) + "\n\n" + MachineBlock(t)
}

// MachineBlock renders the key/value analytics block.
func MachineBlock(t Tick) string {
	var b strings.Builder
	b.WriteString("[CRYPTO_ANALYTICS]\n")
	fmt.Fprintf(&b, "ativo=%s\n", t.Asset)
	fmt.Fprintf(&b, "par=%s\n", strings.ToUpper(t.Pair))
	fmt.Fprintf(&b, "intervalo=%s\n", t.Interval)
	fmt.Fprintf(&b, "ts_brt=%s\n", t.Time.In(brt).Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "preco_atual_usdt=%.2f\n", t.Price)
	fmt.Fprintf(&b, "rsi14=%.2f\n", t.RSI)
	fmt.Fprintf(&b, "stochrsi=%.3f\n", t.StochRSI)
	fmt.Fprintf(&b, "stochrsi_trend=%s\n", t.StochTrend)
	fmt.Fprintf(&b, "macd_line=%.5f\n", t.MACDLine)
	fmt.Fprintf(&b, "macd_signal=%.5f\n", t.MACDSignal)
	fmt.Fprintf(&b, "macd_hist=%.5f\n", t.MACDHist)
	fmt.Fprintf(&b, "macd_trend=%s\n", t.MACDTrend)
	fmt.Fprintf(&b, "obv_last=%.0f\n", t.OBV)
	fmt.Fprintf(&b, "mfi14=%.2f\n", t.MFI)
	fmt.Fprintf(&b, "divergencia_rsi=%s\n", orNone(t.RSIDivergence, "nenhuma"))
	fmt.Fprintf(&b, "divergencia_obv=%s\n", orNone(t.OBVDivergence, "nenhuma"))
	fmt.Fprintf(&b, "bollinger_ma=%.2f\n", t.BBMid)
	fmt.Fprintf(&b, "bollinger_sup=%.2f\n", t.BBUpper)
	fmt.Fprintf(&b, "bollinger_inf=%.2f\n", t.BBLower)
	fmt.Fprintf(&b, "bollinger_reentrada=%s\n", reentryLabel(t))
	fmt.Fprintf(&b, "atr14=%.2f\n", t.ATR)
	fmt.Fprintf(&b, "bb_percent_b=%.3f\n", t.PercentB)
	fmt.Fprintf(&b, "bb_width=%.2f\n", t.BandWidth)
	fmt.Fprintf(&b, "spread_vs_ma_pct=%.2f\n", t.SpreadVsMA)
	fmt.Fprintf(&b, "volatilidade_pct20=%.2f\n", t.VolPct)
	fmt.Fprintf(&b, "suporte=%.2f\n", t.Support)
	fmt.Fprintf(&b, "resistencia=%.2f\n", t.Resistance)
	fmt.Fprintf(&b, "dist_suporte_pct=%.2f\n", t.DistSupPct)
	fmt.Fprintf(&b, "dist_resistencia_pct=%.2f\n", t.DistResPct)
	fmt.Fprintf(&b, "squeeze_liberado=%t\n", t.SqueezeOn)
	fmt.Fprintf(&b, "squeeze_direcao=%s\n", orNone(t.SqueezeDir, "neutra"))
	fmt.Fprintf(&b, "volume_last=%.2f\n", t.VolumeLast)
	fmt.Fprintf(&b, "volume_media20=%.2f\n", t.VolumeMean)
	fmt.Fprintf(&b, "fg=%s\n", sentimentValue(t.Sentiment))
	fmt.Fprintf(&b, "target_buy=%s\n", targetValue(t.BuyTarget))
	fmt.Fprintf(&b, "target_sell=%s\n", targetValue(t.SellTarget))
	fmt.Fprintf(&b, "near_pct=%g\n", t.NearPct)
	fmt.Fprintf(&b, "criterios_fundo=%d\n", t.BottomCount)
	fmt.Fprintf(&b, "criterios_topo=%d\n", t.TopCount)
	fmt.Fprintf(&b, "candles_detectados=%s\n", patternsLabel(t.Patterns))
	fmt.Fprintf(&b, "eventos_alto_impacto=%s\n", eventsLabel(t.Events))
	b.WriteString("[/CRYPTO_ANALYTICS]")
	return b.String()
}

func reentryLabel(t Tick) string {
	switch {
	case t.ReentryFromAbove:
		return "acima"
	case t.ReentryFromBelow:
		return "abaixo"
	}
	return "nao"
}

func orNone(v, none string) string {
	if v == "" {
		return none
	}
	return v
}

func sentimentValue(s models.Sentiment) string {
	if !s.OK {
		return "NA"
	}
	return fmt.Sprintf("%d", s.Value)
}

func targetValue(t models.Target) string {
	if !t.Set {
		return "NA"
	}
	return fmt.Sprintf("%g", t.Value)
}

func patternsLabel(names []string) string {
	if len(names) == 0 {
		return "nenhum"
	}
	return strings.Join(names, ",")
}

func eventsLabel(events []string) string {
	if len(events) == 0 {
		return "nenhum"
	}
	return strings.Join(events, " ; ")
}
