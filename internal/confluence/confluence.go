// Package confluence folds the tick's indicator outputs into the two
// directional scores the alert gate decides on.
package confluence

import (
	"crypto-target-monitor/internal/indicators"
	"crypto-target-monitor/internal/patterns"
)

// slopeLookback is the number of bars behind the latest used for the
// short-term trend fit.
const slopeLookback = 3

// srProximity is the fractional distance to support/resistance within which
// a reversal candle counts.
const srProximity = 0.01

// Score is one side's confluence result: the number of independently
// triggered conditions and their explanations, in evaluation order.
type Score struct {
	Count   int
	Reasons []string
}

func (s *Score) add(reason string) {
	s.Count++
	s.Reasons = append(s.Reasons, reason)
}

// Snapshot carries the per-tick inputs the evaluator consumes. All series
// are aligned with the candle window, oldest first.
type Snapshot struct {
	StochRSI []float64
	MACDHist []float64

	RSIDivergence string // "alta", "baixa", or empty
	OBVDivergence string

	Patterns patterns.Flags

	// Fractional distances from the latest close to the recent support and
	// resistance levels.
	DistSupport    float64
	DistResistance float64

	// Bollinger envelope re-entries between the previous and latest close.
	ReentryFromBelow bool
	ReentryFromAbove bool
}

// Trends returns the short-term direction labels for the stochastic RSI and
// MACD histogram ("up", "down", or "flat").
func (s Snapshot) Trends() (stoch, macd string) {
	return trendLabel(indicators.Slope(s.StochRSI, slopeLookback)),
		trendLabel(indicators.Slope(s.MACDHist, slopeLookback))
}

func trendLabel(slope float64) string {
	switch {
	case slope > 0:
		return "up"
	case slope < 0:
		return "down"
	}
	return "flat"
}

// Evaluate produces the bottom-forming and top-forming scores. Each rule
// contributes at most one point and one reason per side.
func Evaluate(s Snapshot) (bottom, top Score) {
	stochUp := indicators.Slope(s.StochRSI, slopeLookback) > 0
	stochDown := indicators.Slope(s.StochRSI, slopeLookback) < 0
	histUp := indicators.Slope(s.MACDHist, slopeLookback) > 0
	histDown := indicators.Slope(s.MACDHist, slopeLookback) < 0

	stochLast := last(s.StochRSI)
	histLast := last(s.MACDHist)
	histPrev := prev(s.MACDHist)

	// Bottom side.
	if stochLast < 0.2 && stochUp {
		bottom.add("StochRSI < 0.2 e subindo")
	}
	if (histLast > 0 && histPrev < 0) || histUp {
		bottom.add("MACD/hist virando p/ alta")
	}
	if s.RSIDivergence == indicators.DivergenceBullish {
		bottom.add("Divergência RSI (alta)")
	}
	if s.OBVDivergence == indicators.DivergenceBullish {
		bottom.add("Divergência OBV (alta)")
	}
	if (s.Patterns.Hammer || s.Patterns.MorningStar || s.Patterns.Engulfing) &&
		s.DistSupport < srProximity {
		bottom.add("Candle de reversão em suporte ±1%")
	}
	if s.ReentryFromBelow {
		bottom.add("Reentrada acima da banda inferior")
	}

	// Top side.
	if stochLast > 0.8 && stochDown {
		top.add("StochRSI > 0.8 e caindo")
	}
	if (histLast < 0 && histPrev > 0) || histDown {
		top.add("MACD/hist virando p/ baixa")
	}
	if s.RSIDivergence == indicators.DivergenceBearish {
		top.add("Divergência RSI (baixa)")
	}
	if s.OBVDivergence == indicators.DivergenceBearish {
		top.add("Divergência OBV (baixa)")
	}
	if (s.Patterns.EveningStar || s.Patterns.Engulfing || s.Patterns.ThreeBlackCrows) &&
		s.DistResistance < srProximity {
		top.add("Candle de reversão em resistência ±1%")
	}
	if s.ReentryFromAbove {
		top.add("Reentrada abaixo da banda superior")
	}

	return bottom, top
}

// SupportResistance takes the min low / max high over the 5 bars preceding
// the latest one and the fractional distances of the latest close to each.
func SupportResistance(highs, lows, close []float64) (support, resistance, distSup, distRes float64) {
	n := len(close)
	if n < 6 {
		return 0, 0, 1, 1
	}
	resistance = highs[n-6]
	support = lows[n-6]
	for i := n - 5; i < n-1; i++ {
		if highs[i] > resistance {
			resistance = highs[i]
		}
		if lows[i] < support {
			support = lows[i]
		}
	}
	distRes = dist(close[n-1], resistance)
	distSup = dist(close[n-1], support)
	return support, resistance, distSup, distRes
}

func dist(price, level float64) float64 {
	den := level
	if den < 1e-9 {
		den = 1e-9
	}
	d := price - level
	if d < 0 {
		d = -d
	}
	return d / den
}

// BollingerReentry reports whether the close moved back inside the envelope
// between the previous and latest bar: fromAbove means the previous close
// sat above the upper band and the latest is back at or under it; fromBelow
// is the mirror at the lower band.
func BollingerReentry(close, upper, lower []float64) (fromAbove, fromBelow bool) {
	n := len(close)
	if n < 2 {
		return false, false
	}
	fromAbove = close[n-2] > upper[n-2] && close[n-1] <= upper[n-1]
	fromBelow = close[n-2] < lower[n-2] && close[n-1] >= lower[n-1]
	return fromAbove, fromBelow
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

func prev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return xs[len(xs)-2]
}
