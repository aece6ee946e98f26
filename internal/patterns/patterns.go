// Package patterns implements the candlestick pattern detectors.
//
// Detection policy: each detector scans the whole window and reports true if
// the pattern occurs anywhere in it, not only at the latest bar. This is the
// permissive variant; it raises alert frequency and pairs with the
// support/resistance distance filter applied by the confluence evaluator.
package patterns

import (
	"math"

	"crypto-target-monitor/models"
)

// Flags bundles one detection result per supported pattern.
type Flags struct {
	Hammer             bool
	InvertedHammer     bool
	Engulfing          bool
	MorningStar        bool
	EveningStar        bool
	ThreeWhiteSoldiers bool
	ThreeBlackCrows    bool
}

// Names returns the detected pattern names in fixed order, or nil when no
// pattern was found.
func (f Flags) Names() []string {
	var names []string
	for _, p := range []struct {
		name string
		ok   bool
	}{
		{"martelo", f.Hammer},
		{"martelo_invertido", f.InvertedHammer},
		{"engolfo", f.Engulfing},
		{"estrela_manha", f.MorningStar},
		{"estrela_noite", f.EveningStar},
		{"tres_soldados", f.ThreeWhiteSoldiers},
		{"tres_corvos", f.ThreeBlackCrows},
	} {
		if p.ok {
			names = append(names, p.name)
		}
	}
	return names
}

// Detect runs every detector over the window.
func Detect(candles []models.Candle) Flags {
	return Flags{
		Hammer:             Hammer(candles),
		InvertedHammer:     InvertedHammer(candles),
		Engulfing:          Engulfing(candles),
		MorningStar:        MorningStar(candles),
		EveningStar:        EveningStar(candles),
		ThreeWhiteSoldiers: ThreeWhiteSoldiers(candles),
		ThreeBlackCrows:    ThreeBlackCrows(candles),
	}
}

func body(c models.Candle) float64 {
	return math.Abs(c.Close - c.Open)
}

func lowerShadow(c models.Candle) float64 {
	if c.Close > c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}

func upperShadow(c models.Candle) float64 {
	if c.Close > c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}

func bullish(c models.Candle) bool {
	return c.Close > c.Open
}

func bearish(c models.Candle) bool {
	return c.Close < c.Open
}

// Hammer: real body with a lower shadow longer than the body and an upper
// shadow shorter than it.
func Hammer(candles []models.Candle) bool {
	for _, c := range candles {
		b := body(c)
		if b > 0 && lowerShadow(c) > b && upperShadow(c) < b {
			return true
		}
	}
	return false
}

// InvertedHammer mirrors Hammer with the shadows swapped.
func InvertedHammer(candles []models.Candle) bool {
	for _, c := range candles {
		b := body(c)
		if b > 0 && upperShadow(c) > b && lowerShadow(c) < b {
			return true
		}
	}
	return false
}

// Engulfing: a bullish candle whose body engulfs the previous bearish body.
func Engulfing(candles []models.Candle) bool {
	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]
		if bullish(cur) && !bullish(prev) &&
			cur.Open < prev.Close && cur.Close > prev.Open {
			return true
		}
	}
	return false
}

// doji reports a near-zero body relative to the open price.
func doji(c models.Candle) bool {
	ref := math.Max(c.Open, 1e-9)
	return math.Abs(c.Close-c.Open)/ref < 0.005
}

// MorningStar: bearish candle, doji, then a bullish candle closing above the
// first candle's close.
func MorningStar(candles []models.Candle) bool {
	for i := 2; i < len(candles); i++ {
		first, mid, last := candles[i-2], candles[i-1], candles[i]
		if bearish(first) && doji(mid) && bullish(last) && last.Close > first.Close {
			return true
		}
	}
	return false
}

// EveningStar: the bearish mirror of MorningStar.
func EveningStar(candles []models.Candle) bool {
	for i := 2; i < len(candles); i++ {
		first, mid, last := candles[i-2], candles[i-1], candles[i]
		if bullish(first) && doji(mid) && bearish(last) && last.Close < first.Close {
			return true
		}
	}
	return false
}

// ThreeWhiteSoldiers: three consecutive bullish candles.
func ThreeWhiteSoldiers(candles []models.Candle) bool {
	for i := 2; i < len(candles); i++ {
		if bullish(candles[i]) && bullish(candles[i-1]) && bullish(candles[i-2]) {
			return true
		}
	}
	return false
}

// ThreeBlackCrows: three consecutive bearish candles.
func ThreeBlackCrows(candles []models.Candle) bool {
	for i := 2; i < len(candles); i++ {
		if bearish(candles[i]) && bearish(candles[i-1]) && bearish(candles[i-2]) {
			return true
		}
	}
	return false
}
