package indicators

// SqueezeResult is the outcome of the squeeze/overextension check: the
// latest Bollinger spread, whether the expansion is confirmed, and the
// breakout direction ("alta"/"baixa", empty when not released).
type SqueezeResult struct {
	Spread    float64
	Released  bool
	Direction string
}

// Squeeze compares the latest Bollinger band spread to the mean spread over
// the preceding baselineBars bars. A spread above baseline*factor confirms
// the expansion; direction follows the close relative to the rolling mean.
//
// The baseline span and expansion factor are configuration constants
// (defaults: 4 bars, 1.2).
func Squeeze(close []float64, window, baselineBars int, factor float64) SqueezeResult {
	mid, upper, lower := Bollinger(close, window, 2.0)
	spread := BandWidth(lower, upper)

	n := len(spread)
	if n < baselineBars+1 {
		return SqueezeResult{}
	}
	now := spread[n-1]
	baseline := mean(spread[n-1-baselineBars : n-1])

	res := SqueezeResult{Spread: now}
	if now > baseline*factor {
		res.Released = true
		if close[n-1] > mid[n-1] {
			res.Direction = DivergenceBullish
		} else {
			res.Direction = DivergenceBearish
		}
	}
	return res
}
