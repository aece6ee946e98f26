package indicators

// Divergence kinds as reported downstream. The Portuguese values are part of
// the machine block schema consumed by the existing relay, so they stay.
const (
	DivergenceBullish = "alta"
	DivergenceBearish = "baixa"
)

// RSIDivergence compares the short-term price change (two bars back) against
// the change in RSI. Price up with RSI down is bearish; price down with RSI
// up is bullish. Needs at least 5 points on both series.
func RSIDivergence(close, rsi []float64) (bool, string) {
	return divergence(close, rsi)
}

// OBVDivergence is the same check against on-balance volume.
func OBVDivergence(close, obv []float64) (bool, string) {
	return divergence(close, obv)
}

func divergence(close, indicator []float64) (bool, string) {
	if len(close) < 5 || len(indicator) < 5 {
		return false, ""
	}
	c1, c3 := close[len(close)-1], close[len(close)-3]
	i1, i3 := indicator[len(indicator)-1], indicator[len(indicator)-3]
	if c1 > c3 && i1 < i3 {
		return true, DivergenceBearish
	}
	if c1 < c3 && i1 > i3 {
		return true, DivergenceBullish
	}
	return false, ""
}
