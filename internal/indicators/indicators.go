// Package indicators holds the stateless numeric transforms over price and
// volume series. Every function returns a series of the same length as its
// input; where the lookback is not yet satisfied the leading entries carry a
// neutral fallback instead of failing, so callers can always index the tail.
package indicators

import "math"

// epsilon floors denominators in ratio computations.
const epsilon = 1e-9

// RSI computes the relative strength index series with Wilder smoothing.
// The first window entries are filled with the neutral 50; a window with no
// losses yields 100.
func RSI(close []float64, window int) []float64 {
	out := make([]float64, len(close))
	for i := range out {
		out[i] = 50.0
	}
	if len(close) < window+1 {
		return out
	}

	var gains, losses float64
	for i := 1; i <= window; i++ {
		change := close[i] - close[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(window)
	avgLoss := losses / float64(window)
	out[window] = rsiValue(avgGain, avgLoss)

	for i := window + 1; i < len(close); i++ {
		change := close[i] - close[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// StochRSI min-max normalizes the RSI over a trailing window, yielding values
// in [0,1]. Entries without a full window, and degenerate (zero range)
// windows, fall back to 0.
func StochRSI(close []float64, window int) []float64 {
	rsi := RSI(close, window)
	out := make([]float64, len(rsi))
	for i := range rsi {
		if i < window-1 {
			continue
		}
		lo, hi := rsi[i], rsi[i]
		for j := i - window + 1; j <= i; j++ {
			if rsi[j] < lo {
				lo = rsi[j]
			}
			if rsi[j] > hi {
				hi = rsi[j]
			}
		}
		if hi-lo < epsilon {
			continue
		}
		out[i] = (rsi[i] - lo) / (hi - lo)
	}
	return out
}

// EMA computes an exponential moving average series. The first period-1
// entries hold the running simple average of the prefix.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	var sum float64
	for i, v := range values {
		if i < period {
			sum += v
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = v*alpha + out[i-1]*(1.0-alpha)
	}
	return out
}

// MACD returns the MACD line, signal line, and histogram series for the
// given fast/slow/signal periods.
func MACD(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)
	line = make([]float64, len(close))
	for i := range close {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig = EMA(line, signal)
	hist = make([]float64, len(close))
	for i := range close {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// OBV computes on-balance volume: add volume on up-closes, subtract on
// down-closes, hold on unchanged closes. Seeded at 0.
func OBV(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// Bollinger returns the rolling mean and the upper/lower bands at k standard
// deviations. Entries before a full window collapse to the close price.
func Bollinger(close []float64, window int, k float64) (mid, upper, lower []float64) {
	n := len(close)
	mid = make([]float64, n)
	upper = make([]float64, n)
	lower = make([]float64, n)
	for i := 0; i < n; i++ {
		if i < window-1 {
			mid[i], upper[i], lower[i] = close[i], close[i], close[i]
			continue
		}
		win := close[i-window+1 : i+1]
		m := mean(win)
		sd := stdDev(win, m)
		mid[i] = m
		upper[i] = m + k*sd
		lower[i] = m - k*sd
	}
	return mid, upper, lower
}

// ATR computes the average true range as a rolling mean of the true range.
// Leading entries are backfilled with the first full-window value.
func ATR(high, low, close []float64, window int) []float64 {
	n := len(close)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	tr := make([]float64, n)
	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	first := -1
	for i := window - 1; i < n; i++ {
		out[i] = mean(tr[i-window+1 : i+1])
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		// Window never filled; fall back to the plain mean of what we have.
		m := mean(tr)
		for i := range out {
			out[i] = m
		}
		return out
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	return out
}

// PercentB computes (close-lower)/(upper-lower) with the denominator floored
// at epsilon.
func PercentB(close, lower, upper []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		width := upper[i] - lower[i]
		if width < epsilon {
			width = epsilon
		}
		out[i] = (close[i] - lower[i]) / width
	}
	return out
}

// BandWidth is the absolute distance between the Bollinger bands.
func BandWidth(lower, upper []float64) []float64 {
	out := make([]float64, len(lower))
	for i := range lower {
		out[i] = upper[i] - lower[i]
	}
	return out
}

// SpreadVsMean is the percent distance of the close from the rolling mean.
func SpreadVsMean(close, mid []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		m := mid[i]
		if math.Abs(m) < epsilon {
			m = epsilon
		}
		out[i] = (close[i] - m) / m * 100.0
	}
	return out
}

// VolatilityPct is the rolling standard deviation of percent returns scaled
// by sqrt(window)*100. Leading entries are backfilled.
func VolatilityPct(close []float64, window int) []float64 {
	n := len(close)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	rets := make([]float64, n)
	for i := 1; i < n; i++ {
		prev := close[i-1]
		if math.Abs(prev) < epsilon {
			prev = epsilon
		}
		rets[i] = (close[i] - prev) / prev
	}
	scale := math.Sqrt(float64(window)) * 100.0
	first := -1
	for i := window; i < n; i++ {
		win := rets[i-window+1 : i+1]
		m := mean(win)
		out[i] = sampleStdDev(win, m) * scale
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return out
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	return out
}

// MFI computes the money flow index over typical prices. Entries without a
// full window carry the neutral 50.
func MFI(high, low, close, volume []float64, window int) []float64 {
	n := len(close)
	out := make([]float64, n)
	for i := range out {
		out[i] = 50.0
	}
	if n < window+1 {
		return out
	}
	pos := make([]float64, n)
	neg := make([]float64, n)
	prevTP := (high[0] + low[0] + close[0]) / 3.0
	for i := 1; i < n; i++ {
		tp := (high[i] + low[i] + close[i]) / 3.0
		flow := tp * volume[i]
		if tp > prevTP {
			pos[i] = flow
		} else if tp < prevTP {
			neg[i] = flow
		}
		prevTP = tp
	}
	for i := window; i < n; i++ {
		var posSum, negSum float64
		for j := i - window + 1; j <= i; j++ {
			posSum += pos[j]
			negSum += neg[j]
		}
		if negSum < epsilon {
			out[i] = 100.0
			continue
		}
		out[i] = 100.0 - (100.0 / (1.0 + posSum/negSum))
	}
	return out
}

// Slope fits a least-squares line through the most recent lookback+1 points
// and returns its slope. Shorter series yield a flat 0, which disables
// slope-based rules without failing.
func Slope(series []float64, lookback int) float64 {
	if len(series) < lookback+1 {
		return 0.0
	}
	y := series[len(series)-(lookback+1):]
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < epsilon {
		return 0.0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation around the given mean.
func stdDev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var v float64
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)))
}

// sampleStdDev divides by n-1, matching rolling-window estimators used for
// return volatility.
func sampleStdDev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var v float64
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)-1))
}
