package indicators

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// REQ-206..209: shared numeric building blocks reused across every
// indicator family. Every function here is pure and side-effect free,
// consistent with the §4.1 purity requirement.

// SMA is the simple moving average of the trailing `period` values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA is the exponential moving average over the whole series, seeded by
// the first value (the teacher's convention).
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) == 0 {
		return 0, false
	}
	if len(values) < period {
		return 0, false
	}
	multiplier := 2.0 / (float64(period) + 1.0)
	ema := values[0]
	for _, v := range values[1:] {
		ema = (v * multiplier) + (ema * (1 - multiplier))
	}
	return ema, true
}

// EMASeries returns the full EMA series (same length as values), used when
// a signal line needs an EMA-of-EMA (e.g. the MACD signal line).
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	multiplier := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i] * multiplier) + (out[i-1] * (1 - multiplier))
	}
	return out
}

// StdDev is the population standard deviation of the trailing period.
func StdDev(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	window := values[len(values)-period:]
	mean, _ := SMA(values, period)
	variance := 0.0
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(period)
	return math.Sqrt(variance), true
}

// TrueRange computes the true range for one candle given its predecessor.
func TrueRange(current, previous models.Candle) float64 {
	tr1 := current.High - current.Low
	tr2 := math.Abs(current.High - previous.Close)
	tr3 := math.Abs(current.Low - previous.Close)
	return math.Max(tr1, math.Max(tr2, tr3))
}

// WilderATR computes Wilder's average true range over `period`, smoothed
// with Wilder's moving average rather than a plain SMA of true ranges.
func WilderATR(candles []models.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, TrueRange(candles[i], candles[i-1]))
	}
	return wilderSmooth(trs, period)
}

// wilderSmooth applies Wilder's smoothing (the same recurrence ADX and RSI
// use internally) to a series, seeded by a plain average of the first
// `period` values.
func wilderSmooth(values []float64, period int) (float64, bool) {
	if len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	avg := sum / float64(period)
	for i := period; i < len(values); i++ {
		avg = (avg*float64(period-1) + values[i]) / float64(period)
	}
	return avg, true
}

// HighestLow returns the highest high and lowest low over the trailing
// `period` candles.
func HighestLow(candles []models.Candle, period int) (highest, lowest float64, ok bool) {
	if period <= 0 || len(candles) < period {
		return 0, 0, false
	}
	window := candles[len(candles)-period:]
	highest, lowest = window[0].High, window[0].Low
	for _, c := range window {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}
	return highest, lowest, true
}

// clamp0to100 keeps a magnitude within [0, 100].
func clamp0to100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// sign returns -1/0/+1 for the sign of v, for readability at call sites
// that build directional scores.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// ADXResult holds Wilder's directional movement system output, exported
// so both the trend family and the regime detector (C2) can share one
// recurrence instead of each re-deriving +DM/-DM/DX.
type ADXResult struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX computes Wilder's average directional index over `period`, plus the
// smoothed +DI/-DI lines used to decide trend direction.
func ADX(candles []models.Candle, period int) (ADXResult, bool) {
	if period <= 0 || len(candles) < 2*period+1 {
		return ADXResult{}, false
	}

	n := len(candles)
	trs := make([]float64, 0, n-1)
	plusDMs := make([]float64, 0, n-1)
	minusDMs := make([]float64, 0, n-1)

	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low

		plusDM := 0.0
		if up > down && up > 0 {
			plusDM = up
		}
		minusDM := 0.0
		if down > up && down > 0 {
			minusDM = down
		}

		trs = append(trs, TrueRange(candles[i], candles[i-1]))
		plusDMs = append(plusDMs, plusDM)
		minusDMs = append(minusDMs, minusDM)
	}

	dxs := make([]float64, 0, len(trs)-period+1)
	for end := period; end <= len(trs); end++ {
		atr, ok := wilderSmooth(trs[:end], period)
		if !ok || atr == 0 {
			continue
		}
		plusSum, _ := wilderSmooth(plusDMs[:end], period)
		minusSum, _ := wilderSmooth(minusDMs[:end], period)

		plusDI := 100 * plusSum / atr
		minusDI := 100 * minusSum / atr

		denom := plusDI + minusDI
		dx := 0.0
		if denom != 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / denom
		}
		dxs = append(dxs, dx)
	}

	adx, ok := wilderSmooth(dxs, period)
	if !ok {
		return ADXResult{}, false
	}

	atr, _ := wilderSmooth(trs, period)
	plusSum, _ := wilderSmooth(plusDMs, period)
	minusSum, _ := wilderSmooth(minusDMs, period)
	plusDI, minusDI := 0.0, 0.0
	if atr != 0 {
		plusDI = 100 * plusSum / atr
		minusDI = 100 * minusSum / atr
	}

	return ADXResult{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}, true
}

// ChoppinessIndex measures how "choppy" (range-bound) vs trending price
// action has been over `period` candles: high values mean ranging, low
// values mean trending (§4.2 regime classification input).
func ChoppinessIndex(candles []models.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}

	window := candles[len(candles)-period:]
	sumTR := 0.0
	for i := 1; i < len(window); i++ {
		sumTR += TrueRange(window[i], window[i-1])
	}
	firstTR := TrueRange(window[0], candles[len(candles)-period-1])
	sumTR += firstTR

	highest, lowest, ok := HighestLow(candles, period)
	if !ok || highest == lowest {
		return 0, false
	}

	ci := 100 * math.Log10(sumTR/(highest-lowest)) / math.Log10(float64(period))
	return clamp0to100(ci), true
}
