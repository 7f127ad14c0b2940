// Package regime classifies the prevailing market structure (trending vs
// ranging) and volatility band from a rolling candle window.
package regime

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/indicators"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

const (
	adxPeriod        = 14
	choppinessPeriod = 14
	atrPeriod        = 14
	volatilityWindow = 50
	minCandles       = 30
)

// Detector computes a MarketRegime from a candle window, single-pass and
// side-effect free (§4.2).
type Detector struct{}

// NewDetector constructs a regime Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect classifies the regime and volatility band over the trailing
// window. Requires at least minCandles candles; returns RegimeUnknown
// below that, matching the indicator registry's insufficient-data
// absorption rather than erroring.
func (d *Detector) Detect(candles []models.Candle) models.MarketRegime {
	if len(candles) < minCandles {
		return models.MarketRegime{
			Regime:         models.RegimeUnknown,
			Volatility:     models.VolatilityUnknown,
			Confidence:     0,
			Interpretation: "insufficient candle history for regime classification",
		}
	}

	adxResult, adxOK := indicators.ADX(candles, adxPeriod)
	choppiness, choppinessOK := indicators.ChoppinessIndex(candles, choppinessPeriod)

	if !adxOK || !choppinessOK {
		return models.MarketRegime{
			Regime:         models.RegimeUnknown,
			Volatility:     models.VolatilityUnknown,
			Confidence:     0,
			Interpretation: "insufficient candle history for ADX/choppiness",
		}
	}

	adx := adxResult.ADX
	kind, confidence := classify(adx, choppiness)
	band := classifyVolatility(candles)

	return models.MarketRegime{
		Regime:          kind,
		Volatility:      band,
		ADX:             adx,
		ChoppinessIndex: choppiness,
		Confidence:      confidence,
		Interpretation:  interpretation(kind, band, adx, choppiness),
	}
}

// classify applies the §4.2 decision table and derives a confidence score
// proportional to distance from the nearest classifying boundary.
func classify(adx, choppiness float64) (models.RegimeKind, float64) {
	switch {
	case adx >= 30 && choppiness < 50:
		// Deeper into the box (higher ADX, lower choppiness) => higher confidence.
		adxDepth := clamp01((adx - 30) / 40)
		choppinessDepth := clamp01((50 - choppiness) / 50)
		return models.RegimeStrongTrending, 100 * (0.5*adxDepth + 0.5*choppinessDepth)

	case (adx >= 20 && adx < 30) || (choppiness >= 50 && choppiness < 61.8):
		// Weak trending straddles two boundaries; confidence from whichever
		// condition actually triggered, measured from its nearer edge.
		adxDist := 0.0
		if adx >= 20 && adx < 30 {
			adxDist = 1 - math.Abs(adx-25)/5
		}
		choppinessDist := 0.0
		if choppiness >= 50 && choppiness < 61.8 {
			choppinessDist = 1 - math.Abs(choppiness-55.9)/5.9
		}
		return models.RegimeWeakTrending, 60 * math.Max(adxDist, choppinessDist)

	case adx < 20 && choppiness >= 61.8:
		adxDepth := clamp01((20 - adx) / 20)
		choppinessDepth := clamp01((choppiness - 61.8) / 38.2)
		return models.RegimeRanging, 100 * (0.5*adxDepth + 0.5*choppinessDepth)

	default:
		// Signals disagree outright (e.g. high ADX with high choppiness).
		return models.RegimeWeakTrending, 30
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// classifyVolatility buckets the current ATR reading against its trailing
// percentile rank into the six fixed volatility bands.
func classifyVolatility(candles []models.Candle) models.VolatilityBand {
	percentile, ok := atrPercentileRank(candles, atrPeriod, volatilityWindow)
	if !ok {
		return models.VolatilityUnknown
	}

	switch {
	case percentile >= 90:
		return models.VolatilityVeryHigh
	case percentile >= 70:
		return models.VolatilityHigh
	case percentile >= 55:
		return models.VolatilityElevated
	case percentile >= 45:
		return models.VolatilityNormal
	case percentile >= 25:
		return models.VolatilityLow
	default:
		return models.VolatilityVeryLow
	}
}

// atrPercentileRank ranks the latest ATR reading against the trailing
// `lookback` window of ATR readings computed over the same `period`.
func atrPercentileRank(candles []models.Candle, period, lookback int) (float64, bool) {
	if len(candles) < period+lookback+1 {
		return 0, false
	}

	start := len(candles) - lookback
	series := make([]float64, 0, lookback)
	for end := start + period + 1; end <= len(candles); end++ {
		atr, ok := indicators.WilderATR(candles[:end], period)
		if ok {
			series = append(series, atr)
		}
	}
	if len(series) == 0 {
		return 0, false
	}

	current := series[len(series)-1]
	below := 0
	for _, v := range series {
		if v <= current {
			below++
		}
	}
	return float64(below) / float64(len(series)) * 100, true
}

func interpretation(kind models.RegimeKind, band models.VolatilityBand, adx, choppiness float64) string {
	switch kind {
	case models.RegimeStrongTrending:
		return "strong directional trend, low chop"
	case models.RegimeWeakTrending:
		return "trend present but not decisive"
	case models.RegimeRanging:
		return "range-bound, high chop"
	default:
		return "regime signals unavailable"
	}
}
