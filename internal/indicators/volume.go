package indicators

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Volume indicators (§4.1) express conviction behind a price move rather
// than originate one: VWAP position, OBV slope, surge-vs-average, and the
// accumulation/distribution line all read direction from how volume lines
// up with price, not from volume alone.

func defaultVolumeEvaluators() []Evaluator {
	return []Evaluator{
		vwapEvaluator{name: "VWAP", lookback: 20},
		obvTrendEvaluator{name: "OBV_TREND", lookback: 20},
		volumeSurgeEvaluator{name: "VOLUME_SURGE_20", period: 20},
		accDistEvaluator{name: "ACC_DIST", lookback: 20},
		klingerOscillatorEvaluator{name: "KLINGER_OSCILLATOR", fast: 34, slow: 55},
		pvtEvaluator{name: "PVT", lookback: 20},
		nviEvaluator{name: "NVI", lookback: 50},
		pviEvaluator{name: "PVI", lookback: 50},
		chaikinMoneyFlowEvaluator{name: "CMF_20", period: 20},
	}
}

// --- VWAP ------------------------------------------------------------------

type vwapEvaluator struct {
	name     string
	lookback int
}

func (e vwapEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.lookback,
		ImportanceWeight: 0.9,
	}
}

func (e vwapEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	window := candles[len(candles)-e.lookback:]

	var totalVolume, totalPV float64
	for _, c := range window {
		typical := (c.High + c.Low + c.Close) / 3
		vol := float64(c.Volume)
		totalPV += typical * vol
		totalVolume += vol
	}
	if totalVolume == 0 {
		return models.InsufficientData(e.name, models.CategoryVolume)
	}

	vwap := totalPV / totalVolume
	price := window[len(window)-1].Close
	deviation := (price - vwap) / vwap * 100
	score := models.ClampScore(deviation * 15)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}

// --- On-balance volume trend ------------------------------------------------

type obvTrendEvaluator struct {
	name     string
	lookback int
}

func (e obvTrendEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.lookback + 1,
		ImportanceWeight: 0.85,
	}
}

func (e obvTrendEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	window := candles[len(candles)-e.lookback-1:]

	obv := make([]float64, len(window))
	obv[0] = float64(window[0].Volume)
	for i := 1; i < len(window); i++ {
		switch {
		case window[i].Close > window[i-1].Close:
			obv[i] = obv[i-1] + float64(window[i].Volume)
		case window[i].Close < window[i-1].Close:
			obv[i] = obv[i-1] - float64(window[i].Volume)
		default:
			obv[i] = obv[i-1]
		}
	}

	first, last := obv[0], obv[len(obv)-1]
	span := math.Abs(first)
	if span == 0 {
		span = 1
	}
	slope := (last - first) / span * 100
	score := models.ClampScore(slope)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 50,
	}
}

// --- Volume surge ------------------------------------------------------

// volumeSurgeEvaluator reads direction from the price move that accompanies
// an above-average volume candle; on ordinary volume it stays neutral
// rather than guessing.
type volumeSurgeEvaluator struct {
	name   string
	period int
}

func (e volumeSurgeEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.8,
	}
}

func (e volumeSurgeEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	volumes := make([]float64, n)
	for i, c := range candles {
		volumes[i] = float64(c.Volume)
	}

	avgVolume, ok := SMA(volumes[:n-1], e.period)
	if !ok || avgVolume == 0 {
		return models.InsufficientData(e.name, models.CategoryVolume)
	}

	current := candles[n-1]
	ratio := float64(current.Volume) / avgVolume
	priceChange := current.Close - candles[n-2].Close

	if ratio < 1.3 {
		return models.Neutral(e.name, models.CategoryVolume, 40)
	}

	score := models.ClampScore(sign(priceChange) * math.Min(ratio, 4) * 20)
	confidence := clamp0to100(50 + (ratio-1.3)*15)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Accumulation / Distribution -----------------------------------------

type accDistEvaluator struct {
	name     string
	lookback int
}

func (e accDistEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.lookback,
		ImportanceWeight: 0.75,
	}
}

func (e accDistEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	window := candles[len(candles)-e.lookback:]

	adLine := make([]float64, len(window))
	for i, c := range window {
		if c.High == c.Low {
			if i > 0 {
				adLine[i] = adLine[i-1]
			}
			continue
		}
		mfm := ((c.Close - c.Low) - (c.High - c.Close)) / (c.High - c.Low)
		prev := 0.0
		if i > 0 {
			prev = adLine[i-1]
		}
		adLine[i] = prev + mfm*float64(c.Volume)
	}

	first, last := adLine[0], adLine[len(adLine)-1]
	span := math.Abs(first)
	if span == 0 {
		span = math.Max(math.Abs(last), 1)
	}
	slope := (last - first) / span * 100
	score := models.ClampScore(slope)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 50,
	}
}

// --- Klinger Oscillator --------------------------------------------------------

// klingerOscillatorEvaluator smooths a signed volume force (sign of the
// HLC-trend times volume) with two EMAs and reads direction from their
// separation, the same fast/slow-line convention as the trend family's
// crossovers.
type klingerOscillatorEvaluator struct {
	name       string
	fast, slow int
}

func (e klingerOscillatorEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.slow + 2,
		ImportanceWeight: 0.75,
	}
}

func (e klingerOscillatorEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.slow+2 {
		return models.InsufficientData(e.name, models.CategoryVolume)
	}

	force := make([]float64, n)
	prevTrend := (candles[0].High + candles[0].Low + candles[0].Close) / 3
	for i, c := range candles {
		trend := (c.High + c.Low + c.Close) / 3
		force[i] = sign(trend-prevTrend) * float64(c.Volume)
		prevTrend = trend
	}

	fastSeries := EMASeries(force, e.fast)
	slowSeries := EMASeries(force, e.slow)

	kvo := fastSeries[n-1] - slowSeries[n-1]
	ref := math.Max(math.Abs(fastSeries[n-1]), math.Abs(slowSeries[n-1]))
	if ref == 0 {
		return models.Neutral(e.name, models.CategoryVolume, 40)
	}
	score := models.ClampScore(kvo / ref * 100)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}

// --- Price Volume Trend --------------------------------------------------------

// pvtEvaluator is OBV's proportional sibling: each bar's contribution is
// scaled by the percentage price change rather than counted as a flat
// +/- volume, so it weighs small moves on heavy volume less than OBV would.
type pvtEvaluator struct {
	name     string
	lookback int
}

func (e pvtEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.lookback + 1,
		ImportanceWeight: 0.75,
	}
}

func (e pvtEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	window := candles[len(candles)-e.lookback-1:]

	pvt := make([]float64, len(window))
	for i := 1; i < len(window); i++ {
		prevClose := window[i-1].Close
		change := 0.0
		if prevClose != 0 {
			change = (window[i].Close - prevClose) / prevClose
		}
		pvt[i] = pvt[i-1] + change*float64(window[i].Volume)
	}

	first, last := pvt[0], pvt[len(pvt)-1]
	span := math.Max(math.Abs(first), math.Abs(last))
	if span == 0 {
		return models.Neutral(e.name, models.CategoryVolume, 40)
	}
	score := models.ClampScore((last - first) / span * 100)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 50,
	}
}

// --- Negative / Positive Volume Index --------------------------------------

// nviEvaluator and pviEvaluator track a cumulative index that only updates
// on down-volume (NVI) or up-volume (PVI) days, the Norman Fosback
// convention: direction comes from the index's position relative to its
// own moving average, not the raw level.
type nviEvaluator struct {
	name     string
	lookback int
}

func (e nviEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.lookback + 1,
		ImportanceWeight: 0.65,
	}
}

func (e nviEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	return volumeIndexEvaluate(e.name, candles, e.lookback, false)
}

type pviEvaluator struct {
	name     string
	lookback int
}

func (e pviEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.lookback + 1,
		ImportanceWeight: 0.65,
	}
}

func (e pviEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	return volumeIndexEvaluate(e.name, candles, e.lookback, true)
}

// volumeIndexEvaluate shares the NVI/PVI recurrence: onUpVolume selects
// which days update the index (true for PVI, false for NVI).
func volumeIndexEvaluate(name string, candles []models.Candle, lookback int, onUpVolume bool) models.IndicatorResult {
	window := candles[len(candles)-lookback-1:]

	index := make([]float64, len(window))
	index[0] = 1000
	for i := 1; i < len(window); i++ {
		index[i] = index[i-1]
		volUp := window[i].Volume > window[i-1].Volume
		if volUp == onUpVolume && window[i-1].Close != 0 {
			change := (window[i].Close - window[i-1].Close) / window[i-1].Close
			index[i] = index[i-1] * (1 + change)
		}
	}

	ma, ok := SMA(index, len(index))
	if !ok || ma == 0 {
		return models.InsufficientData(name, models.CategoryVolume)
	}

	last := index[len(index)-1]
	deviation := (last - ma) / ma * 100
	score := models.ClampScore(deviation * 10)

	return models.IndicatorResult{
		Name:       name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 48,
	}
}

// --- Chaikin Money Flow --------------------------------------------------------

type chaikinMoneyFlowEvaluator struct {
	name   string
	period int
}

func (e chaikinMoneyFlowEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolume,
		MinCandles:       e.period,
		ImportanceWeight: 0.8,
	}
}

func (e chaikinMoneyFlowEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period {
		return models.InsufficientData(e.name, models.CategoryVolume)
	}
	window := candles[n-e.period:]

	var mfvSum, volSum float64
	for _, c := range window {
		if c.High == c.Low {
			continue
		}
		mfm := ((c.Close - c.Low) - (c.High - c.Close)) / (c.High - c.Low)
		mfvSum += mfm * float64(c.Volume)
		volSum += float64(c.Volume)
	}
	if volSum == 0 {
		return models.Neutral(e.name, models.CategoryVolume, 40)
	}

	cmf := mfvSum / volSum
	score := models.ClampScore(cmf * 250)
	confidence := 50.0
	if math.Abs(cmf) >= 0.25 {
		confidence = 75.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolume,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}
