package indicators

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Trend followers (§4.1): direction comes from price/line position or
// fast/slow relationship; slope and separation set magnitude. ADX is
// folded in as a strength amplifier rather than a direction source, per
// the family's "ADX amplifies rather than directs" rule.

func defaultTrendEvaluators() []Evaluator {
	return []Evaluator{
		smaCrossEvaluator{name: "SMA_CROSS_20_50", fast: 20, slow: 50},
		emaCrossEvaluator{name: "EMA_CROSS_12_26", fast: 12, slow: 26},
		macdEvaluator{name: "MACD_12_26_9", fast: 12, slow: 26, signal: 9},
		adxTrendEvaluator{name: "ADX_TREND_14", period: 14},
		priceVsSMAEvaluator{name: "PRICE_VS_SMA_200", period: 200},
		ichimokuEvaluator{name: "ICHIMOKU_9_26_52", tenkan: 9, kijun: 26, senkouB: 52},
		supertrendEvaluator{name: "SUPERTREND_10_3", period: 10, multiplier: 3.0},
		vortexEvaluator{name: "VORTEX_14", period: 14},
		aroonEvaluator{name: "AROON_25", period: 25},
		parabolicSAREvaluator{name: "PARABOLIC_SAR", step: 0.02, maxStep: 0.2},
		trixEvaluator{name: "TRIX_15", period: 15},
		elderRayEvaluator{name: "ELDER_RAY_13", period: 13},
	}
}

// --- SMA crossover -----------------------------------------------------

type smaCrossEvaluator struct {
	name       string
	fast, slow int
}

func (e smaCrossEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.slow + 2,
		ImportanceWeight: 1.0,
	}
}

func (e smaCrossEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)

	fastPrev, ok1 := SMA(closes[:len(closes)-1], e.fast)
	slowPrev, ok2 := SMA(closes[:len(closes)-1], e.slow)
	fastNow, ok3 := SMA(closes, e.fast)
	slowNow, ok4 := SMA(closes, e.slow)
	if !ok1 || !ok2 || !ok3 || !ok4 || slowNow == 0 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	separation := (fastNow - slowNow) / slowNow * 100
	score := models.ClampScore(separation * 8)

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	crossedDown := fastPrev >= slowPrev && fastNow < slowNow
	confidence := 55.0
	if crossedUp || crossedDown {
		confidence = 85.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- EMA crossover -------------------------------------------------------

type emaCrossEvaluator struct {
	name       string
	fast, slow int
}

func (e emaCrossEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.slow + 2,
		ImportanceWeight: 1.0,
	}
}

func (e emaCrossEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)

	fastSeries := EMASeries(closes, e.fast)
	slowSeries := EMASeries(closes, e.slow)
	n := len(closes)
	if n < e.slow+2 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	fastNow, slowNow := fastSeries[n-1], slowSeries[n-1]
	fastPrev, slowPrev := fastSeries[n-2], slowSeries[n-2]
	if slowNow == 0 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	separation := (fastNow - slowNow) / slowNow * 100
	score := models.ClampScore(separation * 10)

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	crossedDown := fastPrev >= slowPrev && fastNow < slowNow
	confidence := 55.0
	if crossedUp || crossedDown {
		confidence = 88.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- MACD ----------------------------------------------------------------

// macdEvaluator computes a real EMA-of-EMA signal line in place of a fixed
// fraction of the MACD line, so crossovers reflect actual lag.
type macdEvaluator struct {
	name               string
	fast, slow, signal int
}

func (e macdEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.slow + e.signal + 2,
		ImportanceWeight: 1.1,
	}
}

func (e macdEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	n := len(closes)
	if n < e.slow+e.signal+2 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	fastSeries := EMASeries(closes, e.fast)
	slowSeries := EMASeries(closes, e.slow)

	macdLine := make([]float64, n)
	for i := range macdLine {
		macdLine[i] = fastSeries[i] - slowSeries[i]
	}
	signalLine := EMASeries(macdLine, e.signal)

	histNow := macdLine[n-1] - signalLine[n-1]
	histPrev := macdLine[n-2] - signalLine[n-2]

	ref := math.Abs(closes[n-1])
	if ref == 0 {
		ref = 1
	}
	score := models.ClampScore(histNow / ref * 100 * 25)

	confidence := 55.0
	crossedUp := histPrev <= 0 && histNow > 0
	crossedDown := histPrev >= 0 && histNow < 0
	if crossedUp || crossedDown {
		confidence = 82.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- ADX trend strength amplifier ----------------------------------------

// adxTrendEvaluator derives direction from +DI/-DI but scales magnitude by
// ADX itself: "ADX amplifies rather than directs".
type adxTrendEvaluator struct {
	name   string
	period int
}

func (e adxTrendEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       2*e.period + 2,
		ImportanceWeight: 1.05,
	}
}

func (e adxTrendEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	res, ok := ADX(candles, e.period)
	if !ok {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	direction := sign(res.PlusDI - res.MinusDI)
	magnitude := clamp0to100(res.ADX)
	score := models.ClampScore(direction * magnitude)

	confidence := clamp0to100(40.0 + magnitude*0.5)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Price vs long SMA -----------------------------------------------------

type priceVsSMAEvaluator struct {
	name   string
	period int
}

func (e priceVsSMAEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.9,
	}
}

func (e priceVsSMAEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	sma, ok := SMA(closes, e.period)
	if !ok || sma == 0 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	price := closes[len(closes)-1]
	deviation := (price - sma) / sma * 100
	score := models.ClampScore(deviation * 6)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 60,
	}
}

func closesOf(candles []models.Candle) []float64 { return models.Closes(candles) }

// --- Ichimoku (Tenkan/Kijun cross + cloud position) ----------------------

// ichimokuEvaluator folds the Tenkan/Kijun cross and price-vs-cloud position
// into one opinion: the cross sets direction, cloud position confirms it.
type ichimokuEvaluator struct {
	name                   string
	tenkan, kijun, senkouB int
}

func (e ichimokuEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.senkouB + 1,
		ImportanceWeight: 1.0,
	}
}

func (e ichimokuEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	midOf := func(window []models.Candle) (float64, bool) {
		hi, lo, ok := HighestLow(window, len(window))
		if !ok {
			return 0, false
		}
		return (hi + lo) / 2, true
	}

	n := len(candles)
	tenkan, ok1 := midOf(candles[n-e.tenkan:])
	kijun, ok2 := midOf(candles[n-e.kijun:])
	senkouB, ok3 := midOf(candles[n-e.senkouB:])
	if !ok1 || !ok2 || !ok3 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}
	senkouA := (tenkan + kijun) / 2
	cloudTop, cloudBottom := math.Max(senkouA, senkouB), math.Min(senkouA, senkouB)

	price := candles[n-1].Close
	crossScore := 0.0
	if kijun != 0 {
		crossScore = (tenkan - kijun) / kijun * 100 * 12
	}

	cloudScore := 0.0
	switch {
	case price > cloudTop:
		cloudScore = 35
	case price < cloudBottom:
		cloudScore = -35
	}

	score := models.ClampScore(crossScore + cloudScore)
	confidence := 55.0
	if (price > cloudTop && tenkan > kijun) || (price < cloudBottom && tenkan < kijun) {
		confidence = 82.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Supertrend ------------------------------------------------------------

// supertrendEvaluator walks the full window to rebuild the ATR-banded
// trend line from scratch each call, since evaluators carry no state
// between ticks.
type supertrendEvaluator struct {
	name       string
	period     int
	multiplier float64
}

func (e supertrendEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.period*3 + 2,
		ImportanceWeight: 1.0,
	}
}

func (e supertrendEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period*3+2 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	start := n - e.period*3
	window := candles[start:]

	var finalUpper, finalLower, line float64
	upTrend := true
	initialized := false

	for i, c := range window {
		atr, ok := WilderATR(window[:i+1], e.period)
		if !ok {
			continue
		}
		mid := (c.High + c.Low) / 2
		basicUpper := mid + e.multiplier*atr
		basicLower := mid - e.multiplier*atr

		if !initialized {
			finalUpper, finalLower = basicUpper, basicLower
			line = finalLower
			upTrend = true
			initialized = true
			continue
		}

		prevClose := window[i-1].Close
		if basicUpper < finalUpper || prevClose > finalUpper {
			finalUpper = basicUpper
		}
		if basicLower > finalLower || prevClose < finalLower {
			finalLower = basicLower
		}

		if upTrend {
			if c.Close <= finalUpper {
				line = finalUpper
			} else {
				line = finalLower
				upTrend = false
			}
		} else {
			if c.Close >= finalLower {
				line = finalLower
				upTrend = true
			} else {
				line = finalUpper
			}
		}
	}

	if !initialized || line == 0 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	price := window[len(window)-1].Close
	distance := (price - line) / line * 100
	direction := 1.0
	if !upTrend {
		direction = -1.0
	}
	score := models.ClampScore(direction * clamp0to100(40+math.Abs(distance)*10))

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 65,
	}
}

// --- Vortex -----------------------------------------------------------------

type vortexEvaluator struct {
	name   string
	period int
}

func (e vortexEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.9,
	}
}

func (e vortexEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period+1 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}
	window := candles[n-e.period:]
	prevWindow := candles[n-e.period-1 : n-1]

	var plusVM, minusVM, sumTR float64
	for i := range window {
		plusVM += math.Abs(window[i].High - prevWindow[i].Low)
		minusVM += math.Abs(window[i].Low - prevWindow[i].High)
		sumTR += TrueRange(window[i], prevWindow[i])
	}
	if sumTR == 0 {
		return models.Neutral(e.name, models.CategoryTrend, 40)
	}

	viPlus := plusVM / sumTR
	viMinus := minusVM / sumTR
	score := models.ClampScore((viPlus - viMinus) * 100)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 60,
	}
}

// --- Aroon -------------------------------------------------------------------

type aroonEvaluator struct {
	name   string
	period int
}

func (e aroonEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.8,
	}
}

func (e aroonEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period+1 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}
	window := candles[n-e.period-1:]

	highIdx, lowIdx := 0, 0
	for i, c := range window {
		if c.High >= window[highIdx].High {
			highIdx = i
		}
		if c.Low <= window[lowIdx].Low {
			lowIdx = i
		}
	}

	periodsSinceHigh := len(window) - 1 - highIdx
	periodsSinceLow := len(window) - 1 - lowIdx

	aroonUp := float64(e.period-periodsSinceHigh) / float64(e.period) * 100
	aroonDown := float64(e.period-periodsSinceLow) / float64(e.period) * 100

	score := models.ClampScore((aroonUp - aroonDown))
	confidence := 50.0
	if aroonUp >= 70 || aroonDown >= 70 {
		confidence = 75.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Parabolic SAR -----------------------------------------------------------

// parabolicSAREvaluator rebuilds Wilder's SAR recurrence over the whole
// window each call: acceleration resets on every trend flip, so it cannot
// be approximated from a short trailing slice.
type parabolicSAREvaluator struct {
	name          string
	step, maxStep float64
}

func (e parabolicSAREvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       10,
		ImportanceWeight: 0.85,
	}
}

func (e parabolicSAREvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < 10 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	rising := candles[1].Close >= candles[0].Close
	sar := candles[0].Low
	extreme := candles[0].High
	if !rising {
		sar = candles[0].High
		extreme = candles[0].Low
	}
	af := e.step

	for i := 1; i < n; i++ {
		c := candles[i]
		sar = sar + af*(extreme-sar)

		if rising {
			if c.Low < sar {
				rising = false
				sar = extreme
				extreme = c.Low
				af = e.step
			} else {
				if c.High > extreme {
					extreme = c.High
					af = math.Min(af+e.step, e.maxStep)
				}
			}
		} else {
			if c.High > sar {
				rising = true
				sar = extreme
				extreme = c.High
				af = e.step
			} else {
				if c.Low < extreme {
					extreme = c.Low
					af = math.Min(af+e.step, e.maxStep)
				}
			}
		}
	}

	price := candles[n-1].Close
	distance := 0.0
	if sar != 0 {
		distance = (price - sar) / sar * 100
	}
	direction := 1.0
	if !rising {
		direction = -1.0
	}
	score := models.ClampScore(direction * clamp0to100(45+math.Abs(distance)*20))

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 60,
	}
}

// --- TRIX --------------------------------------------------------------------

// trixEvaluator triple-smooths closes with EMA then reads the percentage
// rate of change of the smoothed line, filtering out noise the single-EMA
// crossovers above don't.
type trixEvaluator struct {
	name   string
	period int
}

func (e trixEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.period*3 + 2,
		ImportanceWeight: 0.9,
	}
}

func (e trixEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	n := len(closes)
	if n < e.period*3+2 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	ema1 := EMASeries(closes, e.period)
	ema2 := EMASeries(ema1, e.period)
	ema3 := EMASeries(ema2, e.period)

	last, prev := ema3[n-1], ema3[n-2]
	if prev == 0 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}
	trix := (last - prev) / prev * 100
	score := models.ClampScore(trix * 200)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}

// --- Elder Ray (bull/bear power) ---------------------------------------------

// elderRayEvaluator reads conviction from how far the high/low wicks reach
// beyond an EMA baseline: bull power confirms uptrends, bear power confirms
// downtrends, and the two together flag trend exhaustion when both weaken.
type elderRayEvaluator struct {
	name   string
	period int
}

func (e elderRayEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryTrend,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.8,
	}
}

func (e elderRayEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	ema, ok := EMA(closes, e.period)
	if !ok || ema == 0 {
		return models.InsufficientData(e.name, models.CategoryTrend)
	}

	last := candles[len(candles)-1]
	bullPower := (last.High - ema) / ema * 100
	bearPower := (last.Low - ema) / ema * 100

	score := models.ClampScore((bullPower + bearPower) * 10)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryTrend,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}
