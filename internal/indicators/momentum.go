package indicators

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Bounded oscillators (§4.1): score comes from a zone test against the
// indicator's natural range, with extremes read as reversal setups
// (oversold -> bullish, overbought -> bearish) rather than momentum
// continuation.

func defaultMomentumEvaluators() []Evaluator {
	return []Evaluator{
		rsiEvaluator{name: "RSI_14", period: 14},
		stochasticEvaluator{name: "STOCHASTIC_14_3", kPeriod: 14, dPeriod: 3},
		williamsREvaluator{name: "WILLIAMS_R_14", period: 14},
		rocEvaluator{name: "ROC_10", period: 10},
		cciEvaluator{name: "CCI_20", period: 20},
		mfiEvaluator{name: "MFI_14", period: 14},
		tsiEvaluator{name: "TSI_25_13", long: 25, short: 13},
		ultimateOscillatorEvaluator{name: "ULTIMATE_OSCILLATOR_7_14_28", short: 7, mid: 14, long: 28},
		fisherTransformEvaluator{name: "FISHER_TRANSFORM_10", period: 10},
		waveTrendEvaluator{name: "WAVETREND_10_21", n1: 10, n2: 21},
		coppockCurveEvaluator{name: "COPPOCK_CURVE_14_11_10", roc1: 14, roc2: 11, wma: 10},
	}
}

// --- RSI -------------------------------------------------------------------

type rsiEvaluator struct {
	name   string
	period int
}

func (e rsiEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.period + 1,
		ImportanceWeight: 1.0,
	}
}

func (e rsiEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	rsi, ok := wilderRSI(closes, e.period)
	if !ok {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	score := models.ClampScore((50 - rsi) * 2.5)
	confidence := 55.0
	if rsi >= 70 || rsi <= 30 {
		confidence = 80.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// wilderRSI computes RSI via Wilder's smoothing of average gain/loss.
func wilderRSI(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}
	avgGain, ok1 := wilderSmooth(gains, period)
	avgLoss, ok2 := wilderSmooth(losses, period)
	if !ok1 || !ok2 {
		return 0, false
	}
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// --- Stochastic --------------------------------------------------------

type stochasticEvaluator struct {
	name             string
	kPeriod, dPeriod int
}

func (e stochasticEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.kPeriod + e.dPeriod,
		ImportanceWeight: 0.95,
	}
}

func (e stochasticEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	n := len(closes)
	if n < e.kPeriod+e.dPeriod {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	kSeries := make([]float64, 0, e.dPeriod)
	for end := n - e.dPeriod + 1; end <= n; end++ {
		highest, lowest, ok := HighestLow(candles[:end], e.kPeriod)
		if !ok {
			return models.InsufficientData(e.name, models.CategoryMomentum)
		}
		k := 50.0
		if highest != lowest {
			k = (closes[end-1] - lowest) / (highest - lowest) * 100
		}
		kSeries = append(kSeries, k)
	}

	k := kSeries[len(kSeries)-1]
	d, ok := SMA(kSeries, e.dPeriod)
	if !ok {
		d = k
	}

	score := models.ClampScore((50 - d) * 2.2)
	confidence := 55.0
	if k >= 80 || k <= 20 {
		confidence = 78.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Williams %R ---------------------------------------------------------

type williamsREvaluator struct {
	name   string
	period int
}

func (e williamsREvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.period,
		ImportanceWeight: 0.85,
	}
}

func (e williamsREvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	highest, lowest, ok := HighestLow(candles, e.period)
	if !ok || highest == lowest {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	close := candles[len(candles)-1].Close
	value := (highest - close) / (highest - lowest) * -100

	score := models.ClampScore((-50 - value) * 2)
	confidence := 50.0
	if value <= -80 || value >= -20 {
		confidence = 75.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Rate of change ------------------------------------------------------

// rocEvaluator is momentum-continuation, not contrarian: positive change
// over the window reads bullish.
type rocEvaluator struct {
	name   string
	period int
}

func (e rocEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.8,
	}
}

func (e rocEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	n := len(closes)
	if n < e.period+1 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}
	past := closes[n-1-e.period]
	if past == 0 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}
	roc := (closes[n-1] - past) / past * 100
	score := models.ClampScore(roc * 10)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}

// --- Commodity Channel Index -----------------------------------------------

type cciEvaluator struct {
	name   string
	period int
}

func (e cciEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.period,
		ImportanceWeight: 0.9,
	}
}

func (e cciEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}
	window := candles[n-e.period:]

	typical := make([]float64, len(window))
	for i, c := range window {
		typical[i] = (c.High + c.Low + c.Close) / 3
	}
	mean, ok := SMA(typical, e.period)
	if !ok {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	meanDeviation := 0.0
	for _, tp := range typical {
		meanDeviation += math.Abs(tp - mean)
	}
	meanDeviation /= float64(e.period)
	if meanDeviation == 0 {
		return models.Neutral(e.name, models.CategoryMomentum, 40)
	}

	cci := (typical[len(typical)-1] - mean) / (0.015 * meanDeviation)
	score := models.ClampScore(-cci * 0.4)
	confidence := 55.0
	if cci >= 100 || cci <= -100 {
		confidence = 78.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Money Flow Index --------------------------------------------------------

// mfiEvaluator is RSI's volume-weighted sibling: same zone-test/reversal
// scoring convention, substituting money flow for raw price change.
type mfiEvaluator struct {
	name   string
	period int
}

func (e mfiEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.9,
	}
}

func (e mfiEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period+1 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}
	window := candles[n-e.period-1:]

	var positiveFlow, negativeFlow float64
	prevTypical := (window[0].High + window[0].Low + window[0].Close) / 3
	for i := 1; i < len(window); i++ {
		c := window[i]
		typical := (c.High + c.Low + c.Close) / 3
		flow := typical * float64(c.Volume)
		if typical > prevTypical {
			positiveFlow += flow
		} else if typical < prevTypical {
			negativeFlow += flow
		}
		prevTypical = typical
	}

	mfi := 100.0
	if negativeFlow != 0 {
		ratio := positiveFlow / negativeFlow
		mfi = 100 - (100 / (1 + ratio))
	}

	score := models.ClampScore((50 - mfi) * 2.5)
	confidence := 55.0
	if mfi >= 80 || mfi <= 20 {
		confidence = 80.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- True Strength Index -----------------------------------------------------

// tsiEvaluator double-smooths price change rather than zone-testing it, so
// unlike RSI/MFI it is momentum-continuation: a positive reading confirms
// the direction already in progress instead of flagging a reversal.
type tsiEvaluator struct {
	name        string
	long, short int
}

func (e tsiEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.long + e.short + 2,
		ImportanceWeight: 0.85,
	}
}

func (e tsiEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	n := len(closes)
	if n < e.long+e.short+2 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	pc := make([]float64, n-1)
	absPC := make([]float64, n-1)
	for i := 1; i < n; i++ {
		pc[i-1] = closes[i] - closes[i-1]
		absPC[i-1] = math.Abs(pc[i-1])
	}

	ema1 := EMASeries(pc, e.long)
	ema2 := EMASeries(ema1, e.short)
	absEma1 := EMASeries(absPC, e.long)
	absEma2 := EMASeries(absEma1, e.short)

	last := len(ema2) - 1
	if absEma2[last] == 0 {
		return models.Neutral(e.name, models.CategoryMomentum, 40)
	}
	tsi := 100 * ema2[last] / absEma2[last]
	score := models.ClampScore(tsi * 1.2)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 58,
	}
}

// --- Ultimate Oscillator ------------------------------------------------------

type ultimateOscillatorEvaluator struct {
	name             string
	short, mid, long int
}

func (e ultimateOscillatorEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.long + 1,
		ImportanceWeight: 0.85,
	}
}

func (e ultimateOscillatorEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.long+1 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	avgOf := func(period int) float64 {
		window := candles[n-period:]
		var bpSum, trSum float64
		for i, c := range window {
			prevClose := c.Close
			if i > 0 {
				prevClose = window[i-1].Close
			} else if n-period > 0 {
				prevClose = candles[n-period-1].Close
			}
			bpSum += c.Close - math.Min(c.Low, prevClose)
			trSum += math.Max(c.High, prevClose) - math.Min(c.Low, prevClose)
		}
		if trSum == 0 {
			return 50
		}
		return bpSum / trSum * 100
	}

	avgShort := avgOf(e.short)
	avgMid := avgOf(e.mid)
	avgLong := avgOf(e.long)

	uo := (4*avgShort + 2*avgMid + avgLong) / 7
	score := models.ClampScore((50 - uo) * 2.5)
	confidence := 55.0
	if uo >= 70 || uo <= 30 {
		confidence = 78.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Fisher Transform ---------------------------------------------------------

// fisherTransformEvaluator normalizes price into [-1, 1] against its
// trailing range, then applies the inverse hyperbolic tangent so extreme
// readings (and their reversals) stand out sharply from the noise.
type fisherTransformEvaluator struct {
	name   string
	period int
}

func (e fisherTransformEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.8,
	}
}

func (e fisherTransformEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	highest, lowest, ok := HighestLow(candles, e.period)
	if !ok || highest == lowest {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	price := candles[len(candles)-1].Close
	normalized := 2*((price-lowest)/(highest-lowest)-0.5)
	normalized = math.Max(-0.999, math.Min(0.999, normalized))

	fisher := 0.5 * math.Log((1+normalized)/(1-normalized))
	score := models.ClampScore(fisher * 40)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}

// --- WaveTrend ------------------------------------------------------------

// waveTrendEvaluator smooths the channel index of the typical price twice,
// the same esa/d/ci/wt1 recurrence the platform's WaveTrend oscillator
// uses, and reads it contrarian like the other bounded oscillators.
type waveTrendEvaluator struct {
	name   string
	n1, n2 int
}

func (e waveTrendEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.n1 + e.n2 + 2,
		ImportanceWeight: 0.85,
	}
}

func (e waveTrendEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.n1+e.n2+2 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	hlc3 := make([]float64, n)
	for i, c := range candles {
		hlc3[i] = (c.High + c.Low + c.Close) / 3
	}

	esa := EMASeries(hlc3, e.n1)
	absDiff := make([]float64, n)
	for i := range hlc3 {
		absDiff[i] = math.Abs(hlc3[i] - esa[i])
	}
	d := EMASeries(absDiff, e.n1)

	ci := make([]float64, n)
	for i := range hlc3 {
		if d[i] != 0 {
			ci[i] = (hlc3[i] - esa[i]) / (0.015 * d[i])
		}
	}
	wt1 := EMASeries(ci, e.n2)

	last := wt1[n-1]
	score := models.ClampScore(-last)
	confidence := 55.0
	if last >= 60 || last <= -60 {
		confidence = 80.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Coppock Curve --------------------------------------------------------

// coppockCurveEvaluator sums two differently-paced ROC readings and
// weight-averages them; unlike the zone-test oscillators above this is
// momentum-continuation, originally designed to flag long-term bottoms.
type coppockCurveEvaluator struct {
	name            string
	roc1, roc2, wma int
}

func (e coppockCurveEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryMomentum,
		MinCandles:       e.roc1 + e.wma + 2,
		ImportanceWeight: 0.75,
	}
}

func (e coppockCurveEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	n := len(closes)
	if n < e.roc1+e.wma+2 {
		return models.InsufficientData(e.name, models.CategoryMomentum)
	}

	rocSum := make([]float64, e.wma)
	for w := 0; w < e.wma; w++ {
		idx := n - 1 - w
		roc1, ok1 := rocAt(closes, idx, e.roc1)
		roc2, ok2 := rocAt(closes, idx, e.roc2)
		if !ok1 || !ok2 {
			return models.InsufficientData(e.name, models.CategoryMomentum)
		}
		rocSum[w] = roc1 + roc2
	}

	var weightedSum, weightTotal float64
	for w := 0; w < e.wma; w++ {
		weight := float64(e.wma - w)
		weightedSum += rocSum[w] * weight
		weightTotal += weight
	}
	coppock := weightedSum / weightTotal
	score := models.ClampScore(coppock * 8)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryMomentum,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}

// rocAt computes the rate of change ending at index idx, looking back
// `period` closes.
func rocAt(closes []float64, idx, period int) (float64, bool) {
	if idx-period < 0 {
		return 0, false
	}
	past := closes[idx-period]
	if past == 0 {
		return 0, false
	}
	return (closes[idx] - past) / past * 100, true
}
