package indicators

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Volatility indicators (§4.1) mostly describe context rather than
// direction: Bollinger position is a contrarian band-extreme read, while
// ATR expansion/contraction carries no directional opinion of its own and
// instead reports via confidence, letting the combiner's regime-aware
// weighting decide how much it matters.

func defaultVolatilityEvaluators() []Evaluator {
	return []Evaluator{
		bollingerBandsEvaluator{name: "BOLLINGER_20_2", period: 20, multiplier: 2.0},
		atrVolatilityEvaluator{name: "ATR_VOLATILITY_14", period: 14, lookback: 50},
		keltnerChannelEvaluator{name: "KELTNER_20_2", period: 20, multiplier: 2.0},
		donchianChannelEvaluator{name: "DONCHIAN_20", period: 20},
		chaikinVolatilityEvaluator{name: "CHAIKIN_VOLATILITY_10", period: 10, rocPeriod: 10},
		massIndexEvaluator{name: "MASS_INDEX_9_25", emaPeriod: 9, sumPeriod: 25},
	}
}

// --- Bollinger Bands -----------------------------------------------------

type bollingerBandsEvaluator struct {
	name       string
	period     int
	multiplier float64
}

func (e bollingerBandsEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolatility,
		MinCandles:       e.period,
		ImportanceWeight: 0.85,
	}
}

func (e bollingerBandsEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	middle, ok1 := SMA(closes, e.period)
	stddev, ok2 := StdDev(closes, e.period)
	if !ok1 || !ok2 {
		return models.InsufficientData(e.name, models.CategoryVolatility)
	}

	upper := middle + stddev*e.multiplier
	lower := middle - stddev*e.multiplier
	price := closes[len(closes)-1]

	position := 0.5
	if upper != lower {
		position = (price - lower) / (upper - lower)
	}
	position = clamp0to100(position*100) / 100

	// Contrarian band-extreme read: near the lower band is bullish,
	// near the upper band is bearish.
	score := models.ClampScore((0.5 - position) * 200)

	confidence := 50.0
	if position >= 0.95 || position <= 0.05 {
		confidence = 78.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolatility,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- ATR volatility context ------------------------------------------------

type atrVolatilityEvaluator struct {
	name              string
	period, lookback int
}

func (e atrVolatilityEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolatility,
		MinCandles:       e.period + e.lookback + 1,
		ImportanceWeight: 0.6,
	}
}

func (e atrVolatilityEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	currentATR, ok := WilderATR(candles, e.period)
	if !ok {
		return models.InsufficientData(e.name, models.CategoryVolatility)
	}

	percentile, ok := atrPercentile(candles, e.period, e.lookback)
	if !ok {
		return models.Neutral(e.name, models.CategoryVolatility, 40)
	}

	// Pure context signal: no directional opinion, confidence tracks how
	// far the reading sits from the median (50th percentile).
	confidence := clamp0to100(40 + math.Abs(percentile-50))
	_ = currentATR

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolatility,
		Direction:  models.DirectionNeutral,
		Score:      0,
		Strength:   models.StrengthFromScore(math.Abs(percentile - 50)),
		Confidence: confidence,
	}
}

// atrPercentile ranks the latest ATR reading against the trailing
// `lookback` window of ATR readings for this evaluator's context read. The
// regime detector's volatility banding (§4.2) does not call it; it ranks
// ATR with its own atrPercentileRank in internal/regime.
func atrPercentile(candles []models.Candle, period, lookback int) (float64, bool) {
	if len(candles) < period+lookback+1 {
		return 0, false
	}

	series := make([]float64, 0, lookback)
	start := len(candles) - lookback
	for i := start; i <= len(candles); i++ {
		if i < period+1 {
			continue
		}
		atr, ok := WilderATR(candles[:i], period)
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

// --- Keltner Channels --------------------------------------------------------

// keltnerChannelEvaluator scores like Bollinger (contrarian band-extreme
// read) but widens its bands from ATR rather than standard deviation, so
// it reacts less to single-candle outliers.
type keltnerChannelEvaluator struct {
	name       string
	period     int
	multiplier float64
}

func (e keltnerChannelEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolatility,
		MinCandles:       e.period + 1,
		ImportanceWeight: 0.8,
	}
}

func (e keltnerChannelEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	closes := closesOf(candles)
	middle, ok1 := EMA(closes, e.period)
	atr, ok2 := WilderATR(candles, e.period)
	if !ok1 || !ok2 {
		return models.InsufficientData(e.name, models.CategoryVolatility)
	}

	upper := middle + atr*e.multiplier
	lower := middle - atr*e.multiplier
	price := closes[len(closes)-1]

	position := 0.5
	if upper != lower {
		position = (price - lower) / (upper - lower)
	}
	position = clamp0to100(position*100) / 100

	score := models.ClampScore((0.5 - position) * 200)
	confidence := 50.0
	if position >= 0.95 || position <= 0.05 {
		confidence = 76.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolatility,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Donchian Channels --------------------------------------------------------

// donchianChannelEvaluator is breakout-continuation, not contrarian: a
// close pressing against the upper channel confirms the breakout rather
// than flagging an overbought reversal.
type donchianChannelEvaluator struct {
	name   string
	period int
}

func (e donchianChannelEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolatility,
		MinCandles:       e.period,
		ImportanceWeight: 0.8,
	}
}

func (e donchianChannelEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	highest, lowest, ok := HighestLow(candles, e.period)
	if !ok || highest == lowest {
		return models.InsufficientData(e.name, models.CategoryVolatility)
	}

	price := candles[len(candles)-1].Close
	position := (price - lowest) / (highest - lowest)
	score := models.ClampScore((position - 0.5) * 200)

	confidence := 50.0
	if position >= 0.95 || position <= 0.05 {
		confidence = 75.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolatility,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Chaikin Volatility --------------------------------------------------------

// chaikinVolatilityEvaluator, like the ATR context read above, carries no
// directional opinion of its own: it reports how fast the high-low spread
// itself is expanding or contracting.
type chaikinVolatilityEvaluator struct {
	name              string
	period, rocPeriod int
}

func (e chaikinVolatilityEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolatility,
		MinCandles:       e.period + e.rocPeriod + 1,
		ImportanceWeight: 0.6,
	}
}

func (e chaikinVolatilityEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.period+e.rocPeriod+1 {
		return models.InsufficientData(e.name, models.CategoryVolatility)
	}

	spread := make([]float64, n)
	for i, c := range candles {
		spread[i] = c.High - c.Low
	}
	emaSpread := EMASeries(spread, e.period)

	now := emaSpread[n-1]
	past := emaSpread[n-1-e.rocPeriod]
	if past == 0 {
		return models.Neutral(e.name, models.CategoryVolatility, 40)
	}
	change := (now - past) / past * 100

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolatility,
		Direction:  models.DirectionNeutral,
		Score:      0,
		Strength:   models.StrengthFromScore(clamp0to100(math.Abs(change))),
		Confidence: clamp0to100(40 + math.Abs(change)),
	}
}

// --- Mass Index --------------------------------------------------------------

// massIndexEvaluator sums the ratio of a fast EMA of the high-low range to
// its own double-smoothed EMA over sumPeriod bars. It never gives a
// direction (score 0); a sum of 27 or more (a "bulge") raises its
// confidence from 40 to 70. The later drop back below 26.5 is not tracked.
type massIndexEvaluator struct {
	name                 string
	emaPeriod, sumPeriod int
}

func (e massIndexEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryVolatility,
		MinCandles:       e.emaPeriod*2 + e.sumPeriod,
		ImportanceWeight: 0.6,
	}
}

func (e massIndexEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < e.emaPeriod*2+e.sumPeriod {
		return models.InsufficientData(e.name, models.CategoryVolatility)
	}

	spread := make([]float64, n)
	for i, c := range candles {
		spread[i] = c.High - c.Low
	}
	ema1 := EMASeries(spread, e.emaPeriod)
	ema2 := EMASeries(ema1, e.emaPeriod)

	var massIndex float64
	for i := n - e.sumPeriod; i < n; i++ {
		if ema2[i] == 0 {
			continue
		}
		massIndex += ema1[i] / ema2[i]
	}

	confidence := 40.0
	if massIndex >= 27 {
		confidence = 70.0
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryVolatility,
		Direction:  models.DirectionNeutral,
		Score:      0,
		Strength:   models.StrengthFromScore(clamp0to100((massIndex - 20) * 10)),
		Confidence: confidence,
	}
}
