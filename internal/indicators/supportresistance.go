package indicators

import (
	"math"
	"sort"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Support/resistance (§4.1): direction follows approach to the nearest
// clustered pivot level — close to support reads bullish (bounce),
// close to resistance reads bearish (rejection) — and magnitude scales
// with both proximity and how many times the level has been touched.

func defaultSupportResistanceEvaluators() []Evaluator {
	return []Evaluator{
		pivotLevelsEvaluator{name: "PIVOT_LEVELS", lookback: 60, order: 3, tolerancePct: 0.3},
		fibonacciRetracementEvaluator{name: "FIBONACCI_RETRACEMENT", lookback: 60},
		roundNumberEvaluator{name: "ROUND_NUMBER_PROXIMITY"},
		volumeProfilePOCEvaluator{name: "VOLUME_PROFILE_POC", lookback: 60, buckets: 20},
	}
}

type pivotLevel struct {
	price   float64
	touches int
}

type pivotLevelsEvaluator struct {
	name         string
	lookback     int
	order        int // candles on each side required for a swing point
	tolerancePct float64
}

func (e pivotLevelsEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategorySupportResistance,
		MinCandles:       e.lookback,
		ImportanceWeight: 0.9,
	}
}

func (e pivotLevelsEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	window := candles
	if n > e.lookback {
		window = candles[n-e.lookback:]
	}
	if len(window) < 2*e.order+1 {
		return models.InsufficientData(e.name, models.CategorySupportResistance)
	}

	swingHighs, swingLows := findSwingPoints(window, e.order)
	levels := clusterLevels(append(swingHighs, swingLows...), e.tolerancePct)
	if len(levels) == 0 {
		return models.Neutral(e.name, models.CategorySupportResistance, 30)
	}

	price := window[len(window)-1].Close

	var support, resistance *pivotLevel
	for i := range levels {
		lvl := levels[i]
		if lvl.price <= price && (support == nil || lvl.price > support.price) {
			support = &levels[i]
		}
		if lvl.price >= price && (resistance == nil || lvl.price < resistance.price) {
			resistance = &levels[i]
		}
	}

	if support == nil && resistance == nil {
		return models.Neutral(e.name, models.CategorySupportResistance, 30)
	}

	var distToSupport, distToResistance float64 = math.MaxFloat64, math.MaxFloat64
	var supportTouches, resistanceTouches int
	if support != nil {
		distToSupport = (price - support.price) / price * 100
		supportTouches = support.touches
	}
	if resistance != nil {
		distToResistance = (resistance.price - price) / price * 100
		resistanceTouches = resistance.touches
	}

	var score float64
	var touches int
	if distToSupport <= distToResistance {
		proximity := clamp0to100(100 - distToSupport*25)
		score = proximity * 0.01 * 80
		touches = supportTouches
	} else {
		proximity := clamp0to100(100 - distToResistance*25)
		score = -proximity * 0.01 * 80
		touches = resistanceTouches
	}
	score = models.ClampScore(score * math.Min(1.5, 0.7+0.15*float64(touches)))

	confidence := clamp0to100(45 + float64(touches)*8)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategorySupportResistance,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// findSwingPoints locates local maxima (highs) and minima (lows) that have
// `order` lower/higher neighbors on each side.
func findSwingPoints(candles []models.Candle, order int) (highs, lows []float64) {
	for i := order; i < len(candles)-order; i++ {
		isHigh, isLow := true, true
		for j := i - order; j <= i+order; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, candles[i].High)
		}
		if isLow {
			lows = append(lows, candles[i].Low)
		}
	}
	return highs, lows
}

// clusterLevels groups nearby swing prices into levels within
// tolerancePct of each other, counting touches per cluster.
func clusterLevels(prices []float64, tolerancePct float64) []pivotLevel {
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)

	var levels []pivotLevel
	clusterSum, clusterCount := prices[0], 1
	for i := 1; i < len(prices); i++ {
		mean := clusterSum / float64(clusterCount)
		if math.Abs(prices[i]-mean)/mean*100 <= tolerancePct {
			clusterSum += prices[i]
			clusterCount++
			continue
		}
		levels = append(levels, pivotLevel{price: clusterSum / float64(clusterCount), touches: clusterCount})
		clusterSum, clusterCount = prices[i], 1
	}
	levels = append(levels, pivotLevel{price: clusterSum / float64(clusterCount), touches: clusterCount})

	sort.Slice(levels, func(i, j int) bool { return levels[i].touches > levels[j].touches })
	if len(levels) > 5 {
		levels = levels[:5]
	}
	return levels
}

// --- Fibonacci retracement ---------------------------------------------------

// fibonacciRetracementEvaluator anchors the 0%/100% swing to the window's
// high/low, then reads proximity to the nearest standard retracement level
// as a contrarian bounce/rejection, same convention as pivotLevels.
type fibonacciRetracementEvaluator struct {
	name     string
	lookback int
}

func (e fibonacciRetracementEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategorySupportResistance,
		MinCandles:       e.lookback,
		ImportanceWeight: 0.85,
	}
}

var fibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}

func (e fibonacciRetracementEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	window := candles
	if n > e.lookback {
		window = candles[n-e.lookback:]
	}
	highest, lowest, ok := HighestLow(window, len(window))
	if !ok || highest == lowest {
		return models.InsufficientData(e.name, models.CategorySupportResistance)
	}
	diff := highest - lowest

	closes := closesOf(window)
	uptrend := closes[len(closes)-1] >= closes[0]

	levelAt := func(ratio float64) float64 {
		if uptrend {
			return highest - diff*ratio
		}
		return lowest + diff*ratio
	}

	price := closes[len(closes)-1]
	nearest := levelAt(fibRatios[0])
	nearestDist := math.Abs(price - nearest)
	for _, ratio := range fibRatios[1:] {
		lvl := levelAt(ratio)
		if d := math.Abs(price - lvl); d < nearestDist {
			nearest, nearestDist = lvl, d
		}
	}

	proximityPct := nearestDist / price * 100
	proximity := clamp0to100(100 - proximityPct*20)

	direction := 1.0
	if (uptrend && price < nearest) || (!uptrend && price > nearest) {
		direction = -1.0
	}
	score := models.ClampScore(direction * proximity * 0.7)
	confidence := clamp0to100(40 + proximity*0.3)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategorySupportResistance,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}

// --- Round number proximity --------------------------------------------------

// roundNumberEvaluator reads a weak contrarian magnet effect at psychologically
// round prices: the "round" step scales with price magnitude so it behaves
// sensibly whether the instrument trades at 50 or 50,000.
type roundNumberEvaluator struct {
	name string
}

func (e roundNumberEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategorySupportResistance,
		MinCandles:       1,
		ImportanceWeight: 0.5,
	}
}

func (e roundNumberEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	price := candles[len(candles)-1].Close
	if price <= 0 {
		return models.InsufficientData(e.name, models.CategorySupportResistance)
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(price)))
	step := magnitude / 2
	if step == 0 {
		return models.Neutral(e.name, models.CategorySupportResistance, 30)
	}

	nearestRound := math.Round(price/step) * step
	distPct := math.Abs(price-nearestRound) / price * 100
	proximity := clamp0to100(100 - distPct*40)

	direction := 1.0
	if price < nearestRound {
		direction = -1.0
	}
	score := models.ClampScore(direction * proximity * 0.3)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategorySupportResistance,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: clamp0to100(30 + proximity*0.3),
	}
}

// --- Volume profile point of control ------------------------------------------

// volumeProfilePOCEvaluator buckets the trailing window's typical prices by
// volume to find the point of control, the price level where the most
// volume traded; price above the POC reads as support beneath it, below
// reads as resistance above it — the same relative-to-level convention as
// pivotLevels, but volume-weighted rather than swing-point-derived.
type volumeProfilePOCEvaluator struct {
	name     string
	lookback int
	buckets  int
}

func (e volumeProfilePOCEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategorySupportResistance,
		MinCandles:       e.lookback,
		ImportanceWeight: 0.8,
	}
}

func (e volumeProfilePOCEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	window := candles
	if n > e.lookback {
		window = candles[n-e.lookback:]
	}
	highest, lowest, ok := HighestLow(window, len(window))
	if !ok || highest == lowest {
		return models.InsufficientData(e.name, models.CategorySupportResistance)
	}

	bucketSize := (highest - lowest) / float64(e.buckets)
	volumeByBucket := make([]float64, e.buckets)
	for _, c := range window {
		typical := (c.High + c.Low + c.Close) / 3
		idx := int((typical - lowest) / bucketSize)
		if idx < 0 {
			idx = 0
		}
		if idx >= e.buckets {
			idx = e.buckets - 1
		}
		volumeByBucket[idx] += float64(c.Volume)
	}

	pocIdx := 0
	for i, v := range volumeByBucket {
		if v > volumeByBucket[pocIdx] {
			pocIdx = i
		}
	}
	poc := lowest + bucketSize*(float64(pocIdx)+0.5)
	if poc == 0 {
		return models.InsufficientData(e.name, models.CategorySupportResistance)
	}

	price := window[len(window)-1].Close
	deviation := (price - poc) / poc * 100
	score := models.ClampScore(deviation * 8)

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategorySupportResistance,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: 55,
	}
}
