package indicators

import (
	"math"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Candlestick patterns (§4.1): single- and multi-candle shape detection.
// Each detector is a yes/no test on the trailing candles; the evaluator
// picks the strongest match among them and scores by how cleanly the
// shape formed, rather than stacking every match additively.

func defaultPatternEvaluators() []Evaluator {
	return []Evaluator{
		candlestickPatternEvaluator{name: "CANDLESTICK_PATTERNS", lookback: 10},
		fairValueGapEvaluator{name: "FAIR_VALUE_GAP", lookback: 40},
		marketStructureEvaluator{name: "MARKET_STRUCTURE_BOS_CHOCH", lookback: 40, order: 5},
	}
}

type candlestickPatternEvaluator struct {
	name     string
	lookback int
}

func (e candlestickPatternEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryPatterns,
		MinCandles:       3,
		ImportanceWeight: 0.8,
	}
}

func (e candlestickPatternEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	avgRange, ok := averageRange(candles, e.lookback)
	if !ok {
		avgRange = candles[n-1].High - candles[n-1].Low
	}
	if avgRange == 0 {
		avgRange = 1
	}

	cur := candles[n-1]
	prev := candles[n-2]

	type match struct {
		score      float64
		confidence float64
	}
	var best *match

	consider := func(score, confidence float64) {
		if best == nil || math.Abs(score) > math.Abs(best.score) {
			best = &match{score: score, confidence: confidence}
		}
	}

	if isDoji(cur, avgRange) {
		consider(0, 35)
	}
	if isHammer(cur) {
		consider(65, 70)
	}
	if isShootingStar(cur) {
		consider(-65, 70)
	}
	if n >= 2 && isBullishEngulfing(prev, cur) {
		consider(80, 80)
	}
	if n >= 2 && isBearishEngulfing(prev, cur) {
		consider(-80, 80)
	}
	if n >= 3 && isMorningStar(candles[n-3], prev, cur) {
		consider(90, 85)
	}
	if n >= 3 && isEveningStar(candles[n-3], prev, cur) {
		consider(-90, 85)
	}

	if best == nil {
		return models.Neutral(e.name, models.CategoryPatterns, 30)
	}

	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryPatterns,
		Direction:  models.DirectionFromScore(best.score),
		Score:      best.score,
		Strength:   models.StrengthFromScore(math.Abs(best.score)),
		Confidence: best.confidence,
	}
}

func averageRange(candles []models.Candle, period int) (float64, bool) {
	n := len(candles)
	if n < period {
		period = n
	}
	if period == 0 {
		return 0, false
	}
	sum := 0.0
	for _, c := range candles[n-period:] {
		sum += c.High - c.Low
	}
	return sum / float64(period), true
}

func bodySize(c models.Candle) float64    { return math.Abs(c.Close - c.Open) }
func upperWick(c models.Candle) float64   { return c.High - math.Max(c.Open, c.Close) }
func lowerWick(c models.Candle) float64   { return math.Min(c.Open, c.Close) - c.Low }
func candleRange(c models.Candle) float64 { return c.High - c.Low }

func isDoji(c models.Candle, avgRange float64) bool {
	return bodySize(c) <= avgRange*0.1
}

func isHammer(c models.Candle) bool {
	rng := candleRange(c)
	if rng == 0 {
		return false
	}
	body := bodySize(c)
	return lowerWick(c) >= body*2 && upperWick(c) <= body*0.5 && body > 0
}

func isShootingStar(c models.Candle) bool {
	rng := candleRange(c)
	if rng == 0 {
		return false
	}
	body := bodySize(c)
	return upperWick(c) >= body*2 && lowerWick(c) <= body*0.5 && body > 0
}

func isBullishEngulfing(prev, cur models.Candle) bool {
	return prev.Close < prev.Open &&
		cur.Close > cur.Open &&
		cur.Open <= prev.Close &&
		cur.Close >= prev.Open
}

func isBearishEngulfing(prev, cur models.Candle) bool {
	return prev.Close > prev.Open &&
		cur.Close < cur.Open &&
		cur.Open >= prev.Close &&
		cur.Close <= prev.Open
}

func isMorningStar(first, mid, last models.Candle) bool {
	return first.Close < first.Open &&
		bodySize(mid) < bodySize(first)*0.5 &&
		last.Close > last.Open &&
		last.Close > (first.Open+first.Close)/2
}

func isEveningStar(first, mid, last models.Candle) bool {
	return first.Close > first.Open &&
		bodySize(mid) < bodySize(first)*0.5 &&
		last.Close < last.Open &&
		last.Close < (first.Open+first.Close)/2
}

// --- Fair Value Gap ------------------------------------------------------

// fairValueGapEvaluator looks for a three-candle imbalance where the
// middle candle's wick doesn't overlap the outer two, then reads a
// bullish reading when price currently sits inside an unfilled bullish
// gap (likely to be defended as support) and bearish for the mirror case.
type fairValueGapEvaluator struct {
	name     string
	lookback int
}

func (e fairValueGapEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryPatterns,
		MinCandles:       3,
		ImportanceWeight: 0.75,
	}
}

type fairValueGap struct {
	top, bottom float64
	bullish     bool
}

func (e fairValueGapEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	if n < 3 {
		return models.InsufficientData(e.name, models.CategoryPatterns)
	}
	window := candles
	if n > e.lookback {
		window = candles[n-e.lookback:]
	}

	var gaps []fairValueGap
	for i := 1; i < len(window)-1; i++ {
		prev, mid, next := window[i-1], window[i], window[i+1]
		rng := mid.High - mid.Low
		if rng <= 0 {
			continue
		}
		if mid.Close > mid.Open && next.Low > prev.High && next.Low-prev.High > rng*0.1 {
			gaps = append(gaps, fairValueGap{top: next.Low, bottom: prev.High, bullish: true})
		}
		if mid.Close < mid.Open && next.High < prev.Low && prev.Low-next.High > rng*0.1 {
			gaps = append(gaps, fairValueGap{top: prev.Low, bottom: next.High, bullish: false})
		}
	}
	if len(gaps) == 0 {
		return models.Neutral(e.name, models.CategoryPatterns, 30)
	}

	price := candles[n-1].Close
	// Most recent gap that still contains price wins; an untested gap far
	// from price carries no live opinion.
	for i := len(gaps) - 1; i >= 0; i-- {
		g := gaps[i]
		if price >= g.bottom && price <= g.top {
			score := 55.0
			if !g.bullish {
				score = -55.0
			}
			score = models.ClampScore(score)
			return models.IndicatorResult{
				Name:       e.name,
				Category:   models.CategoryPatterns,
				Direction:  models.DirectionFromScore(score),
				Score:      score,
				Strength:   models.StrengthFromScore(math.Abs(score)),
				Confidence: 65,
			}
		}
	}

	return models.Neutral(e.name, models.CategoryPatterns, 35)
}

// --- Market structure: break/change of structure ----------------------------

// marketStructureEvaluator classifies the swing-high/swing-low sequence as
// a break of structure (trend continuation) or change of character (the
// first counter-trend swing), mirroring a smart-money-concepts read.
type marketStructureEvaluator struct {
	name     string
	lookback int
	order    int
}

func (e marketStructureEvaluator) Spec() models.IndicatorSpec {
	return models.IndicatorSpec{
		Name:             e.name,
		Category:         models.CategoryPatterns,
		MinCandles:       e.lookback,
		ImportanceWeight: 0.85,
	}
}

func (e marketStructureEvaluator) Evaluate(candles []models.Candle, _ map[string]int) models.IndicatorResult {
	n := len(candles)
	window := candles
	if n > e.lookback {
		window = candles[n-e.lookback:]
	}
	if len(window) < 2*e.order+1 {
		return models.InsufficientData(e.name, models.CategoryPatterns)
	}

	swingHighs, swingLows := findSwingPoints(window, e.order)
	if len(swingHighs) < 2 || len(swingLows) < 2 {
		return models.Neutral(e.name, models.CategoryPatterns, 30)
	}

	lastHigh, prevHigh := swingHighs[len(swingHighs)-1], swingHighs[len(swingHighs)-2]
	lastLow, prevLow := swingLows[len(swingLows)-1], swingLows[len(swingLows)-2]

	higherHighs := lastHigh > prevHigh
	higherLows := lastLow > prevLow
	lowerHighs := lastHigh < prevHigh
	lowerLows := lastLow < prevLow

	price := window[len(window)-1].Close

	var score, confidence float64
	switch {
	case higherHighs && higherLows && price > prevHigh:
		score, confidence = 75, 80 // bullish break of structure
	case lowerHighs && lowerLows && price < prevLow:
		score, confidence = -75, 80 // bearish break of structure
	case !higherHighs && higherLows:
		score, confidence = 55, 65 // bullish change of character
	case !lowerLows && lowerHighs:
		score, confidence = -55, 65 // bearish change of character
	default:
		return models.Neutral(e.name, models.CategoryPatterns, 35)
	}

	score = models.ClampScore(score)
	return models.IndicatorResult{
		Name:       e.name,
		Category:   models.CategoryPatterns,
		Direction:  models.DirectionFromScore(score),
		Score:      score,
		Strength:   models.StrengthFromScore(math.Abs(score)),
		Confidence: confidence,
	}
}
