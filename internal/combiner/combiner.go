// Package combiner implements C3: it fuses many IndicatorResults, under a
// regime-aware category weighting, into one directional decision.
package combiner

import (
	"fmt"
	"math"
	"sort"

	"github.com/ridopark/jonbu-ohlcv/internal/config"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// ImportanceLookup resolves a registered indicator's importance weight,
// satisfied by *indicators.Registry without this package importing it
// directly (keeps C3 decoupled from C1's registration mechanics).
type ImportanceLookup func(name string) float64

// Decision is C3's output: a directional call plus the audit trail
// (category scores, dynamic weights, reasoning, alerts) needed to build
// the full Signal and explain it later.
type Decision struct {
	Action         models.Action
	Confidence     float64
	TotalScore     float64
	CategoryScores []models.CategoryScore
	DynamicWeights map[models.Category]float64
	Reasoning      []string
	Alerts         []string
}

// Combiner holds the static weight tables and the registry's importance
// lookup; both are read-mostly and immutable once constructed (§5).
type Combiner struct {
	weights    *config.WeightConfig
	importance ImportanceLookup
}

// New constructs a Combiner.
func New(weights *config.WeightConfig, importance ImportanceLookup) *Combiner {
	return &Combiner{weights: weights, importance: importance}
}

// power computes the per-indicator power multiplier in [0.5, 1.0] (§4.3).
func power(r models.IndicatorResult) float64 {
	p := 0.5
	switch {
	case r.Confidence >= 80:
		p += 0.3
	case r.Confidence >= 60:
		p += 0.2
	case r.Confidence >= 50:
		p += 0.1
	}
	switch r.Strength {
	case models.StrengthVeryStrong:
		p += 0.2
	case models.StrengthStrong:
		p += 0.1
	}
	if math.Abs(r.Score) >= 60 {
		p += 0.1
	}
	if p < 0.5 {
		p = 0.5
	}
	if p > 1.0 {
		p = 1.0
	}
	return p
}

// dynamicWeights multiplies the baseline category weights by the regime's
// multiplier row and renormalizes to sum to 1.0.
func (c *Combiner) dynamicWeights(regime models.RegimeKind) map[models.Category]float64 {
	multipliers, ok := c.weights.RegimeMultipliers[regime]
	out := make(map[models.Category]float64, len(c.weights.Baseline))
	sum := 0.0
	for category, base := range c.weights.Baseline {
		m := 1.0
		if ok {
			if mv, found := multipliers[category]; found {
				m = mv
			}
		}
		v := base * m
		out[category] = v
		sum += v
	}
	if sum == 0 {
		return c.weights.Baseline
	}
	for category := range out {
		out[category] /= sum
	}
	return out
}

type categoryAgg struct {
	category         models.Category
	weightedScore    float64
	averagePower     float64
	contributorCount int
	agreementRatio   float64
}

func aggregateCategory(category models.Category, results []models.IndicatorResult, importance ImportanceLookup) categoryAgg {
	var (
		scoreNumerator, weightSum float64
		powerSum                  float64
		buy, sell, neutral        int
		contributors              int
	)

	for _, r := range results {
		if r.Category != category || r.ErrorKind != models.ErrorKindNone {
			continue
		}
		w := importance(r.Name) * power(r)
		scoreNumerator += r.Score * w
		weightSum += w
		powerSum += power(r)
		contributors++

		switch r.Direction {
		case models.DirectionBuy:
			buy++
		case models.DirectionSell:
			sell++
		default:
			neutral++
		}
	}

	weightedScore := 0.0
	if weightSum != 0 {
		weightedScore = scoreNumerator / weightSum
	}
	averagePower := 0.0
	if contributors > 0 {
		averagePower = powerSum / float64(contributors)
	}

	maxDirectional := buy
	if sell > maxDirectional {
		maxDirectional = sell
	}
	const eps = 1e-9
	agreementRatio := float64(maxDirectional) / (float64(buy+sell+neutral) + eps)

	return categoryAgg{
		category:         category,
		weightedScore:    weightedScore,
		averagePower:     averagePower,
		contributorCount: contributors,
		agreementRatio:   agreementRatio,
	}
}

// regimeAlignment returns how much a |totalScore| of this magnitude should
// be trusted given the prevailing regime: full credit when a strongly
// trending regime produces a strong score (ADX amplifies conviction in
// either direction), discounted in a ranging regime where a loud score is
// more likely noise, and partial credit otherwise.
func regimeAlignment(totalScore float64, regime models.RegimeKind) float64 {
	strength := math.Abs(totalScore) / 100
	if strength > 1 {
		strength = 1
	}
	switch regime {
	case models.RegimeStrongTrending:
		return strength
	case models.RegimeRanging:
		return 1 - strength
	case models.RegimeWeakTrending:
		return 0.5 * strength
	default:
		return 0.3 * strength
	}
}

func actionFromScore(totalScore float64) models.Action {
	switch {
	case totalScore >= 70:
		return models.ActionStrongBuy
	case totalScore >= 30:
		return models.ActionBuy
	case totalScore > -30:
		return models.ActionHold
	case totalScore > -70:
		return models.ActionSell
	default:
		return models.ActionStrongSell
	}
}

func lerp(a, b, t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}

// Combine fuses the full indicator slice into a directional Decision.
func (c *Combiner) Combine(results []models.IndicatorResult, regime models.MarketRegime) Decision {
	categories := make([]models.Category, 0, len(c.weights.Baseline))
	for category := range c.weights.Baseline {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	aggs := make(map[models.Category]categoryAgg, len(categories))
	for _, category := range categories {
		aggs[category] = aggregateCategory(category, results, c.importance)
	}

	for _, category := range categories {
		if aggs[category].contributorCount < c.weights.MinIndicatorsPerCategory {
			return Decision{
				Action:     models.ActionHold,
				Confidence: 0,
				Alerts: []string{fmt.Sprintf(
					"insufficient usable indicators in category %s (%d < %d required); holding",
					category, aggs[category].contributorCount, c.weights.MinIndicatorsPerCategory,
				)},
				DynamicWeights: c.dynamicWeights(regime.Regime),
			}
		}
	}

	dynamicWeights := c.dynamicWeights(regime.Regime)

	totalScore := 0.0
	categoryScores := make([]models.CategoryScore, 0, len(categories))
	agreementSum, powerSum := 0.0, 0.0
	for _, category := range categories {
		agg := aggs[category]
		totalScore += dynamicWeights[category] * agg.weightedScore
		categoryScores = append(categoryScores, models.CategoryScore{
			Category:         category,
			WeightedScore:    agg.weightedScore,
			AveragePower:     agg.averagePower,
			ContributorCount: agg.contributorCount,
			AgreementRatio:   agg.agreementRatio,
		})
		agreementSum += agg.agreementRatio
		powerSum += agg.averagePower
	}
	totalScore = models.ClampScore(totalScore)

	meanAgreement := agreementSum / float64(len(categories))
	meanPower := powerSum / float64(len(categories))

	base := math.Min(100, math.Abs(totalScore))
	agreement := 20 * meanAgreement
	regimeFit := 10 * regimeAlignment(totalScore, regime.Regime)
	confidence := (base + agreement + regimeFit) * lerp(0.8, 1.2, (meanPower-0.5)/0.5)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	action := actionFromScore(totalScore)

	reasoning := buildReasoning(results, action, c.importance, c.weights.TopReasoningCount)
	alerts := buildAlerts(regime, action)

	return Decision{
		Action:         action,
		Confidence:     confidence,
		TotalScore:     totalScore,
		CategoryScores: categoryScores,
		DynamicWeights: dynamicWeights,
		Reasoning:      reasoning,
		Alerts:         alerts,
	}
}

func buildReasoning(results []models.IndicatorResult, action models.Action, importance ImportanceLookup, topN int) []string {
	type contribution struct {
		result    models.IndicatorResult
		magnitude float64
	}

	var winningDirection models.Direction
	switch {
	case action.IsBuyFamily():
		winningDirection = models.DirectionBuy
	case action.IsSellFamily():
		winningDirection = models.DirectionSell
	default:
		return nil
	}

	var contributions []contribution
	for _, r := range results {
		if r.ErrorKind != models.ErrorKindNone || r.Direction != winningDirection {
			continue
		}
		w := importance(r.Name) * power(r)
		contributions = append(contributions, contribution{result: r, magnitude: math.Abs(r.Score * w)})
	}

	sort.Slice(contributions, func(i, j int) bool { return contributions[i].magnitude > contributions[j].magnitude })
	if len(contributions) > topN {
		contributions = contributions[:topN]
	}

	reasoning := make([]string, 0, len(contributions))
	for _, c := range contributions {
		reasoning = append(reasoning, fmt.Sprintf(
			"%s: %s score=%.1f confidence=%.0f",
			c.result.Name, c.result.Direction, c.result.Score, c.result.Confidence,
		))
	}
	return reasoning
}

func buildAlerts(regime models.MarketRegime, action models.Action) []string {
	var alerts []string
	if regime.Regime == models.RegimeRanging && (action == models.ActionStrongBuy || action == models.ActionStrongSell) {
		alerts = append(alerts, "strong action called while regime classified as RANGING")
	}
	if regime.Volatility == models.VolatilityVeryHigh {
		alerts = append(alerts, "volatility band is VERY_HIGH")
	}
	return alerts
}
