package models

import "encoding/json"

// Category classifies an indicator for the purposes of category-level
// aggregation in the combiner (§4.3).
type Category string

const (
	CategoryTrend             Category = "TREND"
	CategoryMomentum          Category = "MOMENTUM"
	CategoryVolume            Category = "VOLUME"
	CategoryVolatility        Category = "VOLATILITY"
	CategorySupportResistance Category = "SUPPORT_RESISTANCE"
	CategoryPatterns          Category = "PATTERNS"
	CategoryOptions           Category = "OPTIONS"
	CategoryComposite         Category = "COMPOSITE"
)

// Direction is the sign of an indicator's opinion.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Strength buckets an indicator's conviction.
type Strength string

const (
	StrengthVeryWeak   Strength = "VERY_WEAK"
	StrengthWeak       Strength = "WEAK"
	StrengthModerate   Strength = "MODERATE"
	StrengthStrong     Strength = "STRONG"
	StrengthVeryStrong Strength = "VERY_STRONG"
)

// StrengthFromScore buckets an absolute score in [0,100] into a Strength
// tier. Every bounded-oscillator/trend-follower evaluator shares this
// mapping so tiering is consistent across the registry.
func StrengthFromScore(absScore float64) Strength {
	switch {
	case absScore >= 80:
		return StrengthVeryStrong
	case absScore >= 60:
		return StrengthStrong
	case absScore >= 35:
		return StrengthModerate
	case absScore >= 15:
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

// ErrorKind tags why an indicator could not produce a usable opinion.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindInsufficientData  ErrorKind = "INSUFFICIENT_DATA"
	ErrorKindComputationFailed ErrorKind = "COMPUTATION_FAILED"
)

// IndicatorSpec is the static description of a registered indicator (§3).
type IndicatorSpec struct {
	Name             string
	Category         Category
	MinCandles       int
	DefaultParams    map[string]int
	ImportanceWeight float64 // in [0.5, 1.2]
}

// IndicatorResult is the single uniform contract every evaluator produces
// (§3, §4.1). RawValue is opaque JSON of the indicator's own numeric state,
// useful for diagnostics/replay but never inspected by the combiner.
type IndicatorResult struct {
	Name       string          `json:"name"`
	Category   Category        `json:"category"`
	RawValue   json.RawMessage `json:"raw_value,omitempty"`
	Direction  Direction       `json:"direction"`
	Score      float64         `json:"score"` // [-100, 100]
	Strength   Strength        `json:"strength"`
	Confidence float64         `json:"confidence"` // [0, 100]
	ErrorKind  ErrorKind       `json:"error_kind,omitempty"`
}

// InsufficientData builds the standard absorbed-failure result (§4.1):
// never an exception, always a well-formed neutral IndicatorResult.
func InsufficientData(name string, category Category) IndicatorResult {
	return IndicatorResult{
		Name:      name,
		Category:  category,
		Direction: DirectionNeutral,
		Score:     0,
		Strength:  StrengthVeryWeak,
		ErrorKind: ErrorKindInsufficientData,
	}
}

// Neutral builds a well-formed, non-error neutral result — used when an
// indicator reaches a legitimate flat/undecided reading (e.g. all-flat
// candles), as distinct from a data-insufficiency failure.
func Neutral(name string, category Category, confidence float64) IndicatorResult {
	return IndicatorResult{
		Name:       name,
		Category:   category,
		Direction:  DirectionNeutral,
		Score:      0,
		Strength:   StrengthVeryWeak,
		Confidence: confidence,
	}
}

// DirectionFromScore derives the ordinal direction from a signed score,
// the single source of truth every evaluator must funnel through.
func DirectionFromScore(score float64) Direction {
	switch {
	case score > 0:
		return DirectionBuy
	case score < 0:
		return DirectionSell
	default:
		return DirectionNeutral
	}
}

// ClampScore keeps a score within the [-100, 100] contract domain.
func ClampScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	if score < -100 {
		return -100
	}
	return score
}
