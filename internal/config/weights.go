package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

//go:embed weights.yaml
var embeddedWeights []byte

// WeightConfig holds the combiner's (C3) static, rarely-changing tables:
// baseline category weights and the regime multiplier matrix. Loaded from
// weights.yaml, which go:embed compiles into the binary, so retuning means
// editing that file and rebuilding.
type WeightConfig struct {
	Baseline                 map[models.Category]float64                       `yaml:"baseline"`
	RegimeMultipliers        map[models.RegimeKind]map[models.Category]float64 `yaml:"regime_multipliers"`
	MinIndicatorsPerCategory int                                                `yaml:"min_indicators_per_category"`
	TopReasoningCount        int                                                `yaml:"top_reasoning_count"`
	RiskRewardFloor          float64                                            `yaml:"risk_reward_floor"`
}

// LoadWeights parses the embedded weight table and validates it, aborting
// startup (via the returned error) rather than letting a misconfigured
// table silently skew every signal (§7: unrecoverable config errors abort
// the process with a precise diagnostic).
func LoadWeights() (*WeightConfig, error) {
	var wc WeightConfig
	if err := yaml.Unmarshal(embeddedWeights, &wc); err != nil {
		return nil, fmt.Errorf("parsing embedded weight table: %w", err)
	}
	if err := wc.Validate(); err != nil {
		return nil, fmt.Errorf("validating weight table: %w", err)
	}
	return &wc, nil
}

// Validate checks the §4.3 invariant that baseline category weights sum to
// 1.0, and that every regime in the multiplier table covers every
// baseline category.
func (wc *WeightConfig) Validate() error {
	sum := 0.0
	for _, w := range wc.Baseline {
		sum += w
	}
	if sum < 0.999999 || sum > 1.000001 {
		return fmt.Errorf("baseline category weights sum to %.6f, want 1.0", sum)
	}

	for regime, multipliers := range wc.RegimeMultipliers {
		for category := range wc.Baseline {
			if _, ok := multipliers[category]; !ok {
				return fmt.Errorf("regime %s is missing a multiplier for category %s", regime, category)
			}
		}
	}

	if wc.MinIndicatorsPerCategory <= 0 {
		wc.MinIndicatorsPerCategory = 1
	}
	if wc.TopReasoningCount <= 0 {
		wc.TopReasoningCount = 5
	}
	if wc.RiskRewardFloor <= 0 {
		wc.RiskRewardFloor = 1.0
	}
	return nil
}
