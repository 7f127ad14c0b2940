package config

import (
	"testing"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

func TestLoadWeights_ParsesAndValidatesEmbeddedTable(t *testing.T) {
	wc, err := LoadWeights()
	if err != nil {
		t.Fatalf("expected embedded weight table to load and validate, got: %v", err)
	}
	if len(wc.Baseline) == 0 {
		t.Fatal("expected a non-empty baseline category weight table")
	}
	sum := 0.0
	for _, w := range wc.Baseline {
		sum += w
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("expected baseline weights to sum to 1.0, got %v", sum)
	}
}

func TestWeightConfigValidate_RejectsBaselineNotSummingToOne(t *testing.T) {
	wc := &WeightConfig{
		Baseline: map[models.Category]float64{models.CategoryTrend: 0.3, models.CategoryMomentum: 0.3},
	}
	if err := wc.Validate(); err == nil {
		t.Fatal("expected rejection of a baseline that doesn't sum to 1.0")
	}
}

func TestWeightConfigValidate_RejectsIncompleteRegimeMultiplierRow(t *testing.T) {
	wc := &WeightConfig{
		Baseline: map[models.Category]float64{models.CategoryTrend: 0.5, models.CategoryMomentum: 0.5},
		RegimeMultipliers: map[models.RegimeKind]map[models.Category]float64{
			models.RegimeStrongTrending: {models.CategoryTrend: 1.2}, // missing MOMENTUM
		},
	}
	if err := wc.Validate(); err == nil {
		t.Fatal("expected rejection of a regime multiplier row missing a baseline category")
	}
}

func TestWeightConfigValidate_FillsDefaultsForZeroValues(t *testing.T) {
	wc := &WeightConfig{
		Baseline: map[models.Category]float64{models.CategoryTrend: 0.5, models.CategoryMomentum: 0.5},
	}
	if err := wc.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wc.MinIndicatorsPerCategory != 1 {
		t.Errorf("expected default MinIndicatorsPerCategory=1, got %d", wc.MinIndicatorsPerCategory)
	}
	if wc.TopReasoningCount != 5 {
		t.Errorf("expected default TopReasoningCount=5, got %d", wc.TopReasoningCount)
	}
	if wc.RiskRewardFloor != 1.0 {
		t.Errorf("expected default RiskRewardFloor=1.0, got %v", wc.RiskRewardFloor)
	}
}
