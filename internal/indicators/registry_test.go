package indicators

import (
	"testing"
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

type fakeEvaluator struct {
	spec models.IndicatorSpec
	fn   func(candles []models.Candle, params map[string]int) models.IndicatorResult
}

func (f fakeEvaluator) Spec() models.IndicatorSpec { return f.spec }
func (f fakeEvaluator) Evaluate(candles []models.Candle, params map[string]int) models.IndicatorResult {
	return f.fn(candles, params)
}

func candleWindow(n int) []models.Candle {
	out := make([]models.Candle, n)
	now := time.Now()
	for i := range out {
		out[i] = models.Candle{
			Symbol: "TEST", Timeframe: "1m", Timestamp: now.Add(time.Duration(i) * time.Minute),
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 100,
		}
	}
	return out
}

func TestEvaluateOne_InsufficientDataAbsorbed(t *testing.T) {
	r := NewRegistry()
	e := fakeEvaluator{
		spec: models.IndicatorSpec{Name: "needs_50", Category: models.CategoryTrend, MinCandles: 50},
		fn: func(candles []models.Candle, params map[string]int) models.IndicatorResult {
			t.Fatal("Evaluate must not be called below MinCandles")
			return models.IndicatorResult{}
		},
	}
	r.Register(e)

	result := r.evaluateOne(e, candleWindow(10))
	if result.ErrorKind != models.ErrorKindInsufficientData {
		t.Errorf("expected INSUFFICIENT_DATA, got %v", result.ErrorKind)
	}
}

func TestEvaluateOne_PanicIsAbsorbedAsComputationFailed(t *testing.T) {
	e := fakeEvaluator{
		spec: models.IndicatorSpec{Name: "panics", Category: models.CategoryMomentum, MinCandles: 1},
		fn: func(candles []models.Candle, params map[string]int) models.IndicatorResult {
			panic("boom")
		},
	}
	r := NewRegistry()
	r.Register(e)

	result := r.evaluateOne(e, candleWindow(5))
	if result.ErrorKind != models.ErrorKindComputationFailed {
		t.Errorf("expected COMPUTATION_FAILED after panic, got %v", result.ErrorKind)
	}
	if result.Name != "panics" {
		t.Errorf("expected recovered result to still carry the indicator name, got %q", result.Name)
	}
}

func TestEvaluateOne_FillsNameAndCategoryWhenEvaluatorOmitsThem(t *testing.T) {
	e := fakeEvaluator{
		spec: models.IndicatorSpec{Name: "sparse", Category: models.CategoryVolume, MinCandles: 1},
		fn: func(candles []models.Candle, params map[string]int) models.IndicatorResult {
			return models.IndicatorResult{Score: 10, Direction: models.DirectionBuy}
		},
	}
	r := NewRegistry()
	r.Register(e)

	result := r.evaluateOne(e, candleWindow(5))
	if result.Name != "sparse" || result.Category != models.CategoryVolume {
		t.Errorf("expected registry to backfill name/category, got %+v", result)
	}
}

func TestRegister_ReplacesSameNameEvaluator(t *testing.T) {
	r := NewRegistry()
	v1 := fakeEvaluator{
		spec: models.IndicatorSpec{Name: "dup", Category: models.CategoryTrend, MinCandles: 1, ImportanceWeight: 0.5},
		fn:   func(c []models.Candle, p map[string]int) models.IndicatorResult { return models.IndicatorResult{} },
	}
	v2 := fakeEvaluator{
		spec: models.IndicatorSpec{Name: "dup", Category: models.CategoryTrend, MinCandles: 1, ImportanceWeight: 0.9},
		fn:   func(c []models.Candle, p map[string]int) models.IndicatorResult { return models.IndicatorResult{} },
	}
	r.Register(v1)
	r.Register(v2)

	if got := r.LookupImportance("dup"); got != 0.9 {
		t.Errorf("expected replaced evaluator's importance weight 0.9, got %v", got)
	}
	if len(r.evaluators[models.CategoryTrend]) != 1 {
		t.Errorf("expected exactly one evaluator registered under %q after replacement, got %d",
			models.CategoryTrend, len(r.evaluators[models.CategoryTrend]))
	}
}

func TestLookupImportance_UnknownNameUsesDefault(t *testing.T) {
	r := NewRegistry()
	if got := r.LookupImportance("never_registered"); got != 0.85 {
		t.Errorf("expected default importance 0.85, got %v", got)
	}
}

func TestEvaluateAll_JoinsAcrossCategories(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeEvaluator{
		spec: models.IndicatorSpec{Name: "a", Category: models.CategoryTrend, MinCandles: 1},
		fn:   func(c []models.Candle, p map[string]int) models.IndicatorResult { return models.IndicatorResult{Name: "a"} },
	})
	r.Register(fakeEvaluator{
		spec: models.IndicatorSpec{Name: "b", Category: models.CategoryMomentum, MinCandles: 1},
		fn:   func(c []models.Candle, p map[string]int) models.IndicatorResult { return models.IndicatorResult{Name: "b"} },
	})

	results := r.EvaluateAll(candleWindow(5))
	if len(results) != 2 {
		t.Fatalf("expected results from both categories, got %d", len(results))
	}
}

func TestNewDefaultRegistry_RegistersEveryBuiltinCategory(t *testing.T) {
	r := NewDefaultRegistry()
	wantCategories := []models.Category{
		models.CategoryTrend, models.CategoryMomentum, models.CategoryVolume,
		models.CategoryVolatility, models.CategorySupportResistance, models.CategoryPatterns,
	}
	for _, cat := range wantCategories {
		if len(r.evaluators[cat]) == 0 {
			t.Errorf("expected at least one registered evaluator for category %s", cat)
		}
	}
}
