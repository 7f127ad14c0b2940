package indicators

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/logger"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/telemetry"
)

// REQ: uniform indicator contract (§4.1). Adding a new indicator is a
// local change: implement Evaluator, declare its Spec, register it with
// Registry.Register — nothing in the combiner depends on indicator names.

// Evaluator is the single contract every technical indicator conforms to.
// Implementations must be pure: no I/O, no hidden state between calls,
// identical inputs yield identical outputs.
type Evaluator interface {
	Spec() models.IndicatorSpec
	// Evaluate computes the indicator's opinion over an ascending candle
	// window. Callers are guaranteed len(candles) >= Spec().MinCandles;
	// the registry enforces the precondition so implementations can
	// assume it holds.
	Evaluate(candles []models.Candle, params map[string]int) models.IndicatorResult
}

// Registry organizes indicators by category and evaluates them under the
// §4.1 contract, absorbing insufficient-data and panic failures so they
// never reach the combiner.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[models.Category][]Evaluator
	byName     map[string]Evaluator
	logger     zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		evaluators: make(map[models.Category][]Evaluator),
		byName:     make(map[string]Evaluator),
		logger:     logger.NewContextLogger("indicator_registry"),
	}
}

// NewDefaultRegistry creates a registry pre-populated with the full set of
// built-in evaluators across every category (§4.1 indicator families).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range defaultTrendEvaluators() {
		r.Register(e)
	}
	for _, e := range defaultMomentumEvaluators() {
		r.Register(e)
	}
	for _, e := range defaultVolumeEvaluators() {
		r.Register(e)
	}
	for _, e := range defaultVolatilityEvaluators() {
		r.Register(e)
	}
	for _, e := range defaultSupportResistanceEvaluators() {
		r.Register(e)
	}
	for _, e := range defaultPatternEvaluators() {
		r.Register(e)
	}
	return r
}

// Register adds an evaluator to the registry under its declared category.
// Registering the same name twice replaces the prior evaluator.
func (r *Registry) Register(e Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	spec := e.Spec()
	if old, exists := r.byName[spec.Name]; exists {
		r.removeFromCategory(old.Spec().Category, spec.Name)
	}
	r.byName[spec.Name] = e
	r.evaluators[spec.Category] = append(r.evaluators[spec.Category], e)
}

func (r *Registry) removeFromCategory(cat models.Category, name string) {
	list := r.evaluators[cat]
	for i, e := range list {
		if e.Spec().Name == name {
			r.evaluators[cat] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// LookupImportance returns the registered importance weight for an
// indicator name, or the documented default (0.85) if unknown.
func (r *Registry) LookupImportance(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byName[name]; ok {
		return e.Spec().ImportanceWeight
	}
	return 0.85
}

// EvaluateAll runs every registered indicator over the candle window,
// fanning category-level work out in parallel and joining before return
// (§5: category evaluation may parallelize but must join before C3).
func (r *Registry) EvaluateAll(candles []models.Candle) []models.IndicatorResult {
	r.mu.RLock()
	categories := make([]models.Category, 0, len(r.evaluators))
	for cat := range r.evaluators {
		categories = append(categories, cat)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	resultsCh := make(chan []models.IndicatorResult, len(categories))

	for _, cat := range categories {
		wg.Add(1)
		go func(cat models.Category) {
			defer wg.Done()
			resultsCh <- r.EvaluateCategory(cat, candles)
		}(cat)
	}

	wg.Wait()
	close(resultsCh)

	all := make([]models.IndicatorResult, 0, len(r.byName))
	for batch := range resultsCh {
		all = append(all, batch...)
	}
	return all
}

// EvaluateCategory evaluates every indicator registered under one
// category, in parallel, over the same candle window.
func (r *Registry) EvaluateCategory(category models.Category, candles []models.Candle) []models.IndicatorResult {
	r.mu.RLock()
	evals := make([]Evaluator, len(r.evaluators[category]))
	copy(evals, r.evaluators[category])
	r.mu.RUnlock()

	results := make([]models.IndicatorResult, len(evals))
	var wg sync.WaitGroup
	for i, e := range evals {
		wg.Add(1)
		go func(i int, e Evaluator) {
			defer wg.Done()
			results[i] = r.evaluateOne(e, candles)
		}(i, e)
	}
	wg.Wait()
	return results
}

// evaluateOne enforces the §4.1 precondition and absorbs panics, so a bug
// in one evaluator can never take down a tick.
func (r *Registry) evaluateOne(e Evaluator, candles []models.Candle) (result models.IndicatorResult) {
	spec := e.Spec()

	if len(candles) < spec.MinCandles {
		telemetry.IndicatorErrorKind.WithLabelValues(spec.Name, string(models.ErrorKindInsufficientData)).Inc()
		return models.InsufficientData(spec.Name, spec.Category)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = models.IndicatorResult{
				Name:      spec.Name,
				Category:  spec.Category,
				Direction: models.DirectionNeutral,
				Score:     0,
				Strength:  models.StrengthVeryWeak,
				ErrorKind: models.ErrorKindComputationFailed,
			}
			telemetry.IndicatorErrorKind.WithLabelValues(spec.Name, string(models.ErrorKindComputationFailed)).Inc()
			r.logger.Error().
				Str("indicator", spec.Name).
				Str("category", string(spec.Category)).
				Interface("panic", rec).
				Msg("indicator evaluator panicked")
		}
	}()

	params := spec.DefaultParams
	result = e.Evaluate(candles, params)
	if result.Name == "" {
		result.Name = spec.Name
	}
	if result.Category == "" {
		result.Category = spec.Category
	}
	if result.ErrorKind != models.ErrorKindNone {
		telemetry.IndicatorErrorKind.WithLabelValues(spec.Name, string(result.ErrorKind)).Inc()
	}
	return result
}
