// Package generator implements C5: the periodic per-(symbol, timeframe)
// loop that fetches candles, runs the indicator/regime/combiner/levels
// pipeline, and persists actionable signals — the state machine of §5
// (IDLE -> FETCHING -> EVALUATING -> PERSISTING -> IDLE/COOLDOWN).
package generator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/candlesource"
	"github.com/ridopark/jonbu-ohlcv/internal/clock"
	"github.com/ridopark/jonbu-ohlcv/internal/combiner"
	"github.com/ridopark/jonbu-ohlcv/internal/config"
	"github.com/ridopark/jonbu-ohlcv/internal/events"
	"github.com/ridopark/jonbu-ohlcv/internal/indicators"
	"github.com/ridopark/jonbu-ohlcv/internal/levels"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/regime"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/internal/telemetry"
)

// maxBackoffMultiple caps a slot's cooldown escalation at this many
// generatorPeriodSeconds multiples, so a persistently failing slot never
// waits longer than a bounded, operator-legible ceiling (§5 "capped
// exponential backoff").
const maxBackoffMultiple = 8

// slotKey identifies one (symbol, timeframe) scheduling unit (§5).
type slotKey struct {
	Symbol    string
	Timeframe string
}

// slotState tracks the IDLE/COOLDOWN bookkeeping for one slot between
// ticks. The state machine's FETCHING/EVALUATING/PERSISTING phases live
// entirely on the stack inside runSlot; only the inter-tick cooldown and
// backoff counters need to survive across ticks.
type slotState struct {
	cooldownUntil  time.Time
	backoffAttempt int
	lastSignalTs   time.Time
}

// Generator drives C5. It owns no long-lived goroutines itself — the
// scheduler package calls Tick once per generatorPeriodSeconds and this
// type fans that single tick out across a bounded worker pool.
type Generator struct {
	cfg        config.EngineConfig
	source     candlesource.Source
	registry   *indicators.Registry
	detector   *regime.Detector
	combiner   *combiner.Combiner
	levelsCalc *levels.Calculator
	signals    store.SignalStore
	clock      clock.Clock
	sink       events.Sink
	logger     zerolog.Logger

	mu    sync.Mutex
	slots map[slotKey]*slotState
}

// New constructs a Generator wired to its collaborators.
func New(
	cfg config.EngineConfig,
	source candlesource.Source,
	registry *indicators.Registry,
	detector *regime.Detector,
	comb *combiner.Combiner,
	levelsCalc *levels.Calculator,
	signals store.SignalStore,
	clk clock.Clock,
	sink events.Sink,
	logger zerolog.Logger,
) *Generator {
	return &Generator{
		cfg:        cfg,
		source:     source,
		registry:   registry,
		detector:   detector,
		combiner:   comb,
		levelsCalc: levelsCalc,
		signals:    signals,
		clock:      clk,
		sink:       sink,
		logger:     logger.With().Str("component", "generator").Logger(),
		slots:      make(map[slotKey]*slotState),
	}
}

// Tick runs one generator pass across every configured (symbol,
// timeframe) slot, bounded by cfg.WorkerPoolSize concurrent slots (§5:
// "bounded worker pool per tick").
func (g *Generator) Tick(ctx context.Context) {
	start := g.clock.Now()
	defer func() {
		telemetry.GeneratorTickDuration.Observe(time.Since(start).Seconds())
	}()

	sem := make(chan struct{}, g.poolSize())
	var wg sync.WaitGroup

	for _, symbol := range g.cfg.Symbols {
		for _, timeframe := range g.cfg.Timeframes {
			symbol, timeframe := symbol, timeframe
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				g.runSlot(ctx, symbol, timeframe)
			}()
		}
	}
	wg.Wait()
}

func (g *Generator) poolSize() int {
	if g.cfg.WorkerPoolSize > 0 {
		return g.cfg.WorkerPoolSize
	}
	return 1
}

func (g *Generator) stateFor(key slotKey) *slotState {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.slots[key]
	if !ok {
		s = &slotState{}
		g.slots[key] = s
	}
	return s
}

// runSlot executes the FETCHING -> EVALUATING -> PERSISTING state
// machine for one slot, recording a terminal outcome via telemetry and
// advancing the slot's cooldown bookkeeping on the way out.
func (g *Generator) runSlot(ctx context.Context, symbol, timeframe string) {
	key := slotKey{Symbol: symbol, Timeframe: timeframe}
	state := g.stateFor(key)
	log := g.logger.With().Str("symbol", symbol).Str("timeframe", timeframe).Logger()

	now := g.clock.Now()

	g.mu.Lock()
	cooling := now.Before(state.cooldownUntil)
	g.mu.Unlock()
	if cooling {
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "cooldown").Inc()
		return
	}

	// FETCHING
	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.FetchTimeoutSeconds)*time.Second)
	candles, err := g.source.Fetch(fetchCtx, symbol, timeframe, time.Time{}, 500)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("candle fetch failed")
		g.cooldown(state, symbol, timeframe, "fetch_failed")
		return
	}
	if len(candles) < g.cfg.MinCandlesRequired {
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "insufficient_data").Inc()
		return
	}

	// EVALUATING
	marketRegime := g.detector.Detect(candles)
	results := g.registry.EvaluateAll(candles)
	decision := g.combiner.Combine(results, marketRegime)

	if decision.Action == models.ActionHold || decision.Confidence < g.cfg.MinConfidenceToEmit {
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "hold").Inc()
		g.resetBackoff(state)
		return
	}

	// Dedup rule (§4.5/§6 refreshIntervalSeconds): a live ACTIVE signal for
	// this slot suppresses a fresh one until it has aged past the refresh
	// interval, so the generator doesn't spam new signals on every tick
	// while the prior call is still live.
	active, err := g.signals.FindActiveBySlot(ctx, symbol, timeframe)
	if err != nil {
		log.Error().Err(err).Msg("active-signal lookup failed")
		g.cooldown(state, symbol, timeframe, "store_failed")
		return
	}
	if active != nil && now.Sub(active.Timestamp) < time.Duration(g.cfg.RefreshIntervalSeconds)*time.Second {
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "deduped").Inc()
		return
	}

	latest := candles[len(candles)-1]
	atr, atrOK := indicators.WilderATR(candles, 14)
	if !atrOK {
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "insufficient_data").Inc()
		return
	}

	signalLevels, ok := g.levelsCalc.Calculate(latest.Close, decision.Action, atr)
	if !ok {
		decision.Action = models.ActionHold
		decision.Alerts = append(decision.Alerts, "levels calculation degenerate; downgraded to HOLD")
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "hold").Inc()
		return
	}

	// §4.3 requires an alert when the realized risk:reward falls below the
	// configured floor; this can only be checked once C4 has produced Levels.
	if signalLevels.RiskRewardRatio < g.cfg.RiskRewardFloor {
		decision.Alerts = append(decision.Alerts, fmt.Sprintf(
			"risk:reward %.2f below configured floor %.2f", signalLevels.RiskRewardRatio, g.cfg.RiskRewardFloor,
		))
	}

	sig := models.Signal{
		ID:                uuid.New().String(),
		Symbol:            symbol,
		Timeframe:         timeframe,
		Timestamp:         latest.Timestamp,
		CurrentPrice:      latest.Close,
		Action:            decision.Action,
		Confidence:        decision.Confidence,
		Strength:          models.StrengthFromScore(math.Abs(decision.TotalScore)),
		Levels:            signalLevels,
		CategoryScores:    decision.CategoryScores,
		TotalScore:        decision.TotalScore,
		NormalizedScore:   decision.TotalScore / 100,
		MarketRegime:      marketRegime,
		DynamicWeights:    decision.DynamicWeights,
		Reasoning:         decision.Reasoning,
		Alerts:            decision.Alerts,
		Status:            models.StatusActive,
		Performance:       models.Performance{Outcome: models.OutcomePending, TargetHit: models.TargetHitNone},
		CreatedAt:         now,
		ExpiresAt:         now.Add(time.Duration(g.cfg.ExpirySeconds) * time.Second),
		IndicatorSnapshot: results,
	}

	if err := sig.ValidateInvariants(); err != nil {
		log.Error().Err(err).Msg("signal failed invariant validation; discarding")
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "invariant_violation").Inc()
		g.cooldown(state, symbol, timeframe, "invariant_violation")
		return
	}

	if err := g.signals.UpsertSignal(ctx, sig); err != nil {
		log.Error().Err(err).Msg("failed to persist signal")
		telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "store_failed").Inc()
		g.cooldown(state, symbol, timeframe, "store_failed")
		return
	}

	g.sink.Publish(events.NewEvent(events.KindCreated, sig))
	telemetry.GeneratorSlotOutcome.WithLabelValues(symbol, timeframe, "persisted").Inc()

	g.mu.Lock()
	state.lastSignalTs = sig.Timestamp
	g.mu.Unlock()
	g.resetBackoff(state)
}

func (g *Generator) resetBackoff(state *slotState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state.backoffAttempt = 0
	state.cooldownUntil = time.Time{}
}

// cooldown applies capped exponential backoff: 2^attempt *
// generatorPeriodSeconds, capped at maxBackoffMultiple periods.
func (g *Generator) cooldown(state *slotState, symbol, timeframe, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	multiple := 1 << uint(state.backoffAttempt)
	if multiple > maxBackoffMultiple {
		multiple = maxBackoffMultiple
	}
	state.backoffAttempt++
	backoff := time.Duration(multiple*g.cfg.GeneratorPeriodSeconds) * time.Second
	state.cooldownUntil = g.clock.Now().Add(backoff)

	g.logger.Warn().
		Str("symbol", symbol).Str("timeframe", timeframe).
		Str("reason", reason).Dur("backoff", backoff).
		Msg("slot entering cooldown")
}

// OnOverrun satisfies the scheduler.Job.OnOverrun hook, recording the
// overrun-skip counter (§5).
func (g *Generator) OnOverrun(name string) {
	for _, symbol := range g.cfg.Symbols {
		for _, timeframe := range g.cfg.Timeframes {
			telemetry.GeneratorOverrun.WithLabelValues(symbol, timeframe).Inc()
		}
	}
	g.logger.Warn().Str("job", name).Msg("generator tick overrun")
}

// Describe renders a one-line status summary per slot: "idle", or
// "cooldown until <RFC3339 time>".
func (g *Generator) Describe() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.slots))
	for key, state := range g.slots {
		status := "idle"
		if g.clock.Now().Before(state.cooldownUntil) {
			status = fmt.Sprintf("cooldown until %s", state.cooldownUntil.Format(time.RFC3339))
		}
		out = append(out, fmt.Sprintf("%s/%s: %s", key.Symbol, key.Timeframe, status))
	}
	return out
}
