// Package tracker implements C6: per-ACTIVE-signal terminal-condition
// evaluation against the fixed priority stop-loss > target > market-close
// > timeout (§4.6), one signal at a time rather than one slot at a time —
// tracker concurrency is keyed on signal ID, not on (symbol, timeframe).
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/candlesource"
	"github.com/ridopark/jonbu-ohlcv/internal/clock"
	"github.com/ridopark/jonbu-ohlcv/internal/events"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/internal/telemetry"
)

// Tracker walks every ACTIVE signal to a terminal state across ticks.
type Tracker struct {
	source   candlesource.Source
	signals  store.SignalStore
	clock    clock.Clock
	sink     events.Sink
	tieBreak models.TieBreakPolicy
	logger   zerolog.Logger

	// workerPoolSize bounds concurrent per-signal evaluation; unlike the
	// generator, this is keyed on signal count, not on (symbol, timeframe)
	// slots (§5: "per-signal, not per-slot, tracker concurrency").
	workerPoolSize int
}

// New constructs a Tracker.
func New(
	source candlesource.Source,
	signals store.SignalStore,
	clk clock.Clock,
	sink events.Sink,
	tieBreak models.TieBreakPolicy,
	workerPoolSize int,
	logger zerolog.Logger,
) *Tracker {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	return &Tracker{
		source:         source,
		signals:        signals,
		clock:          clk,
		sink:           sink,
		tieBreak:       tieBreak,
		workerPoolSize: workerPoolSize,
		logger:         logger.With().Str("component", "tracker").Logger(),
	}
}

// Tick evaluates every currently ACTIVE signal for a terminal transition.
func (t *Tracker) Tick(ctx context.Context) {
	start := t.clock.Now()
	defer func() { telemetry.TrackerTickDuration.Observe(time.Since(start).Seconds()) }()

	active, err := t.signals.FindActive(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to list active signals")
		return
	}

	sem := make(chan struct{}, t.workerPoolSize)
	var wg sync.WaitGroup
	for _, sig := range active {
		sig := sig
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			t.evaluate(ctx, sig)
		}()
	}
	wg.Wait()
}

// evaluate applies the §4.6 priority to one ACTIVE signal: stop-loss,
// then target, then market-close, then timeout. The first that resolves
// wins; ties within a single candle (stop and target both touched) are
// resolved by the configured TieBreakPolicy.
func (t *Tracker) evaluate(ctx context.Context, sig models.Signal) {
	log := t.logger.With().Str("signal_id", sig.ID).Str("symbol", sig.Symbol).Logger()

	candles, err := t.source.Fetch(ctx, sig.Symbol, sig.Timeframe, sig.Timestamp, 500)
	if err != nil {
		log.Warn().Err(err).Msg("candle fetch failed for active signal")
		return
	}

	sign := sig.DirectionSign()
	if sign == 0 {
		return // HOLD signals are never persisted ACTIVE; defensive no-op.
	}

	for _, c := range candles {
		if !c.Timestamp.After(sig.Timestamp) {
			continue
		}

		stopHit := crossesStop(sig, c, sign)
		targetLevel, targetHit, targetOK := highestTargetHit(sig, c, sign)

		switch {
		case stopHit && targetOK:
			if t.resolveTie(sig, c) == models.TargetHitStopLoss {
				t.terminate(ctx, sig, models.StatusHitSL, models.TargetHitStopLoss, sig.Levels.StopLoss, c.Timestamp)
			} else {
				t.terminate(ctx, sig, models.StatusHitTarget, targetHit, targetLevel, c.Timestamp)
			}
			return
		case stopHit:
			t.terminate(ctx, sig, models.StatusHitSL, models.TargetHitStopLoss, sig.Levels.StopLoss, c.Timestamp)
			return
		case targetOK:
			t.terminate(ctx, sig, models.StatusHitTarget, targetHit, targetLevel, c.Timestamp)
			return
		}
	}

	now := t.clock.Now()
	venue := clock.VenueForSymbol(sig.Symbol)
	wasOpen, ok := t.clock.SessionOpen(venue, sig.Timestamp)
	isOpen, okNow := t.clock.SessionOpen(venue, now)

	if ok && okNow && wasOpen && !isOpen {
		exitPrice := sig.CurrentPrice
		if len(candles) > 0 {
			exitPrice = candles[len(candles)-1].Close
		}
		status := models.StatusClosedProfit
		if (exitPrice-sig.Levels.Entry)*sign < 0 {
			status = models.StatusClosedLoss
		}
		t.terminate(ctx, sig, status, models.TargetHitMarketClose, exitPrice, now)
		return
	}

	if !okNow {
		// CLOCK_UNKNOWN: the venue's session hours aren't known, so the
		// tracker can't distinguish "market closed" from "market open" and
		// must hold rather than guess — this applies to expiry too (§7).
		return
	}

	if now.Before(sig.ExpiresAt) {
		return
	}
	exitPrice := sig.CurrentPrice
	if len(candles) > 0 {
		exitPrice = candles[len(candles)-1].Close
	}
	t.terminate(ctx, sig, models.StatusExpired, models.TargetHitNone, exitPrice, now)
}

// resolveTie applies the configured TieBreakPolicy when a single candle's
// range covers both the stop-loss and a target (§6 stopVsTargetTieBreak).
func (t *Tracker) resolveTie(sig models.Signal, c models.Candle) models.TargetHit {
	switch t.tieBreak {
	case models.TieBreakAggressive:
		return models.TargetHitTarget1
	case models.TieBreakTimestampOrder:
		// Without intrabar tick data, approximate arrival order from the
		// candle's net direction: a bullish candle is assumed to have
		// touched its low (stop-side, for a BUY) before its high, and a
		// bearish candle its high before its low.
		lowFirst := c.Close >= c.Open
		stopBelow := sig.DirectionSign() > 0
		if lowFirst == stopBelow {
			return models.TargetHitStopLoss
		}
		return models.TargetHitTarget1
	default: // CONSERVATIVE: assume the worse outcome touched first.
		return models.TargetHitStopLoss
	}
}

func (t *Tracker) terminate(ctx context.Context, sig models.Signal, status models.Status, hit models.TargetHit, exitPrice float64, exitTime time.Time) {
	sign := sig.DirectionSign()
	pl := (exitPrice - sig.Levels.Entry) * sign
	plPercent := 0.0
	if sig.Levels.Entry != 0 {
		plPercent = pl / sig.Levels.Entry * 100
	}

	outcome := models.OutcomeWin
	if pl < 0 {
		outcome = models.OutcomeLoss
	}

	perf := models.Performance{
		Outcome:           outcome,
		ExitPrice:         exitPrice,
		ExitTime:          exitTime,
		TargetHit:         hit,
		ProfitLoss:        pl,
		ProfitLossPercent: plPercent,
	}

	if err := t.signals.UpdateStatus(ctx, sig.ID, store.TerminalUpdate{Status: status, Performance: perf}); err != nil {
		t.logger.Error().Err(err).Str("signal_id", sig.ID).Msg("failed to persist terminal transition")
		return
	}

	sig.Status = status
	sig.Performance = perf
	t.sink.Publish(events.NewEvent(eventKindFor(status), sig))

	telemetry.TrackerTerminalOutcome.WithLabelValues(string(status), string(hit)).Inc()
}

func eventKindFor(status models.Status) events.Kind {
	if status == models.StatusExpired {
		return events.KindExpired
	}
	return events.KindTerminated
}

func crossesStop(sig models.Signal, c models.Candle, sign float64) bool {
	if sign > 0 {
		return c.Low <= sig.Levels.StopLoss
	}
	return c.High >= sig.Levels.StopLoss
}

// highestTargetHit returns the best (furthest) target touched by this
// candle, checked from Target3 down to Target1 so a candle that reaches
// Target3 is reported as such rather than the nearer Target1.
func highestTargetHit(sig models.Signal, c models.Candle, sign float64) (level float64, hit models.TargetHit, ok bool) {
	targets := []struct {
		level float64
		hit   models.TargetHit
	}{
		{sig.Levels.Target3, models.TargetHitTarget3},
		{sig.Levels.Target2, models.TargetHitTarget2},
		{sig.Levels.Target1, models.TargetHitTarget1},
	}
	for _, target := range targets {
		reached := c.High >= target.level
		if sign < 0 {
			reached = c.Low <= target.level
		}
		if reached {
			return target.level, target.hit, true
		}
	}
	return 0, models.TargetHitNone, false
}
