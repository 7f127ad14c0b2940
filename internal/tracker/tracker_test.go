package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/candlesource"
	"github.com/ridopark/jonbu-ohlcv/internal/clock"
	"github.com/ridopark/jonbu-ohlcv/internal/events"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
)

func buyLevels() models.Levels {
	return models.Levels{Entry: 100, StopLoss: 95, Target1: 105, Target2: 110, Target3: 120, RiskRewardRatio: 1.0}
}

func baseSignal(id string, ts time.Time) models.Signal {
	return models.Signal{
		ID: id, Symbol: "NIFTY50", Timeframe: "5m", Timestamp: ts, CurrentPrice: 100,
		Action: models.ActionBuy, Status: models.StatusActive, Levels: buyLevels(),
		Performance: models.Performance{Outcome: models.OutcomePending, TargetHit: models.TargetHitNone},
		CreatedAt:   ts, ExpiresAt: ts.Add(24 * time.Hour),
	}
}

func newTestTracker(source *candlesource.MemorySource, signals store.SignalStore, clk clock.Clock, tieBreak models.TieBreakPolicy) *Tracker {
	return New(source, signals, clk, events.NoopSink{}, tieBreak, 2, zerolog.Nop())
}

func TestEvaluate_StopHitTerminatesAsLoss(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s1", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 101, Low: 94, Close: 96, Volume: 100, // low breaches stop at 95
	})

	tr := newTestTracker(source, signals, clock.FixedClock{At: base.Add(10 * time.Minute)}, models.TieBreakConservative)
	tr.Tick(context.Background())

	active, _ := signals.FindActive(context.Background())
	if len(active) != 0 {
		t.Fatal("expected signal to terminate")
	}
	all := signals.All()
	if all[0].Status != models.StatusHitSL {
		t.Errorf("expected HIT_SL, got %v", all[0].Status)
	}
	if all[0].Performance.Outcome != models.OutcomeLoss {
		t.Errorf("expected LOSS outcome, got %v", all[0].Performance.Outcome)
	}
}

func TestEvaluate_TargetHitTerminatesAsWin(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s2", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 111, Low: 99, Close: 109, Volume: 100, // high reaches target2 at 110
	})

	tr := newTestTracker(source, signals, clock.FixedClock{At: base.Add(10 * time.Minute)}, models.TieBreakConservative)
	tr.Tick(context.Background())

	all := signals.All()
	if all[0].Status != models.StatusHitTarget {
		t.Fatalf("expected HIT_TARGET, got %v", all[0].Status)
	}
	if all[0].Performance.TargetHit != models.TargetHitTarget2 {
		t.Errorf("expected furthest touched target TARGET2, got %v", all[0].Performance.TargetHit)
	}
	if all[0].Performance.Outcome != models.OutcomeWin {
		t.Errorf("expected WIN outcome, got %v", all[0].Performance.Outcome)
	}
}

func TestEvaluate_TieBreakConservativeFavorsStop(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s3", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	// Single candle spans both the stop (95) and target1 (105).
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 106, Low: 94, Close: 100, Volume: 100,
	})

	tr := newTestTracker(source, signals, clock.FixedClock{At: base.Add(10 * time.Minute)}, models.TieBreakConservative)
	tr.Tick(context.Background())

	all := signals.All()
	if all[0].Status != models.StatusHitSL {
		t.Errorf("CONSERVATIVE tie-break must favor stop-loss, got %v", all[0].Status)
	}
}

func TestEvaluate_TieBreakAggressiveFavorsTarget(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s4", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 106, Low: 94, Close: 100, Volume: 100,
	})

	tr := newTestTracker(source, signals, clock.FixedClock{At: base.Add(10 * time.Minute)}, models.TieBreakAggressive)
	tr.Tick(context.Background())

	all := signals.All()
	if all[0].Status != models.StatusHitTarget {
		t.Errorf("AGGRESSIVE tie-break must favor target, got %v", all[0].Status)
	}
}

// sessionTransitionClock reports open at-or-before a cutover instant and
// closed after it, letting a test distinguish wasOpen from isOpen —
// FixedClock can't, since it ignores the timestamp argument entirely.
type sessionTransitionClock struct {
	now     time.Time
	venue   string
	cutover time.Time
}

func (c sessionTransitionClock) Now() time.Time { return c.now }
func (c sessionTransitionClock) SessionOpen(venue string, t time.Time) (bool, bool) {
	if venue != c.venue {
		return false, false
	}
	return t.Before(c.cutover), true
}

func TestEvaluate_MarketCloseTransitionsWhenSessionClosesAndNoLevelHit(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s5", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 101, Low: 99, Close: 102, Volume: 100, // no level crossed
	})

	now := base.Add(10 * time.Minute)
	clk := sessionTransitionClock{now: now, venue: "NSE", cutover: base.Add(time.Minute)}
	tr := newTestTracker(source, signals, clk, models.TieBreakConservative)
	tr.Tick(context.Background())

	all := signals.All()
	if all[0].Status != models.StatusClosedProfit && all[0].Status != models.StatusClosedLoss {
		t.Fatalf("expected a CLOSED_* status on session close, got %v", all[0].Status)
	}
	if all[0].Performance.TargetHit != models.TargetHitMarketClose {
		t.Errorf("expected MARKET_CLOSE target hit, got %v", all[0].Performance.TargetHit)
	}
}

func TestEvaluate_SessionStaysClosedNeverTriggersMarketClose(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s5b", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 101, Low: 99, Close: 102, Volume: 100, // no level crossed
	})

	clk := clock.FixedClock{At: base.Add(10 * time.Minute), Sessions: map[string]bool{"NSE": false}}
	tr := newTestTracker(source, signals, clk, models.TieBreakConservative)
	tr.Tick(context.Background())

	active, _ := signals.FindActive(context.Background())
	if len(active) != 1 {
		t.Errorf("expected the signal to remain ACTIVE when wasOpen is not true, got %d active", len(active))
	}
}

func TestEvaluate_ExpiryTerminatesAfterExpiresAt(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s6", base)
	sig.ExpiresAt = base.Add(time.Minute) // expires almost immediately
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 101, Low: 99, Close: 102, Volume: 100, // no level crossed
	})

	// Venue session known and open, so expiry is allowed to fire (§7: expiry
	// still requires a known clock, same as market-close).
	clk := clock.FixedClock{At: base.Add(time.Hour), Sessions: map[string]bool{"NSE": true}}
	tr := newTestTracker(source, signals, clk, models.TieBreakConservative)
	tr.Tick(context.Background())

	all := signals.All()
	if all[0].Status != models.StatusExpired {
		t.Errorf("expected EXPIRED after ExpiresAt with no resolving level, got %v", all[0].Status)
	}
}

func TestEvaluate_ClockUnknownNeverForcesMarketClose(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s7", base)
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 101, Low: 99, Close: 102, Volume: 100,
	})

	// No "NSE" entry in Sessions -> SessionOpen returns ok=false (CLOCK_UNKNOWN).
	clk := clock.FixedClock{At: base.Add(10 * time.Minute), Sessions: map[string]bool{}}
	tr := newTestTracker(source, signals, clk, models.TieBreakConservative)
	tr.Tick(context.Background())

	active, _ := signals.FindActive(context.Background())
	if len(active) != 1 {
		t.Errorf("expected signal to remain ACTIVE under CLOCK_UNKNOWN (not yet expired), got %d active", len(active))
	}
}

func TestEvaluate_HoldSignalsAreNeverEvaluated(t *testing.T) {
	base := time.Now()
	sig := baseSignal("s8", base)
	sig.Action = models.ActionHold
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), sig)

	source := candlesource.NewMemorySource()
	source.Append("NIFTY50", "5m", models.Candle{
		Symbol: "NIFTY50", Timeframe: "5m", Timestamp: base.Add(5 * time.Minute),
		Open: 100, High: 200, Low: 1, Close: 100, Volume: 100,
	})

	tr := newTestTracker(source, signals, clock.FixedClock{At: base.Add(10 * time.Minute)}, models.TieBreakConservative)
	tr.Tick(context.Background())

	active, _ := signals.FindActive(context.Background())
	if len(active) != 1 {
		t.Errorf("HOLD signals must never be evaluated/terminated, got %d active", len(active))
	}
}
