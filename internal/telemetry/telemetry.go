// Package telemetry exports Prometheus counters/histograms for the
// generator and tracker loops, grounded on the dca-bot example's
// monitoring/metrics.go promauto idiom (prometheus/client_golang wired
// to a concrete counter/histogram set rather than left unused).
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GeneratorTickDuration times one full generator tick across all
	// dispatched (symbol, timeframe) slots (§5 scheduling model).
	GeneratorTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signal_engine_generator_tick_seconds",
		Help:    "Duration of a full generator tick across all slots",
		Buckets: prometheus.DefBuckets,
	})

	// GeneratorSlotOutcome counts per-slot terminal outcomes of a tick:
	// persisted, deduped, cooldown, invariant_violation, store_failed.
	GeneratorSlotOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_engine_generator_slot_outcome_total",
			Help: "Generator slot outcomes by symbol/timeframe/outcome",
		},
		[]string{"symbol", "timeframe", "outcome"},
	)

	// GeneratorOverrun counts ticks skipped because the previous tick for
	// the same slot had not yet finished (§5 overrun-skip rule).
	GeneratorOverrun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_engine_generator_overrun_total",
			Help: "Generator ticks skipped due to an overrunning previous tick",
		},
		[]string{"symbol", "timeframe"},
	)

	// TrackerTerminalOutcome counts tracker terminal-state transitions by
	// status (§4.6).
	TrackerTerminalOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_engine_tracker_terminal_total",
			Help: "Tracker terminal transitions by resulting status",
		},
		[]string{"status", "target_hit"},
	)

	// TrackerTickDuration times one full tracker pass over active signals.
	TrackerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signal_engine_tracker_tick_seconds",
		Help:    "Duration of a full tracker tick across all active signals",
		Buckets: prometheus.DefBuckets,
	})

	// IndicatorErrorKind counts absorbed indicator-level failures by kind
	// (§4.1/§7): INSUFFICIENT_DATA, COMPUTATION_FAILED.
	IndicatorErrorKind = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_engine_indicator_error_total",
			Help: "Absorbed indicator evaluation failures by error kind",
		},
		[]string{"indicator", "error_kind"},
	)
)
