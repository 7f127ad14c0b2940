package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/candlesource"
	"github.com/ridopark/jonbu-ohlcv/internal/clock"
	"github.com/ridopark/jonbu-ohlcv/internal/combiner"
	"github.com/ridopark/jonbu-ohlcv/internal/config"
	"github.com/ridopark/jonbu-ohlcv/internal/events"
	"github.com/ridopark/jonbu-ohlcv/internal/generator"
	"github.com/ridopark/jonbu-ohlcv/internal/indicators"
	"github.com/ridopark/jonbu-ohlcv/internal/levels"
	"github.com/ridopark/jonbu-ohlcv/internal/logger"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/regime"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/internal/tracker"
)

// cliEngine bundles one standalone, in-memory instance of the signal
// engine's core components, for the CLI's one-shot generate/track/replay
// subcommands — no server, no scheduler, just the same C1-C6 pipeline
// driven directly.
type cliEngine struct {
	cfg       *config.Config
	source    *candlesource.MemorySource
	registry  *indicators.Registry
	detector  *regime.Detector
	combiner  *combiner.Combiner
	levels    *levels.Calculator
	store     *store.MemoryStore
	clock     clock.Clock
	sink      events.Sink
	generator *generator.Generator
	tracker   *tracker.Tracker
	logger    zerolog.Logger
}

// newCLIEngine loads configuration, applies the --log-level override, and
// wires a standalone engine instance seeded with synthetic candle history
// for every configured (symbol, timeframe) slot.
func newCLIEngine() (*cliEngine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.InitLogger(cfg.LogLevel, cfg.Environment)
	log := logger.New(cfg.Environment, cfg.LogLevel)

	weights, err := config.LoadWeights()
	if err != nil {
		return nil, err
	}

	source := candlesource.NewMemorySource()
	start := time.Now().Add(-500 * time.Hour)
	for _, symbol := range cfg.Engine.Symbols {
		for _, timeframe := range cfg.Engine.Timeframes {
			g := candlesource.SyntheticGenerator{
				Symbol: symbol, Timeframe: timeframe,
				BasePrice: 1000, TrendPerBar: 0.5, NoiseAmplitude: 3, BaseVolume: 10000,
			}
			source.Append(symbol, timeframe, g.Generate(start, 300, barDuration(timeframe))...)
		}
	}

	registry := indicators.NewDefaultRegistry()
	detector := regime.NewDetector()
	comb := combiner.New(weights, registry.LookupImportance)
	levelsCalc := levels.New(cfg.Engine.StopMultiplier, cfg.Engine.MinStopPercent, cfg.Engine.StopFloorDistance)
	memStore := store.NewMemoryStore()
	clk := clock.NewSystemClock(nil)
	sink := events.NewChannelSink()

	gen := generator.New(cfg.Engine, source, registry, detector, comb, levelsCalc, memStore, clk, sink, log)
	trk := tracker.New(source, memStore, clk, sink, models.TieBreakPolicy(cfg.Engine.StopVsTargetTieBreak), cfg.Engine.WorkerPoolSize, log)

	return &cliEngine{
		cfg: cfg, source: source, registry: registry, detector: detector,
		combiner: comb, levels: levelsCalc, store: memStore, clock: clk, sink: sink,
		generator: gen, tracker: trk, logger: log,
	}, nil
}

func barDuration(timeframe string) time.Duration {
	switch timeframe {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// advance appends one more synthetic candle per configured slot, used by
// `replay` to step the clock forward between generator/tracker ticks.
func (e *cliEngine) advance(tick int) {
	for _, symbol := range e.cfg.Engine.Symbols {
		for _, timeframe := range e.cfg.Engine.Timeframes {
			g := candlesource.SyntheticGenerator{
				Symbol: symbol, Timeframe: timeframe,
				BasePrice: 1000 + float64(tick), TrendPerBar: 0.5, NoiseAmplitude: 3, BaseVolume: 10000,
			}
			start := time.Now().Add(time.Duration(tick) * time.Minute)
			e.source.Append(symbol, timeframe, g.Generate(start, 1, barDuration(timeframe))...)
		}
	}
}
