// Package candlesource defines the CandleSource boundary (§6) the core
// consumes and provides an in-memory/synthetic implementation for tests
// and local development — the HTTP-fetching internals of a real market
// data vendor integration are out of scope.
package candlesource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// Source is the CandleSource boundary (§6): fetch must return candles in
// ascending time order, well-formed, with duplicate timestamps collapsed
// to their last occurrence.
type Source interface {
	Fetch(ctx context.Context, symbol, timeframe string, fromTs time.Time, limit int) ([]models.Candle, error)
}

// MemorySource is an in-process Source backed by an append-only candle
// log per (symbol, timeframe), suitable for tests and for the CLI's
// synthetic/replay modes.
type MemorySource struct {
	mu      sync.RWMutex
	candles map[string][]models.Candle
}

// NewMemorySource constructs an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{candles: make(map[string][]models.Candle)}
}

func key(symbol, timeframe string) string { return symbol + ":" + timeframe }

// Append adds candles to a (symbol, timeframe) series, deduplicating by
// timestamp and preserving ascending order.
func (s *MemorySource) Append(symbol, timeframe string, candles ...models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(symbol, timeframe)
	merged := append(s.candles[k], candles...)
	s.candles[k] = models.DedupeByTimestamp(merged)
}

// Fetch implements Source.
func (s *MemorySource) Fetch(ctx context.Context, symbol, timeframe string, fromTs time.Time, limit int) ([]models.Candle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.candles[key(symbol, timeframe)]
	if len(all) == 0 {
		return nil, fmt.Errorf("candlesource: no candles for %s/%s", symbol, timeframe)
	}

	start := 0
	if !fromTs.IsZero() {
		for i, c := range all {
			if !c.Timestamp.Before(fromTs) {
				start = i
				break
			}
		}
	}

	window := all[start:]
	if limit > 0 && len(window) > limit {
		window = window[len(window)-limit:]
	}

	out := make([]models.Candle, len(window))
	copy(out, window)
	return out, nil
}

// SyntheticGenerator produces a deterministic, trend-biased candle stream
// for development and scenario testing, mirroring the teacher's mock
// market-data client idiom (a base price that drifts by a configurable
// trend plus bounded noise, rather than a real-exchange feed).
type SyntheticGenerator struct {
	Symbol     string
	Timeframe  string
	BasePrice  float64
	TrendPerBar float64
	NoiseAmplitude float64
	BaseVolume float64
}

// Generate emits `count` ascending candles starting at `start`, spaced by
// the timeframe's implied bar duration.
func (g SyntheticGenerator) Generate(start time.Time, count int, barDuration time.Duration) []models.Candle {
	out := make([]models.Candle, 0, count)
	price := g.BasePrice
	for i := 0; i < count; i++ {
		noise := g.NoiseAmplitude * pseudoNoise(i)
		open := price
		close := open + g.TrendPerBar + noise
		high := open
		if high < close {
			high = close
		}
		high += g.NoiseAmplitude * 0.5
		low := open
		if close < low {
			low = close
		}
		low -= g.NoiseAmplitude * 0.5

		out = append(out, models.Candle{
			Symbol:    g.Symbol,
			Timeframe: g.Timeframe,
			Timestamp: start.Add(time.Duration(i) * barDuration),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    int64(g.BaseVolume),
		})
		price = close
	}
	return out
}

// pseudoNoise is a small deterministic oscillation, not a real RNG —
// scenario generation must stay reproducible across runs.
func pseudoNoise(i int) float64 {
	switch i % 4 {
	case 0:
		return 0.3
	case 1:
		return -0.2
	case 2:
		return 0.1
	default:
		return -0.4
	}
}
