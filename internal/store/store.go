// Package store defines the SignalStore boundary (§6): an opaque signal
// store with idempotent insert and query. This package also provides an
// in-memory implementation for tests and the CLI's standalone subcommands;
// internal/store/postgres provides a concrete Postgres-backed adapter.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// TerminalUpdate carries the fields the tracker (C6) writes when it
// advances a signal to a terminal state. Status transitions are
// irreversible (§3 Lifecycle); SignalStore implementations must enforce
// per-signal linearizability on these writes (§5).
type TerminalUpdate struct {
	Status      models.Status
	Performance models.Performance
}

// SignalStore is the persistence boundary the core consumes (§6).
// UpsertSignal is idempotent on (symbol, timeframe, timestamp): a second
// call with the same key is a no-op (§8 round-trip property).
type SignalStore interface {
	UpsertSignal(ctx context.Context, signal models.Signal) error
	FindActive(ctx context.Context) ([]models.Signal, error)
	FindActiveBySlot(ctx context.Context, symbol, timeframe string) (*models.Signal, error)
	UpdateStatus(ctx context.Context, id string, update TerminalUpdate) error
}

func upsertKey(s models.Signal) string {
	return fmt.Sprintf("%s:%s:%d", s.Symbol, s.Timeframe, s.Timestamp.UnixNano())
}

// MemoryStore is an in-process SignalStore: append-only by upsert key,
// status transitions applied in place under a single mutex so every
// transition is linearizable (§5).
type MemoryStore struct {
	mu          sync.Mutex
	byID        map[string]*models.Signal
	byUpsertKey map[string]string // upsertKey -> id, for idempotent upsert
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[string]*models.Signal),
		byUpsertKey: make(map[string]string),
	}
}

// UpsertSignal implements SignalStore. A second upsert with the same
// (symbol, timeframe, timestamp) key is a no-op, matching §8's idempotence
// property exactly: the first write wins.
func (s *MemoryStore) UpsertSignal(_ context.Context, signal models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := upsertKey(signal)
	if _, exists := s.byUpsertKey[key]; exists {
		return nil
	}

	copySignal := signal
	s.byID[signal.ID] = &copySignal
	s.byUpsertKey[key] = signal.ID
	return nil
}

// FindActive implements SignalStore, returning every ACTIVE signal in a
// stable order (by symbol, then timeframe, then timestamp) so callers get
// deterministic iteration order across ticks.
func (s *MemoryStore) FindActive(_ context.Context) ([]models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Signal, 0)
	for _, sig := range s.byID {
		if sig.Status == models.StatusActive {
			out = append(out, *sig)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		if out[i].Timeframe != out[j].Timeframe {
			return out[i].Timeframe < out[j].Timeframe
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// All returns every signal regardless of status, in stable order; used by
// the CLI's inspection subcommands, not part of the SignalStore interface
// since the core itself never needs an unfiltered dump.
func (s *MemoryStore) All() []models.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Signal, 0, len(s.byID))
	for _, sig := range s.byID {
		out = append(out, *sig)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		if out[i].Timeframe != out[j].Timeframe {
			return out[i].Timeframe < out[j].Timeframe
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// FindActiveBySlot returns the most recent ACTIVE signal for a (symbol,
// timeframe) slot, used by the generator's dedup rule (§4.5/§6
// refreshIntervalSeconds), or nil if none.
func (s *MemoryStore) FindActiveBySlot(_ context.Context, symbol, timeframe string) (*models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Signal
	for _, sig := range s.byID {
		if sig.Status != models.StatusActive || sig.Symbol != symbol || sig.Timeframe != timeframe {
			continue
		}
		if latest == nil || sig.Timestamp.After(latest.Timestamp) {
			cp := *sig
			latest = &cp
		}
	}
	return latest, nil
}

// UpdateStatus implements SignalStore: applies a terminal transition.
// Lifecycle never reverses (§3); a second call on an already-terminal
// signal is rejected rather than silently overwriting history.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, update TerminalUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("store: signal %s not found", id)
	}
	if sig.Status.IsTerminal() {
		return fmt.Errorf("store: signal %s is already terminal (%s)", id, sig.Status)
	}

	sig.Status = update.Status
	sig.Performance = update.Performance
	return nil
}
