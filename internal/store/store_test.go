package store

import (
	"context"
	"testing"
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

func sampleSignal(id string, ts time.Time) models.Signal {
	return models.Signal{
		ID: id, Symbol: "NIFTY50", Timeframe: "5m", Timestamp: ts,
		Action: models.ActionBuy, Status: models.StatusActive,
		Performance: models.Performance{Outcome: models.OutcomePending, TargetHit: models.TargetHitNone},
	}
}

func TestUpsertSignal_IdempotentOnSameKey(t *testing.T) {
	s := NewMemoryStore()
	ts := time.Now()

	first := sampleSignal("id-1", ts)
	second := sampleSignal("id-2", ts) // same symbol/timeframe/timestamp, different ID

	if err := s.UpsertSignal(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UpsertSignal(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := s.FindActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected idempotent upsert to keep only the first write, got %d signals", len(active))
	}
	if active[0].ID != "id-1" {
		t.Errorf("expected first write to win, got ID %q", active[0].ID)
	}
}

func TestFindActive_ExcludesTerminalSignals(t *testing.T) {
	s := NewMemoryStore()
	ts := time.Now()
	sig := sampleSignal("id-3", ts)
	_ = s.UpsertSignal(context.Background(), sig)
	_ = s.UpdateStatus(context.Background(), "id-3", TerminalUpdate{Status: models.StatusHitTarget})

	active, _ := s.FindActive(context.Background())
	if len(active) != 0 {
		t.Errorf("expected terminal signal excluded from FindActive, got %d", len(active))
	}
}

func TestFindActiveBySlot_ReturnsMostRecent(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	older := sampleSignal("older", now.Add(-time.Hour))
	newer := sampleSignal("newer", now)
	_ = s.UpsertSignal(context.Background(), older)
	_ = s.UpsertSignal(context.Background(), newer)

	got, err := s.FindActiveBySlot(context.Background(), "NIFTY50", "5m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "newer" {
		t.Errorf("expected most recent active signal, got %+v", got)
	}
}

func TestFindActiveBySlot_NoneReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.FindActiveBySlot(context.Background(), "NIFTY50", "5m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for an empty store, got %+v", got)
	}
}

func TestUpdateStatus_RejectsAlreadyTerminalSignal(t *testing.T) {
	s := NewMemoryStore()
	sig := sampleSignal("id-4", time.Now())
	_ = s.UpsertSignal(context.Background(), sig)

	if err := s.UpdateStatus(context.Background(), "id-4", TerminalUpdate{Status: models.StatusHitTarget}); err != nil {
		t.Fatalf("first terminal transition should succeed: %v", err)
	}
	if err := s.UpdateStatus(context.Background(), "id-4", TerminalUpdate{Status: models.StatusExpired}); err == nil {
		t.Error("expected rejection of a second terminal transition on an already-terminal signal")
	}
}

func TestUpdateStatus_UnknownIDReturnsError(t *testing.T) {
	s := NewMemoryStore()
	if err := s.UpdateStatus(context.Background(), "nonexistent", TerminalUpdate{Status: models.StatusExpired}); err == nil {
		t.Error("expected error for an unknown signal ID")
	}
}

func TestAll_IncludesTerminalAndActiveSignals(t *testing.T) {
	s := NewMemoryStore()
	active := sampleSignal("active-1", time.Now())
	terminal := sampleSignal("terminal-1", time.Now().Add(time.Minute))
	_ = s.UpsertSignal(context.Background(), active)
	_ = s.UpsertSignal(context.Background(), terminal)
	_ = s.UpdateStatus(context.Background(), "terminal-1", TerminalUpdate{Status: models.StatusExpired})

	all := s.All()
	if len(all) != 2 {
		t.Errorf("expected All() to include both active and terminal signals, got %d", len(all))
	}
}
