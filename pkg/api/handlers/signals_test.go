package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/pkg/api/types"
)

func newActiveSignal(symbol, timeframe string) models.Signal {
	now := time.Now()
	return models.Signal{
		ID:        symbol + "-" + timeframe,
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: now,
		Action:    models.ActionBuy,
		Status:    models.StatusActive,
		Levels:    models.Levels{Entry: 100, StopLoss: 98, Target1: 103, Target2: 106, Target3: 109},
	}
}

func TestGetActiveSignals_ListsAllWithNoFilter(t *testing.T) {
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), newActiveSignal("NIFTY50", "5m"))
	_ = signals.UpsertSignal(context.Background(), newActiveSignal("BANKNIFTY", "15m"))

	h := NewSignalsHandler(signals)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/active", nil)
	rec := httptest.NewRecorder()

	h.GetActiveSignals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp types.SignalListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("expected 2 active signals, got %d", resp.Count)
	}
}

func TestGetActiveSignals_FiltersBySymbolQueryParam(t *testing.T) {
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), newActiveSignal("NIFTY50", "5m"))
	_ = signals.UpsertSignal(context.Background(), newActiveSignal("BANKNIFTY", "15m"))

	h := NewSignalsHandler(signals)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/active?symbol=NIFTY50", nil)
	rec := httptest.NewRecorder()

	h.GetActiveSignals(rec, req)

	var resp types.SignalListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Data[0].Symbol != "NIFTY50" {
		t.Errorf("expected exactly the NIFTY50 signal, got %+v", resp.Data)
	}
}

func TestGetActiveSignals_StoreErrorReturns500(t *testing.T) {
	h := NewSignalsHandler(failingStore{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/active", nil)
	rec := httptest.NewRecorder()

	h.GetActiveSignals(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", rec.Code)
	}
}

func TestGetSignalBySlot_ReturnsSignalWhenPresent(t *testing.T) {
	signals := store.NewMemoryStore()
	_ = signals.UpsertSignal(context.Background(), newActiveSignal("NIFTY50", "5m"))

	h := NewSignalsHandler(signals)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/NIFTY50/5m", nil)
	rec := httptest.NewRecorder()

	h.GetSignalBySlot(rec, req, "NIFTY50", "5m")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sig models.Signal
	if err := json.Unmarshal(rec.Body.Bytes(), &sig); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if sig.Symbol != "NIFTY50" {
		t.Errorf("expected NIFTY50 signal, got %+v", sig)
	}
}

func TestGetSignalBySlot_ReturnsNotFoundWhenAbsent(t *testing.T) {
	h := NewSignalsHandler(store.NewMemoryStore())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/NIFTY50/5m", nil)
	rec := httptest.NewRecorder()

	h.GetSignalBySlot(rec, req, "NIFTY50", "5m")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an absent slot, got %d", rec.Code)
	}
}

func TestFilterSignals_EmptyFiltersReturnAllUnchanged(t *testing.T) {
	all := []models.Signal{newActiveSignal("NIFTY50", "5m"), newActiveSignal("BANKNIFTY", "15m")}
	out := filterSignals(all, "", "")
	if len(out) != 2 {
		t.Errorf("expected all signals returned when both filters are empty, got %d", len(out))
	}
}

func TestFilterSignals_TimeframeFilterNarrowsResults(t *testing.T) {
	all := []models.Signal{newActiveSignal("NIFTY50", "5m"), newActiveSignal("NIFTY50", "15m")}
	out := filterSignals(all, "", "15m")
	if len(out) != 1 || out[0].Timeframe != "15m" {
		t.Errorf("expected only the 15m signal, got %+v", out)
	}
}
