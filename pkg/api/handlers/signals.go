package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/logger"
	"github.com/ridopark/jonbu-ohlcv/internal/models"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/pkg/api/types"
)

// SignalsHandler is a thin read-only surface over the SignalStore: list
// currently ACTIVE signals, optionally narrowed by ?symbol= / ?timeframe=,
// or look up one slot's ACTIVE signal. It never mutates anything — the generator and
// tracker loops are the only writers.
type SignalsHandler struct {
	signals store.SignalStore
	logger  zerolog.Logger
}

// NewSignalsHandler constructs a SignalsHandler.
func NewSignalsHandler(signals store.SignalStore) *SignalsHandler {
	return &SignalsHandler{
		signals: signals,
		logger:  logger.NewContextLogger("signals_handler"),
	}
}

// GetActiveSignals handles GET /api/v1/signals/active.
func (h *SignalsHandler) GetActiveSignals(w http.ResponseWriter, r *http.Request) {
	correlationID := uuid.New().String()
	reqLogger := logger.NewRequestLogger(correlationID, r.Method, r.URL.Path)

	all, err := h.signals.FindActive(r.Context())
	if err != nil {
		reqLogger.Error().Err(err).Msg("failed to list active signals")
		writeError(w, correlationID, "store_error", "failed to list active signals", http.StatusInternalServerError)
		return
	}

	filtered := filterSignals(all, r.URL.Query().Get("symbol"), r.URL.Query().Get("timeframe"))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	_ = json.NewEncoder(w).Encode(&types.SignalListResponse{Count: len(filtered), Data: filtered})
}

// GetSignalBySlot handles GET /api/v1/signals/{symbol}/{timeframe}, the
// single most-recent ACTIVE signal for that slot, or 404.
func (h *SignalsHandler) GetSignalBySlot(w http.ResponseWriter, r *http.Request, symbol, timeframe string) {
	correlationID := uuid.New().String()
	reqLogger := logger.NewRequestLogger(correlationID, r.Method, r.URL.Path)

	sig, err := h.signals.FindActiveBySlot(r.Context(), symbol, timeframe)
	if err != nil {
		reqLogger.Error().Err(err).Msg("failed to look up signal for slot")
		writeError(w, correlationID, "store_error", "failed to look up signal", http.StatusInternalServerError)
		return
	}
	if sig == nil {
		writeError(w, correlationID, "not_found", "no active signal for slot", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	_ = json.NewEncoder(w).Encode(sig)
}

func filterSignals(all []models.Signal, symbol, timeframe string) []models.Signal {
	if symbol == "" && timeframe == "" {
		return all
	}
	out := make([]models.Signal, 0, len(all))
	for _, sig := range all {
		if symbol != "" && sig.Symbol != symbol {
			continue
		}
		if timeframe != "" && sig.Timeframe != timeframe {
			continue
		}
		out = append(out, sig)
	}
	return out
}

func writeError(w http.ResponseWriter, correlationID, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&types.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	})
}
