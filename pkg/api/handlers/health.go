package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ridopark/jonbu-ohlcv/internal/logger"
	"github.com/ridopark/jonbu-ohlcv/internal/store"
	"github.com/ridopark/jonbu-ohlcv/pkg/api/types"
)

// HealthHandler exposes liveness/readiness over the SignalStore boundary
// instead of a raw *sql.DB — the presentation layer never sees a driver.
type HealthHandler struct {
	signals store.SignalStore
	logger  zerolog.Logger
	version string
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(signals store.SignalStore, version string) *HealthHandler {
	return &HealthHandler{
		signals: signals,
		logger:  logger.NewContextLogger("health_handler"),
		version: version,
	}
}

// GetHealth handles GET /health.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	correlationID := uuid.New().String()
	reqLogger := logger.NewRequestLogger(correlationID, r.Method, r.URL.Path)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	storeStatus := "reachable"
	if _, err := h.signals.FindActive(ctx); err != nil {
		status = "unhealthy"
		storeStatus = "unreachable"
		reqLogger.Error().Err(err).Msg("signal store health check failed")
	}

	response := &types.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Components: map[string]interface{}{
			"signal_store": storeStatus,
		},
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Correlation-ID", correlationID)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		reqLogger.Error().Err(err).Msg("failed to encode health response")
	}
}
