package types

import (
	"time"

	"github.com/ridopark/jonbu-ohlcv/internal/models"
)

// SignalListResponse is the response for signal-listing endpoints.
type SignalListResponse struct {
	Count int             `json:"count"`
	Data  []models.Signal `json:"data"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Components map[string]interface{} `json:"components"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error         string    `json:"error"`
	Message       string    `json:"message"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
