package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const serviceName = "adventure-engine"

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	sessions  Pinger
	generator string
	logger    *slog.Logger
}

// NewHealthHandler reports on the session store. generator names the
// active text backend and is informational only.
func NewHealthHandler(sessions Pinger, generator string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		sessions:  sessions,
		generator: generator,
		logger:    logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	if err := h.sessions.Ping(ctx); err != nil {
		h.logger.Warn("Session store health check failed", "error", err)
		components["session_store"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["session_store"] = "healthy"
	}

	// The guarded generator always answers, so it never degrades health.
	components["text_generator"] = map[string]any{
		"status":  "healthy",
		"backend": h.generator,
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    serviceName,
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
