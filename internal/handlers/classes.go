package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/internal/game"
)

type ClassesResponse struct {
	Classes []game.ClassSummary `json:"classes"`
}

type ClassesHandler struct {
	game   *game.Service
	logger *slog.Logger
}

func NewClassesHandler(svc *game.Service, logger *slog.Logger) *ClassesHandler {
	return &ClassesHandler{
		game:   svc,
		logger: logger,
	}
}

// ServeHTTP lists the playable classes.
// GET /v1/classes
func (h *ClassesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ClassesResponse{Classes: h.game.Classes()}, h.logger)
}
