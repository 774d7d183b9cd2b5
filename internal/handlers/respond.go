package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/adventure-engine/internal/game"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the save/load envelope. Status is "success" or "error".
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	SaveID  string `json:"save_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	writeJSON(w, status, ErrorResponse{Error: message}, logger)
}

// gameErrorStatus maps game service errors to HTTP status codes and
// player-facing messages.
func gameErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidSession):
		return http.StatusNotFound, "No game in progress"
	case errors.Is(err, game.ErrEmptyAction):
		return http.StatusBadRequest, "Action is required"
	case errors.Is(err, state.ErrUnknownClass):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrSessionBusy):
		return http.StatusConflict, "Another action is still being processed for this game"
	case errors.Is(err, storage.ErrSaveNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, storage.ErrSaveCorrupt):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, storage.ErrInvalidSaveID):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// pathParts splits a request path after prefix into its segments.
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// decodeBody decodes an optional JSON body. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
