package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/game"
	"github.com/jwebster45206/adventure-engine/internal/storage"
)

type SaveRequest struct {
	GameID string `json:"game_id"`
}

type LoadRequest struct {
	GameID string `json:"game_id,omitempty"`
}

// LoadResponse adds the status envelope to the game's load result.
type LoadResponse struct {
	Status string `json:"status"`
	game.LoadResponse
}

type ListSavesResponse struct {
	Saves []storage.SaveSummary `json:"saves"`
}

type SavesHandler struct {
	game   *game.Service
	logger *slog.Logger
}

func NewSavesHandler(svc *game.Service, logger *slog.Logger) *SavesHandler {
	return &SavesHandler{
		game:   svc,
		logger: logger,
	}
}

// ServeHTTP handles HTTP requests for saved games
// Routes:
// GET /v1/saves                 - List saves
// POST /v1/saves                - Save a running game
// POST /v1/saves/{save_id}/load - Load a save into a (new) game
func (h *SavesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/saves")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.handleList(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.handleSave(w, r)
	case len(parts) == 2 && parts[1] == "load" && r.Method == http.MethodPost:
		h.handleLoad(w, r, parts[0])
	case len(parts) == 0 || (len(parts) == 2 && parts[1] == "load"):
		h.logger.Warn("Method not allowed for saves endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", h.logger)
	default:
		writeError(w, http.StatusNotFound, "Not found", h.logger)
	}
}

func (h *SavesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	saves, err := h.game.ListSaves(r.Context())
	if err != nil {
		h.logger.Error("Failed to list saves", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list saves", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ListSavesResponse{Saves: saves}, h.logger)
}

func (h *SavesHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := decodeBody(r, &req); err != nil {
		h.statusError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		h.statusError(w, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	saveID, err := h.game.Save(r.Context(), gameID)
	if err != nil {
		h.fail(w, err, "save game")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success", SaveID: saveID}, h.logger)
}

func (h *SavesHandler) handleLoad(w http.ResponseWriter, r *http.Request, saveID string) {
	var req LoadRequest
	if err := decodeBody(r, &req); err != nil {
		h.statusError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	gameID := uuid.Nil
	if req.GameID != "" {
		parsed, err := uuid.Parse(req.GameID)
		if err != nil {
			h.statusError(w, http.StatusBadRequest, "Invalid game ID format")
			return
		}
		gameID = parsed
	}

	resp, err := h.game.Load(r.Context(), saveID, gameID)
	if err != nil {
		h.fail(w, err, "load game")
		return
	}
	writeJSON(w, http.StatusOK, LoadResponse{Status: "success", LoadResponse: resp}, h.logger)
}

func (h *SavesHandler) fail(w http.ResponseWriter, err error, op string) {
	status, message := gameErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Failed to "+op, "error", err)
	} else {
		h.logger.Info("Save request rejected", "op", op, "error", err)
	}
	h.statusError(w, status, message)
}

func (h *SavesHandler) statusError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, StatusResponse{Status: "error", Message: message}, h.logger)
}
