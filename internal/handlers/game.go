package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/game"
	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

type StartGameRequest struct {
	PlayerName     string `json:"player_name"`
	CharacterClass string `json:"character_class"`
}

type ActionRequest struct {
	Action string `json:"action"`
}

// GameStateResponse is the stored state plus catalog details for the
// items the player carries.
type GameStateResponse struct {
	GameID       uuid.UUID               `json:"game_id"`
	State        *state.PlayerState      `json:"state"`
	LocationName string                  `json:"location_name"`
	Items        map[string]content.Item `json:"items"`
}

type GameHandler struct {
	game   *game.Service
	logger *slog.Logger
}

func NewGameHandler(svc *game.Service, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		game:   svc,
		logger: logger,
	}
}

// ServeHTTP handles HTTP requests for game operations
// Routes:
// POST /v1/game                  - Start a new game
// GET /v1/game/{id}              - Read the player state
// DELETE /v1/game/{id}           - End the game
// POST /v1/game/{id}/action      - Play an action
// POST /v1/game/{id}/potion      - Drink a health potion
// GET /v1/game/{id}/character    - Character sheet
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/game")

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST", h.logger)
			return
		}
		h.handleStart(w, r)
		return
	}

	gameID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", parts[0], "error", err)
		writeError(w, http.StatusBadRequest, "Invalid game ID format", h.logger)
		return
	}

	var sub string
	switch len(parts) {
	case 1:
	case 2:
		sub = parts[1]
	default:
		writeError(w, http.StatusNotFound, "Not found", h.logger)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, gameID)
	case sub == "" && r.Method == http.MethodDelete:
		h.handleEnd(w, r, gameID)
	case sub == "action" && r.Method == http.MethodPost:
		h.handleAction(w, r, gameID)
	case sub == "potion" && r.Method == http.MethodPost:
		h.handlePotion(w, r, gameID)
	case sub == "character" && r.Method == http.MethodGet:
		h.handleCharacter(w, r, gameID)
	case sub == "" || sub == "action" || sub == "potion" || sub == "character":
		h.logger.Warn("Method not allowed for game endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", h.logger)
	default:
		writeError(w, http.StatusNotFound, "Not found", h.logger)
	}
}

func (h *GameHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid start game request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body", h.logger)
		return
	}

	resp, err := h.game.StartGame(r.Context(), req.PlayerName, req.CharacterClass)
	if err != nil {
		h.fail(w, err, "start game")
		return
	}
	writeJSON(w, http.StatusCreated, resp, h.logger)
}

func (h *GameHandler) handleRead(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	ps, err := h.game.State(r.Context(), gameID)
	if err != nil {
		h.fail(w, err, "read game")
		return
	}

	tables := h.game.Tables()
	items := make(map[string]content.Item)
	for _, name := range ps.Inventory {
		if item, ok := tables.Items[name]; ok {
			items[name] = item
		}
	}

	writeJSON(w, http.StatusOK, GameStateResponse{
		GameID:       gameID,
		State:        ps,
		LocationName: tables.DescribeLocation(ps.Location),
		Items:        items,
	}, h.logger)
}

func (h *GameHandler) handleEnd(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	if err := h.game.End(r.Context(), gameID); err != nil {
		h.fail(w, err, "end game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) handleAction(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var req ActionRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid action request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body", h.logger)
		return
	}

	resp, err := h.game.Act(r.Context(), gameID, req.Action)
	if err != nil {
		h.fail(w, err, "process action")
		return
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

func (h *GameHandler) handlePotion(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	resp, err := h.game.UsePotion(r.Context(), gameID)
	if err != nil {
		h.fail(w, err, "use potion")
		return
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

func (h *GameHandler) handleCharacter(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, err := h.game.Character(r.Context(), gameID)
	if err != nil {
		h.fail(w, err, "build character sheet")
		return
	}
	writeJSON(w, http.StatusOK, c, h.logger)
}

func (h *GameHandler) fail(w http.ResponseWriter, err error, op string) {
	status, message := gameErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Failed to "+op, "error", err)
	} else {
		h.logger.Debug("Rejected game request", "op", op, "error", err)
	}
	writeError(w, status, message, h.logger)
}
