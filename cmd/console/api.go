package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/game"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
)

// APIClient talks to the adventure engine HTTP API.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

func (c *APIClient) Ping() bool {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (c *APIClient) Classes() ([]game.ClassSummary, error) {
	var resp handlers.ClassesResponse
	if err := c.do(http.MethodGet, "/v1/classes", nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return resp.Classes, nil
}

func (c *APIClient) StartGame(name, class string) (*game.TurnResponse, error) {
	req := handlers.StartGameRequest{PlayerName: name, CharacterClass: class}
	var resp game.TurnResponse
	if err := c.do(http.MethodPost, "/v1/game", req, http.StatusCreated, &resp); err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}
	return &resp, nil
}

func (c *APIClient) Act(gameID uuid.UUID, action string) (*game.TurnResponse, error) {
	req := handlers.ActionRequest{Action: action}
	var resp game.TurnResponse
	if err := c.do(http.MethodPost, "/v1/game/"+gameID.String()+"/action", req, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("action failed: %w", err)
	}
	return &resp, nil
}

func (c *APIClient) UsePotion(gameID uuid.UUID) (*game.TurnResponse, error) {
	var resp game.TurnResponse
	if err := c.do(http.MethodPost, "/v1/game/"+gameID.String()+"/potion", nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to use potion: %w", err)
	}
	return &resp, nil
}

func (c *APIClient) GameState(gameID uuid.UUID) (*handlers.GameStateResponse, error) {
	var resp handlers.GameStateResponse
	if err := c.do(http.MethodGet, "/v1/game/"+gameID.String(), nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}
	return &resp, nil
}

func (c *APIClient) Save(gameID uuid.UUID) (string, error) {
	req := handlers.SaveRequest{GameID: gameID.String()}
	var resp handlers.StatusResponse
	if err := c.do(http.MethodPost, "/v1/saves", req, http.StatusOK, &resp); err != nil {
		return "", fmt.Errorf("failed to save game: %w", err)
	}
	return resp.SaveID, nil
}

func (c *APIClient) Load(saveID string, gameID uuid.UUID) (*handlers.LoadResponse, error) {
	var req handlers.LoadRequest
	if gameID != uuid.Nil {
		req.GameID = gameID.String()
	}
	var resp handlers.LoadResponse
	if err := c.do(http.MethodPost, "/v1/saves/"+saveID+"/load", req, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", saveID, err)
	}
	return &resp, nil
}

func (c *APIClient) Saves() (*handlers.ListSavesResponse, error) {
	var resp handlers.ListSavesResponse
	if err := c.do(http.MethodGet, "/v1/saves", nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return &resp, nil
}

// do sends body as JSON and decodes a response with the wanted status into
// out. Other statuses are turned into an error carrying the API's message.
func (c *APIClient) do(method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		return apiError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// apiError reads either error envelope the API uses.
func apiError(status int, body []byte) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return errors.New(envelope.Error)
		}
		if envelope.Message != "" {
			return errors.New(envelope.Message)
		}
	}
	return fmt.Errorf("API returned status %d: %s", status, strings.TrimSpace(string(body)))
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string
	Data map[string]any
}

// Listen streams the game's events into eventChan until ctx is cancelled or
// the server closes the stream.
func (c *APIClient) Listen(ctx context.Context, gameID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/game/%s", c.baseURL, gameID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The stream outlives the client's request timeout.
	stream := &http.Client{Transport: c.http.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	return readSSE(ctx, resp.Body, eventChan)
}

func readSSE(ctx context.Context, r io.Reader, eventChan chan<- SSEEvent) error {
	scanner := bufio.NewScanner(r)
	var current SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = SSEEvent{}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				current.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return ctx.Err()
}
