package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	huggingFaceBaseURL      = "https://api-inference.huggingface.co/models"
	DefaultHuggingFaceModel = "gpt2"
)

// HuggingFaceService generates text with the Hugging Face inference API
type HuggingFaceService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

func NewHuggingFaceService(apiKey string, modelName string, logger *slog.Logger) *HuggingFaceService {
	if modelName == "" {
		modelName = DefaultHuggingFaceModel
	}
	return &HuggingFaceService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   huggingFaceBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (h *HuggingFaceService) Name() string {
	return "huggingface"
}

// Complete posts the prompt to the model endpoint and returns the generated
// text with the echoed prompt removed.
func (h *HuggingFaceService) Complete(ctx context.Context, prompt string, maxLength int) (string, error) {
	reqBody, err := json.Marshal(huggingFaceRequest{
		Inputs: prompt,
		Parameters: huggingFaceParameters{
			MaxLength:   maxLength,
			Temperature: 0.7,
			TopP:        0.9,
			TopK:        40,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := h.baseURL + "/" + h.modelName
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		h.logger.Error("Hugging Face API returned error",
			"status_code", resp.StatusCode,
			"model", h.modelName,
			"response_body", string(body))
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	generated, err := parseHuggingFaceResponse(body)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(strings.TrimPrefix(generated, prompt))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// parseHuggingFaceResponse accepts both the list and the object shapes
// returned by different model types.
func parseHuggingFaceResponse(body []byte) (string, error) {
	type generation struct {
		GeneratedText *string `json:"generated_text"`
	}

	var list []generation
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 || list[0].GeneratedText == nil {
			return "", fmt.Errorf("no generated_text in response: %s", string(body))
		}
		return *list[0].GeneratedText, nil
	}

	var single generation
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if single.GeneratedText == nil {
		return "", fmt.Errorf("no generated_text in response: %s", string(body))
	}
	return *single.GeneratedText, nil
}
