package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiService generates text with Google Gemini
type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

func NewGeminiService(ctx context.Context, apiKey string, modelName string, logger *slog.Logger, opts ...option.ClientOption) (*GeminiService, error) {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (g *GeminiService) Name() string {
	return "gemini"
}

func (g *GeminiService) Close() error {
	return g.client.Close()
}

func (g *GeminiService) Complete(ctx context.Context, prompt string, maxLength int) (string, error) {
	// GenerativeModel settings are per value; build one per call.
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(int32(maxLength))
	model.SystemInstruction = genai.NewUserContent(genai.Text(narratorSystemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini: %w", ErrEmptyCompletion)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
