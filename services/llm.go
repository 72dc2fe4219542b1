package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// CompletionRequest is a single JSON-mode prompt. StringFields lists the required
// string properties of the object the model must return.
type CompletionRequest struct {
	System       string
	Prompt       string
	StringFields []string
}

// Completer sends a prompt to a language model and returns its raw JSON text
type Completer interface {
	CompleteJSON(ctx context.Context, req CompletionRequest) (string, error)
}

// GeminiCompleter implements Completer on the Gemini API
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiCompleter creates a Gemini-backed completer
func NewGeminiCompleter(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiCompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return newGeminiCompleter(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model, timeout)
}

func newGeminiCompleter(ctx context.Context, cc *genai.ClientConfig, model string, timeout time.Duration) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model, timeout: timeout}, nil
}

// CompleteJSON issues one generate call constrained to a JSON object schema
func (g *GeminiCompleter) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("gemini: prompt required")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}
	if len(req.StringFields) > 0 {
		cfg.ResponseSchema = stringObjectSchema(req.StringFields)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		// blocked or truncated candidates come back with no text
		return "", &ValidationError{Reason: "empty model response"}
	}
	return text, nil
}

func stringObjectSchema(fields []string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   fields,
	}
}
