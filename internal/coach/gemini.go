package coach

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// GeminiAdvisor asks a Gemini model for coaching JSON.
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

// NewGeminiAdvisor creates a Gemini API client for apiKey.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, errors.New("NewGeminiAdvisor: API key is required")
	}
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiAdvisor: create genai client: %w", err)
	}

	return &GeminiAdvisor{client: client, model: model}, nil
}

// Advise sends prompt and returns the model's text.
func (g *GeminiAdvisor) Advise(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GeminiAdvisor.Advise: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("GeminiAdvisor.Advise: empty response from model")
	}
	return text, nil
}

// Model returns the configured model name.
func (g *GeminiAdvisor) Model() string {
	return g.model
}

var _ Advisor = (*GeminiAdvisor)(nil)
