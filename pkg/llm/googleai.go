package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const defaultGoogleModel = "gemini-1.5-flash"

// GoogleProvider generates text through the Gemini API.
type GoogleProvider struct {
	llm *googleai.GoogleAI
}

// NewGoogleProvider builds the provider. model falls back to a fast default
// when empty.
func NewGoogleProvider(ctx context.Context, apiKey, model string) (*GoogleProvider, error) {
	if model == "" {
		model = defaultGoogleModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create googleai client: %w", err)
	}
	return &GoogleProvider{llm: llm}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("googleai completion: %w", err)
	}
	return completion, nil
}
