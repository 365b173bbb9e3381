package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider generates text through the OpenAI chat API.
type OpenAIProvider struct {
	llm *openai.LLM
}

// NewOpenAIProvider builds the provider. model falls back to a small default
// when empty.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if model == "" {
		model = defaultOpenAIModel
	}
	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAIProvider{llm: llm}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return completion, nil
}
