// Package llm abstracts the text-generation providers the quiz generator
// can draw from. Providers are constructed from environment keys; any subset
// may be available at runtime.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"

	"github.com/studybot/quizcore/pkg/log"
)

// Provider generates raw text from a prompt.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ErrNoProvider means no configured provider could serve the request.
var ErrNoProvider = errors.New("no llm provider available")

// Registry holds the configured providers in preference order.
type Registry struct {
	providers []Provider
}

// NewRegistryFromEnv probes the standard API key variables and builds a
// provider for each one present. LLM_DEFAULT_PROVIDER moves the named
// provider to the front.
func NewRegistryFromEnv() *Registry {
	logger := log.ApplicationLogger()
	var providers []Provider

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		p, err := NewOpenAIProvider(key, os.Getenv("OPENAI_MODEL"))
		if err != nil {
			logger.Warn("OpenAI provider unavailable", "err", err)
		} else {
			providers = append(providers, p)
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		providers = append(providers, NewAnthropicProvider(key))
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		p, err := NewGoogleProvider(context.Background(), key, os.Getenv("GOOGLE_MODEL"))
		if err != nil {
			logger.Warn("Google provider unavailable", "err", err)
		} else {
			providers = append(providers, p)
		}
	}

	r := &Registry{providers: providers}
	if preferred := os.Getenv("LLM_DEFAULT_PROVIDER"); preferred != "" {
		r.Prefer(preferred)
	}
	logger.Info("LLM providers configured", "available", r.Available())
	return r
}

// NewRegistry builds a registry from explicit providers, in order.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Available lists the configured provider names in preference order.
func (r *Registry) Available() []string {
	return lo.Map(r.providers, func(p Provider, _ int) string { return p.Name() })
}

// Prefer moves the named provider to the front. Unknown names are ignored.
func (r *Registry) Prefer(name string) {
	idx := -1
	for i, p := range r.providers {
		if p.Name() == name {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	p := r.providers[idx]
	r.providers = append([]Provider{p}, append(r.providers[:idx:idx], r.providers[idx+1:]...)...)
}

// Resolve returns the named provider, or the first one when name is empty.
func (r *Registry) Resolve(name string) (Provider, error) {
	if len(r.providers) == 0 {
		return nil, ErrNoProvider
	}
	if name == "" {
		return r.providers[0], nil
	}
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q not configured", ErrNoProvider, name)
}

// GenerateText runs the prompt on the named provider, falling back through
// the remaining providers on failure.
func (r *Registry) GenerateText(ctx context.Context, prompt, providerName string) (string, error) {
	if len(r.providers) == 0 {
		return "", ErrNoProvider
	}

	ordered := r.providers
	if providerName != "" {
		p, err := r.Resolve(providerName)
		if err != nil {
			return "", err
		}
		ordered = append([]Provider{p}, lo.Filter(r.providers, func(q Provider, _ int) bool {
			return q.Name() != p.Name()
		})...)
	}

	var lastErr error
	for _, p := range ordered {
		text, err := p.GenerateText(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.ApplicationLogger().Warn("LLM provider failed, trying next", "provider", p.Name(), "err", err)
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}
