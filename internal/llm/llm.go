// Package llm wraps the language model behind a single-prompt completion
// interface, used for both hypothesis generation and answer synthesis.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docchat/internal/config"
)

// Generator produces a completion for a single prompt. Stateless across
// calls.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	model llms.Model
}

func New(cfg *config.LLMConfig) (*Client, error) {
	switch cfg.Provider {
	case "ollama", "":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama model: %w", err)
		}
		return &Client{model: model}, nil
	case "openai":
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("missing API key for openai model (set key or %s)", cfg.KeyEnv)
		}
		model, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing openai model: %w", err)
		}
		return &Client{model: model}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
}
