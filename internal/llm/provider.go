package llm

import (
	"context"
	"net/http"

	"facturaia/internal/config"
)

// Request is a single system + user exchange.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Provider is one LLM backend. Implementations must honor ctx cancellation.
type Provider interface {
	Name() string
	Model() string
	// Configured reports whether the provider has the credentials it needs.
	Configured() bool
	Chat(ctx context.Context, req Request) (string, error)
}

// Factory builds a provider from its config block.
type Factory func(cfg config.ProviderConfig, client *http.Client) Provider

const defaultMaxTokens = 2000
