package port

import (
	"context"

	"facturaia/internal/domain"
)

// ChatRequest is one prompt for the LLM adapter. Context is wrapped into the
// system prompt. Override carries the company's provider pin and keys.
type ChatRequest struct {
	Prompt   string
	Context  string
	Override *domain.AIConfig
}

// ChatResult is the text one provider returned, tagged with that provider.
type ChatResult struct {
	Text     string
	Provider string
}

// ProviderStatus reports whether a provider is usable right now.
type ProviderStatus struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
	Available  bool   `json:"available"`
	Error      string `json:"error,omitempty"`
}

// LLMClient is prompt in, text out, or failure.
type LLMClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	Status(ctx context.Context, override *domain.AIConfig) []ProviderStatus
}

// TextExtractor turns a PDF into plain text. Empty text is not an error.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}
