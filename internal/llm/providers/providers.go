// Package providers wires every supported backend into an llm.Chain.
package providers

import (
	"net/http"

	"facturaia/internal/config"
	"facturaia/internal/llm"
	"facturaia/internal/llm/anthropic"
	"facturaia/internal/llm/gemini"
	"facturaia/internal/llm/minimax"
	"facturaia/internal/llm/ollama"
	"facturaia/internal/llm/openaicompat"
)

var openRouterHeaders = map[string]string{
	"HTTP-Referer": "https://facturaia.app",
	"X-Title":      "FacturaIA",
}

// Factories returns a factory for every known provider name.
func Factories() map[string]llm.Factory {
	return map[string]llm.Factory{
		"groq":       openaicompat.Factory("groq", nil),
		"openrouter": openaicompat.Factory("openrouter", openRouterHeaders),
		"openai":     openaicompat.Factory("openai", nil),
		"gemini":     gemini.Factory,
		"minimax":    minimax.Factory,
		"ollama":     ollama.Factory,
		"anthropic":  anthropic.Factory,
	}
}

// NewChain builds a chain over every known provider.
func NewChain(cfg config.LLMConfig) (*llm.Chain, error) {
	return llm.NewChain(cfg, Factories(), &http.Client{})
}
