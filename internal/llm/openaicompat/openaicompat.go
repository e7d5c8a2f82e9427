// Package openaicompat talks to any backend that speaks the OpenAI chat
// completions protocol: OpenAI itself, Groq and OpenRouter.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"facturaia/internal/config"
	"facturaia/internal/llm"
)

// Provider implements llm.Provider on top of go-openai.
type Provider struct {
	name   string
	model  string
	apiKey string
	client *openai.Client
}

// New creates a provider named name. Extra headers are attached to every
// request.
func New(name string, cfg config.ProviderConfig, httpClient *http.Client, headers map[string]string) *Provider {
	occ := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		occ.BaseURL = cfg.BaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if len(headers) > 0 {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		clone := *httpClient
		clone.Transport = &headerTransport{base: base, headers: headers}
		httpClient = &clone
	}
	occ.HTTPClient = httpClient

	return &Provider{
		name:   name,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		client: openai.NewClientWithConfig(occ),
	}
}

// Factory returns an llm.Factory for name.
func Factory(name string, headers map[string]string) llm.Factory {
	return func(cfg config.ProviderConfig, client *http.Client) llm.Provider {
		return New(name, cfg, client, headers)
	}
}

func (p *Provider) Name() string     { return p.name }
func (p *Provider) Model() string    { return p.model }
func (p *Provider) Configured() bool { return p.apiKey != "" }

func (p *Provider) Chat(ctx context.Context, req llm.Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	wrapped := fmt.Errorf("%s API error: %w", p.name, err)
	if status == http.StatusTooManyRequests {
		return llm.NewRateLimitError(p.name, wrapped, 0)
	}
	return wrapped
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
