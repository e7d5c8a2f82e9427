package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"facturaia/internal/config"
	"facturaia/internal/llm"
)

// Provider implements llm.Provider against a local Ollama server. It needs no
// key; a base URL is its only credential.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

// New creates an Ollama provider.
func New(cfg config.ProviderConfig, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{baseURL: strings.TrimRight(cfg.BaseURL, "/"), model: cfg.Model, client: client}
}

// Factory adapts New to llm.Factory.
func Factory(cfg config.ProviderConfig, client *http.Client) llm.Provider {
	return New(cfg, client)
}

func (p *Provider) Name() string     { return "ollama" }
func (p *Provider) Model() string    { return p.model }
func (p *Provider) Configured() bool { return p.baseURL != "" }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (p *Provider) Chat(ctx context.Context, req llm.Request) (string, error) {
	body := generateRequest{Model: p.model, Prompt: llm.Flatten(req)}
	if req.MaxTokens > 0 {
		body.Options = map[string]any{"num_predict": req.MaxTokens}
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, out.Error)
	}
	return out.Response, nil
}
