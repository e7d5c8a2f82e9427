package anthropic

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

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Provider implements llm.Provider using the Anthropic Messages API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New creates an Anthropic provider. BaseURL overrides the messages endpoint.
func New(cfg config.ProviderConfig, client *http.Client) *Provider {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = apiURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{apiKey: cfg.APIKey, model: cfg.Model, endpoint: endpoint, client: client}
}

// Factory adapts New to llm.Factory.
func Factory(cfg config.ProviderConfig, client *http.Client) llm.Provider {
	return New(cfg, client)
}

func (p *Provider) Name() string     { return "anthropic" }
func (p *Provider) Model() string    { return p.model }
func (p *Provider) Configured() bool { return p.apiKey != "" }

func (p *Provider) Chat(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	reqBody := map[string]interface{}{
		"model":      p.model,
		"max_tokens": maxTokens,
		"messages": []map[string]interface{}{
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.System != "" {
		reqBody["system"] = req.System
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError("anthropic", baseErr, retryAfter)
		}
		return "", baseErr
	}

	return parseResponse(respBody)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
