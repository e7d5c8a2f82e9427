package minimax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"facturaia/internal/config"
	"facturaia/internal/llm"
)

const defaultEndpoint = "https://api.minimax.io/v1/text/chatcompletion_v2"

// Provider implements llm.Provider against the MiniMax chatcompletion_v2 API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New creates a MiniMax provider. BaseURL is the full endpoint URL.
func New(cfg config.ProviderConfig, client *http.Client) *Provider {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
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

func (p *Provider) Name() string     { return "minimax" }
func (p *Provider) Model() string    { return p.model }
func (p *Provider) Configured() bool { return p.apiKey != "" }

type message struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

// MiniMax reports throttling in base_resp rather than with HTTP 429.
const statusRateLimited = 1002

func (p *Provider) Chat(ctx context.Context, req llm.Request) (string, error) {
	var messages []message
	if req.System != "" {
		messages = append(messages, message{Role: "system", Name: "MM Intelligent Assistant", Content: req.System})
	}
	messages = append(messages, message{Role: "user", Name: "User", Content: req.Prompt})

	bodyBytes, err := json.Marshal(chatRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling minimax API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("minimax API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", llm.NewRateLimitError("minimax", baseErr, llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
		}
		return "", baseErr
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(out.Choices) > 0 {
		return out.Choices[0].Message.Content, nil
	}
	if out.BaseResp.StatusCode != 0 || out.BaseResp.StatusMsg != "" {
		baseErr := fmt.Errorf("minimax error %d: %s", out.BaseResp.StatusCode, out.BaseResp.StatusMsg)
		if out.BaseResp.StatusCode == statusRateLimited {
			return "", llm.NewRateLimitError("minimax", baseErr, 0)
		}
		return "", baseErr
	}
	return "", fmt.Errorf("empty response from API: no choices")
}
