package gemini

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

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Provider implements llm.Provider using Google's Gemini REST API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New creates a Gemini provider.
func New(cfg config.ProviderConfig, client *http.Client) *Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: fmt.Sprintf("%s/%s:generateContent", base, cfg.Model),
		client:   client,
	}
}

// Factory adapts New to llm.Factory.
func Factory(cfg config.ProviderConfig, client *http.Client) llm.Provider {
	return New(cfg, client)
}

func (p *Provider) Name() string     { return "gemini" }
func (p *Provider) Model() string    { return p.model }
func (p *Provider) Configured() bool { return p.apiKey != "" }

func (p *Provider) Chat(ctx context.Context, req llm.Request) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]interface{}{{"text": req.Prompt}},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     req.Temperature,
			"maxOutputTokens": req.MaxTokens,
		},
	}
	if req.System != "" {
		reqBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{{"text": req.System}},
		}
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
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 300))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError("gemini", baseErr, retryAfter)
		}
		return "", baseErr
	}

	return parseResponse(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from API: no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
