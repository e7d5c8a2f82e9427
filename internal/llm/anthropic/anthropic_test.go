package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturaia/internal/config"
	"facturaia/internal/llm"
	"facturaia/internal/llm/anthropic"
)

func TestProvider_Chat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, "sys", reqBody["system"])
		assert.Equal(t, float64(1024), reqBody["max_tokens"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": `{"numero":"A-1"}`}},
		})
	}))
	defer server.Close()

	p := anthropic.New(config.ProviderConfig{APIKey: "test-api-key", Model: "claude-sonnet-4-20250514", BaseURL: server.URL}, server.Client())

	text, err := p.Chat(context.Background(), llm.Request{System: "sys", Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, `{"numero":"A-1"}`, text)
}

func TestProvider_Chat_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Rate limited"}}`))
	}))
	defer server.Close()

	p := anthropic.New(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, nil)

	_, err := p.Chat(context.Background(), llm.Request{Prompt: "p"})

	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "anthropic", rlErr.Provider)
}
