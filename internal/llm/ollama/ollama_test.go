package ollama_test

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
	"facturaia/internal/llm/ollama"
)

func TestProvider_Chat_FlattensPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sys\n\nUsuario: hola", body["prompt"])
		assert.Equal(t, "llama3.2", body["model"])
		_, _ = w.Write([]byte(`{"response":"qué tal","done":true}`))
	}))
	defer server.Close()

	p := ollama.New(config.ProviderConfig{Model: "llama3.2", BaseURL: server.URL + "/"}, server.Client())

	text, err := p.Chat(context.Background(), llm.Request{System: "sys", Prompt: "hola"})

	require.NoError(t, err)
	assert.Equal(t, "qué tal", text)
	assert.True(t, p.Configured())
}

func TestProvider_Chat_ModelMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer server.Close()

	p := ollama.New(config.ProviderConfig{Model: "x", BaseURL: server.URL}, nil)

	_, err := p.Chat(context.Background(), llm.Request{Prompt: "hola"})
	assert.ErrorContains(t, err, "not found")
}

func TestProvider_ConfiguredNeedsURL(t *testing.T) {
	assert.False(t, ollama.New(config.ProviderConfig{Model: "x"}, nil).Configured())
}
