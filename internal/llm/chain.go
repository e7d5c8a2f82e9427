package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/logger"
	"facturaia/internal/port"
)

const (
	defaultTimeout = 30 * time.Second
	statusTimeout  = 3 * time.Second
)

var (
	errEmptyResponse = errors.New("empty response")
	errNotConfigured = errors.New("not configured")
)

// circuitState tracks rate-limit backoff for a single provider credential.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// member is a provider bound to the settings it was built from.
type member struct {
	provider Provider
	timeout  time.Duration
	circuit  string
}

// Chain tries providers in order until one returns text. It implements
// port.LLMClient.
type Chain struct {
	cfg       config.LLMConfig
	factories map[string]Factory
	client    *http.Client
	base      []member
	log       zerolog.Logger

	mu       sync.Mutex
	circuits map[string]*circuitState
}

// NewChain builds the default provider set from cfg. Every name in cfg.Order
// must have a factory.
func NewChain(cfg config.LLMConfig, factories map[string]Factory, client *http.Client) (*Chain, error) {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Chain{
		cfg:       cfg,
		factories: factories,
		client:    client,
		log:       logger.WithComponent("llm"),
		circuits:  make(map[string]*circuitState),
	}
	base, err := c.build(cfg, cfg.Order)
	if err != nil {
		return nil, err
	}
	c.base = base
	return c, nil
}

func (c *Chain) build(cfg config.LLMConfig, names []string) ([]member, error) {
	members := make([]member, 0, len(names))
	for _, name := range names {
		f, ok := c.factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
		}
		pc := cfg.Provider(name)
		members = append(members, member{
			provider: f(pc, c.client),
			timeout:  pc.Timeout(cfg.Timeout),
			circuit:  name + "|" + pc.APIKey,
		})
	}
	return members, nil
}

// resolve returns the providers a call should walk. A pinned provider is
// returned alone; company keys trigger a per-call rebuild.
func (c *Chain) resolve(override *domain.AIConfig) ([]member, error) {
	if override == nil {
		return c.base, nil
	}
	cfg := c.cfg
	keys := override.Keys()
	if len(keys) > 0 {
		cfg = c.cfg.WithOverrides(keys)
	}

	if pin := strings.TrimSpace(override.SelectedProvider); pin != "" && pin != domain.ProviderAuto {
		return c.build(cfg, []string{pin})
	}
	if len(keys) == 0 {
		return c.base, nil
	}
	return c.build(cfg, cfg.Order)
}

func (c *Chain) circuit(key string) *circuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.circuits[key]
	if !ok {
		cs = &circuitState{}
		c.circuits[key] = cs
	}
	return cs
}

// Chat sends req to the first provider able to answer. Unconfigured providers
// are skipped silently; a pinned provider without credentials fails the call.
func (c *Chain) Chat(ctx context.Context, req port.ChatRequest) (*port.ChatResult, error) {
	members, err := c.resolve(req.Override)
	if err != nil {
		return nil, err
	}
	pinned := req.Override != nil && req.Override.SelectedProvider != "" &&
		req.Override.SelectedProvider != domain.ProviderAuto

	llmReq := Request{
		System:      SystemPrompt(req.Context),
		Prompt:      req.Prompt,
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.2,
	}

	var attempts []Attempt
	for _, m := range members {
		p := m.provider
		if !p.Configured() {
			if pinned {
				attempts = append(attempts, Attempt{Provider: p.Name(), Err: errNotConfigured})
			}
			continue
		}

		now := time.Now()
		cs := c.circuit(m.circuit)
		if resetAt, open := cs.isOpenWithReset(now); open {
			c.log.Debug().Str("provider", p.Name()).Time("reset_at", resetAt).Msg("skipping provider, circuit open")
			attempts = append(attempts, Attempt{
				Provider: p.Name(),
				Err:      fmt.Errorf("rate limited until %s", resetAt.Format(time.RFC3339)),
			})
			continue
		}

		text, err := c.call(ctx, m, llmReq)
		if err == nil {
			c.log.Info().Str("provider", p.Name()).Str("model", p.Model()).Msg("llm call succeeded")
			return &port.ChatResult{
				Text:     text,
				Provider: fmt.Sprintf("%s (%s)", p.Name(), p.Model()),
			}, nil
		}

		c.log.Warn().Err(err).Str("provider", p.Name()).Msg("llm provider failed")
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			cs.open(now.Add(rlErr.RetryAfter))
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &ChainError{Attempts: attempts}
}

func (c *Chain) call(ctx context.Context, m member, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	text, err := m.provider.Chat(attemptCtx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

// Status pings every provider in the resolved set concurrently.
func (c *Chain) Status(ctx context.Context, override *domain.AIConfig) []port.ProviderStatus {
	members, err := c.resolve(override)
	if err != nil {
		return []port.ProviderStatus{{Name: override.SelectedProvider, Error: err.Error()}}
	}

	out := make([]port.ProviderStatus, len(members))
	var wg sync.WaitGroup
	for i, m := range members {
		out[i] = port.ProviderStatus{
			Name:       m.provider.Name(),
			Model:      m.provider.Model(),
			Configured: m.provider.Configured(),
		}
		if !out[i].Configured {
			continue
		}
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, statusTimeout)
			defer cancel()
			if _, err := p.Chat(pingCtx, Request{Prompt: "ping", MaxTokens: 1}); err != nil {
				out[i].Error = err.Error()
				return
			}
			out[i].Available = true
		}(i, m.provider)
	}
	wg.Wait()
	return out
}
