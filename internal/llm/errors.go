package llm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"facturaia/internal/domain"
)

// DefaultCooldown is how long a rate-limited provider is skipped when the
// response carried no Retry-After header.
const DefaultCooldown = 30 * time.Second

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. A non-positive retryAfterSecs
// falls back to DefaultCooldown.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	retryAfter := DefaultCooldown
	if retryAfterSecs > 0 {
		retryAfter = time.Duration(retryAfterSecs) * time.Second
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: retryAfter,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// HTTP-date values and garbage yield 0.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

// Attempt records one failed provider call.
type Attempt struct {
	Provider string
	Err      error
}

// ChainError is returned when no provider produced a response.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return "llm: no provider configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return "llm: all providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes domain.ErrLLMUnavailable and every attempt error to errors.Is/As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts)+1)
	errs = append(errs, domain.ErrLLMUnavailable)
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Providers lists the names of the attempted providers in call order.
func (e *ChainError) Providers() []string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Provider)
	}
	return names
}
