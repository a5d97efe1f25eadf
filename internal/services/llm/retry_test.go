package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"429 status", errors.New("Error 429, Message: rate limited"), true},
		{"resource exhausted", errors.New("Status: RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for model"), true},
		{"auth failure", errors.New("Error 401, Message: invalid API key"), false},
		{"bad request", errors.New("Error 400, Message: invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimitError(tt.err))
		})
	}
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"rate limit", errors.New("Error 429"), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), true},
		{"server error", errors.New("Error 500, Message: internal"), true},
		{"bad gateway", errors.New("502 Bad Gateway"), true},
		{"unavailable", errors.New("Status: UNAVAILABLE"), true},
		{"overloaded", errors.New("Anthropic API is overloaded"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"invalid key", errors.New("Error 401, Message: invalid API key"), false},
		{"bad request", errors.New("Error 400, Message: invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransientError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"nil error", nil, 0},
		{
			"gemini quota message",
			errors.New("Error 429, Message: quota exceeded. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"),
			time.Duration(45.387061394 * float64(time.Second)),
		},
		{
			"retryDelay field",
			errors.New(`"retryDelay": "30s"`),
			0, // quoted value does not match
		},
		{
			"retryDelay with colon",
			errors.New("retryDelay: 30s"),
			30 * time.Second,
		},
		{"no delay present", errors.New("Error 429, try again later"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// Without an API delay the first attempt uses InitialBackoff
	assert.Equal(t, DefaultInitialBackoff, cfg.CalculateBackoff(0, 0))

	// Subsequent attempts grow by the multiplier, capped at MaxBackoff
	second := cfg.CalculateBackoff(1, 0)
	assert.Equal(t, time.Duration(float64(DefaultInitialBackoff)*DefaultBackoffMultiplier), second)
	assert.LessOrEqual(t, cfg.CalculateBackoff(10, 0), DefaultMaxBackoff)

	// API-provided delay plus buffer replaces the base
	withDelay := cfg.CalculateBackoff(0, 40*time.Second)
	assert.Equal(t, 45*time.Second, withDelay)
}

func TestRegistry_Get(t *testing.T) {
	r := &Registry{
		providers:   make(map[string]Provider),
		defaultName: "gemini",
	}
	fake := &fakeProvider{name: "gemini", model: "test-model"}
	r.Register(fake)

	got, err := r.Get("")
	assert.NoError(t, err)
	assert.Equal(t, fake, got)

	got, err = r.Get("gemini")
	assert.NoError(t, err)
	assert.Equal(t, fake, got)

	_, err = r.Get("claude")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

type fakeProvider struct {
	name  string
	model string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return "ok", nil
}
func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return f.model }
func (f *fakeProvider) Close() error  { return nil }
