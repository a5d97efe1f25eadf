package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("underlying failure")

	tests := []struct {
		name string
		err  error
	}{
		{"content", NewContentError("bad input", cause)},
		{"config", NewConfigError("bad settings", cause)},
		{"provider", NewProviderError("gemini", true, cause)},
		{"consistency", NewConsistencyError("broken invariant", cause)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, cause)
			assert.Contains(t, tt.err.Error(), "underlying failure")
		})
	}
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("indexing failed: %w", NewConsistencyError("duplicate chunk id", nil))

	var consErr *ConsistencyError
	assert.ErrorAs(t, wrapped, &consErr)
	assert.Equal(t, "duplicate chunk id", consErr.Msg)
}

func TestIsNotFound(t *testing.T) {
	err := NewNotFoundError("document", "report.pdf")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.False(t, IsNotFound(errors.New("something else")))
	assert.False(t, IsNotFound(nil))

	assert.Equal(t, `document "report.pdf" not found`, err.Error())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewProviderError("gemini", true, errors.New("429"))))
	assert.False(t, IsTransient(NewProviderError("gemini", false, errors.New("401"))))
	assert.False(t, IsTransient(errors.New("not a provider error")))
	assert.False(t, IsTransient(nil))

	wrapped := fmt.Errorf("embed: %w", NewProviderError("gemini", true, errors.New("quota")))
	assert.True(t, IsTransient(wrapped))
}

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderError("claude", true, errors.New("overloaded"))
	assert.Contains(t, err.Error(), "claude")
	assert.Contains(t, err.Error(), "transient")

	err = NewProviderError("claude", false, errors.New("invalid key"))
	assert.Contains(t, err.Error(), "permanent")
}
