package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/libris/internal/common"
)

// ClaudeService provides completions through the Anthropic Claude API
type ClaudeService struct {
	client  anthropic.Client
	config  *common.ClaudeConfig
	limiter *rate.Limiter
	retry   *RetryConfig
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ Provider = (*ClaudeService)(nil)

// NewClaudeService creates a Claude provider with the configured API key
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger) *ClaudeService {
	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil || interval <= 0 {
		interval = time.Second
	}

	return &ClaudeService{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		retry:   NewDefaultRetryConfig(),
		logger:  logger,
	}
}

// Name returns the provider name used in the lookup table
func (s *ClaudeService) Name() string {
	return string(common.LLMProviderClaude)
}

// Model returns the configured completion model
func (s *ClaudeService) Model() string {
	return s.config.Model
}

// Complete generates a completion for the prompt
func (s *ClaudeService) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	maxTokens := s.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(float64(temperature))
	}

	var resp *anthropic.Message
	var apiErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		resp, apiErr = s.client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}

		if !IsTransientError(apiErr) {
			return "", common.NewProviderError(s.Name(), false, apiErr)
		}
		if attempt == s.retry.MaxRetries {
			return "", common.NewProviderError(s.Name(), true,
				fmt.Errorf("completion failed after %d retries: %w", s.retry.MaxRetries, apiErr))
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = s.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", common.NewProviderError(s.Name(), false, fmt.Errorf("empty response from Claude API"))
	}

	return text.String(), nil
}

// Close releases the client
func (s *ClaudeService) Close() error {
	s.client = anthropic.Client{}
	return nil
}
