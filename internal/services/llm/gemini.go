package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/interfaces"
	"github.com/ternarybob/libris/internal/services/vectorindex"
)

// GeminiService provides completions and embeddings through the Google
// Gemini API. It implements both Provider and Embedder.
type GeminiService struct {
	client  *genai.Client
	config  *common.GeminiConfig
	limiter *rate.Limiter
	retry   *RetryConfig
	logger  arbor.ILogger
}

// Compile-time interface assertions
var (
	_ Provider            = (*GeminiService)(nil)
	_ interfaces.Embedder = (*GeminiService)(nil)
)

// NewGeminiService creates a Gemini provider with the configured API key
func NewGeminiService(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, common.NewConfigError("Gemini API key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil || interval <= 0 {
		interval = 4 * time.Second
	}

	return &GeminiService{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		retry:   NewDefaultRetryConfig(),
		logger:  logger,
	}, nil
}

// Name returns the provider name used in the lookup table
func (s *GeminiService) Name() string {
	return string(common.LLMProviderGemini)
}

// Model returns the configured completion model
func (s *GeminiService) Model() string {
	return s.config.Model
}

// Dimension returns the configured embedding dimensionality
func (s *GeminiService) Dimension() int {
	return s.config.EmbedDimension
}

// ModelName returns the configured embedding model
func (s *GeminiService) ModelName() string {
	return s.config.EmbedModel
}

// Complete generates a completion for the prompt
func (s *GeminiService) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}

	var resp *genai.GenerateContentResponse
	err := s.withRetry(ctx, "completion", func() error {
		var apiErr error
		resp, apiErr = s.client.Models.GenerateContent(ctx, s.config.Model, contents, config)
		return apiErr
	})
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", common.NewProviderError(s.Name(), false, fmt.Errorf("empty response from Gemini API"))
	}
	text := resp.Text()
	if text == "" {
		return "", common.NewProviderError(s.Name(), false, fmt.Errorf("empty text in Gemini response"))
	}

	return text, nil
}

// Embed generates an L2-normalized embedding with the configured
// dimensionality
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	outputDim := int32(s.config.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var result *genai.EmbedContentResponse
	err := s.withRetry(ctx, "embedding", func() error {
		var apiErr error
		result, apiErr = s.client.Models.EmbedContent(ctx, s.config.EmbedModel, contents, embeddingConfig)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, common.NewProviderError(s.Name(), false, fmt.Errorf("no embedding returned from API"))
	}
	if len(embedding) != s.config.EmbedDimension {
		return nil, common.NewProviderError(s.Name(), false,
			fmt.Errorf("embedding dimension %d does not match configured %d", len(embedding), s.config.EmbedDimension))
	}

	vectorindex.Normalize(embedding)
	return embedding, nil
}

// EmbedBatch embeds texts sequentially, respecting the rate limit
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vector, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// withRetry runs call with bounded backoff on transient failures. Permanent
// failures surface immediately as ProviderError.
func (s *GeminiService) withRetry(ctx context.Context, operation string, call func() error) error {
	var apiErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		apiErr = call()
		if apiErr == nil {
			return nil
		}

		if !IsTransientError(apiErr) {
			return common.NewProviderError(s.Name(), false, apiErr)
		}
		if attempt == s.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = s.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		s.logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return common.NewProviderError(s.Name(), true,
		fmt.Errorf("%s failed after %d retries: %w", operation, s.retry.MaxRetries, apiErr))
}

// Close releases the client
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}
