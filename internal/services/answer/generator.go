package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/models"
	"github.com/ternarybob/libris/internal/services/llm"
)

// NoContextAnswer is returned when no chunks are available to ground an
// answer. The provider is never called in that case.
const NoContextAnswer = "No indexed documents are available to answer this question. Upload PDF documents first."

const systemRules = `You are a document assistant. Answer using only the context provided below.
Quote the context verbatim where possible.
Answer in the same language as the question.
If the context does not contain the answer, say so plainly instead of guessing.`

// Generator turns retrieved chunks into a grounded answer through a
// configured completion provider
type Generator struct {
	registry    *llm.Registry
	temperature float32
	logger      arbor.ILogger
}

// NewGenerator creates an answer generator over the provider lookup table
func NewGenerator(registry *llm.Registry, temperature float32, logger arbor.ILogger) *Generator {
	return &Generator{
		registry:    registry,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate answers the question grounded in the given chunks. The provider
// name selects from the lookup table; empty selects the default. References
// carry the chunk texts verbatim in rank order.
func (g *Generator) Generate(ctx context.Context, question string, chunks []models.RetrievedChunk, providerName string) (*models.Answer, error) {
	provider, err := g.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &models.Answer{
			Text:       NoContextAnswer,
			References: []string{},
			Provider:   provider.Name(),
			Model:      provider.Model(),
		}, nil
	}

	prompt := buildPrompt(question, chunks)
	text, err := provider.Complete(ctx, prompt, g.temperature)
	if err != nil {
		return nil, err
	}

	references := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		references = append(references, chunk.Text)
	}

	g.logger.Info().
		Str("provider", provider.Name()).
		Int("sources", len(chunks)).
		Msg("Answer generated")

	return &models.Answer{
		Text:       text,
		References: references,
		Provider:   provider.Name(),
		Model:      provider.Model(),
	}, nil
}

// buildPrompt assembles the grounded prompt: rules, numbered context blocks,
// then the question
func buildPrompt(question string, chunks []models.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(systemRules)
	b.WriteString("\n\nContext:\n\n")

	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[Source %d: %s, Chunk %d]\n%s\n\n", i+1, chunk.Document, chunk.Position+1, chunk.Text)
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
