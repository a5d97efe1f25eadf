package chunker

import (
	"fmt"
	"strings"

	"github.com/ternarybob/libris/internal/common"
)

// separators in preference order: paragraph break, line break, sentence end,
// word boundary. Hard cut is the fallback when none is present in the window.
var separators = []string{"\n\n", "\n", ". ", " "}

// Config controls chunk size and overlap, both in characters
type Config struct {
	Size    int
	Overlap int
}

// Chunker splits extracted text into overlapping chunks on natural boundaries
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Size must exceed Overlap or no forward progress is
// possible.
func New(cfg Config) (*Chunker, error) {
	if cfg.Size <= 0 {
		return nil, common.NewConfigError(fmt.Sprintf("chunk size must be positive, got %d", cfg.Size), nil)
	}
	if cfg.Overlap < 0 {
		return nil, common.NewConfigError(fmt.Sprintf("chunk overlap must not be negative, got %d", cfg.Overlap), nil)
	}
	if cfg.Size <= cfg.Overlap {
		return nil, common.NewConfigError(fmt.Sprintf("chunk size (%d) must be greater than overlap (%d)", cfg.Size, cfg.Overlap), nil)
	}
	return &Chunker{size: cfg.Size, overlap: cfg.Overlap}, nil
}

// Split breaks text into chunks of at most Size characters. Each chunk is an
// exact substring of the input; consecutive chunks share up to Overlap
// characters. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := c.findCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		// Step back by the overlap, but always move forward
		next := cut - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// findCut locates the best cut point in runes[start:end], preferring the
// latest natural boundary. The separator stays with the left chunk. A
// boundary in the first half of the window is rejected so every chunk makes
// real progress; the fallback is a hard cut at end.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	window := string(runes[start:end])
	minCut := start + c.size/2
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// LastIndex works on bytes; recover the rune offset
		cut := start + len([]rune(window[:idx])) + len([]rune(sep))
		if cut > minCut && cut <= end {
			return cut
		}
	}
	return end
}
