// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
	"github.com/ternarybob/libris/internal/interfaces"
	"github.com/ternarybob/libris/internal/models"
)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Temp directory for pdfcpu processing
	tempDir := filepath.Join(os.TempDir(), "libris-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractText extracts all text content from PDF bytes in page order.
// Unreadable, encrypted, or text-free PDFs yield a ContentError.
func (e *Extractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", common.NewContentError("empty PDF content", nil)
	}

	// Write to temp file for pdfcpu processing
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%d_%s.pdf", os.Getpid(), common.NewChunkID()))
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", common.NewContentError("failed to read PDF", err)
	}
	if pdfCtx.Encrypt != nil {
		return "", common.NewContentError("PDF is encrypted", nil)
	}

	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d_%s", os.Getpid(), common.NewChunkID()))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", common.NewContentError("failed to extract PDF content", err)
	}

	// Read extracted content files, keyed by page number
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(data)
		}
	}

	// Build text in page order
	var fullText strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok {
			continue
		}
		if fullText.Len() > 0 {
			fullText.WriteString("\n\n")
		}
		fullText.WriteString(text)
	}

	result := fullText.String()
	if strings.TrimSpace(result) == "" {
		return "", common.NewContentError("PDF contains no extractable text", nil)
	}

	e.logger.Debug().
		Int("page_count", pageCount).
		Int("text_length", len(result)).
		Msg("Extracted PDF text")

	return result, nil
}

// Metadata retrieves PDF metadata without extracting text content
func (e *Extractor) Metadata(ctx context.Context, content []byte) (*models.PDFMetadata, error) {
	if len(content) == 0 {
		return nil, common.NewContentError("empty PDF content", nil)
	}

	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("meta_%d_%s.pdf", os.Getpid(), common.NewChunkID()))
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, common.NewContentError("failed to read PDF", err)
	}

	metadata := &models.PDFMetadata{
		PageCount:   pdfCtx.PageCount,
		FileSize:    int64(len(content)),
		IsEncrypted: pdfCtx.Encrypt != nil,
	}

	e.logger.Debug().
		Int("page_count", metadata.PageCount).
		Int64("file_size", metadata.FileSize).
		Bool("encrypted", metadata.IsEncrypted).
		Msg("Extracted PDF metadata")

	return metadata, nil
}
