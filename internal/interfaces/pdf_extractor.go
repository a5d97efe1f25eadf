package interfaces

import (
	"context"

	"github.com/ternarybob/libris/internal/models"
)

// PDFExtractor extracts text content from PDF documents
type PDFExtractor interface {
	// ExtractText returns the full text of a PDF in page order
	ExtractText(ctx context.Context, content []byte) (string, error)

	// Metadata returns page count, file size and encryption status
	Metadata(ctx context.Context, content []byte) (*models.PDFMetadata, error)
}
