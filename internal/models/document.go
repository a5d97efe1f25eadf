package models

import (
	"time"
)

// Document is a catalog entry for an indexed PDF. The filename is the
// document identity; re-indexing a filename replaces the previous entry.
type Document struct {
	Filename   string    `badgerhold:"key" json:"filename"`
	ChunkIDs   []string  `json:"chunk_ids"`
	ChunkCount int       `json:"chunk_count"`
	PageCount  int       `json:"page_count"`
	TextLength int       `json:"text_length"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RetrievedChunk is a chunk returned by similarity search, in rank order
type RetrievedChunk struct {
	ChunkID  string  `json:"chunk_id"`
	Document string  `json:"document"`
	Position int     `json:"position"` // Chunk sequence within its document
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}

// Answer is a generated response grounded in retrieved chunks
type Answer struct {
	Text       string   `json:"answer"`
	References []string `json:"references"` // Verbatim chunk texts in rank order
	Provider   string   `json:"provider"`
	Model      string   `json:"model"`
}

// CollectionStats summarizes the indexed collection
type CollectionStats struct {
	TotalDocuments int  `json:"total_documents"`
	TotalChunks    int  `json:"total_chunks"`
	IndexedVectors int  `json:"indexed_vectors"`
	Consistent     bool `json:"consistent"`
}

// PDFMetadata describes a PDF without its text content
type PDFMetadata struct {
	PageCount   int   `json:"page_count"`
	FileSize    int64 `json:"file_size"`
	IsEncrypted bool  `json:"is_encrypted"`
}
