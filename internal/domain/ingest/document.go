// Package ingest models source material flowing into the chunk index.
package ingest

import (
	"fmt"

	"github.com/arcline-ai/ragdex/internal/domain/chunk"
)

// MaxDocumentSize is the maximum raw document size in bytes before splitting.
const MaxDocumentSize = 4194304 // 4MB

// Document is raw source material before splitting (immutable value object).
type Document struct {
	source      string
	content     string
	trust       chunk.Trust
	contentType string
	quality     float64
}

// NewDocument validates and creates a Document.
// Empty trust defaults to untrusted, empty content type to "text".
func NewDocument(source, content string, trust chunk.Trust, contentType string, quality float64) (Document, error) {
	if source == "" {
		return Document{}, fmt.Errorf("document source is required")
	}
	if content == "" {
		return Document{}, fmt.Errorf("document content is required")
	}
	if len(content) > MaxDocumentSize {
		return Document{}, fmt.Errorf("document too large (max %d bytes)", MaxDocumentSize)
	}
	if trust == "" {
		trust = chunk.Untrusted
	}
	if !trust.IsValid() {
		return Document{}, fmt.Errorf("invalid trust value: %q", trust)
	}
	if contentType == "" {
		contentType = chunk.DefaultContentType
	}
	if quality < 0 || quality > 1 {
		return Document{}, fmt.Errorf("quality must be between 0 and 1")
	}

	return Document{
		source:      source,
		content:     content,
		trust:       trust,
		contentType: contentType,
		quality:     quality,
	}, nil
}

// Source returns the document origin (file path, URL, collection name).
func (d *Document) Source() string { return d.source }

// Content returns the raw document text.
func (d *Document) Content() string { return d.content }

// Trust returns the provenance class inherited by the document's chunks.
func (d *Document) Trust() chunk.Trust { return d.trust }

// ContentType returns the content type inherited by the document's chunks.
func (d *Document) ContentType() string { return d.contentType }

// Quality returns the quality score inherited by the document's chunks.
func (d *Document) Quality() float64 { return d.quality }
