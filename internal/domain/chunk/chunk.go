package chunk

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum chunk content size in bytes.
const MaxContentSize = 163840 // 160KB

// DefaultContentType is assigned when a chunk carries no explicit content type.
const DefaultContentType = "text"

// Trust marks the provenance class of a chunk.
type Trust string

// Trust values.
const (
	Trusted   Trust = "trusted"
	Untrusted Trust = "untrusted"
)

// IsValid checks if the trust value is one of the supported values.
func (t Trust) IsValid() bool {
	return t == Trusted || t == Untrusted
}

// Chunk is an indexed unit of content (immutable value object).
type Chunk struct {
	id          string
	content     string
	source      string
	trust       Trust
	contentType string
	quality     float64
	vector      []float32
}

// New validates and creates a Chunk.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Content: non-empty, max 160KB.
// Empty trust defaults to untrusted, empty content type to "text".
// Quality must be within [0, 1].
func New(id, content, source string, trust Trust, contentType string, quality float64) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk ID is required")
	}
	if len(id) > 256 {
		return Chunk{}, fmt.Errorf("chunk ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Chunk{}, fmt.Errorf("chunk ID must be alphanumeric with underscores and hyphens")
	}
	if content == "" {
		return Chunk{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Chunk{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if source == "" {
		return Chunk{}, fmt.Errorf("source is required")
	}
	if trust == "" {
		trust = Untrusted
	}
	if !trust.IsValid() {
		return Chunk{}, fmt.Errorf("invalid trust value: %q", trust)
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	if quality < 0 || quality > 1 {
		return Chunk{}, fmt.Errorf("quality must be between 0 and 1")
	}

	return Chunk{
		id:          id,
		content:     content,
		source:      source,
		trust:       trust,
		contentType: contentType,
		quality:     quality,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(
	id, content, source string, trust Trust, contentType string,
	quality float64, vector []float32,
) Chunk {
	return Chunk{
		id: id, content: content, source: source, trust: trust,
		contentType: contentType, quality: quality, vector: vector,
	}
}

// ID returns the chunk identifier.
func (c Chunk) ID() string { return c.id }

// Content returns the chunk text content.
func (c Chunk) Content() string { return c.content }

// Source returns the origin of the chunk (file path, URL, collection name).
func (c Chunk) Source() string { return c.source }

// Trust returns the provenance class.
func (c Chunk) Trust() Trust { return c.trust }

// ContentType returns the content type tag.
func (c Chunk) ContentType() string { return c.contentType }

// Quality returns the quality score in [0, 1].
func (c Chunk) Quality() float64 { return c.quality }

// Vector returns the embedding vector.
func (c Chunk) Vector() []float32 { return c.vector }

// HasVector reports whether the chunk carries an embedding.
func (c Chunk) HasVector() bool { return len(c.vector) > 0 }

// WithVector returns a copy with the given vector set.
func (c Chunk) WithVector(v []float32) Chunk {
	return Chunk{
		id: c.id, content: c.content, source: c.source, trust: c.trust,
		contentType: c.contentType, quality: c.quality, vector: v,
	}
}
