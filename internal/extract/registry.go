// Package extract provides the pluggable text-extraction capability used by
// the ingestion pipeline. One extractor is registered per declared MIME type;
// the pipeline depends only on the registry, never on a concrete parser.
package extract

import (
	"context"
	"strings"

	"github.com/draftwise/draftwise/internal/domain"
)

// Extractor converts raw file bytes into plain text
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Registry maps declared MIME types to extractors
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// DefaultRegistry creates a registry with the built-in extractors:
// plain text, markdown, and PDF.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("text/plain", &TextExtractor{})
	r.Register("text/markdown", &TextExtractor{})
	r.Register("application/pdf", &PDFExtractor{})
	return r
}

// Register adds an extractor for a MIME type, replacing any existing one
func (r *Registry) Register(mimeType string, e Extractor) {
	r.extractors[normalizeType(mimeType)] = e
}

// Supports reports whether an extractor is registered for the MIME type
func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.extractors[normalizeType(mimeType)]
	return ok
}

// Extract runs the extractor registered for the MIME type. Extractor
// failures are wrapped as ExtractionFailed.
func (r *Registry) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	e, ok := r.extractors[normalizeType(mimeType)]
	if !ok {
		return "", domain.ErrUnsupportedFileType
	}

	text, err := e.Extract(ctx, data)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed, "text extraction failed", err)
	}
	return text, nil
}

func normalizeType(mimeType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType
}
