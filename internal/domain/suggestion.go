package domain

// SuggestionResult ranks one cataloged template against a document.
// Computed on demand and never persisted.
type SuggestionResult struct {
	TemplateID string
	Score      float32
	Rank       int
}
