package domain

import "time"

// DocumentChunk represents one embedded segment of a document's extracted text.
// Chunk indices within a document are contiguous starting at 0 and immutable
// once written; chunks are replaced wholesale when a document is re-ingested.
type DocumentChunk struct {
	ID         string
	DocumentID string
	OwnerID    string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   map[string]string
	CreatedAt  time.Time
}

// ChunkMatch is a chunk returned from a similarity search together with its
// score, cosine similarity mapped to [0,1] via 1 - cosine distance.
type ChunkMatch struct {
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Content    string
	Score      float32
}
