package service

import (
	"context"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/pagination"
)

// DocumentPageResult is one page of an owner's documents.
type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// ChunkSearchParams narrows a vector search over stored chunks. DocumentID
// and Metadata are optional; when set they restrict the search to a single
// document or to chunks whose metadata contains the given pairs.
type ChunkSearchParams struct {
	OwnerID    string
	Embedding  []float32
	Threshold  float32
	Limit      int
	DocumentID string
	Metadata   map[string]string
}

// DocumentRepositoryInterface defines document persistence operations
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error)
	ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errorMsg string) error
	Delete(ctx context.Context, ownerID, id string) error
}

// ChunkRepositoryInterface defines chunk persistence and vector search
type ChunkRepositoryInterface interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error
	Search(ctx context.Context, params ChunkSearchParams) ([]domain.ChunkMatch, error)
	ListEmbeddings(ctx context.Context, documentID string) ([][]float32, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

// TemplateRepositoryInterface defines persistence for the template catalog
type TemplateRepositoryInterface interface {
	ReplaceAll(ctx context.Context, templates []domain.TemplateDescriptor) error
	List(ctx context.Context) ([]*domain.TemplateDescriptor, error)
	GetByID(ctx context.Context, id string) (*domain.TemplateDescriptor, error)
}

// TxRepositories exposes repositories bound to a single transaction
type TxRepositories interface {
	Documents() DocumentRepositoryInterface
	Chunks() ChunkRepositoryInterface
	Templates() TemplateRepositoryInterface
}

// TxRunnerInterface runs a function within a database transaction
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
