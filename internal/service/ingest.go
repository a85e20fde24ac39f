package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// TextExtractor converts raw upload bytes into plain text by declared type
type TextExtractor interface {
	Supports(mimeType string) bool
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// UploadArchive stores the original upload bytes alongside the processed
// document. Optional; a nil archive disables archiving.
type UploadArchive interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestionConfig bounds what the pipeline accepts and how it chunks.
type IngestionConfig struct {
	MaxFileBytes        int64
	AllowedTypes        []string
	Chunking            ChunkConfig
	ExternalCallTimeout time.Duration
}

// IngestionService runs the upload-to-chunks pipeline: validate, extract,
// chunk, embed, store. Processing for a given document id is serialized.
type IngestionService struct {
	docRepo   DocumentRepositoryInterface
	txRunner  TxRunnerInterface
	extractor TextExtractor
	embedder  EmbeddingClient
	archive   UploadArchive
	cfg       IngestionConfig
	locks     *keyedLocks
	uuidGen   UUIDGenerator
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(
	docRepo DocumentRepositoryInterface,
	txRunner TxRunnerInterface,
	extractor TextExtractor,
	embedder EmbeddingClient,
	archive UploadArchive,
	cfg IngestionConfig,
) *IngestionService {
	return &IngestionService{
		docRepo:   docRepo,
		txRunner:  txRunner,
		extractor: extractor,
		embedder:  embedder,
		archive:   archive,
		cfg:       cfg,
		locks:     newKeyedLocks(),
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// IngestInput represents one uploaded file
type IngestInput struct {
	OwnerID  string
	Filename string
	FileType string
	Data     []byte
	Metadata map[string]string
}

// Ingest validates the upload and creates the document record in the pending
// state. No record exists if validation fails. Processing happens separately
// via Process or IngestAsync.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		OwnerID: input.OwnerID,
	})
	defer span.End()

	if input.OwnerID == "" || input.Filename == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if len(input.Data) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "uploaded file is empty")
	}
	if s.cfg.MaxFileBytes > 0 && int64(len(input.Data)) > s.cfg.MaxFileBytes {
		return nil, domain.ErrFileTooLarge
	}
	if !s.typeAllowed(input.FileType) {
		return nil, domain.ErrUnsupportedFileType
	}

	now := time.Now().UTC()
	doc := domain.NewDocument(s.uuidGen.NewString(), input.OwnerID, input.Filename, input.FileType, now)
	for k, v := range input.Metadata {
		doc.Metadata[k] = v
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.PutObject(ctx, ArchiveKey(doc), input.Data, input.FileType); err != nil {
			telemetry.CaptureError(ctx, fmt.Errorf("archive upload %s: %w", doc.ID, err))
		}
	}

	return doc, nil
}

// IngestAsync validates and records the upload, then processes it in the
// background. The returned document is in the pending state.
func (s *IngestionService) IngestAsync(ctx context.Context, input IngestInput) (*domain.Document, error) {
	doc, err := s.Ingest(ctx, input)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.Process(context.Background(), doc.OwnerID, doc.ID, input.Data); err != nil {
			telemetry.CaptureError(context.Background(), fmt.Errorf("process document %s: %w", doc.ID, err))
		}
	}()

	return doc, nil
}

// Process runs the extraction-to-storage pipeline for a document. Runs for
// the same document id are serialized; a document already processing rejects
// a second run. Pipeline failures are recorded on the document record.
func (s *IngestionService) Process(ctx context.Context, ownerID, documentID string, data []byte) error {
	s.locks.Lock(documentID)
	defer s.locks.Unlock(documentID)

	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Process", telemetry.SpanAttributes{
		OwnerID:    ownerID,
		DocumentID: documentID,
	})
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if !domain.CanReingest(doc.Status) {
		return domain.ErrInvalidStatusChange
	}
	if doc.Status != domain.DocumentStatusPending {
		// re-ingestion restarts the lifecycle from pending
		if err := s.docRepo.UpdateStatus(ctx, documentID, domain.DocumentStatusPending, ""); err != nil {
			return err
		}
	}

	if err := s.docRepo.UpdateStatus(ctx, documentID, domain.DocumentStatusProcessing, ""); err != nil {
		return err
	}

	chunks, err := s.buildChunks(ctx, doc, data)
	if err != nil {
		s.markFailed(ctx, documentID, err)
		return err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().ReplaceChunks(ctx, documentID, chunks); err != nil {
			return err
		}
		return repos.Documents().UpdateStatus(ctx, documentID, domain.DocumentStatusCompleted, "")
	})
	if err != nil {
		s.markFailed(ctx, documentID, err)
		return err
	}

	return nil
}

func (s *IngestionService) buildChunks(ctx context.Context, doc *domain.Document, data []byte) ([]domain.DocumentChunk, error) {
	extractCtx, cancel := s.boundedCtx(ctx)
	text, err := s.extractor.Extract(extractCtx, doc.FileType, data)
	cancel()
	if err != nil {
		return nil, timeoutOr(err)
	}

	pieces, err := Chunk(strings.TrimSpace(text), s.cfg.Chunking)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, nil
	}

	embedCtx, cancel := s.boundedCtx(ctx)
	vectors, err := s.embedder.EmbedBatch(embedCtx, pieces)
	cancel()
	if err != nil {
		return nil, timeoutOr(err)
	}
	if len(vectors) != len(pieces) {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "embedding count does not match chunk count")
	}

	now := time.Now().UTC()
	chunks := make([]domain.DocumentChunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = domain.DocumentChunk{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			OwnerID:    doc.OwnerID,
			ChunkIndex: i,
			Content:    content,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}
	return chunks, nil
}

func (s *IngestionService) markFailed(ctx context.Context, documentID string, cause error) {
	// the failure write must survive a dead pipeline context
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.docRepo.UpdateStatus(failCtx, documentID, domain.DocumentStatusFailed, cause.Error()); err != nil {
		telemetry.CaptureError(failCtx, fmt.Errorf("mark document %s failed: %w", documentID, err))
	}
}

func (s *IngestionService) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ExternalCallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.ExternalCallTimeout)
}

func (s *IngestionService) typeAllowed(fileType string) bool {
	normalized := normalizeMediaType(fileType)
	for _, allowed := range s.cfg.AllowedTypes {
		if normalizeMediaType(allowed) == normalized {
			return true
		}
	}
	return false
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return domain.NewDomainErrorWithCause(domain.ErrCodeTimeout, "external call exceeded its deadline", err)
	}
	return err
}

func normalizeMediaType(mimeType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType
}

// ArchiveKey is the object-store key for a document's original bytes.
func ArchiveKey(doc *domain.Document) string {
	return doc.OwnerID + "/" + doc.ID + "/" + doc.Filename
}
