package service

import (
	"context"
	"fmt"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/pagination"
	"github.com/draftwise/draftwise/internal/telemetry"
)

// DocumentService handles read and delete operations on stored documents
type DocumentService struct {
	repo    DocumentRepositoryInterface
	archive UploadArchive
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(repo DocumentRepositoryInterface, archive UploadArchive) *DocumentService {
	return &DocumentService{repo: repo, archive: archive}
}

// Get returns a document visible to the owner
func (s *DocumentService) Get(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

type ListDocumentsInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

type ListDocumentsOutput struct {
	Items   []*domain.Document
	Cursor  string
	HasMore bool
}

// List returns one page of the owner's documents, newest first
func (s *DocumentService) List(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	page, err := s.repo.ListByOwnerWithCursor(ctx, input.OwnerID, cursor, input.Limit)
	if err != nil {
		return nil, err
	}

	return &ListDocumentsOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// Download returns the document and its archived upload bytes.
func (s *DocumentService) Download(ctx context.Context, ownerID, id string) (*domain.Document, []byte, error) {
	doc, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	if s.archive == nil {
		return nil, nil, domain.ErrUploadNotArchived
	}
	data, err := s.archive.GetObject(ctx, ArchiveKey(doc))
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// Delete removes a document, its chunks (via cascade), and the archived
// upload when an archive is configured.
func (s *DocumentService) Delete(ctx context.Context, ownerID, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		OwnerID:    ownerID,
		DocumentID: id,
	})
	defer span.End()

	doc, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.DeleteObject(ctx, ArchiveKey(doc)); err != nil {
			telemetry.CaptureError(ctx, fmt.Errorf("delete archived upload %s: %w", id, err))
		}
	}

	return nil
}
