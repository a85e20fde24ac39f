package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/pagination"
	"github.com/draftwise/draftwise/internal/service"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, owner_id, filename, file_type, status, error, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.OwnerID, doc.Filename, doc.FileType, doc.Status, nullableString(doc.Error), metadata, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	var doc domain.Document
	var errorMsg *string
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, filename, file_type, status, error, metadata, created_at, updated_at
		 FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.FileType, &doc.Status, &errorMsg, &doc.Metadata, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if errorMsg != nil {
		doc.Error = *errorMsg
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, owner_id, filename, file_type, status, error, metadata, created_at, updated_at
			 FROM documents
			 WHERE owner_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			ownerID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, owner_id, filename, file_type, status, error, metadata, created_at, updated_at
			 FROM documents
			 WHERE owner_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			ownerID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.CreatedAt)
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateStatus moves a document through the processing lifecycle. Moves not
// allowed by domain.CanTransition are rejected. The error column is cleared
// unless the new status is failed.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errorMsg string) error {
	if status != domain.DocumentStatusFailed {
		errorMsg = ""
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $1, error = $2, updated_at = $3 WHERE id = $4 AND status = ANY($5)`,
		status, nullableString(errorMsg), time.Now().UTC(), id, transitionSources(status),
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		var current string
		err := r.db.QueryRow(ctx, `SELECT status FROM documents WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDocumentNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrInvalidStatusChange
	}
	return nil
}

// transitionSources lists the statuses a document may currently hold for a
// move to the given status to be legal.
func transitionSources(to domain.DocumentStatus) []string {
	all := []domain.DocumentStatus{
		domain.DocumentStatusPending,
		domain.DocumentStatusProcessing,
		domain.DocumentStatusCompleted,
		domain.DocumentStatusFailed,
	}
	var from []string
	for _, s := range all {
		if domain.CanTransition(s, to) {
			from = append(from, string(s))
		}
	}
	return from
}

// Delete removes a document; chunks follow via ON DELETE CASCADE.
func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var doc domain.Document
		var errorMsg *string
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.FileType, &doc.Status, &errorMsg, &doc.Metadata, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if errorMsg != nil {
			doc.Error = *errorMsg
		}
		results = append(results, &doc)
	}
	return results, rows.Err()
}
