package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/draftwise/draftwise/internal/domain"
)

// TemplateRepository persists the embedded template catalog. The catalog is
// rebuilt as a whole on each refresh, so writes go through ReplaceAll.
type TemplateRepository struct {
	db dbtx
}

func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: pool}
}

func NewTemplateRepositoryWithTx(tx dbtx) *TemplateRepository {
	return &TemplateRepository{db: tx}
}

// ReplaceAll swaps the stored catalog for the given set of templates.
func (r *TemplateRepository) ReplaceAll(ctx context.Context, templates []domain.TemplateDescriptor) error {
	_, err := r.db.Exec(ctx, `DELETE FROM templates`)
	if err != nil {
		return err
	}

	for _, t := range templates {
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := t.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
		metadata := t.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO templates (id, name, description, file_path, file_type, variables, metadata, embedding, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, t.Name, t.Description, t.FilePath, t.FileType, t.Variables, metadata, pgvector.NewVector(t.Embedding), createdAt, updatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]*domain.TemplateDescriptor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, description, file_path, file_type, variables, metadata, embedding, created_at, updated_at
		 FROM templates ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.TemplateDescriptor
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*domain.TemplateDescriptor, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, description, file_path, file_type, variables, metadata, embedding, created_at, updated_at
		 FROM templates WHERE id = $1`,
		id,
	)
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTemplate(row pgx.Row) (*domain.TemplateDescriptor, error) {
	var t domain.TemplateDescriptor
	var vec pgvector.Vector
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.FilePath, &t.FileType, &t.Variables, &t.Metadata, &vec, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Embedding = vec.Slice()
	return &t, nil
}
