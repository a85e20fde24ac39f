package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/service"
)

// embeddingDimensions matches the vector column width in the schema.
const embeddingDimensions = 1536

// ChunkRepository handles persistence of chunked document embeddings.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
// Callers that need the swap to be atomic run it inside a transaction.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if len(c.Embedding) != embeddingDimensions {
			return domain.ErrDimensionMismatch
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		metadata := c.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, owner_id, chunk_index, content, embedding, metadata, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID,
			c.DocumentID,
			c.OwnerID,
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			metadata,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Search returns chunks whose cosine similarity to the query embedding meets
// the threshold, best matches first. Score is 1 minus the cosine distance
// reported by pgvector.
func (r *ChunkRepository) Search(ctx context.Context, params service.ChunkSearchParams) ([]domain.ChunkMatch, error) {
	if len(params.Embedding) != embeddingDimensions {
		return nil, domain.ErrDimensionMismatch
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 5
	}

	query := `SELECT id, document_id, chunk_index, content, 1 - (embedding <=> $1) AS score
		 FROM document_chunks
		 WHERE owner_id = $2 AND 1 - (embedding <=> $1) >= $3`
	args := []any{pgvector.NewVector(params.Embedding), params.OwnerID, params.Threshold}

	if params.DocumentID != "" {
		query += ` AND document_id = $` + strconv.Itoa(len(args)+1)
		args = append(args, params.DocumentID)
	}
	if len(params.Metadata) > 0 {
		query += ` AND metadata @> $` + strconv.Itoa(len(args)+1)
		args = append(args, params.Metadata)
	}
	query += ` ORDER BY embedding <=> $1 LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.ChunkMatch
	for rows.Next() {
		var m domain.ChunkMatch
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.ChunkIndex, &m.Content, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListEmbeddings returns the stored embeddings of a document in chunk order.
func (r *ChunkRepository) ListEmbeddings(ctx context.Context, documentID string) ([][]float32, error) {
	rows, err := r.db.Query(ctx,
		`SELECT embedding FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embeddings [][]float32
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, err
		}
		embeddings = append(embeddings, vec.Slice())
	}
	return embeddings, rows.Err()
}

func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	return count, err
}
