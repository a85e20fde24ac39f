//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/pagination"
	"github.com/draftwise/draftwise/internal/testutil"
)

func newTestDocument(ownerID string) *domain.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Document{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Filename:  "contract.pdf",
		FileType:  "application/pdf",
		Status:    domain.DocumentStatusPending,
		Metadata:  map[string]string{"source": "upload"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("owner-1")
	require.NoError(t, repo.Create(ctx, doc))

	retrieved, err := repo.GetByID(ctx, "owner-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Filename, retrieved.Filename)
	assert.Equal(t, domain.DocumentStatusPending, retrieved.Status)
	assert.Equal(t, "upload", retrieved.Metadata["source"])
}

func TestDocumentRepository_GetByID_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("owner-1")
	require.NoError(t, repo.Create(ctx, doc))

	_, err := repo.GetByID(ctx, "owner-2", doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("owner-1")
	require.NoError(t, repo.Create(ctx, doc))

	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, domain.DocumentStatusProcessing, ""))
	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, domain.DocumentStatusFailed, "extraction failed"))

	retrieved, err := repo.GetByID(ctx, "owner-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusFailed, retrieved.Status)
	assert.Equal(t, "extraction failed", retrieved.Error)

	// error column is cleared when the failed document restarts
	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, domain.DocumentStatusPending, ""))
	retrieved, err = repo.GetByID(ctx, "owner-1", doc.ID)
	require.NoError(t, err)
	assert.Empty(t, retrieved.Error)
}

func TestDocumentRepository_UpdateStatus_IllegalTransition(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	doc := newTestDocument("owner-1")
	require.NoError(t, repo.Create(ctx, doc))

	// completed requires a processing run in flight
	err := repo.UpdateStatus(ctx, doc.ID, domain.DocumentStatusCompleted, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusChange)

	retrieved, err := repo.GetByID(ctx, "owner-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusPending, retrieved.Status)
}

func TestDocumentRepository_UpdateStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	err := repo.UpdateStatus(ctx, uuid.NewString(), domain.DocumentStatusCompleted, "")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_ListByOwnerWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		doc := newTestDocument("owner-1")
		doc.Filename = fmt.Sprintf("doc-%d.txt", i)
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		doc.UpdatedAt = doc.CreatedAt
		require.NoError(t, repo.Create(ctx, doc))
	}
	other := newTestDocument("owner-2")
	require.NoError(t, repo.Create(ctx, other))

	page1, err := repo.ListByOwnerWithCursor(ctx, "owner-1", nil, 3)
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	assert.True(t, page1.HasMore)
	assert.NotEmpty(t, page1.NextCursor)
	assert.Equal(t, "doc-4.txt", page1.Items[0].Filename)

	cursor, err := pagination.DecodeCursor(page1.NextCursor)
	require.NoError(t, err)

	page2, err := repo.ListByOwnerWithCursor(ctx, "owner-1", cursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)
}

func TestDocumentRepository_Delete_Cascades(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := newTestDocument("owner-1")
	require.NoError(t, docRepo.Create(ctx, doc))
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, []domain.DocumentChunk{
		newTestChunk(doc.ID, "owner-1", 0),
	}))

	require.NoError(t, docRepo.Delete(ctx, "owner-1", doc.ID))

	count, err := chunkRepo.CountByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = docRepo.Delete(ctx, "owner-1", doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
