package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/model"
	"github.com/askdoc/askdoc/internal/pkg/timeutil"
	"github.com/askdoc/askdoc/internal/repo"
	"github.com/askdoc/askdoc/test/testutil"
)

func testChunk(docID string, index int) model.DocumentChunk {
	embedding := make([]float32, 1536)
	embedding[0] = float32(index + 1)
	return model.DocumentChunk{
		ID:         uuid.NewString(),
		DocumentID: docID,
		ChunkIndex: index,
		Content:    "chunk content",
		PageNumber: index/2 + 1,
		Embedding:  embedding,
		CreatedAt:  timeutil.NowUnix(),
	}
}

func TestChunkRepoReplaceAndList(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	owner := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusProcessing)

	first := []model.DocumentChunk{testChunk(doc.ID, 0), testChunk(doc.ID, 1), testChunk(doc.ID, 2)}
	require.NoError(t, chunks.ReplaceForDocument(context.Background(), doc.ID, first))

	count, err := chunks.CountByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	second := []model.DocumentChunk{testChunk(doc.ID, 0), testChunk(doc.ID, 1)}
	require.NoError(t, chunks.ReplaceForDocument(context.Background(), doc.ID, second))

	listed, err := chunks.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for i, chunk := range listed {
		require.Equal(t, i, chunk.ChunkIndex)
		require.Len(t, chunk.Embedding, 1536)
	}
	require.Equal(t, float32(1), listed[0].Embedding[0])
}

func TestChunkRepoCascadeOnDocumentDelete(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	owner := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusReady)

	require.NoError(t, chunks.ReplaceForDocument(context.Background(), doc.ID, []model.DocumentChunk{testChunk(doc.ID, 0)}))
	require.NoError(t, docs.Delete(context.Background(), owner, doc.ID))

	count, err := chunks.CountByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestChunkRepoCascadeOnUserDelete(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	chunks := repo.NewChunkRepo(db)
	owner := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusReady)

	require.NoError(t, chunks.ReplaceForDocument(context.Background(), doc.ID, []model.DocumentChunk{testChunk(doc.ID, 0)}))
	require.NoError(t, users.Delete(context.Background(), owner))

	count, err := chunks.CountByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
