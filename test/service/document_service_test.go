package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/filestore"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/model"
	appErr "github.com/askdoc/askdoc/internal/pkg/errors"
	"github.com/askdoc/askdoc/internal/repo"
	"github.com/askdoc/askdoc/internal/service"
	"github.com/askdoc/askdoc/test/testutil"
)

func newTestDocumentService(t *testing.T) (*service.DocumentService, *service.UserService, func()) {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	runner, err := ingest.NewRunner(1, func(ctx context.Context, documentID string) {})
	require.NoError(t, err)

	userRepo := repo.NewUserRepo(db)
	docRepo := repo.NewDocumentRepo(db)
	chunkRepo := repo.NewChunkRepo(db)
	docService := service.NewDocumentService(docRepo, chunkRepo, userRepo, store, runner, 10, time.Hour)
	userService := service.NewUserService(userRepo)
	return docService, userService, func() {
		runner.Release()
		cleanup()
	}
}

func TestDocumentLifecycle(t *testing.T) {
	docs, users, cleanup := newTestDocumentService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := users.Create(ctx, uuid.NewString()+"@example.com")
	require.NoError(t, err)

	result, err := docs.Presign(ctx, user.ID, service.PresignInput{
		Filename: "thesis.pdf",
		SizeMB:   1.5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.DocumentID)
	require.Equal(t, "PUT", result.Method)
	require.Contains(t, result.UploadURL, result.StorageKey)

	detail, err := docs.Get(ctx, user.ID, result.DocumentID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusPending, detail.Document.Status)
	require.Zero(t, detail.ChunkCount)

	// Confirming before the object lands must fail.
	require.ErrorIs(t, docs.Confirm(ctx, user.ID, result.DocumentID), appErr.ErrInvalid)

	require.NoError(t, docs.SaveLocalUpload(ctx, result.StorageKey, strings.NewReader("%PDF-fake")))
	require.NoError(t, docs.Confirm(ctx, user.ID, result.DocumentID))
	// Confirm is idempotent for an already-uploaded document.
	require.NoError(t, docs.Confirm(ctx, user.ID, result.DocumentID))

	require.NoError(t, docs.TriggerIngest(ctx, user.ID, result.DocumentID))
	// A second trigger loses the status swap.
	require.ErrorIs(t, docs.TriggerIngest(ctx, user.ID, result.DocumentID), appErr.ErrConflict)

	detail, err = docs.Get(ctx, user.ID, result.DocumentID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessing, detail.Document.Status)
}

func TestDocumentPresignValidation(t *testing.T) {
	docs, users, cleanup := newTestDocumentService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := users.Create(ctx, uuid.NewString()+"@example.com")
	require.NoError(t, err)

	_, err = docs.Presign(ctx, user.ID, service.PresignInput{Filename: "notes.txt"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = docs.Presign(ctx, user.ID, service.PresignInput{Filename: "big.pdf", SizeMB: 50})
	require.ErrorIs(t, err, appErr.ErrFileTooLarge)

	_, err = docs.Presign(ctx, user.ID, service.PresignInput{Filename: "plain.pdf", ContentType: "text/plain"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = docs.Presign(ctx, "no-such-user", service.PresignInput{Filename: "ok.pdf"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentOwnershipIsolation(t *testing.T) {
	docs, users, cleanup := newTestDocumentService(t)
	defer cleanup()
	ctx := context.Background()

	owner, err := users.Create(ctx, uuid.NewString()+"@example.com")
	require.NoError(t, err)
	intruder, err := users.Create(ctx, uuid.NewString()+"@example.com")
	require.NoError(t, err)

	result, err := docs.Presign(ctx, owner.ID, service.PresignInput{Filename: "secret.pdf"})
	require.NoError(t, err)

	_, err = docs.Get(ctx, intruder.ID, result.DocumentID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, docs.Confirm(ctx, intruder.ID, result.DocumentID), appErr.ErrNotFound)
	require.ErrorIs(t, docs.TriggerIngest(ctx, intruder.ID, result.DocumentID), appErr.ErrNotFound)
}
