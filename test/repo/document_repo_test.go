package repo_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/model"
	appErr "github.com/askdoc/askdoc/internal/pkg/errors"
	"github.com/askdoc/askdoc/internal/pkg/timeutil"
	"github.com/askdoc/askdoc/internal/repo"
	"github.com/askdoc/askdoc/test/testutil"
)

func createTestUser(t *testing.T, users *repo.UserRepo) string {
	t.Helper()
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@example.com",
		CreatedAt: timeutil.NowUnix(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user.ID
}

func createTestDocument(t *testing.T, docs *repo.DocumentRepo, userID, status string) *model.Document {
	t.Helper()
	doc := &model.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Filename:   "report.pdf",
		StorageKey: uuid.NewString() + ".pdf",
		Status:     status,
		CreatedAt:  timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(context.Background(), doc))
	return doc
}

func TestDocumentRepoCRUDAndIsolation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	owner := createTestUser(t, users)
	other := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusPending)

	fetched, err := docs.GetForUser(context.Background(), owner, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "report.pdf", fetched.Filename)
	require.Equal(t, model.DocumentStatusPending, fetched.Status)
	require.Nil(t, fetched.PageCount)

	_, err = docs.GetForUser(context.Background(), other, doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	listed, err := docs.ListByUser(context.Background(), owner, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, docs.Delete(context.Background(), owner, doc.ID))
	_, err = docs.GetForUser(context.Background(), owner, doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentRepoStatusTransitions(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	owner := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusUploaded)

	ok, err := docs.TransitionStatus(context.Background(), doc.ID, model.DocumentStatusUploaded, model.DocumentStatusProcessing)
	require.NoError(t, err)
	require.True(t, ok)

	// Second swap from the same precondition must lose.
	ok, err = docs.TransitionStatus(context.Background(), doc.ID, model.DocumentStatusUploaded, model.DocumentStatusProcessing)
	require.NoError(t, err)
	require.False(t, ok)

	fetched, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessing, fetched.Status)
}

func TestDocumentRepoMarkReadyClearsError(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	owner := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusProcessing)

	require.NoError(t, docs.MarkFailed(context.Background(), doc.ID, "boom"))
	fetched, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusFailed, fetched.Status)
	require.Equal(t, "boom", fetched.ErrorMessage)

	require.NoError(t, docs.MarkReady(context.Background(), doc.ID, 7))
	fetched, err = docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusReady, fetched.Status)
	require.NotNil(t, fetched.PageCount)
	require.Equal(t, 7, *fetched.PageCount)
	require.Empty(t, fetched.ErrorMessage)
}

func TestDocumentRepoMarkFailedTruncatesMessage(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	owner := createTestUser(t, users)
	doc := createTestDocument(t, docs, owner, model.DocumentStatusProcessing)

	long := strings.Repeat("é", repo.ErrorMessageCap+500)
	require.NoError(t, docs.MarkFailed(context.Background(), doc.ID, long))

	fetched, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, repo.ErrorMessageCap, utf8.RuneCountInString(fetched.ErrorMessage))
	require.True(t, utf8.ValidString(fetched.ErrorMessage))
}

func TestDocumentRepoDeleteStalePending(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	docs := repo.NewDocumentRepo(db)
	owner := createTestUser(t, users)

	stale := createTestDocument(t, docs, owner, model.DocumentStatusPending)
	uploaded := createTestDocument(t, docs, owner, model.DocumentStatusUploaded)

	removed, err := docs.DeleteStalePending(context.Background(), timeutil.NowUnix()+1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, removed, int64(1))

	_, err = docs.GetByID(context.Background(), stale.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// Uploaded documents are untouched regardless of age.
	fetched, err := docs.GetByID(context.Background(), uploaded.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusUploaded, fetched.Status)
}
