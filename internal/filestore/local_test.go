package filestore

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/config"
)

func newTestLocalStore(t *testing.T) Store {
	t.Helper()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalStoreSaveOpenExists(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "doc.pdf")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Save(ctx, "doc.pdf", strings.NewReader("%PDF-fake")))

	exists, err = store.Exists(ctx, "doc.pdf")
	require.NoError(t, err)
	require.True(t, exists)

	reader, err := store.Open(ctx, "doc.pdf")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "%PDF-fake", string(data))
}

func TestLocalStoreRejectsTraversalKeys(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		require.Error(t, store.Save(ctx, key, strings.NewReader("x")), "key %q", key)
		_, err := store.Open(ctx, key)
		require.Error(t, err, "key %q", key)
	}
}

func TestLocalStorePresignPut(t *testing.T) {
	store := newTestLocalStore(t)

	url, method, err := store.PresignPut(context.Background(), "doc one.pdf", "application/pdf", time.Hour)
	require.NoError(t, err)
	require.Equal(t, "PUT", method)
	require.Equal(t, "/api/v1/documents/upload-local?key=doc+one.pdf", url)
}

func TestNewUnknownStoreType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "nope"})
	require.Error(t, err)
}
