package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_WriteOnce(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	size, err := store.Upload(ctx, "tenant/rfq/run-v1.json", "application/json", strings.NewReader(`{"version":1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(13), size)

	rc, err := store.Download(ctx, "tenant/rfq/run-v1.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(body))

	_, err = store.Upload(ctx, "tenant/rfq/run-v1.json", "application/json", strings.NewReader(`{}`))
	assert.ErrorIs(t, err, storage.ErrObjectExists)

	_, err = store.Download(ctx, "tenant/rfq/run-v2.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestCleanKey(t *testing.T) {
	for _, key := range []string{"", "/abs/path.json", "../escape.json", "a/../../b", "..", "a\\b"} {
		_, err := storage.CleanKey(key)
		assert.Error(t, err, key)
	}

	key, err := storage.CleanKey("a/./b//c.json")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.json", key)
}

func TestNewStorage(t *testing.T) {
	store, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, store)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
