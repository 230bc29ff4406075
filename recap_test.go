package recap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("create new store", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		store, err := NewStore(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, store)
		defer store.Close()

		// Verify components are initialized
		assert.NotNil(t, store.ItemRepository())
		assert.NotNil(t, store.EmbeddingRepository())
		assert.NotNil(t, store.Provider())
		assert.NotNil(t, store.backend)
		assert.NotNil(t, store.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a store at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		store, err := NewStore(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestStore_Close(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	err = store.Close()
	assert.NoError(t, err)
}

func TestStore_NewVectorCache(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	defer store.Close()

	cache, err := store.NewVectorCache()
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, "embeddinggemma", cache.Model())
}
