package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalImageStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "../escape.png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/profiles/escape.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "profiles", "escape.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	require.NoError(t, store.Remove(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "profiles", "escape.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ctx, url))
	assert.NoError(t, store.Remove(ctx, "https://cdn.example.com/avatar.png"))
}
