package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmptyToken(t *testing.T) {
	st, err := NewFile(filepath.Join(t.TempDir(), "nested", "session"))
	require.NoError(t, err)

	token, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", token)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")

	st, err := NewFile(path)
	require.NoError(t, err)

	require.NoError(t, st.Save(context.Background(), "abc"))
	require.NoError(t, st.Save(context.Background(), "def"))

	token, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "def", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_OpenFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")

	st, err := Open(context.Background(), path, "")
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), "abc"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", string(data))
}

func TestFileStore_EmptyPath(t *testing.T) {
	_, err := NewFile("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}
