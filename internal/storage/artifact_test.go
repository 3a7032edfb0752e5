package storage

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestArtifactStoreWriteReplacesPreviousResponse(t *testing.T) {
	store := NewArtifactStore(t.TempDir(), zerolog.Nop())

	require.NoError(t, store.Write("corrections/1/1", []byte("first run")))
	require.NoError(t, store.Write("corrections/1/1", []byte("second run")))
	require.True(t, store.Exists("corrections/1/1"))

	stream, err := store.Open("corrections/1/1")
	require.NoError(t, err)
	defer stream.Close()

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "second run", string(content))
}

func TestArtifactStoreOpenMissingResponse(t *testing.T) {
	store := NewArtifactStore(t.TempDir(), zerolog.Nop())

	_, err := store.Open("corrections/1/1")
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.False(t, store.Exists("corrections/1/1"))
}

func TestArtifactStoreDeleteAllRemovesFolder(t *testing.T) {
	root := t.TempDir()
	store := NewArtifactStore(root, zerolog.Nop())

	dir := filepath.Join(root, "corrections", "1", "1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.java"), []byte("class Main {}"), 0o644))
	require.NoError(t, store.Write("corrections/1/1", []byte("done")))

	store.DeleteAll("corrections/1/1")

	_, err := os.Stat(dir)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestArtifactStoreDeleteAllIgnoresMissingFolder(t *testing.T) {
	store := NewArtifactStore(t.TempDir(), zerolog.Nop())

	store.DeleteAll("")
	store.DeleteAll("corrections/9/9")
}
