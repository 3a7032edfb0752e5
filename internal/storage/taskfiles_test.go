package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestTaskReaderReadsSubmissionFiles(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join("corrections", "1", "2")
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "response"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.java"), []byte("class Main {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Util.java"), []byte("class Util {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "response.txt"), []byte("old response"), 0o644))

	reader := NewTaskReader(root, zerolog.Nop())
	tasks := reader.ReadTasks("corrections/1/2")

	require.Len(t, tasks, 2)
	require.Equal(t, "class Main {}", tasks["Main.java"])
	require.Equal(t, "class Util {}", tasks["Util.java"])
}

func TestTaskReaderMissingFolderYieldsNoTasks(t *testing.T) {
	reader := NewTaskReader(t.TempDir(), zerolog.Nop())

	tasks := reader.ReadTasks("corrections/9/9")
	require.Empty(t, tasks)
}

func TestSortedNamesIsLexical(t *testing.T) {
	tasks := map[string]string{
		"b.java": "",
		"a.java": "",
		"c.java": "",
	}
	require.Equal(t, []string{"a.java", "b.java", "c.java"}, SortedNames(tasks))
}
