package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// TaskReader loads the submission files of a correction folder for
// prompt assembly.
type TaskReader struct {
	root   string
	logger zerolog.Logger
}

// NewTaskReader constructs a task reader rooted at the media directory.
func NewTaskReader(mediaRoot string, logger zerolog.Logger) *TaskReader {
	return &TaskReader{
		root:   mediaRoot,
		logger: logger.With().Str("component", "task_reader").Logger(),
	}
}

// ReadTasks returns a filename to content mapping for every submission
// file directly under the correction folder. Entries reserved for the
// response artifact are skipped. A missing or unreadable folder is not
// fatal: it is logged and an empty mapping is returned, so a run
// proceeds with no task content rather than aborting.
func (t *TaskReader) ReadTasks(folderPath string) map[string]string {
	tasks := make(map[string]string)

	dir := filepath.Join(t.root, filepath.FromSlash(folderPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.logger.Warn().Err(err).Str("folder", folderPath).Msg("task folder unreadable, continuing with no tasks")
		return tasks
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "response") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.logger.Warn().Err(err).Str("file", name).Msg("skipping unreadable task file")
			continue
		}
		tasks[name] = string(content)
	}

	return tasks
}

// SortedNames returns the task filenames in lexical order. Callers must
// serialize tasks in this order so composed prompts are deterministic.
func SortedNames(tasks map[string]string) []string {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
