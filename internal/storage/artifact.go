package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	responseDir  = "response"
	responseFile = "response.txt"
)

// ArtifactStore manages the response artifact of a correction and the
// cleanup of the whole correction folder.
type ArtifactStore struct {
	root   string
	logger zerolog.Logger
}

// NewArtifactStore constructs an artifact store rooted at the media directory.
func NewArtifactStore(mediaRoot string, logger zerolog.Logger) *ArtifactStore {
	return &ArtifactStore{
		root:   mediaRoot,
		logger: logger.With().Str("component", "artifact_store").Logger(),
	}
}

// Path returns the absolute location of the response artifact.
func (s *ArtifactStore) Path(folderPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(folderPath), responseDir, responseFile)
}

// Write stores the response content, replacing any artifact from a
// previous run.
func (s *ArtifactStore) Write(folderPath string, content []byte) error {
	path := s.Path(folderPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create response folder: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove previous response: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Exists reports whether a response artifact is present.
func (s *ArtifactStore) Exists(folderPath string) bool {
	info, err := os.Stat(s.Path(folderPath))
	return err == nil && !info.IsDir()
}

// Open returns the response artifact for streaming. The caller closes
// the stream. A missing artifact surfaces as fs.ErrNotExist.
func (s *ArtifactStore) Open(folderPath string) (io.ReadCloser, error) {
	return os.Open(s.Path(folderPath))
}

// DeleteAll removes the entire correction folder tree. It is invoked as
// the on-delete hook of a correction and is best effort: failures are
// logged and never block the record deletion.
func (s *ArtifactStore) DeleteAll(folderPath string) {
	if folderPath == "" {
		s.logger.Warn().Msg("no folder recorded for correction, nothing to delete")
		return
	}

	dir := filepath.Join(s.root, filepath.FromSlash(folderPath))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		s.logger.Warn().Str("folder", folderPath).Msg("correction folder missing or not a directory")
		return
	}

	if err := os.RemoveAll(dir); err != nil {
		s.logger.Error().Err(err).Str("folder", folderPath).Msg("failed to delete correction folder")
		return
	}
	s.logger.Info().Str("folder", folderPath).Msg("correction folder deleted")
}
