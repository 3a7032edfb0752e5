package storage

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// Extraction failure modes surfaced to the upload boundary.
var (
	// ErrArchiveType indicates the uploaded filename does not carry an
	// allow-listed archive extension.
	ErrArchiveType = errors.New("unsupported archive type")
	// ErrArchiveTooLarge indicates the upload exceeded the configured cap.
	ErrArchiveTooLarge = errors.New("archive exceeds maximum allowed size")
	// ErrArchiveCorrupt indicates the archive content could not be decoded.
	ErrArchiveCorrupt = errors.New("archive is corrupt or unreadable")
)

const (
	kindZip = iota
	kindTar
	kindTarGz
)

// Extractor unpacks an uploaded submission archive into the media tree,
// keeping only source files that match the configured extension.
type Extractor struct {
	root      string
	sourceExt string
	maxBytes  int64
	logger    zerolog.Logger
}

// NewExtractor constructs an extractor rooted at the media directory.
func NewExtractor(mediaRoot, sourceExt string, maxArchiveMB int, logger zerolog.Logger) *Extractor {
	if maxArchiveMB <= 0 {
		maxArchiveMB = 50
	}
	return &Extractor{
		root:      mediaRoot,
		sourceExt: strings.ToLower(sourceExt),
		maxBytes:  int64(maxArchiveMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "extractor").Logger(),
	}
}

// Extract validates and unpacks the archive into
// corrections/<userID>/<correctionID>/ under the media root and returns
// that relative folder path. Retained entries are source files whose
// basename matches the configured extension and whose path contains no
// hidden or underscore-prefixed component; they are flattened into the
// destination with their subfolder path folded into the filename.
func (e *Extractor) Extract(name string, r io.Reader, userID, correctionID uint) (string, error) {
	kind, err := archiveKind(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "gradecore-archive-*")
	if err != nil {
		return "", fmt.Errorf("spool archive: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	written, err := io.Copy(tmp, io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("spool archive: %w", err)
	}
	if written > e.maxBytes {
		return "", ErrArchiveTooLarge
	}

	if err := checkArchiveMime(tmp.Name(), kind); err != nil {
		return "", err
	}

	relPath := filepath.Join("corrections", strconv.FormatUint(uint64(userID), 10), strconv.FormatUint(uint64(correctionID), 10))
	destDir := filepath.Join(e.root, relPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create correction folder: %w", err)
	}

	scratch := filepath.Join(os.TempDir(), "gradecore-extract-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		os.RemoveAll(destDir)
		return "", fmt.Errorf("create scratch folder: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := e.unpack(tmp.Name(), kind, scratch); err != nil {
		os.RemoveAll(destDir)
		return "", err
	}

	kept, err := e.collect(scratch, destDir)
	if err != nil {
		os.RemoveAll(destDir)
		return "", err
	}

	e.logger.Info().
		Uint("correction_id", correctionID).
		Int("files_kept", kept).
		Str("folder", relPath).
		Msg("archive extracted")

	return filepath.ToSlash(relPath), nil
}

func archiveKind(name string) (int, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return kindZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return kindTarGz, nil
	case strings.HasSuffix(lower, ".tar"):
		return kindTar, nil
	default:
		return 0, fmt.Errorf("%w: accepted extensions are .zip, .tar, .tar.gz, .tgz", ErrArchiveType)
	}
}

func checkArchiveMime(path string, kind int) error {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
	}

	var expected string
	switch kind {
	case kindZip:
		expected = "application/zip"
	case kindTar:
		expected = "application/x-tar"
	case kindTarGz:
		expected = "application/gzip"
	}

	if !detected.Is(expected) {
		return fmt.Errorf("%w: content is %s, expected %s", ErrArchiveCorrupt, detected.String(), expected)
	}
	return nil
}

func (e *Extractor) unpack(archivePath string, kind int, scratch string) error {
	switch kind {
	case kindZip:
		return unpackZip(archivePath, scratch)
	default:
		return unpackTar(archivePath, kind == kindTarGz, scratch)
	}
}

func unpackZip(archivePath, scratch string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		dest, err := scratchPath(scratch, entry.Name)
		if err != nil {
			return err
		}

		src, err := entry.Open()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
		}
		err = writeEntry(dest, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func unpackTar(archivePath string, gzipped bool, scratch string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var stream io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
		}
		defer gz.Close()
		stream = gz
	}

	reader := tar.NewReader(stream)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		dest, err := scratchPath(scratch, header.Name)
		if err != nil {
			return err
		}
		if err := writeEntry(dest, reader); err != nil {
			return err
		}
	}
}

// scratchPath joins an archive entry name under the scratch directory,
// rejecting entries that would escape it.
func scratchPath(scratch, entryName string) (string, error) {
	dest := filepath.Join(scratch, filepath.FromSlash(entryName))
	if !strings.HasPrefix(dest, filepath.Clean(scratch)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: illegal entry path %q", ErrArchiveCorrupt, entryName)
	}
	return dest, nil
}

func writeEntry(dest string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create entry folder: %w", err)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// collect walks the scratch tree and copies retained source files into
// destDir, flattened. Nested paths are folded into the filename
// (a/b/X.java becomes a_b_X.java) so same-named files from different
// subfolders cannot overwrite each other.
func (e *Extractor) collect(scratch, destDir string) (int, error) {
	kept := 0
	err := filepath.WalkDir(scratch, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := entry.Name()
		if entry.IsDir() {
			if path != scratch && (strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".")) {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(base), e.sourceExt) {
			return nil
		}

		rel, err := filepath.Rel(scratch, path)
		if err != nil {
			return err
		}
		flat := strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")

		if err := copyFile(path, filepath.Join(destDir, flat)); err != nil {
			return err
		}
		kept++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("collect source files: %w", err)
	}
	return kept, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return writeEntry(dest, in)
}
