package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// FileBackend stores PDF revisions as files under a single upload directory.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file storage backend rooted at baseDir,
// creating the directory if it doesn't exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch reads a revision. Returns ErrRevisionNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	filePath, err := b.pathFor(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrRevisionNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read revision: %w", err)
	}

	b.log.Debug("Fetched revision from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes a revision through a temporary file and rename, so readers
// never observe a partially written PDF.
func (b *FileBackend) Store(ctx context.Context, key string, data []byte) error {
	filePath, err := b.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".revision-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write revision: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write revision: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return fmt.Errorf("failed to move revision into place: %w", err)
	}

	b.log.Debug("Stored revision in file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes a revision. Deleting a missing revision is not an error.
func (b *FileBackend) Delete(ctx context.Context, key string) error {
	filePath, err := b.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete revision: %w", err)
	}
	return nil
}

// Available checks that the upload directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) pathFor(key string) (string, error) {
	cleaned, err := interfaces.CleanRevisionKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(cleaned)), nil
}
