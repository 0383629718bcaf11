package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// URLPrefix is the path under which locally stored images are served.
const URLPrefix = "/uploads/"

// FileStore keeps images in a local directory.
type FileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a disk-backed image store rooted at dir.
func NewFileStore(dir string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger.With().Str("component", "file-image-store").Logger(),
	}
}

// Dir returns the directory images are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes the upload into the directory and returns /uploads/<name>.
func (s *FileStore) Save(ctx context.Context, upload *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create upload directory")
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	target := filepath.Join(s.dir, upload.Name)
	if err := os.WriteFile(target, upload.Data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("file", target).Msg("failed to write image")
		return "", fmt.Errorf("failed to write image %s: %w", upload.Name, err)
	}

	s.logger.Debug().
		Str("file", target).
		Int("bytes", len(upload.Data)).
		Msg("image stored")

	return URLPrefix + upload.Name, nil
}

// Delete removes the file behind ref. Missing files are not an error.
func (s *FileStore) Delete(ctx context.Context, ref string) error {
	if !s.Owns(ref) {
		return nil
	}

	name := path.Base(strings.TrimPrefix(ref, URLPrefix))
	if name == "." || name == "/" || name == ".." {
		return nil
	}

	target := filepath.Join(s.dir, name)
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("file", target).Msg("failed to delete image")
		return fmt.Errorf("failed to delete image %s: %w", name, err)
	}

	return nil
}

// Owns reports whether ref points into the local upload path.
func (s *FileStore) Owns(ref string) bool {
	return strings.HasPrefix(ref, URLPrefix)
}
