package frontmatter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/dcs/internal/logging"
)

// Store performs document IO. Read problems are logged and reported as
// "no metadata" rather than failing the caller.
type Store struct {
	log *logging.Logger
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithLogger routes read and write diagnostics to log.
func WithLogger(log *logging.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore builds a store.
func NewStore(opts ...StoreOption) *Store {
	store := &Store{}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Read parses the metadata block of the document at path.
func (s *Store) Read(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("frontmatter: read %s: %w", path, err)
	}
	meta, _, err := Parse(data)
	if err != nil {
		return Metadata{}, fmt.Errorf("frontmatter: %s: %w", path, err)
	}
	return meta, nil
}

// Extract returns the metadata of the document at path. The boolean is false
// when the file cannot be read, has no block, has an empty block, or the
// block does not parse.
func (s *Store) Extract(path string) (Metadata, bool) {
	meta, err := s.Read(path)
	switch {
	case err == nil && !meta.IsZero():
		return meta, true
	case err == nil:
		s.log.Debug("empty front matter", "path", path)
	case errors.Is(err, ErrMissingFrontMatter):
		s.log.Debug("no front matter", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		s.log.Debug("document not found", "path", path)
	default:
		s.log.Warn("unreadable front matter", "path", path, "err", err)
	}
	return Metadata{}, false
}

// ExtractRaw returns the undecoded block of the document at path.
func (s *Store) ExtractRaw(path string) (map[string]any, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	raw, err := DecodeRaw(data)
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// Write stores meta as the leading block of the document at path, keeping
// the body. The file is replaced in one rename so readers never observe a
// half-written document.
func (s *Store) Write(path string, meta Metadata) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("frontmatter: stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("frontmatter: read %s: %w", path, err)
	}
	updated, err := Replace(content, meta)
	if err != nil {
		return fmt.Errorf("frontmatter: %s: %w", path, err)
	}
	if err := writeAtomic(path, updated, info.Mode().Perm()); err != nil {
		return err
	}
	s.log.Debug("front matter written", "path", path, "doc_id", meta.DocID)
	return nil
}

func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("frontmatter: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("frontmatter: write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("frontmatter: chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("frontmatter: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("frontmatter: replace %s: %w", path, err)
	}
	return nil
}
