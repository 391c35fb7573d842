package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes blobs under a base directory. Writes land in a temporary
// file first so a failed download never leaves a truncated PDF behind.
type FSStore struct{ base string }

// NewFSStore creates base if needed.
func NewFSStore(base string) (*FSStore, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("export: storage dir is required")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("export: ensure storage dir: %w", err)
	}
	return &FSStore{base: base}, nil
}

// Dir is the storage root.
func (s *FSStore) Dir() string { return s.base }

// Put copies r to key and returns the absolute path written.
func (s *FSStore) Put(key string, r io.Reader) (string, int64, error) {
	clean := filepath.Clean(key)
	if key == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", 0, fmt.Errorf("export: invalid key %q", key)
	}
	dst := filepath.Join(s.base, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, fmt.Errorf("export: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".partial-*")
	if err != nil {
		return "", 0, fmt.Errorf("export: create temp: %w", err)
	}
	written, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("export: write body: %w", errors.Join(copyErr, closeErr))
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("export: finalize: %w", err)
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		abs = dst
	}
	return abs, written, nil
}
