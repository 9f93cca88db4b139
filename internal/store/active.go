package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// ActiveStore owns .expbox/active, the advisory pointer to the last
// touched box. Losing it is harmless; an explicit load restores it.
type ActiveStore struct {
	FS   fs.FS
	Path string
}

// NewActiveStore creates an ActiveStore for the pointer file at path.
func NewActiveStore(filesystem fs.FS, path string) *ActiveStore {
	return &ActiveStore{FS: filesystem, Path: path}
}

// Get returns the active id, or "" when the pointer is missing, empty,
// or holds something that is not a valid id.
func (s *ActiveStore) Get() (string, error) {
	data, err := s.FS.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WrapWithDetails(errors.EPersistFailed, "failed to read active pointer", err, map[string]string{"path": s.Path})
	}
	id := strings.TrimSpace(string(data))
	if id == "" || core.ValidateID(id) != nil {
		return "", nil
	}
	return id, nil
}

// Set points the active pointer at id.
func (s *ActiveStore) Set(id string) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}
	return s.write(id + "\n")
}

// Clear empties the pointer without removing the file.
func (s *ActiveStore) Clear() error {
	return s.write("")
}

func (s *ActiveStore) write(content string) error {
	details := map[string]string{"path": s.Path}
	if err := s.FS.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "failed to create control directory", err, details)
	}
	if err := fs.WriteFileAtomic(s.FS, s.Path, []byte(content), 0o644); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "failed to write active pointer", err, details)
	}
	return nil
}
