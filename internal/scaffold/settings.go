package scaffold

import (
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// WriteSettings writes the settings template to path if it doesn't exist.
// Returns (true, nil) if the file was created.
// Returns (false, nil) if the file already exists.
// Returns (false, error) if there was an error.
func WriteSettings(fsys fs.FS, path string) (created bool, err error) {
	// Check if file already exists
	_, err = fsys.Stat(path)
	if err == nil {
		// File exists, don't overwrite
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := fs.WriteFileAtomic(fsys, path, []byte(SettingsTemplate), 0o644); err != nil {
		return false, err
	}

	return true, nil
}
