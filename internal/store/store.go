// Package store provides persistence for box metadata, index records, and
// the active pointer. Files are written atomically via temp file + rename.
package store

import (
	"path/filepath"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// Fixed names inside a box.
const (
	MetaFileName    = "meta.json"
	ArtifactsDir    = "artifacts"
	LogsDir         = "logs"
	FiguresDir      = "figures"
	NotebooksDir    = "notebooks"
	MetricsFileName = "metrics.jsonl"
	EventsFileName  = "events.jsonl"
)

// BoxStore owns the on-disk layout of boxes under the results root.
type BoxStore struct {
	FS         fs.FS            // filesystem interface for stubbing
	ResultsDir string           // resolved results root
	Now        func() time.Time // injectable clock for deterministic tests
}

// NewBoxStore creates a new BoxStore with the given dependencies.
func NewBoxStore(filesystem fs.FS, resultsDir string, now func() time.Time) *BoxStore {
	return &BoxStore{
		FS:         filesystem,
		ResultsDir: resultsDir,
		Now:        now,
	}
}

// BoxPaths are the absolute locations inside one box.
type BoxPaths struct {
	Root      string
	Meta      string
	Artifacts string
	Logs      string
	Figures   string
	Notebooks string
}

// Metrics returns logs/metrics.jsonl.
func (p BoxPaths) Metrics() string { return filepath.Join(p.Logs, MetricsFileName) }

// Events returns logs/events.jsonl.
func (p BoxPaths) Events() string { return filepath.Join(p.Logs, EventsFileName) }

// Subdirs lists the standard subdirectories in creation order.
func (p BoxPaths) Subdirs() []string {
	return []string{p.Artifacts, p.Logs, p.Figures, p.Notebooks}
}

// BoxDir returns the directory for a box.
// Format: <results>/<exp_id>/
// Fails with E_INVALID_ID if id is not a single safe path segment.
func (s *BoxStore) BoxDir(id string) (string, error) {
	if err := core.ValidateID(id); err != nil {
		return "", err
	}
	dir, err := fs.JoinUnder(s.ResultsDir, id)
	if err != nil {
		return "", errors.WrapWithDetails(errors.EInvalidID, "experiment id escapes the results directory", err, map[string]string{"input": id})
	}
	return dir, nil
}

// Paths returns every location inside a box without touching disk.
func (s *BoxStore) Paths(id string) (BoxPaths, error) {
	root, err := s.BoxDir(id)
	if err != nil {
		return BoxPaths{}, err
	}
	return BoxPaths{
		Root:      root,
		Meta:      filepath.Join(root, MetaFileName),
		Artifacts: filepath.Join(root, ArtifactsDir),
		Logs:      filepath.Join(root, LogsDir),
		Figures:   filepath.Join(root, FiguresDir),
		Notebooks: filepath.Join(root, NotebooksDir),
	}, nil
}
