// Package config resolves the expbox workspace and normalizes experiment
// configuration.
package config

import (
	"path/filepath"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/errors"
)

// Environment variables that override workspace locations.
const (
	EnvRoot        = "EXPBOX_ROOT"
	EnvResultsRoot = "EXPBOX_RESULTS_ROOT"
)

// Fixed names inside the workspace.
const (
	ResultsDirName = "results"
	ControlDirName = ".expbox"
	IndexDirName   = "index"
	ActiveFileName = "active"
	SettingsName   = "settings.yaml"
)

// Workspace holds the absolute locations expbox owns.
type Workspace struct {
	Root       string // project root
	ResultsDir string // <root>/results unless overridden
	ControlDir string // <root>/.expbox
}

// IndexDir returns .expbox/index.
func (w Workspace) IndexDir() string { return filepath.Join(w.ControlDir, IndexDirName) }

// ActivePath returns .expbox/active.
func (w Workspace) ActivePath() string { return filepath.Join(w.ControlDir, ActiveFileName) }

// SettingsPath returns .expbox/settings.yaml.
func (w Workspace) SettingsPath() string { return filepath.Join(w.ControlDir, SettingsName) }

// WorkspaceFlags carries command-line overrides; empty means unset.
type WorkspaceFlags struct {
	Root        string
	ResultsRoot string
}

// ResolveWorkspace applies precedence flag > environment > default.
// Relative paths are resolved against cwd.
//
//	root:    --root, EXPBOX_ROOT, cwd
//	results: --results-root, EXPBOX_RESULTS_ROOT, <root>/results
func ResolveWorkspace(getenv func(string) string, cwd string, flags WorkspaceFlags) (Workspace, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if cwd == "" || !filepath.IsAbs(cwd) {
		return Workspace{}, errors.NewWithDetails(errors.EInternal, "working directory must be absolute", map[string]string{"path": cwd})
	}

	root := firstNonEmpty(flags.Root, getenv(EnvRoot), cwd)
	root = absFrom(cwd, root)

	results := firstNonEmpty(flags.ResultsRoot, getenv(EnvResultsRoot))
	if results == "" {
		results = filepath.Join(root, ResultsDirName)
	} else {
		results = absFrom(cwd, results)
	}

	return Workspace{
		Root:       root,
		ResultsDir: results,
		ControlDir: filepath.Join(root, ControlDirName),
	}, nil
}

func absFrom(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
