package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// Create makes the box root with exclusive semantics, then the standard
// subdirectories. Fails with E_ALREADY_EXISTS if the box directory exists.
func (s *BoxStore) Create(id string) (BoxPaths, error) {
	paths, err := s.Paths(id)
	if err != nil {
		return BoxPaths{}, err
	}

	if err := s.FS.MkdirAll(s.ResultsDir, 0o755); err != nil {
		return BoxPaths{}, errors.WrapWithDetails(
			errors.EPersistFailed,
			"failed to create results directory",
			err,
			map[string]string{"results_dir": s.ResultsDir},
		)
	}

	if err := s.FS.Mkdir(paths.Root, 0o755); err != nil {
		if os.IsExist(err) {
			return BoxPaths{}, errors.NewWithDetails(
				errors.EAlreadyExists,
				"box directory already exists",
				map[string]string{"exp_id": id, "box_dir": paths.Root},
			)
		}
		return BoxPaths{}, errors.WrapWithDetails(
			errors.EPersistFailed,
			"failed to create box directory",
			err,
			map[string]string{"exp_id": id, "box_dir": paths.Root},
		)
	}

	return s.EnsureSubdirs(id)
}

// EnsureSubdirs creates artifacts/, logs/, figures/, and notebooks/ if missing.
// Existing contents are never touched.
func (s *BoxStore) EnsureSubdirs(id string) (BoxPaths, error) {
	paths, err := s.Paths(id)
	if err != nil {
		return BoxPaths{}, err
	}
	for _, dir := range paths.Subdirs() {
		if err := s.FS.MkdirAll(dir, 0o755); err != nil {
			return BoxPaths{}, errors.WrapWithDetails(
				errors.EPersistFailed,
				"failed to create box subdirectory",
				err,
				map[string]string{"exp_id": id, "path": dir},
			)
		}
	}
	return paths, nil
}

// Exists reports whether the box directory is present.
func (s *BoxStore) Exists(id string) bool {
	dir, err := s.BoxDir(id)
	if err != nil {
		return false
	}
	return fs.Exists(s.FS, dir)
}

// WriteMeta validates meta against the schema and writes meta.json atomically.
// A crash at any point leaves the previous meta.json (or none) in place.
func (s *BoxStore) WriteMeta(meta *BoxMetadata) error {
	paths, err := s.Paths(meta.ExpID)
	if err != nil {
		return err
	}
	details := map[string]string{"exp_id": meta.ExpID, "meta_path": paths.Meta}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.WrapWithDetails(errors.EMetaWriteFailed, "failed to encode meta.json", err, details)
	}
	data = append(data, '\n')

	if err := validateDocument(data, metaSchema); err != nil {
		return errors.WrapWithDetails(errors.EInternal, "refusing to write meta.json that fails schema validation", err, details)
	}

	if err := fs.WriteFileAtomic(s.FS, paths.Meta, data, 0o644); err != nil {
		return errors.WrapWithDetails(errors.EMetaWriteFailed, "failed to write meta.json atomically", err, details)
	}
	return nil
}

// ReadMeta reads and validates meta.json for a box.
// Returns E_NOT_FOUND if the file doesn't exist.
// Returns E_CORRUPT if it can't be parsed, fails schema validation, or
// names a different exp_id. Defaults are never substituted.
func (s *BoxStore) ReadMeta(id string) (*BoxMetadata, error) {
	paths, err := s.Paths(id)
	if err != nil {
		return nil, err
	}
	details := map[string]string{"exp_id": id, "meta_path": paths.Meta}

	data, err := s.FS.ReadFile(paths.Meta)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithDetails(errors.ENotFound, "box not found (meta.json does not exist)", details)
		}
		return nil, errors.WrapWithDetails(errors.ECorrupt, "failed to read meta.json", err, details)
	}

	if err := validateDocument(data, metaSchema); err != nil {
		return nil, errors.WrapWithDetails(errors.ECorrupt, "meta.json failed validation: "+firstLine(err.Error()), err, details)
	}

	var meta BoxMetadata
	if err := decodeStrict(data, &meta); err != nil {
		return nil, errors.WrapWithDetails(errors.ECorrupt, "failed to parse meta.json", err, details)
	}
	if meta.ExpID != id {
		details["input"] = meta.ExpID
		return nil, errors.NewWithDetails(errors.ECorrupt, "meta.json exp_id does not match its directory", details)
	}
	if meta.Notes == nil {
		meta.Notes = map[string]any{}
	}
	if meta.Git.DirtyFiles == nil {
		meta.Git.DirtyFiles = []string{}
	}
	return &meta, nil
}

// WriteConfigSnapshot encodes cfg into artifacts/<name> exactly once.
// Returns the path relative to the box root.
// A second call for the same box fails with E_ALREADY_EXISTS.
func (s *BoxStore) WriteConfigSnapshot(id string, cfg map[string]any, name string) (string, error) {
	paths, err := s.Paths(id)
	if err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", errors.NewWithDetails(errors.EUsage, "config snapshot name must be a plain file name", map[string]string{"input": name})
	}
	dest := filepath.Join(paths.Artifacts, name)
	details := map[string]string{"exp_id": id, "path": dest}

	if fs.Exists(s.FS, dest) {
		return "", errors.NewWithDetails(errors.EAlreadyExists, "config snapshot already written; it is immutable", details)
	}

	data, err := config.Encode(cfg, name)
	if err != nil {
		return "", err
	}
	if err := fs.WriteFileAtomic(s.FS, dest, data, 0o444); err != nil {
		return "", errors.WrapWithDetails(errors.EPersistFailed, "failed to write config snapshot", err, details)
	}
	return filepath.ToSlash(filepath.Join(ArtifactsDir, name)), nil
}

// ListBoxIDs returns the names of directories under the results root that
// hold a meta.json, sorted ascending. A missing results root is empty.
func (s *BoxStore) ListBoxIDs() ([]string, error) {
	entries, err := s.FS.ReadDir(s.ResultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithDetails(errors.EPersistFailed, "failed to list results directory", err, map[string]string{"results_dir": s.ResultsDir})
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if core.ValidateID(id) != nil {
			continue
		}
		if fs.Exists(s.FS, filepath.Join(s.ResultsDir, id, MetaFileName)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
