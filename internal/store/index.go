package store

import (
	"encoding/json"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// IndexStore owns .expbox/index/: one JSON file per box, never a combined
// ledger, so saves of different boxes never touch the same file.
type IndexStore struct {
	FS  fs.FS
	Dir string
}

// NewIndexStore creates an IndexStore rooted at dir.
func NewIndexStore(filesystem fs.FS, dir string) *IndexStore {
	return &IndexStore{FS: filesystem, Dir: dir}
}

// RecordPath returns .expbox/index/<exp_id>.json.
func (s *IndexStore) RecordPath(id string) (string, error) {
	if err := core.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, id+".json"), nil
}

// Exists reports whether a record file is present for id.
func (s *IndexStore) Exists(id string) bool {
	p, err := s.RecordPath(id)
	if err != nil {
		return false
	}
	return fs.Exists(s.FS, p)
}

// Upsert writes rec atomically, replacing any previous record.
func (s *IndexStore) Upsert(rec IndexRecord) error {
	path, err := s.RecordPath(rec.ExpID)
	if err != nil {
		return err
	}
	details := map[string]string{"exp_id": rec.ExpID, "index_path": path}

	if err := s.FS.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.WrapWithDetails(errors.EIndexWriteFailed, "failed to create index directory", err, details)
	}
	if err := fs.WriteJSONAtomic(s.FS, path, rec, 0o644); err != nil {
		return errors.WrapWithDetails(errors.EIndexWriteFailed, "failed to write index record atomically", err, details)
	}
	return nil
}

// Get reads one record.
// Returns E_NOT_FOUND if absent, E_CORRUPT if unparsable or schema-invalid.
func (s *IndexStore) Get(id string) (IndexRecord, error) {
	path, err := s.RecordPath(id)
	if err != nil {
		return IndexRecord{}, err
	}
	details := map[string]string{"exp_id": id, "index_path": path}

	data, err := s.FS.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return IndexRecord{}, errors.NewWithDetails(errors.ENotFound, "index record not found", details)
		}
		return IndexRecord{}, errors.WrapWithDetails(errors.ECorrupt, "failed to read index record", err, details)
	}

	if err := validateDocument(data, indexSchema); err != nil {
		return IndexRecord{}, errors.WrapWithDetails(errors.ECorrupt, "index record failed validation: "+firstLine(err.Error()), err, details)
	}
	var rec IndexRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return IndexRecord{}, errors.WrapWithDetails(errors.ECorrupt, "failed to parse index record", err, details)
	}
	if rec.ExpID != id {
		return IndexRecord{}, errors.NewWithDetails(errors.ECorrupt, "index record exp_id does not match its file name", details)
	}
	return rec, nil
}

// IDs returns the ids with a record file, sorted ascending.
// Temp files left by interrupted writes are ignored.
func (s *IndexStore) IDs() ([]string, error) {
	entries, err := s.FS.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithDetails(errors.EPersistFailed, "failed to list index directory", err, map[string]string{"path": s.Dir})
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if core.ValidateID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// List yields every record ordered by exp_id ascending, reading each file
// only when the consumer asks for it. A record that fails to read is
// yielded as a zero record carrying only ExpID, alongside its error;
// the consumer decides whether to continue.
func (s *IndexStore) List() iter.Seq2[IndexRecord, error] {
	return func(yield func(IndexRecord, error) bool) {
		ids, err := s.IDs()
		if err != nil {
			yield(IndexRecord{}, err)
			return
		}
		for _, id := range ids {
			rec, err := s.Get(id)
			if err != nil {
				rec = IndexRecord{ExpID: id}
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}
