package lifecycle

import (
	"maps"
	"slices"
	"sync"

	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/logger"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// Box is a draft over one experiment box, returned by Init and Load.
// SetNote and SetStatus buffer changes in memory; nothing reaches disk
// until Engine.Save.
type Box struct {
	paths  store.BoxPaths
	logger logger.Backend

	mu            sync.Mutex
	meta          *store.BoxMetadata // as of the last load or save
	pendingStatus store.Status
	pendingNotes  map[string]any
}

func newBox(meta *store.BoxMetadata, paths store.BoxPaths, backend logger.Backend) *Box {
	return &Box{meta: meta, paths: paths, logger: backend}
}

// ID returns the experiment id.
func (b *Box) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meta.ExpID
}

// Paths returns the box's on-disk locations.
func (b *Box) Paths() store.BoxPaths { return b.paths }

// Logger returns the backend selected at init.
func (b *Box) Logger() logger.Backend { return b.logger }

// Status returns the persisted status, ignoring any pending change.
func (b *Box) Status() store.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meta.Status
}

// Config returns a copy of the config snapshot.
func (b *Box) Config() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return config.Clone(b.meta.Config)
}

// Metadata returns a copy of the metadata as last persisted.
func (b *Box) Metadata() *store.BoxMetadata {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneMeta(b.meta)
}

// SetNote buffers a note; the last value set for a key wins.
func (b *Box) SetNote(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingNotes == nil {
		b.pendingNotes = make(map[string]any)
	}
	b.pendingNotes[key] = value
}

// SetStatus buffers a status change after validating it.
func (b *Box) SetStatus(status string) error {
	st, err := store.ParseStatus(status)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingStatus = st
	return nil
}

// Pending reports whether the draft holds unsaved changes.
func (b *Box) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingStatus != "" || len(b.pendingNotes) > 0
}

// Close releases the logger backend.
func (b *Box) Close() error {
	if b.logger == nil {
		return nil
	}
	return b.logger.Close()
}

// draft returns the buffered changes without clearing them.
func (b *Box) draft() (store.Status, map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingStatus, maps.Clone(b.pendingNotes)
}

// committed records a successful save: meta becomes the new baseline and
// the buffered changes that went into it are dropped.
func (b *Box) committed(meta *store.BoxMetadata, status store.Status, notes map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meta = meta
	if b.pendingStatus == status {
		b.pendingStatus = ""
	}
	for k := range notes {
		delete(b.pendingNotes, k)
	}
}

func cloneMeta(m *store.BoxMetadata) *store.BoxMetadata {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Config = config.Clone(m.Config)
	cp.Notes = config.Clone(m.Notes)
	cp.Git.Start = m.Git.Start.Clone()
	cp.Git.Last = m.Git.Last.Clone()
	cp.Git.DirtyFiles = slices.Clone(m.Git.DirtyFiles)
	if m.Git.Remote != nil {
		r := *m.Git.Remote
		cp.Git.Remote = &r
	}
	if m.Environment != nil {
		env := *m.Environment
		cp.Environment = &env
	}
	return &cp
}
