// Package lifecycle is the experiment lifecycle engine for expbox.
// It wires id generation, git capture, the box and index stores, the active
// pointer, and the per-box journal into init, load, save, archive, and sweep.
//
// All state lives in an Engine value; several engines over different
// workspaces can coexist in one process.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/exec"
	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/ids"
	"github.com/NielsdaWheelz/expbox/internal/logging"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// Engine runs lifecycle operations against one workspace.
//
// Concurrent operations on different boxes are safe. Two saves of the same
// box from different processes are last-writer-wins.
type Engine struct {
	Workspace config.Workspace
	FS        fs.FS

	Boxes  *store.BoxStore
	Index  *store.IndexStore
	Active *store.ActiveStore

	// Git captures repository state from GitDir (defaults to the workspace root).
	Git    git.Capturer
	GitDir string

	Log *slog.Logger
	Now func() time.Time

	// IDPrefix is the workspace default for generated id prefixes.
	IDPrefix string

	// Workers bounds concurrent archives during a sweep.
	Workers int

	// Getenv and Hostname feed environment capture.
	Getenv   func(string) string
	Hostname func() (string, error)
}

// NewEngine creates an engine over ws with the real git binary.
func NewEngine(ws config.Workspace, filesystem fs.FS) *Engine {
	return &Engine{
		Workspace: ws,
		FS:        filesystem,
		Boxes:     store.NewBoxStore(filesystem, ws.ResultsDir, time.Now),
		Index:     store.NewIndexStore(filesystem, ws.IndexDir()),
		Active:    store.NewActiveStore(filesystem, ws.ActivePath()),
		Git:       git.NewExecCapturer(exec.NewRealRunner()),
		GitDir:    ws.Root,
		Log:       logging.New("lifecycle"),
		Now:       time.Now,
		Workers:   store.DefaultScanWorkers,
		Getenv:    os.Getenv,
		Hostname:  os.Hostname,
	}
}

// ApplySettings copies workspace settings onto the engine.
func (e *Engine) ApplySettings(s config.Settings) error {
	timeout, err := s.GitTimeoutDuration()
	if err != nil {
		return err
	}
	if c, ok := e.Git.(*git.ExecCapturer); ok && timeout > 0 {
		c.Timeout = timeout
	}
	if s.Workers > 0 {
		e.Workers = s.Workers
	}
	e.IDPrefix = s.IDPrefix
	return nil
}

// Resolve turns a user-supplied reference into an exp_id.
// An empty ref resolves to the active box. Otherwise an exact id wins,
// then a unique prefix across every known box.
func (e *Engine) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return e.activeID()
	}
	if core.ValidateID(ref) == nil && (e.Boxes.Exists(ref) || e.Index.Exists(ref)) {
		return ref, nil
	}

	records, err := store.Scan(ctx, e.Boxes, e.Index, e.workers())
	if err != nil {
		return "", err
	}
	refs := make([]ids.BoxRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, ids.BoxRef{ExpID: r.ExpID, Project: r.Record.Project, Broken: r.Broken})
	}
	resolved, err := ids.ResolveBoxRef(ref, refs)
	if err != nil {
		return "", ids.ToBoxError(err)
	}
	return resolved.ExpID, nil
}

func (e *Engine) activeID() (string, error) {
	id, err := e.Active.Get()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.NewWithDetails(errors.ENoActiveBox, "no active box; pass an experiment id",
			map[string]string{"path": e.Active.Path})
	}
	return id, nil
}

// reserved reports whether id was ever assigned: a box directory or an
// index record exists for it. Archived ids stay reserved.
func (e *Engine) reserved(id string) bool {
	return e.Boxes.Exists(id) || e.Index.Exists(id)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logging.Discard()
}

func (e *Engine) capturer() git.Capturer {
	if e.Git != nil {
		return e.Git
	}
	return git.Nop{}
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return store.DefaultScanWorkers
}

// captureGit returns the current snapshot, or nil when git is unavailable.
// Only E_GIT_UNAVAILABLE is absorbed; it is logged as a warning.
func (e *Engine) captureGit(ctx context.Context, id string) (*git.Snapshot, *git.RemoteInfo, error) {
	snap, err := e.capturer().Capture(ctx, e.GitDir)
	if err != nil {
		if errors.Is(err, errors.EGitUnavailable) {
			e.log().Warn("git capture unavailable; continuing without git state",
				slog.String("exp_id", id), slog.String("error", err.Error()))
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if snap == nil {
		return nil, nil, nil
	}
	remote, err := e.capturer().Remote(ctx, e.GitDir, snap.Commit)
	if err != nil {
		e.log().Debug("git remote unavailable", slog.String("exp_id", id), slog.String("error", err.Error()))
		remote = nil
	}
	return snap, remote, nil
}

// journal appends to the box's events.jsonl. Failures are logged, never returned.
func (e *Engine) journal(paths store.BoxPaths, id, name string, data map[string]any) {
	ev := events.Event{
		Timestamp: e.now().Format(time.RFC3339),
		ExpID:     id,
		Event:     name,
		Data:      data,
	}
	if err := events.AppendEvent(paths.Events(), ev); err != nil {
		e.log().Warn("failed to append lifecycle event",
			slog.String("exp_id", id), slog.String("event", name), slog.String("error", err.Error()))
	}
}

// writeIndex upserts the record derived from meta. It must only be called
// after meta was written successfully.
func (e *Engine) writeIndex(meta *store.BoxMetadata) error {
	if err := e.Index.Upsert(store.DeriveIndexRecord(meta)); err != nil {
		e.log().Warn("index record is stale until the next save",
			slog.String("exp_id", meta.ExpID), slog.String("error", err.Error()))
		return err
	}
	return nil
}
