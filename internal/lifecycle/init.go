package lifecycle

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/ids"
	"github.com/NielsdaWheelz/expbox/internal/logger"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// maxCreateRetries bounds regeneration when another process claims the
// same generated id between the reservation check and mkdir.
const maxCreateRetries = 3

// InitOptions configures a new box.
type InitOptions struct {
	// Project defaults to the workspace root's base name.
	Project string
	Title   string
	Purpose string

	// Config is nil, a map, or a path to a .json/.yaml/.yml file.
	Config any

	// ExpID overrides id generation. It must be a safe path segment that
	// was never assigned before.
	ExpID string

	// IDPrefix and IDSuffix decorate generated ids. IDPrefix falls back to
	// the engine's workspace default.
	IDPrefix string
	IDSuffix string

	// Logger selects the backend. The zero value is none.
	Logger logger.Spec

	// Environment is none, basic, or full.
	Environment string

	// EnvNote is a free-text description of the environment, stored as
	// notes.env_note.
	EnvNote string

	// Notes seeds the notes mapping.
	Notes map[string]any
}

// Init creates a box: config is normalized before anything touches disk,
// then the id is assigned, the tree created, git captured (best-effort),
// the config snapshotted, and meta.json followed by the index record
// written. The new box becomes active.
//
// If only the index write fails, Init returns the box together with
// E_INDEX_WRITE_FAILED; meta.json is valid and the next save heals the index.
func (e *Engine) Init(ctx context.Context, opts InitOptions) (*Box, error) {
	cfg, err := config.Normalize(e.FS, opts.Config)
	if err != nil {
		return nil, err
	}
	notes, err := normalizeNotes(e, opts.Notes)
	if err != nil {
		return nil, err
	}
	if opts.EnvNote != "" {
		notes["env_note"] = opts.EnvNote
	}
	envLevel, err := ParseEnvLevel(opts.Environment)
	if err != nil {
		return nil, err
	}
	backend := opts.Logger
	if backend.Kind == logger.KindExternal && backend.Sink == nil {
		return nil, errors.New(errors.EUsage, "external logger backend requires a sink")
	}

	project := opts.Project
	if project == "" {
		project = filepath.Base(e.Workspace.Root)
	}

	id, paths, err := e.createBox(project, opts)
	if err != nil {
		return nil, err
	}
	log := e.log().With(slog.String("exp_id", id))

	snap, remote, err := e.captureGit(ctx, id)
	if err != nil {
		return nil, err
	}

	relConfig, err := e.Boxes.WriteConfigSnapshot(id, cfg, config.SnapshotName(opts.Config))
	if err != nil {
		return nil, err
	}

	meta := store.NewBoxMetadata(id, project, opts.Title, e.now())
	meta.Purpose = opts.Purpose
	meta.ConfigPath = relConfig
	meta.Config = cfg
	meta.Notes = notes
	meta.LoggerBackend = backend.Name()
	meta.Environment = e.captureEnvironment(envLevel)
	meta.Git.Start = snap
	meta.Git.Last = snap.Clone()
	meta.Git.Remote = remote
	if snap != nil {
		meta.Git.DirtyFiles = git.MergeDirtyFiles(nil, snap.DirtyFiles)
	}

	if err := e.Boxes.WriteMeta(meta); err != nil {
		return nil, err
	}
	indexErr := e.writeIndex(meta)

	if err := e.Active.Set(id); err != nil {
		log.Warn("failed to update active pointer", slog.String("error", err.Error()))
	}

	lb, err := logger.Open(backend, paths)
	if err != nil {
		return nil, err
	}

	e.journal(paths, id, events.EventInit, events.InitData(project, opts.Title, backend.Name(), snap != nil))
	log.Debug("box initialised", slog.String("box_dir", paths.Root))

	box := newBox(cloneMeta(meta), paths, lb)
	if indexErr != nil {
		return box, indexErr
	}
	return box, nil
}

// createBox assigns an id and creates the box tree exclusively.
func (e *Engine) createBox(project string, opts InitOptions) (string, store.BoxPaths, error) {
	if opts.ExpID != "" {
		if err := core.ValidateID(opts.ExpID); err != nil {
			return "", store.BoxPaths{}, err
		}
		if e.reserved(opts.ExpID) {
			return "", store.BoxPaths{}, errors.NewWithDetails(errors.EAlreadyExists,
				"experiment id was already assigned", map[string]string{"exp_id": opts.ExpID})
		}
		paths, err := e.Boxes.Create(opts.ExpID)
		return opts.ExpID, paths, err
	}

	prefix := opts.IDPrefix
	if prefix == "" {
		prefix = e.IDPrefix
	}
	gen := &ids.Generator{
		Now:      e.now,
		Reserved: e.reserved,
		Prefix:   prefix,
		Suffix:   opts.IDSuffix,
	}

	var lastErr error
	for range maxCreateRetries {
		id, err := gen.Generate(project, opts.Title)
		if err != nil {
			return "", store.BoxPaths{}, err
		}
		paths, err := e.Boxes.Create(id)
		if err == nil {
			return id, paths, nil
		}
		if !errors.Is(err, errors.EAlreadyExists) {
			return "", store.BoxPaths{}, err
		}
		lastErr = err
	}
	return "", store.BoxPaths{}, lastErr
}

// normalizeNotes deep-copies notes into JSON-compatible values.
func normalizeNotes(e *Engine, notes map[string]any) (map[string]any, error) {
	out, err := config.Normalize(e.FS, notes)
	if err != nil {
		return nil, errors.Wrap(errors.EUsage, "notes must hold JSON-compatible values", err)
	}
	return out, nil
}
