package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/NielsdaWheelz/expbox/internal/lifecycle"
	"github.com/NielsdaWheelz/expbox/internal/logger"
)

// InitOpts holds options for the init command.
type InitOpts struct {
	Project string
	Title   string
	Purpose string

	// Config is a path to a .json, .yaml, or .yml file; empty means none.
	Config string

	ExpID    string
	IDPrefix string
	IDSuffix string

	// Logger and Environment default to the workspace settings.
	Logger      string
	Environment string
	EnvNote     string

	// Notes are key=value pairs; values are parsed as JSON when possible.
	Notes []string
}

// Init implements the `expbox init` command.
// Creates a box, makes it active, and prints its id on stdout.
func Init(ctx context.Context, env Env, opts InitOpts, stdout, stderr io.Writer) error {
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}

	spec, err := logger.ParseKind(firstNonEmpty(opts.Logger, w.settings.Logger))
	if err != nil {
		return err
	}
	notes, err := parseKeyValues("note", opts.Notes)
	if err != nil {
		return err
	}

	var cfg any
	if opts.Config != "" {
		path := opts.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(env.Cwd, path)
		}
		cfg = path
	}

	box, err := w.engine.Init(ctx, lifecycle.InitOptions{
		Project:     opts.Project,
		Title:       opts.Title,
		Purpose:     opts.Purpose,
		Config:      cfg,
		ExpID:       opts.ExpID,
		IDPrefix:    opts.IDPrefix,
		IDSuffix:    opts.IDSuffix,
		Logger:      spec,
		Environment: firstNonEmpty(opts.Environment, w.settings.Environment),
		EnvNote:     opts.EnvNote,
		Notes:       notes,
	})
	if box == nil {
		return err
	}
	defer func() { _ = box.Close() }()

	// A box returned alongside an error has a valid meta.json but a
	// stale index record; the id is still printed.
	_, _ = fmt.Fprintln(stdout, box.ID())
	return err
}
