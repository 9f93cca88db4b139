package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/NielsdaWheelz/expbox/internal/errors"
)

// LoadOpts holds options for the load command.
type LoadOpts struct {
	// Ref is an exp_id or unique prefix; empty loads the active box.
	Ref string
}

// LoadResult is the JSON summary printed by load.
type LoadResult struct {
	ExpID         string `json:"exp_id"`
	Project       string `json:"project"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	BoxDir        string `json:"box_dir"`
	ConfigPath    string `json:"config_path"`
	LoggerBackend string `json:"logger_backend"`
}

// Load implements the `expbox load` command.
// Makes the box active and prints a JSON summary on stdout.
func Load(ctx context.Context, env Env, opts LoadOpts, stdout, stderr io.Writer) error {
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}

	id, err := w.engine.Resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}
	box, err := w.engine.Load(ctx, id)
	if err != nil {
		return err
	}
	defer func() { _ = box.Close() }()

	meta := box.Metadata()
	result := LoadResult{
		ExpID:         meta.ExpID,
		Project:       meta.Project,
		Title:         meta.Title,
		Status:        string(meta.Status),
		CreatedAt:     meta.CreatedAt,
		FinishedAt:    meta.FinishedAt,
		BoxDir:        box.Paths().Root,
		ConfigPath:    meta.ConfigPath,
		LoggerBackend: meta.LoggerBackend,
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(errors.EInternal, "failed to write load summary", err)
	}
	return nil
}
