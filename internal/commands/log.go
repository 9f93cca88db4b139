package commands

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/logger"
)

// LogOpts holds options for the log command.
type LogOpts struct {
	// Ref is an exp_id or unique prefix; empty means the active box.
	Ref string

	// Step is logger.NoStep when unset.
	Step int

	// Metrics are key=value pairs for one metrics.jsonl record.
	Metrics []string

	// Artifact is a file copied into artifacts/, named ArtifactName or
	// its base name.
	Artifact     string
	ArtifactName string
}

// Log implements the `expbox log` command.
// Writes through the file backend regardless of the box's configured
// backend; meta.json is not touched.
func Log(ctx context.Context, env Env, opts LogOpts, stdout, stderr io.Writer) error {
	if len(opts.Metrics) == 0 && strings.TrimSpace(opts.Artifact) == "" {
		return errors.New(errors.EUsage, "nothing to log; pass key=value metrics or --artifact")
	}
	values, err := parseKeyValues("metric", opts.Metrics)
	if err != nil {
		return err
	}

	w, err := openWorkspace(env)
	if err != nil {
		return err
	}
	id, err := w.engine.Resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}
	if _, err := w.engine.Boxes.ReadMeta(id); err != nil {
		return err
	}
	paths, err := w.engine.Boxes.Paths(id)
	if err != nil {
		return err
	}

	backend, err := logger.Open(logger.File(), paths)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if len(values) > 0 {
		if err := backend.LogMetrics(opts.Step, values); err != nil {
			return err
		}
	}
	if opts.Artifact != "" {
		src := opts.Artifact
		if !filepath.IsAbs(src) {
			src = filepath.Join(env.Cwd, src)
		}
		if err := backend.LogArtifact(src, opts.ArtifactName); err != nil {
			return err
		}
	}
	return nil
}
