package commands

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/render"
)

// ShowOpts holds options for the show command.
type ShowOpts struct {
	// Ref is an exp_id or unique prefix; empty shows the active box.
	Ref string

	// JSON prints meta.json as stored.
	JSON bool

	// Path prints only resolved filesystem paths.
	Path bool
}

// Show implements the `expbox show` command.
// Read-only: the active pointer and the journal are left alone.
func Show(ctx context.Context, env Env, opts ShowOpts, stdout, stderr io.Writer) error {
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}
	e := w.engine

	id, err := e.Resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}
	paths, err := e.Boxes.Paths(id)
	if err != nil {
		return err
	}

	meta, metaErr := e.Boxes.ReadMeta(id)

	if opts.Path {
		// Paths of a box with unreadable metadata are still useful for
		// inspecting it by hand.
		data := render.ShowPathsData{Box: paths}
		if metaErr == nil && meta.ConfigPath != "" {
			data.ConfigPath = filepath.Join(paths.Root, meta.ConfigPath)
		}
		if p, err := e.Index.RecordPath(id); err == nil {
			data.IndexRecord = p
		}
		return render.WriteShowPaths(stdout, data)
	}

	if metaErr != nil {
		return metaErr
	}

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(meta); err != nil {
			return errors.Wrap(errors.EInternal, "failed to write metadata", err)
		}
		return nil
	}
	return render.WriteShowHuman(stdout, meta)
}
