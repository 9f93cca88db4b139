package commands

import (
	"context"
	"fmt"
	"io"
)

// PathOpts holds options for the path command.
type PathOpts struct {
	// Ref is an exp_id or unique prefix; empty means the active box.
	Ref string
}

// Path outputs the box directory.
// This is a read-only command with no side effects.
// Outputs a single line to stdout on success, for use as cd "$(expbox path)".
func Path(ctx context.Context, env Env, opts PathOpts, stdout, stderr io.Writer) error {
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}

	id, err := w.engine.Resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}
	paths, err := w.engine.Boxes.Paths(id)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(stdout, paths.Root)
	return nil
}
