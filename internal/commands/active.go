package commands

import (
	"context"
	"fmt"
	"io"
)

// ActiveOpts holds options for the active command.
type ActiveOpts struct {
	Clear bool
}

// Active prints the active box id, or clears the pointer.
// Prints nothing when no box is active.
func Active(ctx context.Context, env Env, opts ActiveOpts, stdout, stderr io.Writer) error {
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}
	if opts.Clear {
		return w.engine.Active.Clear()
	}
	id, err := w.engine.Active.Get()
	if err != nil {
		return err
	}
	if id != "" {
		_, _ = fmt.Fprintln(stdout, id)
	}
	return nil
}
