package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/lifecycle"
)

// SaveOpts holds options for the save command.
type SaveOpts struct {
	// Ref is an exp_id or unique prefix; empty saves the active box.
	Ref string

	Status    string
	Notes     []string
	FinalNote string

	// NoUpdateGit keeps git.last as recorded.
	NoUpdateGit bool
}

// Save implements the `expbox save` command.
// Re-captures git state, merges notes, applies the status, and rewrites
// meta.json and the index record.
func Save(ctx context.Context, env Env, opts SaveOpts, stdout, stderr io.Writer) error {
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}

	notes, err := parseKeyValues("note", opts.Notes)
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

	err = w.engine.Save(ctx, box, lifecycle.SaveOptions{
		Status:    opts.Status,
		Notes:     notes,
		FinalNote: opts.FinalNote,
		SkipGit:   opts.NoUpdateGit,
	})
	if err != nil && !errors.Is(err, errors.EIndexWriteFailed) {
		_ = box.Close()
		return err
	}

	meta := box.Metadata()
	_, _ = fmt.Fprintf(stdout, "exp_id: %s\n", meta.ExpID)
	_, _ = fmt.Fprintf(stdout, "status: %s\n", meta.Status)
	if last := meta.Git.Last; last != nil {
		_, _ = fmt.Fprintf(stdout, "git_last: %s\n", last.ShortCommit())
	}
	return err
}
