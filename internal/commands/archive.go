package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/lifecycle"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// ArchiveOpts holds options for the archive command.
type ArchiveOpts struct {
	Ref    string
	Reason string
}

// Archive implements the `expbox archive` command.
// Sets the box status to an archive reason; no file is removed.
func Archive(ctx context.Context, env Env, opts ArchiveOpts, stdout, stderr io.Writer) error {
	if strings.TrimSpace(opts.Ref) == "" {
		return errors.New(errors.EUsage, "archive requires an experiment id")
	}
	w, err := openWorkspace(env)
	if err != nil {
		return err
	}

	id, err := w.engine.Resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}
	err = w.engine.Archive(ctx, id, opts.Reason)
	if err != nil && !errors.Is(err, errors.EIndexWriteFailed) {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "archived: %s (%s)\n", id, opts.Reason)
	return err
}

// SweepOpts holds options for the sweep command.
type SweepOpts struct {
	// Statuses defaults to running.
	Statuses []string

	// OlderThan is a duration such as 72h; empty matches any age.
	OlderThan string

	// Idle is a duration such as 24h; only running boxes whose files have
	// not changed for that long match. Empty disables the check.
	Idle string

	Project string
	Reason  string
}

// Sweep implements the `expbox sweep` command.
// Archives every box matching all filters and prints the affected ids.
func Sweep(ctx context.Context, env Env, opts SweepOpts, stdout, stderr io.Writer) error {
	if _, err := store.ParseArchiveReason(opts.Reason); err != nil {
		return err
	}
	statuses, err := parseStatuses(opts.Statuses)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		statuses = []store.Status{store.StatusRunning}
	}

	w, err := openWorkspace(env)
	if err != nil {
		return err
	}

	preds := []lifecycle.Predicate{lifecycle.StatusIs(statuses...)}
	if opts.OlderThan != "" {
		age, err := time.ParseDuration(opts.OlderThan)
		if err != nil || age <= 0 {
			return errors.NewWithDetails(errors.EUsage, "--older-than expects a positive duration such as 72h",
				map[string]string{"input": opts.OlderThan})
		}
		preds = append(preds, lifecycle.OlderThan(age, w.now()))
	}
	if opts.Idle != "" {
		idle, err := time.ParseDuration(opts.Idle)
		if err != nil || idle <= 0 {
			return errors.NewWithDetails(errors.EUsage, "--idle expects a positive duration such as 24h",
				map[string]string{"input": opts.Idle})
		}
		preds = append(preds, w.engine.IdleFor(idle))
	}
	if opts.Project != "" {
		preds = append(preds, lifecycle.ProjectIs(opts.Project))
	}

	archived, err := w.engine.Sweep(ctx, lifecycle.And(preds...), opts.Reason)
	for _, id := range archived {
		_, _ = fmt.Fprintln(stdout, id)
	}
	_, _ = fmt.Fprintf(stderr, "archived %d box(es) as %s\n", len(archived), opts.Reason)
	return err
}
