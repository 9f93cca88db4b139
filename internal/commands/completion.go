// Package commands implements expbox CLI commands.
// This file implements box id candidates for shell tab completion.
package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/store"
)

// CompleteOpts holds options for box id completion.
type CompleteOpts struct {
	// Prefix filters candidates; empty matches all.
	Prefix string

	// IncludeArchived keeps aborted, stale, and superseded boxes.
	IncludeArchived bool
}

// CompleteBoxes returns exp_id candidates, newest first.
// Completion must never fail loudly: any error yields no candidates.
func CompleteBoxes(ctx context.Context, env Env, opts CompleteOpts) []string {
	w, err := openWorkspace(env)
	if err != nil {
		return nil
	}
	records, err := store.Scan(ctx, w.engine.Boxes, w.engine.Index, w.engine.Workers)
	if err != nil {
		return nil
	}

	var filtered []store.IndexRecord
	for _, rec := range records {
		if rec.Broken {
			continue
		}
		if rec.Record.Status.IsArchiveReason() && !opts.IncludeArchived {
			continue
		}
		if !strings.HasPrefix(rec.ExpID, opts.Prefix) {
			continue
		}
		filtered = append(filtered, rec.Record)
	}

	// created_at DESC, tie-breaker exp_id DESC; unparsable times sort last
	sort.Slice(filtered, func(i, j int) bool {
		ti, tj := filtered[i].CreatedTime(), filtered[j].CreatedTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return filtered[i].ExpID > filtered[j].ExpID
	})

	candidates := make([]string, len(filtered))
	for i, rec := range filtered {
		candidates[i] = rec.ExpID
	}
	return candidates
}
