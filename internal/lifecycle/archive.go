package lifecycle

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/store"
	"github.com/NielsdaWheelz/expbox/internal/watchdog"
)

// Archive sets a box's status to an archive reason (aborted, stale, or
// superseded) and re-derives its index record. Git state, notes, config,
// and files are left alone.
func (e *Engine) Archive(ctx context.Context, id string, reason string) error {
	st, err := store.ParseArchiveReason(reason)
	if err != nil {
		return err
	}
	return e.archive(ctx, id, st, "archive")
}

func (e *Engine) archive(ctx context.Context, id string, reason store.Status, via string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta, err := e.Boxes.ReadMeta(id)
	if err != nil {
		return err
	}
	previous := meta.Status
	meta.Status = reason
	if err := e.Boxes.WriteMeta(meta); err != nil {
		return err
	}
	indexErr := e.writeIndex(meta)

	if paths, err := e.Boxes.Paths(id); err == nil {
		e.journal(paths, id, events.EventArchive, events.ArchiveData(string(previous), string(reason), via))
	}
	return indexErr
}

// Predicate selects boxes for Sweep by their index record.
type Predicate func(store.IndexRecord) bool

// StatusIs matches any of the given statuses.
func StatusIs(statuses ...store.Status) Predicate {
	return func(r store.IndexRecord) bool {
		for _, s := range statuses {
			if r.Status == s {
				return true
			}
		}
		return false
	}
}

// OlderThan matches boxes created more than age before now.
// Records with an unparsable created_at never match.
func OlderThan(age time.Duration, now time.Time) Predicate {
	cutoff := now.Add(-age)
	return func(r store.IndexRecord) bool {
		t := r.CreatedTime()
		return !t.IsZero() && t.Before(cutoff)
	}
}

// ProjectIs matches an exact project name.
func ProjectIs(project string) Predicate {
	return func(r store.IndexRecord) bool { return r.Project == project }
}

// IdleFor matches running boxes whose meta.json, metrics, and journal
// have all gone unmodified for at least threshold.
func (e *Engine) IdleFor(threshold time.Duration) Predicate {
	now := e.now()
	return func(r store.IndexRecord) bool {
		paths, err := e.Boxes.Paths(r.ExpID)
		if err != nil {
			return false
		}
		signals := watchdog.CollectSignals(e.FS, paths, r.Status)
		return watchdog.CheckIdle(signals, threshold, now).IsIdle
	}
}

// And matches when every predicate matches. No predicates match everything.
func And(preds ...Predicate) Predicate {
	return func(r store.IndexRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Sweep archives every box whose record satisfies pred and returns the
// archived ids in ascending order. Boxes are enumerated from the index,
// falling back to meta.json where the index record is missing or corrupt;
// unreadable boxes are skipped with a warning.
//
// Archives run concurrently, bounded by Engine.Workers. A failing box does
// not stop the others: its error is joined into the returned error, and
// its id is listed only if meta.json was archived.
func (e *Engine) Sweep(ctx context.Context, pred Predicate, reason string) ([]string, error) {
	st, err := store.ParseArchiveReason(reason)
	if err != nil {
		return nil, err
	}
	if pred == nil {
		pred = And()
	}

	records, err := store.Scan(ctx, e.Boxes, e.Index, e.workers())
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		archived []string
		errs     []error
	)
	var g errgroup.Group
	g.SetLimit(e.workers())
	for _, rec := range records {
		if rec.Broken {
			e.log().Warn("skipping unreadable box", slog.String("exp_id", rec.ExpID), slog.String("error", rec.Err.Error()))
			continue
		}
		if !pred(rec.Record) {
			continue
		}
		g.Go(func() error {
			err := e.archive(ctx, rec.ExpID, st, "sweep")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			// meta.json already carries the new status when only the index failed.
			if err == nil || errors.Is(err, errors.EIndexWriteFailed) {
				archived = append(archived, rec.ExpID)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(archived)
	e.log().Debug("sweep finished", slog.Int("archived", len(archived)), slog.Int("failed", len(errs)))
	return archived, stderrors.Join(errs...)
}
