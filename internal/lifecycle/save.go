package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// FinalNoteKey is the notes key set by SaveOptions.FinalNote.
const FinalNoteKey = "final_note"

// SaveOptions adjusts a save. Zero values leave things unchanged.
type SaveOptions struct {
	// Status overrides any status buffered on the box.
	Status string

	// Notes are merged after the box's buffered notes.
	Notes map[string]any

	// FinalNote is merged last, as notes.final_note.
	FinalNote string

	// SkipGit keeps git.last as it is.
	SkipGit bool
}

// Save commits the box draft. The authoritative meta.json is re-read,
// git.last re-captured and dirty files accumulated, notes merged (buffered,
// then opts.Notes, then the final note; last write wins per key), and the
// status applied (opts.Status, else the buffered status, else unchanged).
// finished_at is stamped whenever the resulting status is done.
//
// meta.json is written first; the index record is derived from exactly
// what was written. If only the index write fails, Save returns
// E_INDEX_WRITE_FAILED and the next save repairs it. Box files other than
// meta.json are never touched.
func (e *Engine) Save(ctx context.Context, box *Box, opts SaveOptions) error {
	if box == nil {
		return errors.New(errors.EUsage, "save requires a box")
	}
	id := box.ID()

	var explicit store.Status
	if opts.Status != "" {
		st, err := store.ParseStatus(opts.Status)
		if err != nil {
			return err
		}
		explicit = st
	}
	pendingStatus, pendingNotes := box.draft()

	notes, err := normalizeNotes(e, pendingNotes)
	if err != nil {
		return err
	}
	extra, err := normalizeNotes(e, opts.Notes)
	if err != nil {
		return err
	}

	meta, err := e.Boxes.ReadMeta(id)
	if err != nil {
		return err
	}

	gitCaptured := false
	if !opts.SkipGit {
		snap, remote, err := e.captureGit(ctx, id)
		if err != nil {
			return err
		}
		if snap != nil {
			gitCaptured = true
			meta.Git.Last = snap
			meta.Git.DirtyFiles = git.MergeDirtyFiles(meta.Git.DirtyFiles, snap.DirtyFiles)
			if remote != nil {
				meta.Git.Remote = remote
			}
		}
	}

	for k, v := range notes {
		meta.Notes[k] = v
	}
	for k, v := range extra {
		meta.Notes[k] = v
	}
	if opts.FinalNote != "" {
		meta.Notes[FinalNoteKey] = opts.FinalNote
	}

	switch {
	case explicit != "":
		meta.Status = explicit
	case pendingStatus != "":
		meta.Status = pendingStatus
	}
	if meta.Status == store.StatusDone {
		meta.FinishedAt = e.now().Format(time.RFC3339)
	}

	if err := e.Boxes.WriteMeta(meta); err != nil {
		return err
	}
	box.committed(cloneMeta(meta), pendingStatus, pendingNotes)

	indexErr := e.writeIndex(meta)

	if err := box.Close(); err != nil {
		e.log().Warn("failed to close logger backend", slog.String("exp_id", id), slog.String("error", err.Error()))
	}

	code := ""
	if indexErr != nil {
		code = string(errors.GetCode(indexErr))
	}
	e.journal(box.Paths(), id, events.EventSave,
		events.SaveData(string(meta.Status), gitCaptured, len(meta.Git.DirtyFiles), code))
	return indexErr
}
