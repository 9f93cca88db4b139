package lifecycle

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boxerrors "github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/exec"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/store"
	"github.com/NielsdaWheelz/expbox/internal/testutil"
)

var hex40 = regexp.MustCompile(`^[0-9a-f]{40}$`)

func TestSave_DoneWithFixtureRepo(t *testing.T) {
	repo := testutil.InitRepo(t)
	e := newTestEngine(t)
	ctx := context.Background()

	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)
	require.Nil(t, box.Metadata().Git.Last)

	e.Git = git.NewExecCapturer(exec.NewRealRunner())
	e.GitDir = repo
	e.Now = func() time.Time { return testNow.Add(time.Hour) }

	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done", FinalNote: "ok"}))

	meta, err := e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	require.NotNil(t, meta.Git.Last)
	assert.Regexp(t, hex40, meta.Git.Last.Commit)
	assert.Equal(t, "Initial commit", meta.Git.Last.Subject)
	assert.Equal(t, "main", meta.Git.Last.Branch)
	assert.Nil(t, meta.Git.Start, "git.start is written once at init")
	assert.Equal(t, store.StatusDone, meta.Status)
	assert.Equal(t, "2025-11-25T14:20:00Z", meta.FinishedAt)
	assert.Equal(t, "ok", meta.Notes[FinalNoteKey])

	rec, err := e.Index.Get(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, rec.Status)
	assert.Equal(t, meta.Git.Last.Commit, rec.GitLastCommit)
	assert.Equal(t, meta.FinishedAt, rec.FinishedAt)
}

func TestSave_DirtyFilesAccumulate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	e.Git = &fakeCapturer{snaps: []*git.Snapshot{
		snapshot(commitA, "a.py"),
		snapshot(commitB, "b.py", "a.py"),
	}}
	require.NoError(t, e.Save(ctx, box, SaveOptions{}))
	require.NoError(t, e.Save(ctx, box, SaveOptions{}))

	meta, err := e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, meta.Git.DirtyFiles)
	assert.Equal(t, commitB, meta.Git.Last.Commit)
	assert.Equal(t, []string{"b.py", "a.py"}, meta.Git.Last.DirtyFiles)
}

func TestSave_GitFailureKeepsLast(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Git = &fakeCapturer{snaps: []*git.Snapshot{snapshot(commitA, "a.py")}}
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	e.Git = &fakeCapturer{err: boxerrors.New(boxerrors.EGitUnavailable, "git timed out")}
	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done"}))

	meta, err := e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, commitA, meta.Git.Last.Commit)
	assert.Equal(t, store.StatusDone, meta.Status)
}

func TestSave_SkipGit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	fc := &fakeCapturer{snaps: []*git.Snapshot{snapshot(commitA)}}
	e.Git = fc
	require.NoError(t, e.Save(ctx, box, SaveOptions{SkipGit: true}))
	assert.Equal(t, 0, fc.calls)
	assert.Nil(t, box.Metadata().Git.Last)
}

func TestSave_ConfigSnapshotImmutable(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1", Config: map[string]any{"lr": 0.01}})
	require.NoError(t, err)

	path := filepath.Join(box.Paths().Artifacts, "config.yaml")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	cfg := box.Config()
	cfg["lr"] = 0.5
	require.NoError(t, e.Save(ctx, box, SaveOptions{Notes: map[string]any{"lr_try": 0.5}}))
	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done"}))

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again))

	_, err = e.Boxes.WriteConfigSnapshot(box.ID(), cfg, "config.yaml")
	assert.Equal(t, boxerrors.EAlreadyExists, boxerrors.GetCode(err))
}

func TestSave_DraftIsBufferedUntilSave(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	before, err := os.ReadFile(box.Paths().Meta)
	require.NoError(t, err)

	box.SetNote("lr", 0.1)
	box.SetNote("lr", 0.2)
	require.NoError(t, box.SetStatus("aborted"))
	assert.Equal(t, boxerrors.EInvalidStatus, boxerrors.GetCode(box.SetStatus("failed")))
	assert.True(t, box.Pending())

	after, err := os.ReadFile(box.Paths().Meta)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "draft changes must not hit disk")
	assert.Equal(t, store.StatusRunning, box.Status())

	require.NoError(t, e.Save(ctx, box, SaveOptions{}))
	assert.False(t, box.Pending())

	meta, err := e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusAborted, meta.Status)
	assert.Equal(t, json.Number("0.2"), meta.Notes["lr"])
	assert.Empty(t, meta.FinishedAt)
}

func TestSave_StatusAndNotePrecedence(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1", Notes: map[string]any{"keep": "yes"}})
	require.NoError(t, err)

	require.NoError(t, box.SetStatus("aborted"))
	box.SetNote(FinalNoteKey, "draft")
	box.SetNote("k", "draft")
	require.NoError(t, e.Save(ctx, box, SaveOptions{
		Status:    "done",
		Notes:     map[string]any{"k": "option"},
		FinalNote: "final",
	}))

	meta := box.Metadata()
	assert.Equal(t, store.StatusDone, meta.Status)
	assert.Equal(t, "final", meta.Notes[FinalNoteKey])
	assert.Equal(t, "option", meta.Notes["k"])
	assert.Equal(t, "yes", meta.Notes["keep"])

	_, err = e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, boxerrors.EInvalidStatus, boxerrors.GetCode(e.Save(ctx, box, SaveOptions{Status: "finished"})))
}

func TestSave_RestampsFinishedAt(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done"}))
	assert.Equal(t, "2025-11-25T13:20:00Z", box.Metadata().FinishedAt)

	e.Now = func() time.Time { return testNow.Add(2 * time.Hour) }
	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done"}))
	assert.Equal(t, "2025-11-25T15:20:00Z", box.Metadata().FinishedAt)
}

func TestSave_ArchivedBoxKeepsStatus(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)
	require.NoError(t, e.Archive(ctx, box.ID(), "stale"))

	e.Git = &fakeCapturer{snaps: []*git.Snapshot{snapshot(commitB)}}
	require.NoError(t, e.Save(ctx, box, SaveOptions{FinalNote: "late"}))

	meta, err := e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusStale, meta.Status, "save re-reads meta.json and keeps the archived status")
	assert.Equal(t, commitB, meta.Git.Last.Commit)
}

func TestSave_IndexFailureSelfHeals(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	healthy := e.Index
	e.Index = store.NewIndexStore(renameFailFS{e.FS}, healthy.Dir)
	err = e.Save(ctx, box, SaveOptions{Status: "done"})
	assert.Equal(t, boxerrors.EIndexWriteFailed, boxerrors.GetCode(err))

	meta, err := e.Boxes.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, meta.Status, "meta.json is written before the index")
	rec, err := healthy.Get(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, rec.Status, "index is stale until the next save")

	e.Index = healthy
	require.NoError(t, e.Save(ctx, box, SaveOptions{}))
	rec, err = healthy.Get(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.DeriveIndexRecord(box.Metadata()), rec)
}

func TestSave_MetaFailureLeavesDraft(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	healthy := e.Boxes
	e.Boxes = store.NewBoxStore(renameFailFS{e.FS}, healthy.ResultsDir, healthy.Now)
	box.SetNote("k", "v")
	err = e.Save(ctx, box, SaveOptions{Status: "done"})
	assert.Equal(t, boxerrors.EMetaWriteFailed, boxerrors.GetCode(err))
	assert.True(t, box.Pending(), "a failed save keeps buffered changes for the retry")

	meta, err := healthy.ReadMeta(box.ID())
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, meta.Status)

	e.Boxes = healthy
	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done"}))
	assert.Equal(t, "v", box.Metadata().Notes["k"])
}

func TestSave_Journal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	box, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)
	require.NoError(t, e.Save(ctx, box, SaveOptions{Status: "done"}))
	require.NoError(t, e.Archive(ctx, box.ID(), "superseded"))

	evs, err := events.ReadEvents(box.Paths().Events())
	require.NoError(t, err)
	var names []string
	for _, ev := range evs {
		names = append(names, ev.Event)
	}
	assert.Equal(t, []string{events.EventInit, events.EventSave, events.EventArchive}, names)
	assert.Equal(t, "done", evs[2].Data["previous_status"])
}

func TestSave_NilBox(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, boxerrors.EUsage, boxerrors.GetCode(e.Save(context.Background(), nil, SaveOptions{})))
}
