package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/expbox/internal/core"
	boxerrors "github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/logger"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

func TestInit_DemoScenario(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	box, err := e.Init(ctx, InitOptions{
		Project: "demo",
		Title:   "t1",
		Config:  map[string]any{"lr": 0.01},
		Logger:  logger.File(),
	})
	require.NoError(t, err)
	defer box.Close()

	id := box.ID()
	assert.Equal(t, "251125-1320-demo-t1", id)
	assert.Regexp(t, core.GeneratedIDPattern, id)

	for _, dir := range append([]string{box.Paths().Root}, box.Paths().Subdirs()...) {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}

	meta, err := e.Boxes.ReadMeta(id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, meta.Status)
	assert.Equal(t, "2025-11-25T13:20:00Z", meta.CreatedAt)
	assert.Empty(t, meta.FinishedAt)
	assert.Equal(t, "artifacts/config.yaml", meta.ConfigPath)
	assert.Equal(t, "file", meta.LoggerBackend)
	assert.Nil(t, meta.Git.Start, "git.Nop captures nothing")
	assert.Nil(t, meta.Environment)

	rec, err := e.Index.Get(id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusRunning, rec.Status)
	assert.Equal(t, store.DeriveIndexRecord(meta), rec)

	active, err := e.Active.Get()
	require.NoError(t, err)
	assert.Equal(t, id, active)

	snapshot, err := os.ReadFile(filepath.Join(box.Paths().Artifacts, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "lr: 0.01\n", string(snapshot))

	evs, err := events.ReadEvents(box.Paths().Events())
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventInit, evs[0].Event)
	assert.Equal(t, id, evs[0].ExpID)
}

func TestInit_ConfigInvalidBeforeAnyWrite(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Init(context.Background(), InitOptions{
		Project: "demo",
		Title:   "t1",
		Config:  filepath.Join(e.Workspace.Root, "missing.yaml"),
	})
	assert.Equal(t, boxerrors.EConfigInvalid, boxerrors.GetCode(err))

	_, statErr := os.Stat(e.Workspace.ResultsDir)
	assert.True(t, os.IsNotExist(statErr), "results/ must not be created")
	_, statErr = os.Stat(e.Workspace.ControlDir)
	assert.True(t, os.IsNotExist(statErr), ".expbox/ must not be created")
}

func TestInit_RejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts InitOptions
		code boxerrors.Code
	}{
		{"environment", InitOptions{Environment: "verbose"}, boxerrors.EUsage},
		{"external without sink", InitOptions{Logger: logger.Spec{Kind: logger.KindExternal}}, boxerrors.EUsage},
		{"unsafe id", InitOptions{ExpID: "../escape"}, boxerrors.EInvalidID},
		{"notes", InitOptions{Notes: map[string]any{"ch": make(chan int)}}, boxerrors.EUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			_, err := e.Init(context.Background(), tt.opts)
			assert.Equal(t, tt.code, boxerrors.GetCode(err))
		})
	}
}

func TestInit_JSONConfigSnapshot(t *testing.T) {
	e := newTestEngine(t)
	src := filepath.Join(e.Workspace.Root, "cfg.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"lr": 0.01, "layers": [64, 64]}`), 0o644))

	box, err := e.Init(context.Background(), InitOptions{Project: "demo", Title: "t1", Config: src})
	require.NoError(t, err)

	meta := box.Metadata()
	assert.Equal(t, "artifacts/config.json", meta.ConfigPath)
	data, err := os.ReadFile(filepath.Join(box.Paths().Artifacts, "config.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"lr": 0.01, "layers": [64, 64]}`, string(data))

	cfg := box.Config()
	cfg["lr"] = 1.0
	assert.Equal(t, 0.01, box.Config()["lr"], "Config returns a copy")
}

func TestInit_GitUnavailableDegrades(t *testing.T) {
	e := newTestEngine(t)
	fc := &fakeCapturer{err: boxerrors.New(boxerrors.EGitUnavailable, "not a git repository")}
	e.Git = fc

	box, err := e.Init(context.Background(), InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	meta := box.Metadata()
	assert.Nil(t, meta.Git.Start)
	assert.Nil(t, meta.Git.Last)
	assert.Empty(t, meta.Git.DirtyFiles)
	assert.Equal(t, 1, fc.calls)
}

func TestInit_OtherCaptureErrorsPropagate(t *testing.T) {
	e := newTestEngine(t)
	e.Git = &fakeCapturer{err: boxerrors.New(boxerrors.EInternal, "boom")}

	_, err := e.Init(context.Background(), InitOptions{Project: "demo", Title: "t1"})
	assert.Equal(t, boxerrors.EInternal, boxerrors.GetCode(err))
}

func TestInit_CapturesGit(t *testing.T) {
	e := newTestEngine(t)
	e.Git = &fakeCapturer{
		snaps:  []*git.Snapshot{snapshot(commitA, "a.py")},
		remote: &git.RemoteInfo{Name: "origin", URL: "git@github.com:acme/exp.git"},
	}

	box, err := e.Init(context.Background(), InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	meta := box.Metadata()
	require.NotNil(t, meta.Git.Start)
	assert.Equal(t, commitA, meta.Git.Start.Commit)
	assert.Equal(t, meta.Git.Start, meta.Git.Last)
	assert.Equal(t, []string{"a.py"}, meta.Git.DirtyFiles)
	assert.Equal(t, "origin", meta.Git.Remote.Name)

	rec, err := e.Index.Get(box.ID())
	require.NoError(t, err)
	assert.Equal(t, commitA, rec.GitStartCommit)
	assert.True(t, rec.Dirty)
}

func TestInit_IDsUniqueWithinMinute(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)
	second, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, "251125-1320-demo-t1-2", second.ID())
	for _, id := range []string{first.ID(), second.ID()} {
		assert.Regexp(t, core.GeneratedIDPattern, id)
		_, err := e.Boxes.ReadMeta(id)
		assert.NoError(t, err)
	}
}

func TestInit_IndexOnlyIDStaysReserved(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)
	// The box directory is gone but its id was assigned once.
	require.NoError(t, os.RemoveAll(first.Paths().Root))

	second, err := e.Init(ctx, InitOptions{Project: "demo", Title: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "251125-1320-demo-t1-2", second.ID())
}

func TestInit_ExplicitIDAndDecorations(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	box, err := e.Init(ctx, InitOptions{ExpID: "baseline_v1", Title: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "baseline_v1", box.ID())
	assert.Equal(t, "proj", box.Metadata().Project, "project defaults to the workspace name")

	_, err = e.Init(ctx, InitOptions{ExpID: "baseline_v1"})
	assert.Equal(t, boxerrors.EAlreadyExists, boxerrors.GetCode(err))

	e.IDPrefix = "lab"
	box, err = e.Init(ctx, InitOptions{Project: "demo", Title: "t1", IDSuffix: "seed42"})
	require.NoError(t, err)
	assert.Equal(t, "251125-1320-lab-demo-t1-seed42", box.ID())

	box, err = e.Init(ctx, InitOptions{Project: "demo", Title: "t1", IDPrefix: "ablation"})
	require.NoError(t, err)
	assert.Equal(t, "251125-1320-ablation-demo-t1", box.ID())
}

func TestInit_EnvironmentLevels(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	basic, err := e.Init(ctx, InitOptions{Project: "demo", Title: "basic", Environment: EnvBasic, EnvNote: "A100 node"})
	require.NoError(t, err)
	env := basic.Metadata().Environment
	require.NotNil(t, env)
	assert.Equal(t, EnvBasic, env.Level)
	assert.Equal(t, "gpu-node-7", env.Hostname)
	assert.NotEmpty(t, env.GoVersion)
	assert.Empty(t, env.Cwd)
	assert.Empty(t, env.CUDAVisibleDevices)
	assert.Equal(t, "A100 node", basic.Metadata().Notes["env_note"])

	full, err := e.Init(ctx, InitOptions{Project: "demo", Title: "full", Environment: EnvFull})
	require.NoError(t, err)
	env = full.Metadata().Environment
	require.NotNil(t, env)
	assert.Equal(t, "0,1", env.CUDAVisibleDevices)
	assert.NotEmpty(t, env.Cwd)

	rec, err := e.Index.Get(full.ID())
	require.NoError(t, err)
	assert.NotContains(t, mustJSON(t, rec), "gpu-node-7")
}

func TestInit_IndexFailureReturnsBox(t *testing.T) {
	e := newTestEngine(t)
	e.Index = store.NewIndexStore(renameFailFS{e.FS}, e.Index.Dir)

	box, err := e.Init(context.Background(), InitOptions{Project: "demo", Title: "t1"})
	assert.Equal(t, boxerrors.EIndexWriteFailed, boxerrors.GetCode(err))
	require.NotNil(t, box)

	_, err = e.Boxes.ReadMeta(box.ID())
	assert.NoError(t, err, "meta.json is valid even though the index write failed")
}

func TestLoad(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Load(ctx, "")
	assert.Equal(t, boxerrors.ENoActiveBox, boxerrors.GetCode(err))

	a, err := e.Init(ctx, InitOptions{Project: "demo", Title: "a", Logger: logger.File()})
	require.NoError(t, err)
	b, err := e.Init(ctx, InitOptions{Project: "demo", Title: "b"})
	require.NoError(t, err)

	before, err := os.ReadFile(a.Paths().Meta)
	require.NoError(t, err)

	loaded, err := e.Load(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), loaded.ID())
	assert.Equal(t, "file", loaded.Logger().Name())

	after, err := os.ReadFile(a.Paths().Meta)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "load must not rewrite meta.json")

	active, _ := e.Active.Get()
	assert.Equal(t, a.ID(), active)

	loaded, err = e.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, a.ID(), loaded.ID())

	_, err = e.Load(ctx, "251125-1320-nothing")
	assert.Equal(t, boxerrors.ENotFound, boxerrors.GetCode(err))

	require.NoError(t, os.WriteFile(b.Paths().Meta, []byte("{"), 0o644))
	_, err = e.Load(ctx, b.ID())
	assert.Equal(t, boxerrors.ECorrupt, boxerrors.GetCode(err))
	active, _ = e.Active.Get()
	assert.Equal(t, a.ID(), active, "a failed load leaves the active pointer alone")
}
