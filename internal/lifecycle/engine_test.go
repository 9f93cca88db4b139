package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/expbox/internal/config"
	boxerrors "github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/logging"
	"github.com/NielsdaWheelz/expbox/internal/testutil"
)

func TestMain(m *testing.M) {
	if err := testutil.IsolateEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

var testNow = time.Date(2025, 11, 25, 13, 20, 0, 0, time.UTC)

// fakeCapturer hands out snapshots in order; the last one repeats.
type fakeCapturer struct {
	mu     sync.Mutex
	snaps  []*git.Snapshot
	err    error
	remote *git.RemoteInfo
	calls  int
}

func (c *fakeCapturer) Capture(ctx context.Context, dir string) (*git.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if len(c.snaps) == 0 {
		return nil, nil
	}
	s := c.snaps[0]
	if len(c.snaps) > 1 {
		c.snaps = c.snaps[1:]
	}
	return s.Clone(), nil
}

func (c *fakeCapturer) Remote(ctx context.Context, dir, commit string) (*git.RemoteInfo, error) {
	return c.remote, nil
}

func snapshot(commit string, dirty ...string) *git.Snapshot {
	return &git.Snapshot{
		Commit:     commit,
		Subject:    "commit " + commit[:7],
		Branch:     "main",
		Dirty:      len(dirty) > 0,
		DirtyFiles: dirty,
		CapturedAt: testNow.Format(time.RFC3339),
	}
}

const (
	commitA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	commitB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// renameFailFS simulates a crash between the temp write and the rename.
type renameFailFS struct {
	fs.FS
}

func (renameFailFS) Rename(oldpath, newpath string) error {
	return errors.New("simulated crash before rename")
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(root, 0o755))
	ws, err := config.ResolveWorkspace(func(string) string { return "" }, root, config.WorkspaceFlags{})
	require.NoError(t, err)

	e := NewEngine(ws, fs.NewRealFS())
	e.Git = git.Nop{}
	e.Log = logging.Discard()
	e.Now = func() time.Time { return testNow }
	e.Hostname = func() (string, error) { return "gpu-node-7", nil }
	e.Getenv = func(k string) string {
		if k == "CUDA_VISIBLE_DEVICES" {
			return "0,1"
		}
		return ""
	}
	return e
}

func TestNewEngine_Defaults(t *testing.T) {
	ws := config.Workspace{Root: "/p", ResultsDir: "/p/results", ControlDir: "/p/.expbox"}
	e := NewEngine(ws, fs.NewRealFS())

	assert.Equal(t, "/p/results", e.Boxes.ResultsDir)
	assert.Equal(t, "/p/.expbox/index", e.Index.Dir)
	assert.Equal(t, "/p/.expbox/active", e.Active.Path)
	assert.Equal(t, "/p", e.GitDir)
	assert.IsType(t, &git.ExecCapturer{}, e.Git)
}

func TestApplySettings(t *testing.T) {
	ws := config.Workspace{Root: "/p", ResultsDir: "/p/results", ControlDir: "/p/.expbox"}
	e := NewEngine(ws, fs.NewRealFS())

	s := config.DefaultSettings()
	s.GitTimeout = "2s"
	s.Workers = 9
	s.IDPrefix = "lab"
	require.NoError(t, e.ApplySettings(s))

	assert.Equal(t, 2*time.Second, e.Git.(*git.ExecCapturer).Timeout)
	assert.Equal(t, 9, e.Workers)
	assert.Equal(t, "lab", e.IDPrefix)

	s.GitTimeout = "soon"
	assert.Error(t, e.ApplySettings(s))
}

func TestResolve(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Resolve(ctx, "")
	assert.Equal(t, boxerrors.ENoActiveBox, boxerrors.GetCode(err))

	a, err := e.Init(ctx, InitOptions{Project: "demo", Title: "alpha"})
	require.NoError(t, err)
	b, err := e.Init(ctx, InitOptions{Project: "demo", Title: "beta"})
	require.NoError(t, err)

	got, err := e.Resolve(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), got)

	got, err = e.Resolve(ctx, "251125-1320-demo-b")
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got)

	got, err = e.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got, "empty ref resolves to the active box")

	_, err = e.Resolve(ctx, "251125-1320-demo")
	assert.Equal(t, boxerrors.EIDAmbiguous, boxerrors.GetCode(err))

	_, err = e.Resolve(ctx, "nope")
	assert.Equal(t, boxerrors.ENotFound, boxerrors.GetCode(err))
}

func TestEngines_AreIndependent(t *testing.T) {
	ctx := context.Background()
	e1 := newTestEngine(t)
	e2 := newTestEngine(t)

	b1, err := e1.Init(ctx, InitOptions{Project: "one", Title: "t"})
	require.NoError(t, err)
	b2, err := e2.Init(ctx, InitOptions{Project: "two", Title: "t"})
	require.NoError(t, err)

	a1, _ := e1.Active.Get()
	a2, _ := e2.Active.Get()
	assert.Equal(t, b1.ID(), a1)
	assert.Equal(t, b2.ID(), a2)
	assert.False(t, e1.Boxes.Exists(b2.ID()))
}
