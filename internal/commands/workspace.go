// Package commands implements expbox CLI commands.
package commands

import (
	"os"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/export"
	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/lifecycle"
)

// Env is what every command needs to locate and open a workspace.
// Zero fields fall back to the process environment.
type Env struct {
	FS     fs.FS
	Cwd    string
	Getenv func(string) string
	Flags  config.WorkspaceFlags

	// Git replaces the git binary when set.
	Git git.Capturer

	// Now replaces the wall clock when set.
	Now func() time.Time
}

// OSEnv returns an Env backed by the real filesystem, environment, and cwd.
func OSEnv(flags config.WorkspaceFlags) (Env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Env{}, err
	}
	return Env{FS: fs.NewRealFS(), Cwd: cwd, Getenv: os.Getenv, Flags: flags}, nil
}

// workspace is an opened workspace: resolved paths, settings, and the
// engine configured from them.
type workspace struct {
	ws       config.Workspace
	settings config.Settings
	engine   *lifecycle.Engine
}

func openWorkspace(env Env) (*workspace, error) {
	fsys := env.FS
	if fsys == nil {
		fsys = fs.NewRealFS()
	}
	getenv := env.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	ws, err := config.ResolveWorkspace(getenv, env.Cwd, env.Flags)
	if err != nil {
		return nil, err
	}
	settings, _, err := config.LoadSettings(fsys, ws)
	if err != nil {
		return nil, err
	}

	e := lifecycle.NewEngine(ws, fsys)
	e.Getenv = getenv
	if err := e.ApplySettings(settings); err != nil {
		return nil, err
	}
	if env.Git != nil {
		e.Git = env.Git
	}
	if env.Now != nil {
		e.Now = env.Now
		e.Boxes.Now = env.Now
	}
	return &workspace{ws: ws, settings: settings, engine: e}, nil
}

func (w *workspace) exporter() *export.Exporter {
	x := export.New(w.engine.Boxes, w.engine.Index)
	x.Workers = w.engine.Workers
	return x
}

func (w *workspace) now() time.Time {
	if w.engine.Now != nil {
		return w.engine.Now().UTC()
	}
	return time.Now().UTC()
}
