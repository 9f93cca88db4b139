package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/scaffold"
)

// SetupResult holds the result of the setup command for output formatting.
type SetupResult struct {
	Root          string
	ResultsDir    string
	SettingsPath  string
	SettingsState string // "created" or "exists"
}

// Setup implements the `expbox setup` command.
// Creates the results and control directories and writes settings.yaml if
// missing. An existing settings file is validated, never overwritten.
func Setup(ctx context.Context, env Env, stdout, stderr io.Writer) error {
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
		return err
	}

	for _, dir := range []string{ws.ResultsDir, ws.ControlDir} {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithDetails(errors.EInternal, "failed to create workspace directory", err,
				map[string]string{"path": dir})
		}
	}

	created, err := scaffold.WriteSettings(fsys, ws.SettingsPath())
	if err != nil {
		return errors.WrapWithDetails(errors.EConfigInvalid, "failed to write settings", err,
			map[string]string{"path": ws.SettingsPath()})
	}
	if !created {
		if _, _, err := config.LoadSettings(fsys, ws); err != nil {
			return err
		}
	}

	state := "exists"
	if created {
		state = "created"
	}
	writeSetupOutput(stdout, SetupResult{
		Root:          ws.Root,
		ResultsDir:    ws.ResultsDir,
		SettingsPath:  ws.SettingsPath(),
		SettingsState: state,
	})
	return nil
}

func writeSetupOutput(w io.Writer, r SetupResult) {
	_, _ = fmt.Fprintf(w, "root: %s\n", r.Root)
	_, _ = fmt.Fprintf(w, "results_dir: %s\n", r.ResultsDir)
	_, _ = fmt.Fprintf(w, "settings_path: %s\n", r.SettingsPath)
	_, _ = fmt.Fprintf(w, "settings: %s\n", r.SettingsState)
}
