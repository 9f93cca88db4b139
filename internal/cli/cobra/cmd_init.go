package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newInitCmd() *cobra.Command {
	var opts commands.InitOpts

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new experiment box",
		Long: `Create a new experiment box under results/ and make it active.
Captures git state (best-effort), snapshots the config, and prints the
new exp_id on stdout.

Examples:
  expbox init --project demo --title t1 --config configs/base.yaml
  expbox init --title ablation --note seed=42 --env basic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			return commands.Init(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Project, "project", "", "project name (default: root directory name)")
	f.StringVar(&opts.Title, "title", "", "short experiment title")
	f.StringVar(&opts.Purpose, "purpose", "", "free-text purpose")
	f.StringVar(&opts.Config, "config", "", "config file to snapshot (.json, .yaml, .yml)")
	f.StringVar(&opts.ExpID, "exp-id", "", "use this id instead of generating one")
	f.StringVar(&opts.IDPrefix, "id-prefix", "", "segment placed after the timestamp in generated ids")
	f.StringVar(&opts.IDSuffix, "id-suffix", "", "segment appended to generated ids")
	f.StringVar(&opts.Logger, "logger", "", "logging backend: none or file (default: settings)")
	f.StringVar(&opts.Environment, "env", "", "environment capture: none, basic, or full (default: settings)")
	f.StringVar(&opts.EnvNote, "env-note", "", "free-text environment description")
	f.StringArrayVar(&opts.Notes, "note", nil, "note as key=value (repeatable)")

	return cmd
}
