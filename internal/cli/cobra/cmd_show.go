package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newShowCmd() *cobra.Command {
	var jsonOutput bool
	var pathOutput bool

	cmd := &cobra.Command{
		Use:   "show [exp_id]",
		Short: "Show details of a box",
		Long: `Show details for a single box. Read-only: the active box is not changed.
Without an argument, shows the active box.

Arguments:
  exp_id    exact exp_id or unique prefix`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeBoxIDs(true),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts := commands.ShowOpts{
				Ref:  optionalRef(args),
				JSON: jsonOutput,
				Path: pathOutput,
			}
			return commands.Show(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print meta.json as stored")
	cmd.Flags().BoolVar(&pathOutput, "path", false, "output only resolved filesystem paths")

	return cmd
}
