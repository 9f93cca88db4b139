package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path [exp_id]",
		Short: "Print the box directory",
		Long: `Print the absolute box directory.
Without an argument, uses the active box.

Example:
  cd "$(expbox path)"`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeBoxIDs(true),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts := commands.PathOpts{Ref: optionalRef(args)}
			return commands.Path(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}
