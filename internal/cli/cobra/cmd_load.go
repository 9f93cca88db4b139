package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [exp_id]",
		Short: "Make a box active and print its summary",
		Long: `Make a box active and print a JSON summary of it.
Without an argument, loads the active box.

Arguments:
  exp_id    exact exp_id or unique prefix`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeBoxIDs(true),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts := commands.LoadOpts{Ref: optionalRef(args)}
			return commands.Load(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}
