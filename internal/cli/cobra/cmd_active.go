package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newActiveCmd() *cobra.Command {
	var clearActive bool

	cmd := &cobra.Command{
		Use:   "active",
		Short: "Print or clear the active box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts := commands.ActiveOpts{Clear: clearActive}
			return commands.Active(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&clearActive, "clear", false, "clear the active pointer")

	return cmd
}
