package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the workspace directories and settings file",
		Long: `Create results/ and .expbox/ under the workspace root and write a
commented .expbox/settings.yaml holding the built-in defaults.
An existing settings file is validated and left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			return commands.Setup(cmdContext(cmd), env, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}
