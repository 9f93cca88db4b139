package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
	"github.com/NielsdaWheelz/expbox/internal/logger"
)

func newLogCmd() *cobra.Command {
	var opts commands.LogOpts
	var boxRef string

	cmd := &cobra.Command{
		Use:   "log [key=value...]",
		Short: "Append metrics or copy an artifact into a box",
		Long: `Append one metrics record to logs/metrics.jsonl, or copy a file into
artifacts/. Uses the active box unless --box is given. Existing files
are never overwritten.

Examples:
  expbox log --step 10 loss=0.42 acc=0.88
  expbox log --artifact model.pt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts.Ref = boxRef
			opts.Metrics = args
			if !cmd.Flags().Changed("step") {
				opts.Step = logger.NoStep
			}
			return commands.Log(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&boxRef, "box", "", "exp_id or unique prefix (default: active box)")
	f.IntVar(&opts.Step, "step", 0, "step index recorded with the metrics")
	f.StringVar(&opts.Artifact, "artifact", "", "file to copy into artifacts/")
	f.StringVar(&opts.ArtifactName, "name", "", "artifact file name (default: base name of --artifact)")

	_ = cmd.RegisterFlagCompletionFunc("box", completeBoxIDs(false))

	return cmd
}
