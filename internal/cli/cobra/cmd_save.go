package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newSaveCmd() *cobra.Command {
	var opts commands.SaveOpts

	cmd := &cobra.Command{
		Use:   "save [exp_id]",
		Short: "Record the current state of a box",
		Long: `Re-capture git state, merge notes, apply a status, and rewrite the
box metadata and its index record. Without an argument, saves the
active box. Files in the box are never modified.

Arguments:
  exp_id    exact exp_id or unique prefix

Examples:
  expbox save --status done --final-note "converged at epoch 40"
  expbox save 251125-1320 --note best_acc=0.91`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeBoxIDs(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts.Ref = optionalRef(args)
			return commands.Save(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Status, "status", "", "running, done, aborted, stale, or superseded")
	f.StringArrayVar(&opts.Notes, "note", nil, "note as key=value (repeatable)")
	f.StringVar(&opts.FinalNote, "final-note", "", "stored as notes.final_note")
	f.BoolVar(&opts.NoUpdateGit, "no-update-git", false, "keep the previously captured git state")

	return cmd
}
