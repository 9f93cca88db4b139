package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
	"github.com/NielsdaWheelz/expbox/internal/watchdog"
)

func newArchiveCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "archive <exp_id>",
		Short: "Mark a box as aborted, stale, or superseded",
		Long: `Mark a box as aborted, stale, or superseded.
Only the status changes; no file is removed.

Arguments:
  exp_id    exact exp_id or unique prefix`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeBoxIDs(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			opts := commands.ArchiveOpts{Ref: args[0], Reason: reason}
			return commands.Archive(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "aborted", "aborted, stale, or superseded")

	return cmd
}

func newSweepCmd() *cobra.Command {
	var opts commands.SweepOpts

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Archive every box matching the filters",
		Long: `Archive every box matching all filters, printing the affected ids.
By default only running boxes match. Boxes missing from the index are
found through their meta.json.

Examples:
  expbox sweep --older-than 72h
  expbox sweep --idle
  expbox sweep --idle=48h --reason aborted
  expbox sweep --project demo --status running,aborted --reason superseded`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			return commands.Sweep(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.Statuses, "status", nil, "statuses to match (default: running)")
	f.StringVar(&opts.OlderThan, "older-than", "", "only boxes created longer ago than this duration")
	f.StringVar(&opts.Idle, "idle", "", "only running boxes with no file activity for this duration (bare flag: 24h)")
	f.Lookup("idle").NoOptDefVal = watchdog.DefaultIdleThreshold.String()
	f.StringVar(&opts.Project, "project", "", "only boxes of this project")
	f.StringVar(&opts.Reason, "reason", "stale", "aborted, stale, or superseded")

	return cmd
}
