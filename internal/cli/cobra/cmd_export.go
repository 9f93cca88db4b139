package cobra

import (
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
)

func newExportCmd() *cobra.Command {
	var opts commands.ExportOpts

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export box records as CSV, JSON lines, or a table",
		Long: `Export one flat record per box, read from the index with meta.json
as fallback. Archived boxes are included with --all or an explicit --status.

Columns (stable order):
  exp_id, project, title, status, created_at, finished_at,
  git_start_commit, git_start_subject, git_last_commit, git_last_subject,
  branch, dirty, source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commandEnv()
			if err != nil {
				return err
			}
			return commands.Export(cmdContext(cmd), env, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Format, "format", "", "csv, json, or table (default: table on a terminal, else csv)")
	f.BoolVar(&opts.All, "all", false, "include archived boxes")
	f.StringVar(&opts.Project, "project", "", "only boxes of this project")
	f.StringSliceVar(&opts.Statuses, "status", nil, "only these statuses")
	f.StringVar(&opts.Since, "since", "", "only boxes created since a duration, date, or RFC3339 time")

	return cmd
}
