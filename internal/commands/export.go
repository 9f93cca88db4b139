package commands

import (
	"context"
	"io"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/export"
	"github.com/NielsdaWheelz/expbox/internal/render"
	"github.com/NielsdaWheelz/expbox/internal/store"
	"github.com/NielsdaWheelz/expbox/internal/tty"
)

// Export output formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

// ExportOpts holds options for the export command.
type ExportOpts struct {
	// Format is csv, json, or table. Empty picks table on a terminal and
	// csv otherwise.
	Format string

	// All includes archived boxes when no status filter is given.
	All bool

	Project  string
	Statuses []string

	// Since is a duration, date, or RFC3339 timestamp.
	Since string
}

// Export implements the `expbox export` command.
// Without --all or --status, archived boxes are left out.
func Export(ctx context.Context, env Env, opts ExportOpts, stdout, stderr io.Writer) error {
	format := opts.Format
	if format == "" {
		format = FormatCSV
		if tty.IsTerminalWriter(stdout) {
			format = FormatTable
		}
	}
	switch format {
	case FormatCSV, FormatJSON, FormatTable:
	default:
		return errors.NewWithDetails(errors.EUsage, "--format must be one of: csv, json, table",
			map[string]string{"input": format})
	}

	statuses, err := parseStatuses(opts.Statuses)
	if err != nil {
		return err
	}
	if len(statuses) == 0 && !opts.All {
		statuses = []store.Status{store.StatusRunning, store.StatusDone}
	}

	w, err := openWorkspace(env)
	if err != nil {
		return err
	}
	since, err := parseSince(opts.Since, w.now())
	if err != nil {
		return err
	}

	rows, err := w.exporter().Export(ctx, export.Filter{
		Project:  opts.Project,
		Statuses: statuses,
		Since:    since,
	})
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		err = export.WriteJSON(stdout, rows)
	case FormatTable:
		err = render.WriteExportTable(stdout, rows, w.now())
	default:
		err = export.WriteCSV(stdout, rows)
	}
	if err != nil {
		return errors.Wrap(errors.EInternal, "failed to write export", err)
	}
	return nil
}
