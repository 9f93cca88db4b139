package render

import (
	"fmt"
	"io"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/export"
)

// Constants for human output formatting.
const (
	// TitleMaxLen is the maximum display length for a title in human output.
	TitleMaxLen = 50

	// TitleUntitled is displayed for boxes with empty titles.
	TitleUntitled = "<untitled>"
)

// ExportHumanRow holds the fields for a single human-output row.
// This is separate from export.Row to allow formatting before display.
type ExportHumanRow struct {
	ExpID     string
	Title     string
	Status    string
	CreatedAt string
	Commit    string
}

// WriteExportTable writes rows as whitespace-aligned columns.
func WriteExportTable(w io.Writer, rows []export.Row, now time.Time) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no boxes found")
		return err
	}
	return writeHumanRows(w, FormatHumanRows(rows, now))
}

func writeHumanRows(w io.Writer, rows []ExportHumanRow) error {
	widths := columnWidths(rows)

	header := formatRow(
		"EXP_ID", widths.expID,
		"TITLE", widths.title,
		"STATUS", widths.status,
		"CREATED", widths.createdAt,
		"COMMIT",
	)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, row := range rows {
		line := formatRow(
			row.ExpID, widths.expID,
			row.Title, widths.title,
			row.Status, widths.status,
			row.CreatedAt, widths.createdAt,
			row.Commit,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// colWidths holds the calculated column widths.
type colWidths struct {
	expID     int
	title     int
	status    int
	createdAt int
}

// columnWidths calculates the maximum width for each padded column.
func columnWidths(rows []ExportHumanRow) colWidths {
	widths := colWidths{
		expID:     len("EXP_ID"),
		title:     len("TITLE"),
		status:    len("STATUS"),
		createdAt: len("CREATED"),
	}

	for _, row := range rows {
		widths.expID = max(widths.expID, len(row.ExpID))
		widths.title = max(widths.title, len([]rune(row.Title)))
		widths.status = max(widths.status, len(row.Status))
		widths.createdAt = max(widths.createdAt, len(row.CreatedAt))
	}

	return widths
}

func formatRow(expID string, expIDW int, title string, titleW int, status string, statusW int, created string, createdW int, commit string) string {
	return fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %s",
		expIDW, expID,
		titleW, title,
		statusW, status,
		createdW, created,
		commit,
	)
}

// FormatHumanRow converts an export row for display.
// The commit column shows the last captured commit, falling back to the
// start commit, with a trailing "*" when the tree was dirty.
func FormatHumanRow(r export.Row, now time.Time) ExportHumanRow {
	row := ExportHumanRow{
		ExpID:  r.ExpID,
		Status: string(r.Status),
	}

	if r.Title == "" {
		row.Title = TitleUntitled
	} else {
		row.Title = TruncateForDisplay(r.Title, TitleMaxLen)
	}

	if created := r.CreatedTime(); !created.IsZero() {
		row.CreatedAt = formatRelativeTime(created, now)
	}

	commit := r.GitLastCommit
	if commit == "" {
		commit = r.GitStartCommit
	}
	row.Commit = core.ShortHash(commit)
	if row.Commit != "" && r.Dirty {
		row.Commit += "*"
	}
	if row.Commit == "" {
		row.Commit = "-"
	}

	return row
}

// FormatHumanRows converts export rows for display.
func FormatHumanRows(rows []export.Row, now time.Time) []ExportHumanRow {
	out := make([]ExportHumanRow, len(rows))
	for i, r := range rows {
		out[i] = FormatHumanRow(r, now)
	}
	return out
}

// formatRelativeTime formats a time as a human-friendly relative string.
func formatRelativeTime(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	default:
		return t.Format("2006-01-02")
	}
}

// TruncateForDisplay truncates s to maxLen runes, ending with an ellipsis.
func TruncateForDisplay(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
