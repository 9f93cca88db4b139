// Package export flattens box records into rows for analysis tools.
// Rows come from the index; boxes the index lacks are synthesized from
// meta.json through the same derivation the lifecycle uses.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/logging"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// Columns is the stable CSV column order.
var Columns = []string{
	"exp_id",
	"project",
	"title",
	"status",
	"created_at",
	"finished_at",
	"git_start_commit",
	"git_start_subject",
	"git_last_commit",
	"git_last_subject",
	"branch",
	"dirty",
	"source",
}

// Row is one exported box. The embedded record keeps JSON output flat.
type Row struct {
	store.IndexRecord
	Source store.Source `json:"source"`
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	return []string{
		r.ExpID,
		r.Project,
		r.Title,
		string(r.Status),
		r.CreatedAt,
		r.FinishedAt,
		r.GitStartCommit,
		r.GitStartSubject,
		r.GitLastCommit,
		r.GitLastSubject,
		r.Branch,
		strconv.FormatBool(r.Dirty),
		string(r.Source),
	}
}

// Filter selects rows. Zero fields match everything.
type Filter struct {
	Project  string
	Statuses []store.Status

	// Since keeps boxes created at or after this instant.
	Since time.Time
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec store.IndexRecord) bool {
	if f.Project != "" && rec.Project != f.Project {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, rec.Status) {
		return false
	}
	if !f.Since.IsZero() {
		created := rec.CreatedTime()
		if created.IsZero() || created.Before(f.Since) {
			return false
		}
	}
	return true
}

// Exporter reads rows from one workspace.
type Exporter struct {
	Boxes   *store.BoxStore
	Index   *store.IndexStore
	Workers int
	Log     *slog.Logger
}

// New creates an Exporter over the given stores.
func New(boxes *store.BoxStore, index *store.IndexStore) *Exporter {
	return &Exporter{
		Boxes:   boxes,
		Index:   index,
		Workers: store.DefaultScanWorkers,
		Log:     logging.New("export"),
	}
}

// Export returns the rows matching f ordered by exp_id. Boxes whose index
// record and meta.json are both unreadable are skipped with a warning.
func (e *Exporter) Export(ctx context.Context, f Filter) ([]Row, error) {
	records, err := store.Scan(ctx, e.Boxes, e.Index, e.Workers)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for _, br := range records {
		if br.Broken {
			e.log().Warn("skipping unreadable box", "exp_id", br.ExpID, "error_code", errors.GetCode(br.Err))
			continue
		}
		if !f.Match(br.Record) {
			continue
		}
		rows = append(rows, Row{IndexRecord: br.Record, Source: br.Source})
	}
	return rows, nil
}

func (e *Exporter) log() *slog.Logger {
	if e.Log == nil {
		return logging.Discard()
	}
	return e.Log
}

// WriteCSV writes a header line followed by one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes one JSON object per line.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
