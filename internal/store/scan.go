package store

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Source names where a scanned record came from.
type Source string

const (
	SourceIndex Source = "index"
	SourceMeta  Source = "meta"
)

// DefaultScanWorkers bounds concurrent meta.json reads during a scan.
const DefaultScanWorkers = 4

// BoxRecord is one box discovered by Scan.
type BoxRecord struct {
	// ExpID is the canonical identity (index file or directory name).
	ExpID string

	// Record is the index record, or one derived from meta.json when the
	// index entry is missing or corrupt. Zero when Broken.
	Record IndexRecord

	// Source reports which file Record came from.
	Source Source

	// Broken indicates neither the index record nor meta.json was readable.
	Broken bool

	// Err is the meta.json error for broken records.
	Err error
}

// Scan enumerates every known box: records streamed from the index,
// plus box directories holding meta.json that the index lacks. Boxes
// without a usable index record fall back to meta.json and the same
// derivation the lifecycle uses; those reads run on up to workers
// goroutines. Results are sorted by ExpID.
func Scan(ctx context.Context, boxes *BoxStore, index *IndexStore, workers int) ([]BoxRecord, error) {
	var records []BoxRecord
	indexed := make(map[string]bool)
	pending := make(map[string]bool)
	for rec, err := range index.List() {
		if err != nil {
			if rec.ExpID == "" {
				return nil, err
			}
			pending[rec.ExpID] = true
			continue
		}
		indexed[rec.ExpID] = true
		records = append(records, BoxRecord{ExpID: rec.ExpID, Record: rec, Source: SourceIndex})
	}

	boxIDs, err := boxes.ListBoxIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range boxIDs {
		if !indexed[id] {
			pending[id] = true
		}
	}

	fallback := make([]string, 0, len(pending))
	for id := range pending {
		fallback = append(fallback, id)
	}
	sort.Strings(fallback)

	if workers <= 0 {
		workers = DefaultScanWorkers
	}
	fromMeta := make([]BoxRecord, len(fallback))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range fallback {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fromMeta[i] = scanMeta(boxes, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records = append(records, fromMeta...)
	sort.Slice(records, func(i, j int) bool { return records[i].ExpID < records[j].ExpID })
	return records, nil
}

func scanMeta(boxes *BoxStore, id string) BoxRecord {
	meta, err := boxes.ReadMeta(id)
	if err != nil {
		return BoxRecord{ExpID: id, Broken: true, Err: err}
	}
	return BoxRecord{ExpID: id, Record: DeriveIndexRecord(meta), Source: SourceMeta}
}
