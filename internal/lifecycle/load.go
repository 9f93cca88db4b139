package lifecycle

import (
	"context"
	"log/slog"

	"github.com/NielsdaWheelz/expbox/internal/events"
	"github.com/NielsdaWheelz/expbox/internal/logger"
)

// Load opens an existing box and makes it active. An empty id loads the
// active box (E_NO_ACTIVE_BOX if there is none). Metadata is read as is:
// E_NOT_FOUND and E_CORRUPT propagate and nothing is rewritten.
//
// A box created with an external sink reopens with the none backend.
func (e *Engine) Load(ctx context.Context, id string) (*Box, error) {
	if id == "" {
		active, err := e.activeID()
		if err != nil {
			return nil, err
		}
		id = active
	}

	meta, err := e.Boxes.ReadMeta(id)
	if err != nil {
		return nil, err
	}
	paths, err := e.Boxes.Paths(id)
	if err != nil {
		return nil, err
	}

	if err := e.Active.Set(id); err != nil {
		e.log().Warn("failed to update active pointer", slog.String("exp_id", id), slog.String("error", err.Error()))
	}

	lb, err := logger.Open(logger.SpecFor(meta.LoggerBackend), paths)
	if err != nil {
		return nil, err
	}

	e.journal(paths, id, events.EventLoad, nil)
	return newBox(meta, paths, lb), nil
}
