// Package logger provides the experiment logging backends attached to a box:
// metrics, tables, figures, and artifacts. Backends are a closed set
// selected at init: none, file, or an external sink.
package logger

import (
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// NoStep marks a metrics record without a step index.
const NoStep = -1

// Kind identifies a backend variant.
type Kind string

const (
	KindNone     Kind = "none"
	KindFile     Kind = "file"
	KindExternal Kind = "external"
)

// Sink is a caller-supplied destination for an external backend, for
// example a bridge to a tracking service. Sinks receive metrics, tables,
// and figures; artifacts are always copied into the box locally.
type Sink interface {
	Name() string
	LogMetrics(step int, values map[string]any) error
	LogTable(name string, rows []map[string]any) error
	LogFigure(name string, data []byte) error
}

// Backend is the capability set every variant exposes.
type Backend interface {
	// Name is recorded as logger_backend in meta.json.
	Name() string

	// LogMetrics appends one record. step is NoStep when absent.
	LogMetrics(step int, values map[string]any) error

	// LogTable appends rows to a named table.
	LogTable(name string, rows []map[string]any) error

	// LogFigure stores encoded figure bytes under figures/<name>.
	LogFigure(name string, data []byte) error

	// LogArtifact copies src into artifacts/<name>; name defaults to the
	// base name of src.
	LogArtifact(src, name string) error

	Close() error
}

// Spec selects a backend. The zero value is KindNone.
type Spec struct {
	Kind Kind
	Sink Sink // only for KindExternal
}

// None selects the no-op backend.
func None() Spec { return Spec{Kind: KindNone} }

// File selects the JSONL file backend.
func File() Spec { return Spec{Kind: KindFile} }

// External selects a backend forwarding to s.
func External(s Sink) Spec { return Spec{Kind: KindExternal, Sink: s} }

// Name returns the logger_backend value for this spec.
func (s Spec) Name() string {
	switch s.Kind {
	case KindFile:
		return string(KindFile)
	case KindExternal:
		if s.Sink != nil && s.Sink.Name() != "" {
			return string(KindExternal) + ":" + s.Sink.Name()
		}
		return string(KindExternal)
	default:
		return string(KindNone)
	}
}

// ParseKind parses a backend name supplied on the command line.
// External sinks cannot be named there; they are attached in code.
func ParseKind(s string) (Spec, error) {
	switch strings.TrimSpace(s) {
	case "", string(KindNone):
		return None(), nil
	case string(KindFile):
		return File(), nil
	}
	return Spec{}, errors.NewWithDetails(errors.EUsage, "logger backend must be none or file", map[string]string{"input": s})
}

// SpecFor rebuilds the spec recorded in meta.json. External sinks are not
// recoverable from disk and reopen as none.
func SpecFor(backendName string) Spec {
	if backendName == string(KindFile) {
		return File()
	}
	return None()
}

// Open creates the backend for a box.
func Open(spec Spec, paths store.BoxPaths) (Backend, error) {
	switch spec.Kind {
	case "", KindNone:
		return nopBackend{}, nil
	case KindFile:
		return newFileBackend(paths), nil
	case KindExternal:
		if spec.Sink == nil {
			return nil, errors.New(errors.EUsage, "external logger backend requires a sink")
		}
		return &externalBackend{sink: spec.Sink, name: spec.Name(), local: newFileBackend(paths)}, nil
	}
	return nil, errors.NewWithDetails(errors.EUsage, "unknown logger backend", map[string]string{"input": string(spec.Kind)})
}

type nopBackend struct{}

func (nopBackend) Name() string                                      { return string(KindNone) }
func (nopBackend) LogMetrics(step int, values map[string]any) error  { return nil }
func (nopBackend) LogTable(name string, rows []map[string]any) error { return nil }
func (nopBackend) LogFigure(name string, data []byte) error          { return nil }
func (nopBackend) LogArtifact(src, name string) error                { return nil }
func (nopBackend) Close() error                                      { return nil }

type externalBackend struct {
	sink  Sink
	name  string
	local *fileBackend
}

func (b *externalBackend) Name() string { return b.name }

func (b *externalBackend) LogMetrics(step int, values map[string]any) error {
	if err := b.sink.LogMetrics(step, values); err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "external sink rejected metrics", err, map[string]string{"op": "log_metrics"})
	}
	return nil
}

func (b *externalBackend) LogTable(name string, rows []map[string]any) error {
	if err := b.sink.LogTable(name, rows); err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "external sink rejected table", err, map[string]string{"op": "log_table", "input": name})
	}
	return nil
}

func (b *externalBackend) LogFigure(name string, data []byte) error {
	if err := b.sink.LogFigure(name, data); err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "external sink rejected figure", err, map[string]string{"op": "log_figure", "input": name})
	}
	return nil
}

func (b *externalBackend) LogArtifact(src, name string) error { return b.local.LogArtifact(src, name) }
func (b *externalBackend) Close() error                       { return b.local.Close() }
