package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	boxerrors "github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

func newBox(t *testing.T) store.BoxPaths {
	t.Helper()
	st := store.NewBoxStore(fs.NewRealFS(), filepath.Join(t.TempDir(), "results"), time.Now)
	paths, err := st.Create("x1")
	if err != nil {
		t.Fatal(err)
	}
	return paths
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSpecName(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{Spec{}, "none"},
		{None(), "none"},
		{File(), "file"},
		{External(&fakeSink{name: "tracker"}), "external:tracker"},
		{External(&fakeSink{}), "external"},
	}
	for _, tt := range tests {
		if got := tt.spec.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if s, err := ParseKind("file"); err != nil || s.Kind != KindFile {
		t.Errorf("ParseKind(file) = %v, %v", s, err)
	}
	if s, err := ParseKind(""); err != nil || s.Kind != KindNone {
		t.Errorf("ParseKind(\"\") = %v, %v", s, err)
	}
	if _, err := ParseKind("wandb"); boxerrors.GetCode(err) != boxerrors.EUsage {
		t.Errorf("ParseKind(wandb) error = %v, want E_USAGE", err)
	}
}

func TestSpecFor(t *testing.T) {
	if SpecFor("file").Kind != KindFile {
		t.Error("SpecFor(file) should reopen the file backend")
	}
	for _, name := range []string{"none", "external:tracker", ""} {
		if SpecFor(name).Kind != KindNone {
			t.Errorf("SpecFor(%q) should reopen as none", name)
		}
	}
}

func TestNopBackend(t *testing.T) {
	paths := newBox(t)
	b, err := Open(None(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.LogMetrics(1, map[string]any{"loss": 0.1}); err != nil {
		t.Errorf("LogMetrics() error = %v", err)
	}
	if _, err := os.Stat(paths.Metrics()); !os.IsNotExist(err) {
		t.Error("none backend must not create metrics.jsonl")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileBackend_Metrics(t *testing.T) {
	paths := newBox(t)
	b := newFileBackend(paths)
	b.now = func() time.Time { return time.Date(2025, 11, 25, 13, 20, 0, 0, time.UTC) }

	if err := b.LogMetrics(1, map[string]any{"loss": 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := b.LogMetrics(NoStep, map[string]any{"acc": 0.9, "step": 99}); err != nil {
		t.Fatal(err)
	}

	// Each record is on disk before Close.
	lines := readLines(t, paths.Metrics())
	want := []map[string]any{
		{"loss": 0.5, "step": float64(1), "timestamp": "2025-11-25T13:20:00Z"},
		{"acc": 0.9, "step": float64(99), "timestamp": "2025-11-25T13:20:00Z"},
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("metrics.jsonl mismatch (-want +got):\n%s", diff)
	}

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening appends rather than truncating.
	again := newFileBackend(paths)
	if err := again.LogMetrics(2, map[string]any{"loss": 0.4}); err != nil {
		t.Fatal(err)
	}
	_ = again.Close()
	if n := len(readLines(t, paths.Metrics())); n != 3 {
		t.Errorf("metrics.jsonl has %d lines, want 3", n)
	}
}

func TestFileBackend_MetricsNotSerializable(t *testing.T) {
	b := newFileBackend(newBox(t))
	defer b.Close()
	err := b.LogMetrics(1, map[string]any{"bad": make(chan int)})
	if boxerrors.GetCode(err) != boxerrors.ELogWriteFailed {
		t.Errorf("LogMetrics() error = %v, want E_LOG_WRITE_FAILED", err)
	}
}

func TestFileBackend_Table(t *testing.T) {
	paths := newBox(t)
	b := newFileBackend(paths)

	rows := []map[string]any{{"epoch": 1, "loss": 0.5}, {"epoch": 2, "loss": 0.4}}
	if err := b.LogTable("history", rows); err != nil {
		t.Fatal(err)
	}
	if err := b.LogTable("history", rows[:1]); err != nil {
		t.Fatal(err)
	}
	got := readLines(t, filepath.Join(paths.Logs, TablesDir, "history.jsonl"))
	if len(got) != 3 {
		t.Errorf("table has %d rows, want 3", len(got))
	}

	for _, name := range []string{"", "../x", "a/b"} {
		if err := b.LogTable(name, rows); boxerrors.GetCode(err) != boxerrors.EUsage {
			t.Errorf("LogTable(%q) error = %v, want E_USAGE", name, err)
		}
	}
}

func TestFileBackend_FigureNeverOverwrites(t *testing.T) {
	paths := newBox(t)
	b := newFileBackend(paths)

	if err := b.LogFigure("loss.png", []byte("first")); err != nil {
		t.Fatal(err)
	}
	err := b.LogFigure("loss.png", []byte("second"))
	if boxerrors.GetCode(err) != boxerrors.EAlreadyExists {
		t.Errorf("second LogFigure() error = %v, want E_ALREADY_EXISTS", err)
	}
	data, _ := os.ReadFile(filepath.Join(paths.Figures, "loss.png"))
	if string(data) != "first" {
		t.Errorf("figure = %q, want first", data)
	}

	if err := b.LogFigure("../escape.png", nil); boxerrors.GetCode(err) != boxerrors.EUsage {
		t.Errorf("LogFigure(../escape.png) error = %v, want E_USAGE", err)
	}
}

func TestFileBackend_Artifact(t *testing.T) {
	paths := newBox(t)
	b := newFileBackend(paths)

	src := filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(src, []byte("weights"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := b.LogArtifact(src, ""); err != nil {
		t.Fatalf("LogArtifact() error = %v", err)
	}
	if err := b.LogArtifact(src, "best.bin"); err != nil {
		t.Fatalf("LogArtifact(best.bin) error = %v", err)
	}
	for _, name := range []string{"model.bin", "best.bin"} {
		data, err := os.ReadFile(filepath.Join(paths.Artifacts, name))
		if err != nil || string(data) != "weights" {
			t.Errorf("artifact %s = %q, %v", name, data, err)
		}
	}

	if err := b.LogArtifact(src, ""); boxerrors.GetCode(err) != boxerrors.EAlreadyExists {
		t.Errorf("repeat LogArtifact() error = %v, want E_ALREADY_EXISTS", err)
	}
	if err := b.LogArtifact(filepath.Join(t.TempDir(), "missing"), ""); boxerrors.GetCode(err) != boxerrors.ENotFound {
		t.Errorf("LogArtifact(missing) error = %v, want E_NOT_FOUND", err)
	}
}

type fakeSink struct {
	name    string
	metrics []map[string]any
	tables  []string
	figures []string
	err     error
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) LogMetrics(step int, values map[string]any) error {
	s.metrics = append(s.metrics, values)
	return s.err
}

func (s *fakeSink) LogTable(name string, rows []map[string]any) error {
	s.tables = append(s.tables, name)
	return s.err
}

func (s *fakeSink) LogFigure(name string, data []byte) error {
	s.figures = append(s.figures, name)
	return s.err
}

func TestExternalBackend(t *testing.T) {
	paths := newBox(t)
	sink := &fakeSink{name: "tracker"}
	b, err := Open(External(sink), paths)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.Name() != "external:tracker" {
		t.Errorf("Name() = %q", b.Name())
	}
	_ = b.LogMetrics(1, map[string]any{"loss": 1})
	_ = b.LogTable("history", nil)
	_ = b.LogFigure("loss.png", []byte("x"))
	if len(sink.metrics) != 1 || len(sink.tables) != 1 || len(sink.figures) != 1 {
		t.Errorf("sink did not receive calls: %+v", sink)
	}
	if _, err := os.Stat(paths.Metrics()); !os.IsNotExist(err) {
		t.Error("external backend must not write metrics locally")
	}

	src := filepath.Join(t.TempDir(), "notes.txt")
	_ = os.WriteFile(src, []byte("n"), 0o644)
	if err := b.LogArtifact(src, ""); err != nil {
		t.Errorf("LogArtifact() error = %v", err)
	}

	sink.err = errors.New("service down")
	if err := b.LogMetrics(2, nil); boxerrors.GetCode(err) != boxerrors.ELogWriteFailed {
		t.Errorf("LogMetrics() error = %v, want E_LOG_WRITE_FAILED", err)
	}
}

func TestOpen_ExternalWithoutSink(t *testing.T) {
	if _, err := Open(Spec{Kind: KindExternal}, newBox(t)); boxerrors.GetCode(err) != boxerrors.EUsage {
		t.Errorf("Open() error = %v, want E_USAGE", err)
	}
}
