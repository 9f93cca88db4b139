package logger

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// TablesDir holds one <name>.jsonl per logged table, under logs/.
const TablesDir = "tables"

// fileBackend appends metrics to logs/metrics.jsonl and tables to
// logs/tables/<name>.jsonl. Figures and artifacts are written once and
// never replaced.
type fileBackend struct {
	paths store.BoxPaths
	now   func() time.Time

	mu      sync.Mutex
	metrics *os.File
}

func newFileBackend(paths store.BoxPaths) *fileBackend {
	return &fileBackend{paths: paths, now: time.Now}
}

func (b *fileBackend) Name() string { return string(KindFile) }

// LogMetrics writes one flat JSON object per line. "step" (when given) and
// "timestamp" are set by the backend and take precedence over values.
// Each record reaches the file before LogMetrics returns.
func (b *fileBackend) LogMetrics(step int, values map[string]any) error {
	entry := make(map[string]any, len(values)+2)
	for k, v := range values {
		entry[k] = v
	}
	if step != NoStep {
		entry["step"] = step
	}
	entry["timestamp"] = b.now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "metrics are not JSON-serializable", err, map[string]string{"op": "log_metrics"})
	}
	line = append(line, '\n')

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.metrics == nil {
		f, err := openAppend(b.paths.Metrics())
		if err != nil {
			return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to open metrics log", err, map[string]string{"path": b.paths.Metrics()})
		}
		b.metrics = f
	}
	if _, err := b.metrics.Write(line); err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to append metrics", err, map[string]string{"path": b.paths.Metrics()})
	}
	return nil
}

// LogTable appends rows to logs/tables/<name>.jsonl, one row per line.
func (b *fileBackend) LogTable(name string, rows []map[string]any) error {
	if name == "" || filepath.Base(name) != name {
		return errors.NewWithDetails(errors.EUsage, "table name must be a plain file name", map[string]string{"input": name})
	}
	path, err := plainChild(filepath.Join(b.paths.Logs, TablesDir), name+".jsonl")
	if err != nil {
		return err
	}

	var buf []byte
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return errors.WrapWithDetails(errors.ELogWriteFailed, "table row is not JSON-serializable", err, map[string]string{"op": "log_table", "input": name})
		}
		buf = append(append(buf, line...), '\n')
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	f, err := openAppend(path)
	if err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to open table log", err, map[string]string{"path": path})
	}
	_, werr := f.Write(buf)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to append table rows", firstErr(werr, cerr), map[string]string{"path": path})
	}
	return nil
}

// LogFigure writes figures/<name>. An existing figure is never replaced.
func (b *fileBackend) LogFigure(name string, data []byte) error {
	dst, err := plainChild(b.paths.Figures, name)
	if err != nil {
		return err
	}
	f, err := createExclusive(dst, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to write figure", firstErr(werr, cerr), map[string]string{"path": dst})
	}
	return nil
}

// LogArtifact copies src into artifacts/<name>, keeping its mode and
// modification time. An existing artifact is never replaced.
func (b *fileBackend) LogArtifact(src, name string) error {
	if name == "" {
		name = filepath.Base(src)
	}
	dst, err := plainChild(b.paths.Artifacts, name)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewWithDetails(errors.ENotFound, "artifact source does not exist", map[string]string{"path": src})
		}
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to open artifact source", err, map[string]string{"path": src})
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to stat artifact source", err, map[string]string{"path": src})
	}
	if info.IsDir() {
		return errors.NewWithDetails(errors.EUsage, "artifact source must be a file", map[string]string{"path": src})
	}

	out, err := createExclusive(dst, info.Mode().Perm())
	if err != nil {
		return err
	}
	_, werr := io.Copy(out, in)
	serr := out.Sync()
	cerr := out.Close()
	if err := firstErr(werr, serr, cerr); err != nil {
		return errors.WrapWithDetails(errors.ELogWriteFailed, "failed to copy artifact", err, map[string]string{"path": dst})
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

func (b *fileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.metrics == nil {
		return nil
	}
	err := b.metrics.Close()
	b.metrics = nil
	return err
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func createExclusive(path string, perm os.FileMode) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WrapWithDetails(errors.ELogWriteFailed, "failed to create directory", err, map[string]string{"path": filepath.Dir(path)})
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.NewWithDetails(errors.EAlreadyExists, "file already exists; box files are never overwritten", map[string]string{"path": path})
		}
		return nil, errors.WrapWithDetails(errors.ELogWriteFailed, "failed to create file", err, map[string]string{"path": path})
	}
	return f, nil
}

// plainChild joins name under dir, rejecting names that are not a single
// path segment.
func plainChild(dir, name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", errors.NewWithDetails(errors.EUsage, "name must be a plain file name", map[string]string{"input": name})
	}
	p, err := fs.JoinUnder(dir, name)
	if err != nil {
		return "", errors.WrapWithDetails(errors.EUsage, "name must be a plain file name", err, map[string]string{"input": name})
	}
	return p, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
