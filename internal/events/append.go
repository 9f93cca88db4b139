// Package events provides the per-box lifecycle journal for expbox.
// Events are stored in append-only JSONL files at logs/events.jsonl.
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersion is written to every event line.
const SchemaVersion = "1.0"

// Event names.
const (
	EventInit    = "init"
	EventLoad    = "load"
	EventSave    = "save"
	EventArchive = "archive"
)

// Event represents a single line in events.jsonl.
// This is the public contract for the journal format.
type Event struct {
	SchemaVersion string         `json:"schema_version"`
	Timestamp     string         `json:"timestamp"` // RFC3339
	ExpID         string         `json:"exp_id"`
	Event         string         `json:"event"` // "init", "load", "save", "archive"
	Data          map[string]any `json:"data,omitempty"`
}

// AppendEvent appends a single event to the events.jsonl file.
// The file is created lazily if it doesn't exist and is never truncated.
// Each event is written as a single JSON line followed by newline.
//
// Best-effort: errors are returned but callers should typically log them
// and continue with the main operation.
func AppendEvent(path string, e Event) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if e.SchemaVersion == "" {
		e.SchemaVersion = SchemaVersion
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}

// ReadEvents returns every event in the journal, oldest first.
// A missing file yields no events. A malformed line is an error that names
// its line number.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// InitData returns the data map for an init event.
func InitData(project, title, backend string, gitCaptured bool) map[string]any {
	return map[string]any{
		"project":        project,
		"title":          title,
		"logger_backend": backend,
		"git_captured":   gitCaptured,
	}
}

// SaveData returns the data map for a save event.
// indexErrorCode is empty when the index record was written.
func SaveData(status string, gitCaptured bool, dirtyFiles int, indexErrorCode string) map[string]any {
	data := map[string]any{
		"status":       status,
		"git_captured": gitCaptured,
		"dirty_files":  dirtyFiles,
	}
	if indexErrorCode != "" {
		data["index_error_code"] = indexErrorCode
	}
	return data
}

// ArchiveData returns the data map for an archive event.
// via is "archive" or "sweep".
func ArchiveData(previous, reason, via string) map[string]any {
	return map[string]any{
		"previous_status": previous,
		"reason":          reason,
		"via":             via,
	}
}
