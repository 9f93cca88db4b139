package store

import (
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/git"
)

// SchemaVersion is written to every meta.json.
const SchemaVersion = "1.0"

// Status records the intent attached to a box. No transition is forbidden.
type Status string

const (
	StatusRunning    Status = "running"
	StatusDone       Status = "done"
	StatusAborted    Status = "aborted"
	StatusStale      Status = "stale"
	StatusSuperseded Status = "superseded"
)

// AllStatuses lists the taxonomy in display order.
var AllStatuses = []Status{StatusRunning, StatusDone, StatusAborted, StatusStale, StatusSuperseded}

// ArchiveReasons are the only statuses soft cleanup may set.
var ArchiveReasons = []Status{StatusAborted, StatusStale, StatusSuperseded}

// ParseStatus validates s against the taxonomy.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.NewWithDetails(errors.EInvalidStatus,
		"status must be one of: running, done, aborted, stale, superseded",
		map[string]string{"status": s})
}

// ParseArchiveReason validates s as an archive reason.
func ParseArchiveReason(s string) (Status, error) {
	st := Status(s)
	if !st.IsArchiveReason() {
		return "", errors.NewWithDetails(errors.EInvalidStatus,
			"archive reason must be one of: aborted, stale, superseded",
			map[string]string{"reason": s})
	}
	return st, nil
}

// IsArchiveReason reports whether s may be set by archive or sweep.
func (s Status) IsArchiveReason() bool {
	for _, r := range ArchiveReasons {
		if s == r {
			return true
		}
	}
	return false
}

// GitInfo groups the git snapshots held by a box.
// Start is written once at init; Last is overwritten on every save.
type GitInfo struct {
	Start      *git.Snapshot   `json:"start"`
	Last       *git.Snapshot   `json:"last"`
	DirtyFiles []string        `json:"dirty_files"`
	Remote     *git.RemoteInfo `json:"remote"`
}

// Environment is opt-in host detail; it never reaches the index.
type Environment struct {
	Level              string `json:"level"`
	OS                 string `json:"os,omitempty"`
	Arch               string `json:"arch,omitempty"`
	GoVersion          string `json:"go_version,omitempty"`
	Hostname           string `json:"hostname,omitempty"`
	Cwd                string `json:"cwd,omitempty"`
	Executable         string `json:"executable,omitempty"`
	CUDAVisibleDevices string `json:"cuda_visible_devices,omitempty"`
}

// BoxMetadata is the authoritative record persisted to meta.json.
type BoxMetadata struct {
	// SchemaVersion is the schema version string ("1.0").
	SchemaVersion string `json:"schema_version"`

	// ExpID is the box identifier; always equal to the directory name.
	ExpID string `json:"exp_id"`

	Project string `json:"project"`
	Title   string `json:"title"`
	Purpose string `json:"purpose"`

	// CreatedAt and FinishedAt are RFC3339 UTC timestamps.
	// FinishedAt is stamped by every save that results in done; later
	// status changes leave it in place.
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at,omitempty"`

	Status Status `json:"status"`

	// ConfigPath is relative to the box root, e.g. artifacts/config.yaml.
	ConfigPath string         `json:"config_path"`
	Config     map[string]any `json:"config"`

	Git GitInfo `json:"git"`

	Notes map[string]any `json:"notes"`

	LoggerBackend string `json:"logger_backend"`

	Environment *Environment `json:"environment,omitempty"`
}

// NewBoxMetadata creates metadata for a freshly initialised box.
func NewBoxMetadata(expID, project, title string, createdAt time.Time) *BoxMetadata {
	return &BoxMetadata{
		SchemaVersion: SchemaVersion,
		ExpID:         expID,
		Project:       project,
		Title:         title,
		CreatedAt:     createdAt.UTC().Format(time.RFC3339),
		Status:        StatusRunning,
		Config:        map[string]any{},
		Git:           GitInfo{DirtyFiles: []string{}},
		Notes:         map[string]any{},
		LoggerBackend: "none",
	}
}

// CreatedTime parses CreatedAt. Returns the zero time if unparsable.
func (m *BoxMetadata) CreatedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, m.CreatedAt)
	return t
}

// IndexRecord is the privacy-safe, flat summary of a box persisted to
// .expbox/index/<exp_id>.json. It is always derived, never patched.
type IndexRecord struct {
	ExpID           string `json:"exp_id"`
	Project         string `json:"project"`
	Title           string `json:"title"`
	Status          Status `json:"status"`
	CreatedAt       string `json:"created_at"`
	FinishedAt      string `json:"finished_at"`
	GitStartCommit  string `json:"git_start_commit"`
	GitStartSubject string `json:"git_start_subject"`
	GitLastCommit   string `json:"git_last_commit"`
	GitLastSubject  string `json:"git_last_subject"`
	Branch          string `json:"branch"`
	Dirty           bool   `json:"dirty"`
}

// DeriveIndexRecord projects meta onto the index schema. Absolute paths,
// config, notes, remotes, and environment never appear in the result.
// Branch and Dirty come from git.last, falling back to git.start.
func DeriveIndexRecord(meta *BoxMetadata) IndexRecord {
	rec := IndexRecord{
		ExpID:      meta.ExpID,
		Project:    meta.Project,
		Title:      meta.Title,
		Status:     meta.Status,
		CreatedAt:  meta.CreatedAt,
		FinishedAt: meta.FinishedAt,
	}
	if s := meta.Git.Start; s != nil {
		rec.GitStartCommit = s.Commit
		rec.GitStartSubject = s.Subject
		rec.Branch = s.Branch
		rec.Dirty = s.Dirty
	}
	if l := meta.Git.Last; l != nil {
		rec.GitLastCommit = l.Commit
		rec.GitLastSubject = l.Subject
		rec.Branch = l.Branch
		rec.Dirty = l.Dirty
	}
	return rec
}

// CreatedTime parses CreatedAt. Returns the zero time if unparsable.
func (r IndexRecord) CreatedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return t
}
