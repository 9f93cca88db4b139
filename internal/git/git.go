// Package git captures best-effort repository state for experiment boxes.
package git

import (
	"context"

	"github.com/NielsdaWheelz/expbox/internal/core"
)

// Snapshot is the git state captured at one point in a box's life.
// Commit is the full 40-hex hash; it is the reproducibility anchor.
type Snapshot struct {
	Commit     string   `json:"commit"`
	Subject    string   `json:"subject"`
	Branch     string   `json:"branch"`
	Dirty      bool     `json:"dirty"`
	DirtyFiles []string `json:"dirty_files"`
	CapturedAt string   `json:"captured_at"`
}

// ShortCommit returns the abbreviated hash for display.
func (s *Snapshot) ShortCommit() string {
	if s == nil {
		return ""
	}
	return core.ShortHash(s.Commit)
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.DirtyFiles = append([]string(nil), s.DirtyFiles...)
	return &cp
}

// RemoteInfo describes the origin remote. Absence is not an error.
type RemoteInfo struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	CommitURL string `json:"commit_url,omitempty"`
}

// Capturer reads repository state. Implementations must bound every
// external call; callers treat any error as E_GIT_UNAVAILABLE and degrade.
type Capturer interface {
	// Capture returns the HEAD snapshot for the repository containing dir.
	Capture(ctx context.Context, dir string) (*Snapshot, error)

	// Remote returns the origin remote, or nil when none is configured.
	// commit is used to derive CommitURL and may be empty.
	Remote(ctx context.Context, dir, commit string) (*RemoteInfo, error)
}

// Nop is a Capturer for callers that opt out of git capture.
type Nop struct{}

func (Nop) Capture(context.Context, string) (*Snapshot, error)          { return nil, nil }
func (Nop) Remote(context.Context, string, string) (*RemoteInfo, error) { return nil, nil }
