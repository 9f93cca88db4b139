package store

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	boxerrors "github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/git"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"running", "done", "aborted", "stale", "superseded"} {
		if got, err := ParseStatus(s); err != nil || string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	for _, s := range []string{"", "RUNNING", "failed"} {
		if _, err := ParseStatus(s); boxerrors.GetCode(err) != boxerrors.EInvalidStatus {
			t.Errorf("ParseStatus(%q) error = %v, want E_INVALID_STATUS", s, err)
		}
	}
}

func TestParseArchiveReason(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"aborted", false},
		{"stale", false},
		{"superseded", false},
		{"done", true},
		{"running", true},
		{"deleted", true},
	}
	for _, tt := range tests {
		_, err := ParseArchiveReason(tt.in)
		if tt.wantErr && boxerrors.GetCode(err) != boxerrors.EInvalidStatus {
			t.Errorf("ParseArchiveReason(%q) error = %v, want E_INVALID_STATUS", tt.in, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("ParseArchiveReason(%q) error = %v", tt.in, err)
		}
	}
}

func TestDeriveIndexRecord(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BoxMetadata)
		want   IndexRecord
	}{
		{
			name:   "start and last",
			mutate: func(m *BoxMetadata) {},
			want: IndexRecord{
				ExpID: "x1", Project: "demo", Title: "t1", Status: StatusRunning,
				CreatedAt:      "2025-11-25T13:20:00Z",
				GitStartCommit: testCommit, GitStartSubject: "Initial commit",
				GitLastCommit: testCommit, GitLastSubject: "Initial commit",
				Branch: "main", Dirty: true,
			},
		},
		{
			name: "no git",
			mutate: func(m *BoxMetadata) {
				m.Git.Start, m.Git.Last = nil, nil
			},
			want: IndexRecord{
				ExpID: "x1", Project: "demo", Title: "t1", Status: StatusRunning,
				CreatedAt: "2025-11-25T13:20:00Z",
			},
		},
		{
			name: "branch falls back to start",
			mutate: func(m *BoxMetadata) {
				m.Git.Last = nil
			},
			want: IndexRecord{
				ExpID: "x1", Project: "demo", Title: "t1", Status: StatusRunning,
				CreatedAt:      "2025-11-25T13:20:00Z",
				GitStartCommit: testCommit, GitStartSubject: "Initial commit",
				Branch: "main", Dirty: true,
			},
		},
		{
			name: "last wins for branch and dirty",
			mutate: func(m *BoxMetadata) {
				m.Git.Last = &git.Snapshot{Commit: strings.Repeat("f", 40), Subject: "tune", Branch: "exp/lr", Dirty: false}
				m.Status = StatusDone
				m.FinishedAt = "2025-11-26T00:00:00Z"
			},
			want: IndexRecord{
				ExpID: "x1", Project: "demo", Title: "t1", Status: StatusDone,
				CreatedAt: "2025-11-25T13:20:00Z", FinishedAt: "2025-11-26T00:00:00Z",
				GitStartCommit: testCommit, GitStartSubject: "Initial commit",
				GitLastCommit: strings.Repeat("f", 40), GitLastSubject: "tune",
				Branch: "exp/lr", Dirty: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMeta("x1")
			tt.mutate(m)
			if diff := cmp.Diff(tt.want, DeriveIndexRecord(m)); diff != "" {
				t.Errorf("DeriveIndexRecord() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestIndexRecordIsSubsetOfMeta checks that every index field maps to a
// metadata field with the same value and that nothing private leaks.
func TestIndexRecordIsSubsetOfMeta(t *testing.T) {
	m := sampleMeta("x1")
	m.Environment = &Environment{Level: "full", Hostname: "gpu-node-7", Cwd: "/home/alice/proj"}
	m.Notes["final_note"] = "secret plan"

	rec := DeriveIndexRecord(m)
	raw := string(mustJSON(t, rec))
	for _, leak := range []string{"gpu-node-7", "/home/alice", "secret plan", "acme/x", "lr"} {
		if strings.Contains(raw, leak) {
			t.Errorf("index record leaks %q: %s", leak, raw)
		}
	}

	var metaDoc map[string]any
	if err := json.Unmarshal(mustJSON(t, m), &metaDoc); err != nil {
		t.Fatal(err)
	}
	gitDoc := metaDoc["git"].(map[string]any)
	start := gitDoc["start"].(map[string]any)
	last := gitDoc["last"].(map[string]any)

	counterparts := map[string]any{
		"exp_id":            metaDoc["exp_id"],
		"project":           metaDoc["project"],
		"title":             metaDoc["title"],
		"status":            metaDoc["status"],
		"created_at":        metaDoc["created_at"],
		"finished_at":       "",
		"git_start_commit":  start["commit"],
		"git_start_subject": start["subject"],
		"git_last_commit":   last["commit"],
		"git_last_subject":  last["subject"],
		"branch":            last["branch"],
		"dirty":             last["dirty"],
	}
	var recDoc map[string]any
	if err := json.Unmarshal([]byte(raw), &recDoc); err != nil {
		t.Fatal(err)
	}
	if len(recDoc) != len(counterparts) {
		t.Errorf("index record has %d fields, want %d", len(recDoc), len(counterparts))
	}
	for k, v := range recDoc {
		want, ok := counterparts[k]
		if !ok {
			t.Errorf("index field %q has no metadata counterpart", k)
			continue
		}
		if v != want {
			t.Errorf("index field %q = %v, metadata has %v", k, v, want)
		}
	}
}
