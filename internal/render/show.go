// Package render provides output formatting for expbox commands.
// This file implements show-specific rendering.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/git"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// ShowPathsData holds the paths for --path output.
type ShowPathsData struct {
	Box         store.BoxPaths
	ConfigPath  string // absolute; empty when unknown
	IndexRecord string
}

// WriteShowPaths writes --path output in a fixed key order.
func WriteShowPaths(w io.Writer, data ShowPathsData) error {
	lines := []struct {
		key   string
		value string
	}{
		{"box_dir", data.Box.Root},
		{"meta_path", data.Box.Meta},
		{"config_path", data.ConfigPath},
		{"artifacts_dir", data.Box.Artifacts},
		{"logs_dir", data.Box.Logs},
		{"metrics_path", data.Box.Metrics()},
		{"events_path", data.Box.Events()},
		{"figures_dir", data.Box.Figures},
		{"notebooks_dir", data.Box.Notebooks},
		{"index_path", data.IndexRecord},
	}

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", line.key, line.value); err != nil {
			return err
		}
	}
	return nil
}

// WriteShowHuman writes a box as plain key/value lines.
// Git snapshots, notes, and environment follow as indented sections.
func WriteShowHuman(w io.Writer, meta *store.BoxMetadata) error {
	title := meta.Title
	if title == "" {
		title = TitleUntitled
	}

	_, _ = fmt.Fprintf(w, "exp_id: %s\n", meta.ExpID)
	_, _ = fmt.Fprintf(w, "project: %s\n", meta.Project)
	_, _ = fmt.Fprintf(w, "title: %s\n", title)
	_, _ = fmt.Fprintf(w, "purpose: %s\n", orNone(meta.Purpose))
	_, _ = fmt.Fprintf(w, "status: %s\n", meta.Status)
	_, _ = fmt.Fprintf(w, "created_at: %s\n", meta.CreatedAt)
	_, _ = fmt.Fprintf(w, "finished_at: %s\n", orNone(meta.FinishedAt))
	_, _ = fmt.Fprintf(w, "config: %s (%d keys)\n", orNone(meta.ConfigPath), len(meta.Config))
	_, _ = fmt.Fprintf(w, "logger: %s\n", meta.LoggerBackend)

	_, _ = fmt.Fprintln(w)
	writeSnapshot(w, "git_start", meta.Git.Start)
	writeSnapshot(w, "git_last", meta.Git.Last)
	if len(meta.Git.DirtyFiles) > 0 {
		_, _ = fmt.Fprintln(w, "dirty_files:")
		for _, f := range meta.Git.DirtyFiles {
			_, _ = fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if r := meta.Git.Remote; r != nil {
		_, _ = fmt.Fprintf(w, "remote: %s %s\n", r.Name, r.URL)
		if r.CommitURL != "" {
			_, _ = fmt.Fprintf(w, "commit_url: %s\n", r.CommitURL)
		}
	}

	if len(meta.Notes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "notes:")
		for _, k := range sortedKeys(meta.Notes) {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", k, TruncateForDisplay(fmt.Sprint(meta.Notes[k]), 200))
		}
	}

	if env := meta.Environment; env != nil {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "environment: %s\n", env.Level)
		fields := []struct{ key, value string }{
			{"os", env.OS},
			{"arch", env.Arch},
			{"go_version", env.GoVersion},
			{"hostname", env.Hostname},
			{"cwd", env.Cwd},
			{"executable", env.Executable},
			{"cuda_visible_devices", env.CUDAVisibleDevices},
		}
		for _, f := range fields {
			if f.value != "" {
				_, _ = fmt.Fprintf(w, "  %s: %s\n", f.key, f.value)
			}
		}
	}

	return nil
}

func writeSnapshot(w io.Writer, label string, s *git.Snapshot) {
	if s == nil {
		_, _ = fmt.Fprintf(w, "%s: none\n", label)
		return
	}
	dirty := ""
	if s.Dirty {
		dirty = " (dirty)"
	}
	_, _ = fmt.Fprintf(w, "%s: %s %s%s\n", label, s.ShortCommit(), orNone(s.Branch), dirty)
	if s.Subject != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", strings.TrimSpace(s.Subject))
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
