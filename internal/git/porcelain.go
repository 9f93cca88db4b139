package git

import "strings"

// ParsePorcelainZ extracts paths from `git status --porcelain=v1 -z`
// output in the order git reports them. Renames and copies contribute
// their destination path only.
func ParsePorcelainZ(out string) []string {
	entries := strings.Split(out, "\x00")
	var files []string
	seen := make(map[string]bool)
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if len(e) < 4 {
			continue
		}
		x := e[0]
		path := e[3:]
		if x == 'R' || x == 'C' {
			// Source path follows as its own entry.
			i++
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	return files
}

// MergeDirtyFiles returns prev followed by every path in next not already
// present, preserving first-seen order.
func MergeDirtyFiles(prev, next []string) []string {
	out := make([]string, 0, len(prev)+len(next))
	seen := make(map[string]bool, len(prev)+len(next))
	for _, list := range [][]string{prev, next} {
		for _, p := range list {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
