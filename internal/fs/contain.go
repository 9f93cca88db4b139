package fs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotUnderPrefix is returned when a target path is not under the allowed prefix.
type ErrNotUnderPrefix struct {
	Target string
	Prefix string
}

func (e *ErrNotUnderPrefix) Error() string {
	return fmt.Sprintf("target %q is not under allowed prefix %q", e.Target, e.Prefix)
}

// JoinUnder joins elem onto root and verifies the result stays a proper
// subpath of root. Traversal segments such as ".." that escape root, or
// an elem that resolves to root itself, yield ErrNotUnderPrefix.
func JoinUnder(root string, elem ...string) (string, error) {
	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(append([]string{cleanRoot}, elem...)...)
	if !IsSubpath(joined, cleanRoot) {
		return "", &ErrNotUnderPrefix{Target: joined, Prefix: cleanRoot}
	}
	return joined, nil
}

// IsSubpath returns true if target is a proper subpath of prefix.
// Both paths should already be cleaned.
// Returns false if target equals prefix or is outside prefix.
func IsSubpath(target, prefix string) bool {
	prefixWithSep := prefix
	if !strings.HasSuffix(prefixWithSep, string(filepath.Separator)) {
		prefixWithSep = prefix + string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefixWithSep) && len(target) > len(prefix)
}
