package core

// ShortHashLen is the display length of an abbreviated commit hash.
const ShortHashLen = 7

// ShortHash abbreviates a commit hash for display.
// The full hash remains the stored reproducibility anchor.
func ShortHash(commit string) string {
	if len(commit) <= ShortHashLen {
		return commit
	}
	return commit[:ShortHashLen]
}
