package ids

import (
	"fmt"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
)

// StampLayout is the UTC minute-resolution timestamp that leads every
// generated id, so ids sort by creation time.
const StampLayout = "060102-1504"

// DefaultMaxAttempts bounds the numeric collision suffix.
const DefaultMaxAttempts = 1000

// Generator produces experiment ids of the form <stamp>-<slug>[-N].
type Generator struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Reserved reports whether an id has ever been assigned.
	// A reserved id is never handed out again, even after archive.
	Reserved func(id string) bool

	// Prefix and Suffix are optional slug segments placed around the
	// project/title slug. The stamp always stays first.
	Prefix string
	Suffix string

	// MaxAttempts bounds collision suffixes. Defaults to DefaultMaxAttempts.
	MaxAttempts int
}

// Base returns the candidate id before collision handling.
func (g *Generator) Base(project, title string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	stamp := now().UTC().Format(StampLayout)

	parts := []string{project, title}
	if g.Prefix != "" {
		parts = append([]string{g.Prefix}, parts...)
	}
	if g.Suffix != "" {
		parts = append(parts, g.Suffix)
	}
	return stamp + "-" + core.JoinSlug(parts...)
}

// Generate returns the first unreserved id derived from project and title.
// Collisions append -2, -3, ... until a free id is found.
func (g *Generator) Generate(project, title string) (string, error) {
	base := g.Base(project, title)
	if g.Reserved == nil || !g.Reserved(base) {
		return base, nil
	}

	limit := g.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	for n := 2; n <= limit; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !g.Reserved(candidate) {
			return candidate, nil
		}
	}
	return "", errors.NewWithDetails(
		errors.EAlreadyExists,
		fmt.Sprintf("no free experiment id after %d attempts", limit),
		map[string]string{"exp_id": base},
	)
}
