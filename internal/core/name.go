// Package core provides foundational naming rules for expbox.
package core

import (
	"regexp"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/errors"
)

// Slug and id constants.
const (
	SlugPartMaxLen = 40
	SlugFallback   = "exp"
	IDMaxLen       = 128
)

// idPattern validates explicitly supplied experiment ids: a single path
// segment of ASCII letters, digits, dots, underscores, and hyphens.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// GeneratedIDPattern matches ids produced by the generator:
// a YYMMDD-HHMM stamp followed by zero or more lowercase slug segments.
var GeneratedIDPattern = regexp.MustCompile(`^[0-9]{6}-[0-9]{4}(-[a-z0-9]+)*$`)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// ValidateID checks that id is safe to use as a directory and file name.
// Returns nil if valid, or E_INVALID_ID with details.
//
// Validation rules:
//   - Non-empty and at most IDMaxLen bytes
//   - Only letters, digits, '.', '_' and '-'
//   - Not "." or ".."
func ValidateID(id string) error {
	if id == "" {
		return errors.NewWithDetails(errors.EInvalidID, "experiment id must not be empty", map[string]string{"input": id})
	}
	if len(id) > IDMaxLen {
		return errors.NewWithDetails(
			errors.EInvalidID,
			"experiment id must be at most 128 characters",
			map[string]string{"input": id},
		)
	}
	if id == "." || id == ".." || !idPattern.MatchString(id) {
		return errors.NewWithDetails(
			errors.EInvalidID,
			"experiment id must be a single path segment of letters, digits, '.', '_' or '-'",
			map[string]string{"input": id},
		)
	}
	return nil
}

// Slugify lowercases s, collapses every run of characters outside
// [a-z0-9] into a single hyphen, trims hyphens, and caps the result at
// SlugPartMaxLen. Returns "" when nothing survives.
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > SlugPartMaxLen {
		s = strings.TrimRight(s[:SlugPartMaxLen], "-")
	}
	return s
}

// JoinSlug slugifies each part and joins the non-empty results with '-'.
// Returns SlugFallback when every part is empty.
func JoinSlug(parts ...string) string {
	var out []string
	for _, p := range parts {
		if s := Slugify(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return SlugFallback
	}
	return strings.Join(out, "-")
}
