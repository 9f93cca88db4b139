// Package ids generates and resolves experiment identifiers.
package ids

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NielsdaWheelz/expbox/internal/errors"
)

// BoxRef represents a reference to a discovered box.
type BoxRef struct {
	// ExpID is the directory name under results/ (canonical identity).
	ExpID string

	// Project is the project from the index or meta.json. Empty if broken.
	Project string

	// Broken indicates neither the index record nor meta.json could be read.
	// The resolver does not refuse broken boxes; the command layer decides.
	Broken bool
}

// ErrNotFound indicates no matching exp_id (exact or prefix).
type ErrNotFound struct {
	Input string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("box not found: %q", e.Input)
}

// ErrAmbiguous indicates a prefix matched multiple exp_ids.
type ErrAmbiguous struct {
	Input      string
	Candidates []BoxRef // ExpID ascending
}

func (e *ErrAmbiguous) Error() string {
	return fmt.Sprintf("ambiguous experiment id %q matches: %s", e.Input, strings.Join(e.candidateIDs(), ", "))
}

func (e *ErrAmbiguous) candidateIDs() []string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.ExpID
	}
	return ids
}

// ResolveBoxRef resolves an input identifier to a single box reference.
//
// Resolution rules:
//  1. Exact match wins.
//  2. Otherwise, treat input as a prefix:
//     - 0 matches: not found
//     - 1 match: resolve
//     - >1 matches: ambiguous (return candidates)
//  3. Input is trimmed; empty after trim = not found.
func ResolveBoxRef(input string, refs []BoxRef) (BoxRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return BoxRef{}, &ErrNotFound{Input: ""}
	}

	for _, ref := range refs {
		if ref.ExpID == input {
			return ref, nil
		}
	}

	var prefixMatches []BoxRef
	for _, ref := range refs {
		if strings.HasPrefix(ref.ExpID, input) {
			prefixMatches = append(prefixMatches, ref)
		}
	}

	switch len(prefixMatches) {
	case 0:
		return BoxRef{}, &ErrNotFound{Input: input}
	case 1:
		return prefixMatches[0], nil
	default:
		sortCandidates(prefixMatches)
		return BoxRef{}, &ErrAmbiguous{Input: input, Candidates: prefixMatches}
	}
}

// ToBoxError maps resolver errors onto the stable error codes.
// Other errors are returned unchanged.
func ToBoxError(err error) error {
	switch e := err.(type) {
	case *ErrNotFound:
		return errors.NewWithDetails(errors.ENotFound, e.Error(), map[string]string{"input": e.Input})
	case *ErrAmbiguous:
		return errors.NewWithDetails(errors.EIDAmbiguous, e.Error(), map[string]string{
			"input":      e.Input,
			"candidates": strings.Join(e.candidateIDs(), ", "),
		})
	}
	return err
}

func sortCandidates(refs []BoxRef) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].ExpID < refs[j].ExpID
	})
}
