// Package planner implements the derived-state core: effective-week
// calculation, sequential slot scheduling, cross-stage propagation and
// journal synchronization. All algorithms operate on plain snapshots; the
// Service at the bottom of the package wires them to the document store.
package planner

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matcher is the similarity predicate used for duplicate avoidance during
// propagation. It is a named strategy so the heuristic can be swapped and
// tested on its own.
type Matcher interface {
	Match(a, b string) bool
}

var folder = cases.Fold()

// normalize trims surrounding whitespace and case-folds. Trailing
// punctuation is deliberately left alone; near-duplicate phrasing is
// inherited behavior.
func normalize(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// ExactMatcher matches texts that are equal after trimming and case folding.
type ExactMatcher struct{}

func (ExactMatcher) Match(a, b string) bool {
	return normalize(a) == normalize(b)
}

// ContainsMatcher matches when either text contains the other, case-folded.
// Used for journal and lesson-plan topic matching, where titles accumulate
// suffixes like meeting counters.
type ContainsMatcher struct{}

func (ContainsMatcher) Match(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
