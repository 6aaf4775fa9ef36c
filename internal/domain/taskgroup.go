package domain

import (
	"slices"
	"strings"
)

// TaskGroup is one server-declared workflow stage.
type TaskGroup struct {
	ID       string
	Name     string
	Sequence int
}

// OpenGroupNames returns the declared stage names in server sequence order
// with the closed stages excluded. This is the seed list for column
// derivation; ad-hoc stages found in order data are appended by the caller.
func OpenGroupNames(groups []TaskGroup) []string {
	sorted := append([]TaskGroup(nil), groups...)
	slices.SortStableFunc(sorted, func(a, b TaskGroup) int {
		return a.Sequence - b.Sequence
	})
	out := make([]string, 0, len(sorted))
	for _, g := range sorted {
		name := strings.TrimSpace(g.Name)
		if name == "" || IsClosedStage(name) {
			continue
		}
		if containsStage(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// containsStage reports whether names already holds stage under
// case-insensitive comparison.
func containsStage(names []string, stage string) bool {
	for _, n := range names {
		if SameStage(n, stage) {
			return true
		}
	}
	return false
}
