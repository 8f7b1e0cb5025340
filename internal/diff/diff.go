// Package diff reports material changes between two repository contexts.
package diff

import (
	"fmt"
	"slices"
	"sort"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

// NoPrevious is the single line reported when there is no prior context.
const NoPrevious = "No previous context found; created fresh context."

// NoChanges is printed by callers when Compare returns no lines.
const NoChanges = "No material changes"

type check func(prev, next *repoctx.Context) (string, bool)

// checks run in report order. Hot files, contributors and conventions other
// than module style are not compared.
var checks = []check{
	func(prev, next *repoctx.Context) (string, bool) {
		a, b := prev.Structure.ProjectKind, next.Structure.ProjectKind
		return fmt.Sprintf("Project type changed: %s -> %s", a, b), a != b
	},
	func(prev, next *repoctx.Context) (string, bool) {
		return "Entry points changed", !sameSet(prev.Structure.EntryPoints, next.Structure.EntryPoints)
	},
	func(prev, next *repoctx.Context) (string, bool) {
		a, b := len(prev.Dependencies.Runtime), len(next.Dependencies.Runtime)
		return fmt.Sprintf("Runtime dependency count changed: %d -> %d", a, b), a != b
	},
	func(prev, next *repoctx.Context) (string, bool) {
		a, b := len(prev.Dependencies.Dev), len(next.Dependencies.Dev)
		return fmt.Sprintf("Dev dependency count changed: %d -> %d", a, b), a != b
	},
	func(prev, next *repoctx.Context) (string, bool) {
		a, b := prev.Conventions.ModuleStyle, next.Conventions.ModuleStyle
		return fmt.Sprintf("Import style changed: %s -> %s", a, b), a != b
	},
}

// Compare returns one line per material change from prev to next. A nil prev
// yields exactly NoPrevious; identical contexts yield an empty slice.
func Compare(prev, next *repoctx.Context) []string {
	if prev == nil {
		return []string{NoPrevious}
	}
	lines := []string{}
	for _, c := range checks {
		if line, changed := c(prev, next); changed {
			lines = append(lines, line)
		}
	}
	return lines
}

// sameSet compares entry point lists ignoring order and duplicates.
func sameSet(a, b []string) bool {
	return slices.Equal(uniqueSorted(a), uniqueSorted(b))
}

func uniqueSorted(list []string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
