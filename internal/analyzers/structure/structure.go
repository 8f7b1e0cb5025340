// Package structure classifies repository layout and merges detected and
// inferred entry points.
package structure

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/joeynyc/repobrief/internal/analyzers"
	"github.com/joeynyc/repobrief/internal/analyzers/ecosystem"
	"github.com/joeynyc/repobrief/internal/repoctx"
	"github.com/joeynyc/repobrief/internal/walker"
)

// Name is the analyzer identifier.
const Name = "structure"

// KeyDirectories is the directory vocabulary, in report order.
var KeyDirectories = []string{"src", "lib", "test", "tests", "apps", "packages", "services", "cmd", "Sources", "Tests", "api", "server"}

// conventionalEntries are compared against the lower-cased listing.
var conventionalEntries = map[string]bool{
	"src/index.ts":           true,
	"src/cli.ts":             true,
	"src/main.ts":            true,
	"index.ts":               true,
	"index.js":               true,
	"src/index.js":           true,
	"src/app.ts":             true,
	"src/app.js":             true,
	"app.ts":                 true,
	"app.js":                 true,
	"main.swift":             true,
	"__main__.py":            true,
	"main.py":                true,
	"main.go":                true,
	"src/main.rs":            true,
	"src/lib.rs":             true,
	"sources/app/main.swift": true,
	"sources/run/main.swift": true,
	"sources/main.swift":     true,
	"cmd/main.go":            true,
}

// Analyzer produces the structure snapshot fragment.
type Analyzer struct{}

// New creates a structure analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Fallback() repoctx.Fragment { return repoctx.EmptyStructure() }

func (a *Analyzer) Analyze(_ context.Context, env *analyzers.Env) (analyzers.Result, error) {
	files, err := env.Files()
	if err != nil {
		return analyzers.Result{}, fmt.Errorf("listing files: %w", err)
	}

	detection := ecosystem.Detect(env.Reader, env.Log)
	snap := Build(detection, files)
	snap.Workspaces = Workspaces(env.Reader, env.Log)

	framework := detection.Framework
	if framework == "" {
		framework = "Unknown framework"
	}
	return analyzers.Result{
		Fragment: snap,
		Summary: fmt.Sprintf("%s %s project with %d key directories and %d entry points",
			snap.ProjectKind, framework, len(snap.KeyDirectories), len(snap.EntryPoints)),
	}, nil
}

// Build composes a detection result with the file listing.
func Build(detection repoctx.ProjectDetection, files []string) repoctx.StructureSnapshot {
	return repoctx.StructureSnapshot{
		ProjectKind:         Kind(files),
		KeyDirectories:      PresentDirectories(files),
		EntryPoints:         MergeEntryPoints(detection.EntryPoints, InferEntryPoints(files)),
		FilesAnalyzed:       len(files),
		DirectoriesAnalyzed: len(walker.Directories(files)),
		Detection:           detection,
	}
}

// PresentDirectories returns the vocabulary entries that contain a file.
func PresentDirectories(files []string) []string {
	dirs := []string{}
	for _, dir := range KeyDirectories {
		for _, f := range files {
			if strings.HasPrefix(f, dir+"/") {
				dirs = append(dirs, dir)
				break
			}
		}
	}
	return dirs
}

// Kind is multi-project when packages/ or apps/ holds files or more than one
// package.json exists.
func Kind(files []string) repoctx.ProjectKind {
	manifests := 0
	for _, f := range files {
		if strings.HasPrefix(f, "packages/") || strings.HasPrefix(f, "apps/") {
			return repoctx.ProjectMulti
		}
		if path.Base(f) == "package.json" {
			manifests++
		}
	}
	if manifests > 1 {
		return repoctx.ProjectMulti
	}
	return repoctx.ProjectSingle
}

// InferEntryPoints returns listed files matching a conventional entry name.
func InferEntryPoints(files []string) []string {
	var entries []string
	for _, f := range files {
		if conventionalEntries[strings.ToLower(f)] {
			entries = append(entries, f)
		}
	}
	return entries
}

// MergeEntryPoints unions detected and inferred entries, detected first.
func MergeEntryPoints(detected, inferred []string) []string {
	merged := []string{}
	seen := make(map[string]bool)
	for _, list := range [][]string{detected, inferred} {
		for _, e := range list {
			if !seen[e] {
				seen[e] = true
				merged = append(merged, e)
			}
		}
	}
	return merged
}
