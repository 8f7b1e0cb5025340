// Package dependencies extracts declared dependencies from package.json,
// requirements.txt, Cargo.toml, pyproject.toml and go.mod.
package dependencies

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/analyzers"
	"github.com/joeynyc/repobrief/internal/manifest"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Name is the analyzer identifier.
const Name = "dependencies"

// Analyzer produces the dependency lists fragment.
type Analyzer struct{}

// New creates a dependency analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Fallback() repoctx.Fragment { return repoctx.EmptyDependencies() }

func (a *Analyzer) Analyze(_ context.Context, env *analyzers.Env) (analyzers.Result, error) {
	deps := Extract(env.Reader, env.Log)
	return analyzers.Result{
		Fragment: deps,
		Summary:  fmt.Sprintf("Found %d runtime and %d dev dependencies", len(deps.Runtime), len(deps.Dev)),
	}, nil
}

// Extract concatenates the records of every readable manifest and sorts each
// role by name. Records are not deduplicated across manifests.
func Extract(r *manifest.Reader, log zerolog.Logger) repoctx.Dependencies {
	deps := repoctx.EmptyDependencies()

	if content, ok := r.Probe(PackageJSON); ok {
		runtime, dev, err := ParsePackageJSON(content)
		if err != nil {
			log.Warn().Err(err).Str("manifest", PackageJSON).Msg("skipping malformed manifest")
		} else {
			deps.Runtime = append(deps.Runtime, runtime...)
			deps.Dev = append(deps.Dev, dev...)
		}
	}

	if content, ok := r.Probe(CargoToml); ok {
		runtime, dev := ParseCargo(content)
		deps.Runtime = append(deps.Runtime, runtime...)
		deps.Dev = append(deps.Dev, dev...)
	}

	if content, ok := r.Probe(Requirements); ok {
		deps.Runtime = append(deps.Runtime, ParseRequirements(content)...)
	}

	if content, ok := r.Probe(Pyproject); ok {
		runtime, dev := ParsePyproject(content)
		deps.Runtime = append(deps.Runtime, runtime...)
		deps.Dev = append(deps.Dev, dev...)
	}

	if content, ok := r.Probe(GoMod); ok {
		runtime, err := ParseGoMod(content)
		if err != nil {
			log.Warn().Err(err).Str("manifest", GoMod).Msg("skipping malformed manifest")
		} else {
			deps.Runtime = append(deps.Runtime, runtime...)
		}
	}

	SortByName(deps.Runtime)
	SortByName(deps.Dev)
	return deps
}

// SortByName stable-sorts records by name, byte-wise.
func SortByName(records []repoctx.DependencyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}
