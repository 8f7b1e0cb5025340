// Package conventions infers naming, module style, error handling, testing
// and tooling conventions by sampling a repository.
package conventions

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/analyzers"
	"github.com/joeynyc/repobrief/internal/analyzers/dependencies"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Name is the analyzer identifier.
const Name = "conventions"

// Analyzer produces the convention profile fragment.
type Analyzer struct{}

// New creates a convention analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Fallback() repoctx.Fragment { return repoctx.DefaultConventions() }

func (a *Analyzer) Analyze(ctx context.Context, env *analyzers.Env) (analyzers.Result, error) {
	files, err := env.Files()
	if err != nil {
		return analyzers.Result{}, fmt.Errorf("listing files: %w", err)
	}

	sources := SourceFiles(files, MaxNamingFiles)
	var samples []string
	for _, f := range sources {
		if len(samples) == MaxContentFiles || ctx.Err() != nil {
			break
		}
		if content, ok := env.Reader.Sample(f, MaxContentBytes); ok && content != "" {
			samples = append(samples, content)
		}
	}
	env.Log.Debug().Int("named", len(sources)).Int("sampled", len(samples)).Msg("sampled source files")

	// Manifest problems are reported by the dependency analyzer.
	deps := dependencies.Extract(env.Reader, zerolog.Nop())
	framework, command := DetectTestFramework(deps, samples, files)

	p := repoctx.ConventionProfile{
		NamingConvention:    Naming(sources),
		ModuleStyle:         ModuleStyle(samples),
		ErrorHandlingIdioms: ErrorIdioms(samples),
		TestFramework:       framework,
		TestCommand:         TestCommand(env.Reader, command),
		LintersFormatters:   present(env.Reader, linterMarkers),
		CISystems:           present(env.Reader, ciMarkers),
		MonorepoTooling:     present(env.Reader, monorepoMarkers),
		ContainerFiles:      present(env.Reader, containerMarkers),
	}

	return analyzers.Result{
		Fragment: p,
		Summary: fmt.Sprintf("Naming: %s, imports: %s, error patterns: %d",
			p.NamingConvention, p.ModuleStyle, len(p.ErrorHandlingIdioms)),
	}, nil
}
