package analyzers

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/manifest"
	"github.com/joeynyc/repobrief/internal/repoctx"
	"github.com/joeynyc/repobrief/internal/vcs"
	"github.com/joeynyc/repobrief/internal/walker"
)

// Result is what one analyzer contributes to the context.
type Result struct {
	Fragment repoctx.Fragment
	// Summary is a one-line description for progress output.
	Summary string
}

// Analyzer inspects a repository and produces one context fragment.
type Analyzer interface {
	// Name returns the analyzer identifier (e.g. "structure", "churn").
	Name() string
	// Analyze inspects the repository described by env.
	Analyze(ctx context.Context, env *Env) (Result, error)
	// Fallback returns the fragment used when Analyze fails.
	Fallback() repoctx.Fragment
}

// Env is the read-only capability set shared by all analyzers of one run.
type Env struct {
	Root string
	// OutputDir is the slash-separated output directory relative to Root,
	// or "" when it lies outside Root.
	OutputDir string
	Reader    *manifest.Reader
	Git       vcs.Runner
	Log       zerolog.Logger

	files func() ([]string, error)
}

// NewEnv returns an Env for root whose file listing honors ignore, skips
// outputDir and is computed at most once. outputDir may be absolute or
// relative to root; "" means no output directory.
func NewEnv(root, outputDir string, ignore []string, git vcs.Runner, log zerolog.Logger) *Env {
	out := relativeDir(root, outputDir)
	if out != "" {
		ignore = append(slices.Clone(ignore), out+"/**")
	}
	return &Env{
		Root:      root,
		OutputDir: out,
		Reader:    manifest.NewReader(root),
		Git:       git,
		Log:       log,
		files: sync.OnceValues(func() ([]string, error) {
			return walker.ListFiles(root, ignore)
		}),
	}
}

func relativeDir(root, dir string) string {
	if dir == "" {
		return ""
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Files returns the memoized repository file listing.
func (e *Env) Files() ([]string, error) {
	return e.files()
}

// Registry holds registered analyzers.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry creates a new analyzer registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an analyzer to the registry.
func (r *Registry) Register(a Analyzer) {
	r.analyzers = append(r.analyzers, a)
}

// All returns all registered analyzers in registration order.
func (r *Registry) All() []Analyzer {
	return r.analyzers
}
