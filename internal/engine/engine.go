package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/joeynyc/repobrief/internal/analyzers"
	"github.com/joeynyc/repobrief/internal/config"
	"github.com/joeynyc/repobrief/internal/diff"
	"github.com/joeynyc/repobrief/internal/history"
	"github.com/joeynyc/repobrief/internal/logging"
	"github.com/joeynyc/repobrief/internal/renderers"
	"github.com/joeynyc/repobrief/internal/repoctx"
	"github.com/joeynyc/repobrief/internal/vcs"
)

// ErrNoContext is returned when an operation needs a context.json that has
// not been generated.
var ErrNoContext = errors.New("missing .repobrief/context.json. Run `repobrief init` first")

// ErrInvalidContext is returned when context.json exists but cannot be read.
var ErrInvalidContext = errors.New("invalid .repobrief/context.json. Re-run `repobrief init` to regenerate it")

// Summary is one analyzer's progress line.
type Summary struct {
	Analyzer string `json:"analyzer"`
	Text     string `json:"summary"`
	Failed   bool   `json:"failed,omitempty"`
}

// Result is the outcome of Init or Update.
type Result struct {
	Context   *repoctx.Context
	Summaries []Summary
	// Diff is set by Update only.
	Diff []string
	// Written lists every file the run produced.
	Written []string
}

// Engine orchestrates the analysis pipeline: analyze -> assemble -> render -> persist.
type Engine struct {
	cfg       *config.Config
	base      zerolog.Logger
	log       zerolog.Logger
	analyzers *analyzers.Registry
	documents *renderers.Registry
	exporters *renderers.Registry
	newGit    func(dir string) vcs.Runner

	mu   sync.Mutex
	last *repoctx.Context
}

// New creates a new Engine with the given config.
// Analyzers and renderers must be registered after creation.
func New(cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		base:      log,
		log:       logging.Component(log, "engine"),
		analyzers: analyzers.NewRegistry(),
		documents: renderers.NewRegistry(),
		exporters: renderers.NewRegistry(),
		newGit:    func(dir string) vcs.Runner { return vcs.NewGit(dir) },
	}
}

// RegisterAnalyzer adds an analyzer to the engine.
func (e *Engine) RegisterAnalyzer(a analyzers.Analyzer) {
	e.analyzers.Register(a)
}

// RegisterDocument adds a renderer whose artifacts are written to the output
// directory on every run.
func (e *Engine) RegisterDocument(rnd renderers.Renderer) {
	e.documents.Register(rnd)
}

// RegisterExporter adds an export target.
func (e *Engine) RegisterExporter(rnd renderers.Renderer) {
	e.exporters.Register(rnd)
}

// Exporters returns the registered export target names.
func (e *Engine) Exporters() []string {
	return e.exporters.Names()
}

// SetGitFactory replaces the version-control runner constructor.
func (e *Engine) SetGitFactory(f func(dir string) vcs.Runner) {
	e.newGit = f
}

// Last returns the most recently assembled context, or nil.
func (e *Engine) Last() *repoctx.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// ResolveRoot returns the absolute repository root for root, falling back to
// the configured root when root is empty.
func (e *Engine) ResolveRoot(root string) (string, error) {
	if root == "" {
		root = e.cfg.Root
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resolving root %s: not a directory", root)
	}
	return abs, nil
}

// OutputDir returns the output directory for an absolute root. An absolute
// configured directory is used as is.
func (e *Engine) OutputDir(root string) string {
	if filepath.IsAbs(e.cfg.Output.Dir) {
		return e.cfg.Output.Dir
	}
	return filepath.Join(root, e.cfg.Output.Dir)
}

// ContextPath returns the context.json path for an absolute root.
func (e *Engine) ContextPath(root string) string {
	return filepath.Join(e.OutputDir(root), repoctx.FileName)
}

// Assemble runs every registered analyzer concurrently and merges their
// fragments. A failing analyzer contributes its fallback fragment.
func (e *Engine) Assemble(ctx context.Context, root string) (*repoctx.Context, []Summary, error) {
	start := time.Now()
	abs, err := e.ResolveRoot(root)
	if err != nil {
		return nil, nil, err
	}

	env := analyzers.NewEnv(abs, e.OutputDir(abs), e.cfg.Ignore, e.newGit(abs), logging.Component(e.base, "analyzers"))
	all := e.analyzers.All()
	fragments := make([]repoctx.Fragment, len(all))
	summaries := make([]Summary, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range all {
		g.Go(func() error {
			fragments[i], summaries[i] = e.analyze(gctx, a, env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("analyzing %s: %w", abs, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("analyzing %s: %w", abs, err)
	}

	c := repoctx.New(abs, time.Now())
	for _, f := range fragments {
		if f != nil {
			f.Apply(c)
		}
	}

	e.log.Info().
		Int("files", c.Structure.FilesAnalyzed).
		Int("analyzers", len(all)).
		Dur("took", time.Since(start)).
		Msg("context assembled")
	return c, summaries, nil
}

// analyze runs one analyzer. An error or panic yields its fallback fragment.
func (e *Engine) analyze(ctx context.Context, a analyzers.Analyzer, env *analyzers.Env) (frag repoctx.Fragment, sum Summary) {
	fail := func(err error) {
		e.log.Warn().Err(err).Str("analyzer", a.Name()).Msg("analyzer failed, using defaults")
		frag = a.Fallback()
		sum = Summary{Analyzer: a.Name(), Text: fmt.Sprintf("%s analysis failed: %v", a.Name(), err), Failed: true}
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := a.Analyze(ctx, env)
	if err != nil {
		fail(err)
		return frag, sum
	}
	e.log.Debug().Str("analyzer", a.Name()).Msg(res.Summary)
	return res.Fragment, Summary{Analyzer: a.Name(), Text: res.Summary}
}

// Init assembles a fresh context and writes context.json plus the document
// artifacts into the output directory.
func (e *Engine) Init(ctx context.Context, root string) (*Result, error) {
	c, summaries, err := e.Assemble(ctx, root)
	if err != nil {
		return nil, err
	}
	written, err := e.persist(ctx, c)
	if err != nil {
		return nil, err
	}
	e.record(ctx, c.RootDir, history.NewRun(history.KindInit, c, nil))
	return &Result{Context: c, Summaries: summaries, Written: written}, nil
}

// Update is Init preceded by loading the previous context and followed by a
// diff against it. An absent or invalid previous context counts as none.
func (e *Engine) Update(ctx context.Context, root string) (*Result, error) {
	abs, err := e.ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	prev := repoctx.LoadOptional(e.ContextPath(abs))
	if prev == nil {
		e.log.Debug().Msg("no previous context")
	}

	c, summaries, err := e.Assemble(ctx, abs)
	if err != nil {
		return nil, err
	}
	changes := diff.Compare(prev, c)
	written, err := e.persist(ctx, c)
	if err != nil {
		return nil, err
	}
	e.record(ctx, abs, history.NewRun(history.KindUpdate, c, changes))
	return &Result{Context: c, Summaries: summaries, Diff: changes, Written: written}, nil
}

// Load reads the persisted context for root, mapping failures to
// ErrNoContext and ErrInvalidContext.
func (e *Engine) Load(root string) (*repoctx.Context, error) {
	abs, err := e.ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	c, err := repoctx.Load(e.ContextPath(abs))
	switch {
	case err == nil:
		return c, nil
	case repoctx.IsNotExist(err):
		return nil, ErrNoContext
	case errors.Is(err, repoctx.ErrInvalid):
		e.log.Debug().Err(err).Msg("context unreadable")
		return nil, ErrInvalidContext
	default:
		return nil, fmt.Errorf("loading context: %w", err)
	}
}

// Render produces the named export target from the persisted context without
// writing it.
func (e *Engine) Render(ctx context.Context, root, format string) (renderers.Artifact, error) {
	c, err := e.Load(root)
	if err != nil {
		return renderers.Artifact{}, err
	}
	rnd, err := e.exporters.Lookup(format)
	if err != nil {
		return renderers.Artifact{}, err
	}
	artifacts, err := rnd.Render(ctx, c)
	if err != nil {
		return renderers.Artifact{}, fmt.Errorf("rendering %s: %w", format, err)
	}
	if len(artifacts) == 0 {
		return renderers.Artifact{}, fmt.Errorf("rendering %s: no output", format)
	}
	return artifacts[0], nil
}

// Export renders the named target into the repository root and returns the
// written path.
func (e *Engine) Export(ctx context.Context, root, format string) (string, error) {
	abs, err := e.ResolveRoot(root)
	if err != nil {
		return "", err
	}
	a, err := e.Render(ctx, abs, format)
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, a.Name)
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", a.Name, err)
	}
	e.log.Info().Str("format", format).Str("path", path).Int("bytes", len(a.Content)).Msg("exported")
	return path, nil
}

// History returns recorded runs for root, newest first.
func (e *Engine) History(ctx context.Context, root string, limit int) ([]history.Run, error) {
	abs, err := e.ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	if !e.cfg.History.Enabled {
		return []history.Run{}, nil
	}
	path := e.historyPath(abs)
	if _, err := os.Stat(path); err != nil {
		return []history.Run{}, nil
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Runs(ctx, limit)
}

// persist writes context.json and every document artifact.
func (e *Engine) persist(ctx context.Context, c *repoctx.Context) ([]string, error) {
	outDir := e.OutputDir(c.RootDir)
	contextPath := filepath.Join(outDir, repoctx.FileName)
	if err := repoctx.Save(contextPath, c); err != nil {
		return nil, err
	}
	written := []string{contextPath}
	e.log.Debug().Str("path", contextPath).Msg("wrote context")

	for _, rnd := range e.documents.All() {
		artifacts, err := rnd.Render(ctx, c)
		if err != nil {
			e.log.Warn().Err(err).Str("renderer", rnd.Name()).Msg("renderer failed")
			continue
		}
		for _, a := range artifacts {
			path := filepath.Join(outDir, a.Name)
			if err := os.WriteFile(path, a.Content, 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", a.Name, err)
			}
			written = append(written, path)
			e.log.Debug().Str("path", path).Int("bytes", len(a.Content)).Msg("wrote artifact")
		}
	}

	e.mu.Lock()
	e.last = c
	e.mu.Unlock()
	return written, nil
}

// record appends run to the history database. Failures are logged only.
func (e *Engine) record(ctx context.Context, root string, run history.Run) {
	if !e.cfg.History.Enabled {
		return
	}
	log := logging.Component(e.base, "history")
	store, err := history.Open(e.historyPath(root))
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer store.Close()
	if err := store.Record(ctx, run); err != nil {
		log.Warn().Err(err).Msg("history not recorded")
		return
	}
	log.Debug().Str("run", run.ID).Str("kind", run.Kind).Msg("run recorded")
}

func (e *Engine) historyPath(root string) string {
	if filepath.IsAbs(e.cfg.History.File) {
		return e.cfg.History.File
	}
	return filepath.Join(e.OutputDir(root), e.cfg.History.File)
}
