package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/analyzers"
	"github.com/joeynyc/repobrief/internal/analyzers/churn"
	"github.com/joeynyc/repobrief/internal/analyzers/conventions"
	"github.com/joeynyc/repobrief/internal/analyzers/dependencies"
	"github.com/joeynyc/repobrief/internal/analyzers/structure"
	"github.com/joeynyc/repobrief/internal/config"
	"github.com/joeynyc/repobrief/internal/diff"
	"github.com/joeynyc/repobrief/internal/history"
	"github.com/joeynyc/repobrief/internal/renderers"
	"github.com/joeynyc/repobrief/internal/renderers/agents"
	"github.com/joeynyc/repobrief/internal/renderers/sections"
	"github.com/joeynyc/repobrief/internal/repoctx"
	"github.com/joeynyc/repobrief/internal/vcs"
)

// noRepo is a vcs.Runner for a directory without version control.
type noRepo struct{}

func (noRepo) IsRepo(context.Context) bool { return false }
func (noRepo) Log(context.Context, int) (string, error) { return "", nil }
func (noRepo) Numstat(context.Context, int) (string, error) { return "", nil }
func (noRepo) Shortlog(context.Context) (string, error) { return "", nil }
func (noRepo) CommitCount(context.Context) (int, error) { return 0, nil }

// broken always fails.
type broken struct{}

func (broken) Name() string { return "broken" }
func (broken) Analyze(context.Context, *analyzers.Env) (analyzers.Result, error) {
	return analyzers.Result{}, errors.New("boom")
}
func (broken) Fallback() repoctx.Fragment { return repoctx.DefaultConventions() }

// panicky panics instead of returning.
type panicky struct{}

func (panicky) Name() string { return "panicky" }
func (panicky) Analyze(context.Context, *analyzers.Env) (analyzers.Result, error) {
	panic("index out of range")
}
func (panicky) Fallback() repoctx.Fragment { return repoctx.EmptyChurn() }

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json": `{"name": "tmp", "main": "src/index.ts",
			"dependencies": {"express": "^4.0.0"}, "devDependencies": {"vitest": "^3.0.0"}}`,
		"src/index.ts":     "import express from 'express';\nexport const app = express();\n",
		"src/userModel.ts": "export const x = 1;\n",
	})
	return root
}

func newEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	eng := New(cfg, zerolog.Nop())
	eng.SetGitFactory(func(string) vcs.Runner { return noRepo{} })
	eng.RegisterAnalyzer(structure.New())
	eng.RegisterAnalyzer(dependencies.New())
	eng.RegisterAnalyzer(churn.New())
	eng.RegisterAnalyzer(conventions.New())
	eng.RegisterDocument(sections.New())
	for _, target := range agents.Targets(cfg.Output.MaxContextTokens) {
		if cfg.IsExporterEnabled(target.Name()) {
			eng.RegisterExporter(target)
		}
	}
	return eng
}

func TestInitWritesArtifacts(t *testing.T) {
	root := newProject(t)
	eng := newEngine(t, nil)

	res, err := eng.Init(context.Background(), root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	c := res.Context
	if got := c.PrimaryLanguage(); got != "JavaScript/TypeScript" {
		t.Errorf("expected JavaScript/TypeScript, got %s", got)
	}
	if len(c.Dependencies.Runtime) != 1 || c.Dependencies.Runtime[0].Role != repoctx.RoleRuntime {
		t.Errorf("unexpected runtime deps %+v", c.Dependencies.Runtime)
	}
	if len(c.Dependencies.Dev) != 1 || c.Dependencies.Dev[0].Role != repoctx.RoleDev {
		t.Errorf("unexpected dev deps %+v", c.Dependencies.Dev)
	}
	if len(c.Structure.EntryPoints) != 1 || c.Structure.EntryPoints[0] != "src/index.ts" {
		t.Errorf("unexpected entry points %v", c.Structure.EntryPoints)
	}
	if c.Churn.TotalCommitCount != 0 || len(c.Churn.HotFiles) != 0 {
		t.Errorf("expected empty churn, got %+v", c.Churn)
	}
	if len(res.Summaries) != 4 {
		t.Errorf("expected 4 summaries, got %d", len(res.Summaries))
	}
	if res.Summaries[2].Text != "No git repository detected" {
		t.Errorf("unexpected churn summary %q", res.Summaries[2].Text)
	}

	for _, name := range []string{"context.json", "architecture.md", "dependencies.md", "patterns.md", "hotfiles.md"} {
		if _, err := os.Stat(filepath.Join(root, ".repobrief", name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if len(res.Written) != 5 {
		t.Errorf("expected 5 written files, got %v", res.Written)
	}

	loaded, err := eng.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.RootDir != c.RootDir {
		t.Errorf("expected root %s, got %s", c.RootDir, loaded.RootDir)
	}
	if eng.Last() != c {
		t.Error("expected Last to return the assembled context")
	}
}

func TestAnalyzerFailureUsesFallback(t *testing.T) {
	root := newProject(t)
	eng := New(config.Default(), zerolog.Nop())
	eng.SetGitFactory(func(string) vcs.Runner { return noRepo{} })
	eng.RegisterAnalyzer(dependencies.New())
	eng.RegisterAnalyzer(broken{})

	c, summaries, err := eng.Assemble(context.Background(), root)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(c.Dependencies.Runtime) != 1 {
		t.Errorf("healthy analyzer result lost: %+v", c.Dependencies)
	}
	if c.Conventions.ModuleStyle != repoctx.ModuleUnknown {
		t.Errorf("expected fallback conventions, got %+v", c.Conventions)
	}
	if !summaries[1].Failed || !strings.Contains(summaries[1].Text, "boom") {
		t.Errorf("unexpected summary %+v", summaries[1])
	}
}

func TestAnalyzerPanicUsesFallback(t *testing.T) {
	root := newProject(t)
	eng := New(config.Default(), zerolog.Nop())
	eng.SetGitFactory(func(string) vcs.Runner { return noRepo{} })
	eng.RegisterAnalyzer(panicky{})
	eng.RegisterAnalyzer(dependencies.New())

	c, summaries, err := eng.Assemble(context.Background(), root)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(c.Dependencies.Runtime) != 1 {
		t.Errorf("healthy analyzer result lost: %+v", c.Dependencies)
	}
	if c.Churn.HotFiles == nil || len(c.Churn.HotFiles) != 0 {
		t.Errorf("expected fallback churn, got %+v", c.Churn)
	}
	if !summaries[0].Failed || !strings.Contains(summaries[0].Text, "index out of range") {
		t.Errorf("unexpected summary %+v", summaries[0])
	}
	if summaries[1].Failed {
		t.Errorf("unexpected failure %+v", summaries[1])
	}
}

func TestCustomOutputDirNotAnalyzed(t *testing.T) {
	root := newProject(t)
	cfg := config.Default()
	cfg.Output.Dir = "brief"
	cfg.History.Enabled = false
	eng := newEngine(t, cfg)
	ctx := context.Background()

	first, err := eng.Init(ctx, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "brief", "context.json")); err != nil {
		t.Fatalf("expected brief/context.json: %v", err)
	}
	second, err := eng.Init(ctx, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	a, b := first.Context.Structure, second.Context.Structure
	if a.FilesAnalyzed != b.FilesAnalyzed || a.DirectoriesAnalyzed != b.DirectoriesAnalyzed {
		t.Errorf("output directory analyzed: first files=%d dirs=%d, second files=%d dirs=%d",
			a.FilesAnalyzed, a.DirectoriesAnalyzed, b.FilesAnalyzed, b.DirectoriesAnalyzed)
	}
	if b.FilesAnalyzed != 3 {
		t.Errorf("expected 3 files, got %d", b.FilesAnalyzed)
	}
}

func TestAbsoluteOutputDir(t *testing.T) {
	root := newProject(t)
	out := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = out
	cfg.History.Enabled = false
	eng := newEngine(t, cfg)

	if got := eng.OutputDir(root); got != out {
		t.Errorf("expected %s, got %s", out, got)
	}
	if _, err := eng.Init(context.Background(), root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "context.json")); err != nil {
		t.Errorf("expected context.json in %s: %v", out, err)
	}
}

func TestAssembleEmptyDirectory(t *testing.T) {
	eng := newEngine(t, nil)
	c, _, err := eng.Assemble(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(c.Dependencies.Runtime) != 0 || len(c.Dependencies.Dev) != 0 {
		t.Errorf("expected no dependencies, got %+v", c.Dependencies)
	}
	if c.PrimaryLanguage() != "Unknown" {
		t.Errorf("expected Unknown language, got %s", c.PrimaryLanguage())
	}
}

func TestAssembleCanceled(t *testing.T) {
	eng := newEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := eng.Assemble(ctx, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResolveRoot(t *testing.T) {
	eng := newEngine(t, nil)
	if _, err := eng.ResolveRoot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	writeFiles(t, filepath.Dir(file), map[string]string{"file.txt": "x"})
	if _, err := eng.ResolveRoot(file); err == nil {
		t.Error("expected error for file root")
	}
}

func TestUpdateWithoutPrevious(t *testing.T) {
	root := newProject(t)
	eng := newEngine(t, nil)

	res, err := eng.Update(context.Background(), root)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(res.Diff) != 1 || res.Diff[0] != diff.NoPrevious {
		t.Errorf("expected single no-previous line, got %v", res.Diff)
	}
	if _, err := os.Stat(filepath.Join(root, ".repobrief", "context.json")); err != nil {
		t.Errorf("expected context.json after update: %v", err)
	}
}

func TestUpdateReportsChanges(t *testing.T) {
	ctx := context.Background()
	root := newProject(t)
	eng := newEngine(t, nil)

	if _, err := eng.Init(ctx, root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	res, err := eng.Update(ctx, root)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(res.Diff) != 0 {
		t.Errorf("expected no changes, got %v", res.Diff)
	}

	writeFiles(t, root, map[string]string{
		"package.json": `{"name": "tmp", "main": "src/index.ts",
			"dependencies": {"express": "^4.0.0", "zod": "^3.0.0"}, "devDependencies": {"vitest": "^3.0.0"}}`,
	})
	res, err = eng.Update(ctx, root)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := "Runtime dependency count changed: 1 -> 2"
	if len(res.Diff) != 1 || res.Diff[0] != want {
		t.Errorf("expected [%s], got %v", want, res.Diff)
	}
}

func TestUpdateWithInvalidPrevious(t *testing.T) {
	root := newProject(t)
	writeFiles(t, root, map[string]string{".repobrief/context.json": "{not json"})
	eng := newEngine(t, nil)

	res, err := eng.Update(context.Background(), root)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(res.Diff) != 1 || res.Diff[0] != diff.NoPrevious {
		t.Errorf("expected single no-previous line, got %v", res.Diff)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	root := newProject(t)
	eng := newEngine(t, nil)
	if _, err := eng.Init(ctx, root); err != nil {
		t.Fatalf("Init: %v", err)
	}

	tests := map[string]string{
		"claude":   "CLAUDE.md",
		"cursor":   ".cursorrules",
		"codex":    "AGENTS.md",
		"markdown": "CODEMAP.md",
	}
	for format, file := range tests {
		t.Run(format, func(t *testing.T) {
			path, err := eng.Export(ctx, root, format)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if path != filepath.Join(root, file) {
				t.Errorf("expected %s, got %s", filepath.Join(root, file), path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "src/index.ts") {
				t.Errorf("expected entry point in %s", file)
			}
		})
	}
}

func TestExportErrors(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, nil)

	missing := t.TempDir()
	if _, err := eng.Export(ctx, missing, "claude"); !errors.Is(err, ErrNoContext) {
		t.Errorf("expected ErrNoContext, got %v", err)
	}
	if !strings.Contains(ErrNoContext.Error(), "Run `repobrief init` first") {
		t.Errorf("unexpected message %q", ErrNoContext)
	}

	invalid := t.TempDir()
	writeFiles(t, invalid, map[string]string{".repobrief/context.json": "[]"})
	if _, err := eng.Export(ctx, invalid, "claude"); !errors.Is(err, ErrInvalidContext) {
		t.Errorf("expected ErrInvalidContext, got %v", err)
	}

	root := newProject(t)
	if _, err := eng.Init(ctx, root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, err := eng.Export(ctx, root, "vim")
	if !errors.Is(err, renderers.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "vim. Use one of: claude, cursor, codex, markdown") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestDisabledExporter(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Exporters = []string{"claude"}
	eng := newEngine(t, cfg)
	root := newProject(t)
	if _, err := eng.Init(ctx, root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := eng.Export(ctx, root, "cursor"); !errors.Is(err, renderers.ErrUnknownFormat) {
		t.Errorf("expected disabled exporter to be unknown, got %v", err)
	}
	if got := eng.Exporters(); len(got) != 1 || got[0] != "claude" {
		t.Errorf("unexpected exporters %v", got)
	}
}

func TestHistoryRecorded(t *testing.T) {
	ctx := context.Background()
	root := newProject(t)
	eng := newEngine(t, nil)

	runs, err := eng.History(ctx, root, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs before init, got %d", len(runs))
	}

	if _, err := eng.Init(ctx, root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := eng.Update(ctx, root); err != nil {
		t.Fatalf("Update: %v", err)
	}

	runs, err = eng.History(ctx, root, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Kind != history.KindUpdate || runs[1].Kind != history.KindInit {
		t.Errorf("expected update then init, got %s then %s", runs[0].Kind, runs[1].Kind)
	}
	if runs[1].Runtime != 1 || runs[1].Dev != 1 {
		t.Errorf("unexpected counts %+v", runs[1])
	}
}

func TestHistoryDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.History.Enabled = false
	eng := newEngine(t, cfg)
	root := newProject(t)

	if _, err := eng.Init(ctx, root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".repobrief", "history.db")); !os.IsNotExist(err) {
		t.Errorf("expected no history database, got %v", err)
	}
}
