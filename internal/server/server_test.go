package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/analyzers/dependencies"
	"github.com/joeynyc/repobrief/internal/analyzers/structure"
	"github.com/joeynyc/repobrief/internal/config"
	"github.com/joeynyc/repobrief/internal/diff"
	"github.com/joeynyc/repobrief/internal/engine"
	"github.com/joeynyc/repobrief/internal/renderers/agents"
	"github.com/joeynyc/repobrief/internal/renderers/sections"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

func newTestServer(t *testing.T, exporters ...string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"package.json": `{"name": "demo", "main": "src/index.ts", "dependencies": {"express": "^4.0.0"}}`,
		"src/index.ts": "export {}\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Root = root
	cfg.History.Enabled = false
	if len(exporters) > 0 {
		cfg.Exporters = exporters
	}

	eng := engine.New(cfg, zerolog.Nop())
	eng.RegisterAnalyzer(structure.New())
	eng.RegisterAnalyzer(dependencies.New())
	eng.RegisterDocument(sections.New())
	for _, target := range agents.Targets(cfg.Output.MaxContextTokens) {
		if cfg.IsExporterEnabled(target.Name()) {
			eng.RegisterExporter(target)
		}
	}

	s, err := New(eng, zerolog.Nop(), "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, root
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestGenerateContext(t *testing.T) {
	s, root := newTestServer(t)
	res := s.generate(context.Background(), rootArgs{})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"Context generated successfully.", "- Dependencies: 1", "- dependencies: Found 1 runtime and 0 dev dependencies", BriefURI} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(root, ".repobrief", "context.json")); err != nil {
		t.Errorf("expected context.json: %v", err)
	}
}

func TestGenerateContextBadRoot(t *testing.T) {
	s, root := newTestServer(t)
	res := s.generate(context.Background(), rootArgs{Root: filepath.Join(root, "missing")})
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.HasPrefix(resultText(t, res), "context generation failed:") {
		t.Errorf("unexpected text %q", resultText(t, res))
	}
}

func TestUpdateContext(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	if got := resultText(t, s.update(ctx, rootArgs{})); got != diff.NoPrevious {
		t.Errorf("expected %q, got %q", diff.NoPrevious, got)
	}
	if got := resultText(t, s.update(ctx, rootArgs{})); got != diff.NoChanges {
		t.Errorf("expected %q, got %q", diff.NoChanges, got)
	}
}

func TestExportContext(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()

	res := s.export(ctx, exportArgs{Format: "codex"})
	if !res.IsError || !strings.Contains(resultText(t, res), "repobrief init") {
		t.Errorf("expected missing-context error, got %q", resultText(t, res))
	}

	s.generate(ctx, rootArgs{})

	res = s.export(ctx, exportArgs{Format: "codex"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	want := "Wrote " + filepath.Join(root, "AGENTS.md")
	if got := resultText(t, res); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	res = s.export(ctx, exportArgs{Format: "emacs"})
	if !res.IsError || !strings.Contains(resultText(t, res), "unsupported export format: emacs") {
		t.Errorf("expected unsupported format error, got %q", resultText(t, res))
	}

	res = s.export(ctx, exportArgs{})
	if !res.IsError || !strings.Contains(resultText(t, res), "claude, cursor, codex, markdown") {
		t.Errorf("expected format-required error, got %q", resultText(t, res))
	}
}

func TestContextResource(t *testing.T) {
	s, root := newTestServer(t)
	if _, err := s.contextJSON(); err == nil {
		t.Fatal("expected error before generation")
	}

	s.generate(context.Background(), rootArgs{})
	text, err := s.contextJSON()
	if err != nil {
		t.Fatalf("contextJSON: %v", err)
	}
	var c repoctx.Context
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if abs, _ := filepath.Abs(root); c.RootDir != abs {
		t.Errorf("expected root %s, got %s", abs, c.RootDir)
	}
}

func TestContextResourcePrefersLastRun(t *testing.T) {
	s, root := newTestServer(t)
	s.generate(context.Background(), rootArgs{})
	if err := os.Remove(filepath.Join(root, ".repobrief", "context.json")); err != nil {
		t.Fatal(err)
	}

	text, err := s.contextJSON()
	if err != nil {
		t.Fatalf("contextJSON: %v", err)
	}
	if !strings.Contains(text, `"rootDir"`) {
		t.Errorf("unexpected context\n%s", text)
	}
}

func TestContextResourceIgnoresOtherRoot(t *testing.T) {
	s, _ := newTestServer(t)
	other := t.TempDir()
	if err := os.WriteFile(filepath.Join(other, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := s.generate(context.Background(), rootArgs{Root: other}); res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	if _, err := s.contextJSON(); err == nil {
		t.Error("expected error: configured root has no context")
	}
}

func TestBriefResource(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	if _, err := s.brief(ctx); err == nil {
		t.Fatal("expected error before generation")
	}

	s.generate(ctx, rootArgs{})
	text, err := s.brief(ctx)
	if err != nil {
		t.Fatalf("brief: %v", err)
	}
	if !strings.HasPrefix(text, "# CLAUDE.md") {
		t.Errorf("expected Claude brief, got\n%s", text)
	}
}

func TestBriefFallsBackToFirstExporter(t *testing.T) {
	s, _ := newTestServer(t, "markdown")
	ctx := context.Background()
	s.generate(ctx, rootArgs{})

	text, err := s.brief(ctx)
	if err != nil {
		t.Fatalf("brief: %v", err)
	}
	if !strings.HasPrefix(text, "# RepoBrief Context") {
		t.Errorf("expected markdown brief, got\n%s", text)
	}
}
