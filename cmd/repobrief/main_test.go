package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func project(t *testing.T) (root, cfgPath string) {
	t.Helper()
	root = t.TempDir()
	files := map[string]string{
		"requirements.txt":   "flask==3.0.0\n",
		"main.py":            "def handle_request():\n    try:\n        pass\n    except ValueError:\n        raise\n",
		"app/user_model.py":  "x = 1\n",
		"app/order_model.py": "y = 2\n",
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
	cfgPath = filepath.Join(t.TempDir(), "repobrief.yaml")
	if err := os.WriteFile(cfgPath, []byte("log:\n  level: error\nhistory:\n  enabled: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, cfgPath
}

func TestInitCommand(t *testing.T) {
	root, cfg := project(t)
	stdout, _, err := run(t, "init", "--root", root, "--config", cfg)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	want := "Analyzed 4 files across 1 directories. Found: Python/Flask project with 1 deps, 0 git commits."
	if !strings.Contains(stdout, want) {
		t.Errorf("expected %q in\n%s", want, stdout)
	}
	if _, err := os.Stat(filepath.Join(root, ".repobrief", "context.json")); err != nil {
		t.Errorf("expected context.json: %v", err)
	}
}

func TestInitJSON(t *testing.T) {
	root, cfg := project(t)
	stdout, stderr, err := run(t, "init", "--json", "--verbose", "--root", root, "--config", cfg)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if _, ok := decoded["gitHistory"]; !ok {
		t.Error("expected gitHistory key")
	}
	if !strings.Contains(stderr, "Found 1 runtime and 0 dev dependencies") {
		t.Errorf("expected verbose progress on stderr:\n%s", stderr)
	}
}

func TestExportCommand(t *testing.T) {
	root, cfg := project(t)

	_, _, err := run(t, "export", "-f", "claude", "--root", root, "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "Run `repobrief init` first") {
		t.Fatalf("expected missing-context error, got %v", err)
	}

	if _, _, err := run(t, "init", "--root", root, "--config", cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	stdout, _, err := run(t, "export", "-f", "cursor", "--root", root, "--config", cfg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(stdout, filepath.Join(root, ".cursorrules")) {
		t.Errorf("unexpected output %q", stdout)
	}

	_, _, err = run(t, "export", "-f", "vim", "--root", root, "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "Use one of: claude, cursor, codex, markdown") {
		t.Errorf("expected unsupported format error, got %v", err)
	}

	if _, _, err := run(t, "export", "--root", root, "--config", cfg); err == nil {
		t.Error("expected error when --format is missing")
	}
}

func TestUpdateCommand(t *testing.T) {
	root, cfg := project(t)
	stdout, _, err := run(t, "update", "--root", root, "--config", cfg)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(stdout, "- No previous context found; created fresh context.") {
		t.Errorf("unexpected output %q", stdout)
	}

	stdout, _, err = run(t, "update", "--root", root, "--config", cfg)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(stdout, "- No material changes") {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestMalformedConfig(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(root, "bad.yaml")
	if err := os.WriteFile(cfg, []byte("root: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "init", "--root", root, "--config", cfg); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	root, cfg := project(t)
	stdout, _, err := run(t, "history", "--root", root, "--config", cfg)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "No runs recorded.") {
		t.Errorf("unexpected output %q", stdout)
	}
}
