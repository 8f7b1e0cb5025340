package analyzers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeynyc/repobrief/internal/repoctx"
	"github.com/joeynyc/repobrief/internal/vcs"
)

type stubAnalyzer struct{ name string }

func (s stubAnalyzer) Name() string { return s.name }
func (s stubAnalyzer) Analyze(context.Context, *Env) (Result, error) {
	return Result{Fragment: repoctx.EmptyChurn()}, nil
}
func (s stubAnalyzer) Fallback() repoctx.Fragment { return repoctx.EmptyChurn() }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubAnalyzer{"structure"})
	r.Register(stubAnalyzer{"churn"})

	require.Len(t, r.All(), 2)
	assert.Equal(t, "structure", r.All()[0].Name())
	assert.Equal(t, "churn", r.All()[1].Name())
}

func TestEnvFilesMemoized(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), nil, 0o644))

	env := NewEnv(root, "", nil, vcs.NewGit(root), zerolog.Nop())
	first, err := env.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, first)

	require.NoError(t, os.WriteFile(filepath.Join(root, "extra.go"), nil, 0o644))
	second, err := env.Files()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnvSkipsOutputDir(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"main.go", "brief/context.json", "brief/architecture.md", "briefing/notes.md"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	env := NewEnv(root, "brief", []string{"**/*.md"}, vcs.NewGit(root), zerolog.Nop())
	assert.Equal(t, "brief", env.OutputDir)
	files, err := env.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, files)

	env = NewEnv(root, filepath.Join(root, "brief"), nil, vcs.NewGit(root), zerolog.Nop())
	assert.Equal(t, "brief", env.OutputDir)
	files, err = env.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"briefing/notes.md", "main.go"}, files)
}

func TestEnvOutputDirOutsideRoot(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name, dir string
	}{
		{"empty", ""},
		{"root itself", "."},
		{"parent", "../out"},
		{"absolute elsewhere", t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewEnv(root, tt.dir, nil, vcs.NewGit(root), zerolog.Nop())
			assert.Empty(t, env.OutputDir)
		})
	}
}
