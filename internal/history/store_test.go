package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".repobrief", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewRun(t *testing.T) {
	c := repoctx.New("/repo", time.Now())
	c.Dependencies.Runtime = []repoctx.DependencyRecord{{Name: "a"}, {Name: "b"}}
	c.Churn.TotalCommitCount = 42

	run := NewRun(KindInit, c, nil)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, KindInit, run.Kind)
	assert.Equal(t, 2, run.Runtime)
	assert.Equal(t, 42, run.TotalCommits)
	assert.NotNil(t, run.Diff)

	other := NewRun(KindInit, c, nil)
	assert.NotEqual(t, run.ID, other.ID)
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := Run{ID: "one", At: base, Kind: KindInit, Runtime: 3, Diff: []string{}}
	second := Run{ID: "two", At: base.Add(time.Minute), Kind: KindUpdate, Runtime: 4, Diff: []string{"Runtime dependency count changed: 3 -> 4"}}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "two", runs[0].ID)
	assert.Equal(t, second.Diff, runs[0].Diff)
	assert.True(t, runs[0].At.Equal(second.At))
	assert.Equal(t, []string{}, runs[1].Diff)

	limited, err := s.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "two", limited[0].ID)
}

func TestReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Run{ID: "keep", At: time.Now(), Kind: KindInit}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "keep", runs[0].ID)
}

func TestDuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Record(ctx, Run{ID: "dup", At: time.Now(), Kind: KindInit}))
	assert.Error(t, s.Record(ctx, Run{ID: "dup", At: time.Now(), Kind: KindInit}))
}
