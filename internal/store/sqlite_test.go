package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "prod-1", "Sunset Harbor - Day 1", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusQueued, run.Status)
	assert.Equal(t, 3, run.LocationsTotal)

	require.NoError(t, s.CompleteRun(ctx, run.ID, 2))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	assert.Equal(t, 2, got.LocationsEnriched)
	assert.Equal(t, "Sunset Harbor - Day 1", got.Title)
}

func TestSQLiteFailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "prod-1", "Night Shift", 1)
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, run.ID, "knowledge service unavailable"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "knowledge service unavailable", got.Error)
}

func TestSQLiteUnknownRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.Error(t, err)
	assert.Error(t, s.CompleteRun(ctx, "missing", 0))
	assert.Error(t, s.FailRun(ctx, "missing", "boom"))
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "prod-a", "A", 1)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "prod-b", "B", 2)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, a.ID, 1))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byProduction, err := s.ListRuns(ctx, RunFilter{ProductionID: "prod-a"})
	require.NoError(t, err)
	require.Len(t, byProduction, 1)
	assert.Equal(t, a.ID, byProduction[0].ID)

	complete, err := s.ListRuns(ctx, RunFilter{Status: RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, RunStatusComplete, complete[0].Status)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
