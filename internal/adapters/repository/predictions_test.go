package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/miya/internal/adapters/repository"
	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch(runID string, started time.Time) types.Batch {
	adv := 0.25
	var b types.Batch
	b.RunID = runID
	b.StartedAt = started
	b.Append(types.ResultRow{
		Index: 0, Team1: "Houston", Team2: "Duke", Seed1: 1, Seed2: 1, Status: types.StatusOK,
		Winner: "Houston", WinnerProbability: 0.58, Team1Probability: 0.58,
		Team1Score: 71, Team2Score: 70, Score: "71-70", CloseGame: true,
		Team1Rank: 1, Team2Rank: 2, Team1Record: "30-4", Team2Record: "31-3",
		WorthAdv: &adv, PrimeAdv: &adv, RoadAdv: &adv, NerveAdv: &adv,
		Team1WinPct: 30.0 / 34, Team2WinPct: 31.0 / 34,
		Team1AdjOE: 125, Team2AdjOE: 128.1, Team1AdjDE: 87.1, Team2AdjDE: 89.5,
		Team1Barthag: 0.97, Team2Barthag: 0.98,
		Team1Metrics: &model.CompositeMetrics{Worth: 0.5, Prime: 0.6, Road: 0.1, Nerve: 0.75},
	})
	b.Append(types.ResultRow{
		Index: 1, Team1: "Zzyzx State", Team2: "Duke", Status: types.StatusError,
		Error: `team not found: "Zzyzx State"`,
	})
	return b
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := repository.OpenSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	started := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveBatch(ctx, sampleBatch("run-1", started)))

	got, err := store.LoadBatch(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, 1, got.OK)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Rows, 2)

	ok := got.Rows[0]
	assert.Equal(t, "71-70", ok.Score)
	assert.True(t, ok.CloseGame)
	assert.Equal(t, "30-4", ok.Team1Record)
	require.NotNil(t, ok.NerveAdv)
	assert.InDelta(t, 0.25, *ok.NerveAdv, 1e-12)
	assert.InDelta(t, 30.0/34, ok.Team1WinPct, 1e-12)
	assert.Equal(t, 125.0, ok.Team1AdjOE)
	assert.Equal(t, 89.5, ok.Team2AdjDE)
	assert.Equal(t, 0.97, ok.Team1Barthag)
	require.NotNil(t, ok.Team1Metrics)
	assert.Equal(t, model.CompositeMetrics{Worth: 0.5, Prime: 0.6, Road: 0.1, Nerve: 0.75}, *ok.Team1Metrics)
	assert.Nil(t, ok.Team2Metrics, "absent metrics stay absent after a round trip")

	failed := got.Rows[1]
	assert.Equal(t, types.StatusError, failed.Status)
	assert.Contains(t, failed.Error, "Zzyzx State")
	assert.Nil(t, failed.WorthAdv)
}

func TestSQLiteStoreReplaceAndList(t *testing.T) {
	ctx := context.Background()
	store, err := repository.OpenSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	older := time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	require.NoError(t, store.SaveBatch(ctx, sampleBatch("run-a", older)))
	require.NoError(t, store.SaveBatch(ctx, sampleBatch("run-b", newer)))

	// Saving a run again replaces its rows.
	replacement := types.Batch{RunID: "run-a", StartedAt: older}
	replacement.Append(types.ResultRow{Index: 0, Team1: "A", Team2: "B", Status: types.StatusOK, Winner: "A"})
	require.NoError(t, store.SaveBatch(ctx, replacement))

	got, err := store.LoadBatch(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)
	assert.Equal(t, 0, got.Failed)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
	assert.Equal(t, "run-a", runs[1].RunID)
}

func TestSQLiteStoreMissingRun(t *testing.T) {
	ctx := context.Background()
	store, err := repository.OpenSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.LoadBatch(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSQLiteStoreReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "miya.db")

	store, err := repository.OpenSQLiteStore(ctx, path, repository.WithBusyTimeoutMS(1000))
	require.NoError(t, err)
	require.NoError(t, store.SaveBatch(ctx, sampleBatch("run-file", time.Now())))
	require.NoError(t, store.Close())

	// Migrations are idempotent on an existing database.
	reopened, err := repository.OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.LoadBatch(ctx, "run-file")
	require.NoError(t, err)
	assert.Len(t, got.Rows, 2)
}
