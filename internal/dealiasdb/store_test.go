package dealiasdb

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/velocity.report/internal/dealias"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dealias.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndGetRun(t *testing.T) {
	store := openTestStore(t)

	stats := dealias.RunStats{
		RegionCount:     2,
		MaskedGateCount: 3,
		EdgeCount:       1,
		MergeCount:      1,
		CenteringOffset: 1,
		RegionSizes:     []int{0, 4, 4},
		UnwrapNumbers:   []int{0, 0, -1},
		ResidualMean:    0.05,
		ResidualStdDev:  0.01,
		Duration:        250 * time.Millisecond,
	}

	runID := "run-001"
	err := store.SaveRun(runID, "sweep-001", 10, stats, 1700000000000000000)
	require.NoError(t, err)

	got, err := store.GetRun(runID)
	require.NoError(t, err)
	require.Equal(t, "sweep-001", got.SweepLabel)
	require.Equal(t, 10.0, got.Nyquist)
	require.Equal(t, stats.RegionCount, got.Stats.RegionCount)
	require.Equal(t, stats.MergeCount, got.Stats.MergeCount)
	require.Equal(t, stats.CenteringOffset, got.Stats.CenteringOffset)
	require.InDelta(t, stats.ResidualMean, got.Stats.ResidualMean, 1e-9)
	require.Equal(t, stats.Duration, got.Stats.Duration)
	require.Equal(t, []int{0, 4, 4}, got.Stats.RegionSizes)
	require.Equal(t, []int{0, 0, -1}, got.Stats.UnwrapNumbers)
}

func TestStore_GetRunNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetRun("does-not-exist")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ListRunsOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	stats := dealias.RunStats{RegionCount: 0}
	err := store.SaveRun("run-a", "sweep-a", 10, stats, 1000)
	require.NoError(t, err)
	err = store.SaveRun("run-b", "sweep-b", 10, stats, 2000)
	require.NoError(t, err)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "sweep-b", runs[0].SweepLabel)
	require.Equal(t, "sweep-a", runs[1].SweepLabel)
}

func TestStore_ListRunsRespectsLimit(t *testing.T) {
	store := openTestStore(t)
	stats := dealias.RunStats{RegionCount: 0}
	for i := 0; i < 5; i++ {
		err := store.SaveRun(fmt.Sprintf("run-%d", i), "sweep", 10, stats, int64(i))
		require.NoError(t, err)
	}
	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
