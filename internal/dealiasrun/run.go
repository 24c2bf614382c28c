// Package dealiasrun orchestrates one dealiasing run end to end: invoke
// the engine, assign it a run ID, and persist the summary. internal/api
// and cmd/dealias both go through here rather than calling
// internal/dealias and internal/dealiasdb directly, so the two stay in
// lockstep.
package dealiasrun

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/velocity.report/internal/dealias"
	"github.com/banshee-data/velocity.report/internal/dealiasdb"
	"github.com/banshee-data/velocity.report/internal/monitoring"
	"github.com/banshee-data/velocity.report/internal/timeutil"
)

// Result bundles the dealiased array with the run ID it was persisted
// under.
type Result struct {
	RunID     string
	Dealiased [][]float64
	Stats     dealias.RunStats
}

// clock is swapped for a timeutil.MockClock in tests that need a fixed
// created-at timestamp.
var clock timeutil.Clock = timeutil.RealClock{}

// Execute runs the dealiasing engine over one sweep, persists the run
// summary to store under a freshly generated run ID, and returns both.
// If store is nil the run is not persisted; RunID is still generated so
// callers have a stable identifier to log against.
func Execute(store *dealiasdb.Store, sweepLabel string, velocities [][]float64, mask [][]bool, nyquist float64, opts dealias.Options) (Result, error) {
	runID := uuid.NewString()

	dealiased, stats, err := dealias.Dealias(velocities, mask, nyquist, opts)
	if err != nil {
		return Result{}, fmt.Errorf("dealiasrun: %s: %w", runID, err)
	}

	if store != nil {
		if err := store.SaveRun(runID, sweepLabel, nyquist, stats, clock.Now().UnixNano()); err != nil {
			return Result{}, fmt.Errorf("dealiasrun: %s: persist: %w", runID, err)
		}
	}

	monitoring.Logf("dealiasrun: %s sweep=%q regions=%d merges=%d duration=%s",
		runID, sweepLabel, stats.RegionCount, stats.MergeCount, stats.Duration)

	return Result{RunID: runID, Dealiased: dealiased, Stats: stats}, nil
}
