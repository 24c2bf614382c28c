// Package dealias implements a region-based Doppler velocity dealiasing
// engine: multi-threshold connected-component labeling, gap-jumping edge
// collection between regions, and iterative greedy network reduction that
// unfolds regions relative to one another by an integer number of Nyquist
// intervals.
//
// The engine is single-threaded and synchronous per sweep and holds no
// state across calls to Dealias; callers may parallelize across sweeps
// themselves.
package dealias

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/velocity.report/internal/monitoring"
)

// Options configures one call to Dealias. Zero-value Options is not valid
// on its own for IntervalSplits (use DefaultOptions as a base).
type Options struct {
	// IntervalSplits is the number of equal-width sub-intervals across
	// [-Vn, Vn) used for labeling. Ignored if IntervalLimits is set.
	IntervalSplits int

	// IntervalLimits, if non-nil, overrides IntervalSplits with explicit
	// bin edges. Must be monotonically increasing and cover [-Vn, Vn].
	IntervalLimits []float64

	// SkipBetweenRays is the max masked rays gap-jumped during edge
	// collection. 0 disables gap-jumping across rays.
	SkipBetweenRays int

	// SkipAlongRay is the same for the range axis.
	SkipAlongRay int

	// Centered applies a post-reduction global offset so the average
	// fold count is as close to zero as an integer offset allows.
	Centered bool

	// RaysWrapAround treats the ray axis as circular during edge
	// collection (PPI scans).
	RaysWrapAround bool

	// KeepOriginal restores the original measured velocity at masked
	// gates in the output. If false, masked gates are set to
	// MaskSentinel instead.
	KeepOriginal bool

	// MaskSentinel is the value written to masked gates when
	// KeepOriginal is false. Defaults to math.NaN() in DefaultOptions.
	MaskSentinel float64
}

// DefaultOptions returns the engine's documented defaults.
func DefaultOptions() Options {
	return Options{
		IntervalSplits:  3,
		SkipBetweenRays: 100,
		SkipAlongRay:    100,
		Centered:        true,
		KeepOriginal:    true,
		MaskSentinel:    math.NaN(),
	}
}

// RunStats reports per-sweep diagnostics alongside the dealiased array.
type RunStats struct {
	RegionCount     int
	MaskedGateCount int
	EdgeCount       int
	MergeCount      int
	CenteringOffset int
	RegionSizes     []int // index 0 unused, 1..RegionCount
	UnwrapNumbers   []int // index 0 unused, 1..RegionCount
	ResidualMean    float64
	ResidualStdDev  float64
	Duration        time.Duration
}

// Dealias recovers the fold count of every unmasked gate in one sweep and
// returns the dealiased velocity array alongside run diagnostics.
func Dealias(velocities [][]float64, mask [][]bool, nyquist float64, opts Options) ([][]float64, RunStats, error) {
	start := time.Now()

	rays, gates, err := checkShape(velocities, mask)
	if err != nil {
		return nil, RunStats{}, err
	}
	if opts.SkipBetweenRays < 0 || opts.SkipAlongRay < 0 {
		return nil, RunStats{}, ErrNegativeGapBound
	}

	output := copyGrid(velocities)

	if nyquist <= 0 || allMasked(mask) {
		monitoring.Logf("dealias: degenerate sweep (nyquist=%v, rays=%d, gates=%d), passing through unchanged", nyquist, rays, gates)
		return output, RunStats{Duration: time.Since(start)}, nil
	}

	limits := opts.IntervalLimits
	if limits == nil {
		limits = DefaultIntervalLimits(nyquist, opts.IntervalSplits)
	} else if err := validateLimits(limits, nyquist); err != nil {
		return nil, RunStats{}, err
	}

	labels, n, err := LabelRegions(velocities, mask, limits)
	if err != nil {
		return nil, RunStats{}, err
	}

	regionSizes, maskedCount := tallyRegions(labels, n)

	nyquistInterval := 2 * nyquist
	raw, err := CollectEdges(labels, velocities, opts.RaysWrapAround, opts.SkipBetweenRays, opts.SkipAlongRay)
	if err != nil {
		return nil, RunStats{}, err
	}

	et := NewEdgeTracker(raw, n+1, nyquistInterval)
	rt := NewRegionTracker(regionSizes)

	mergeCount := 0
	for {
		done, popped := et.PopEdge()
		if done {
			break
		}
		// math.Round, here and in the centering pass below, rounds halves
		// away from zero (0.5 -> 1, -0.5 -> -1).
		d := int(math.Round(popped.Diff))

		base, merge := popped.N1, popped.N2
		if rt.GetNodeSize(popped.N1) < rt.GetNodeSize(popped.N2) {
			base, merge = popped.N2, popped.N1
			d = -d
		}

		if d != 0 {
			rt.UnwrapNode(merge, d)
			et.UnwrapNode(merge, d)
		}

		rt.MergeNodes(base, merge)
		et.MergeNodes(base, merge, popped.EdgeID)
		mergeCount++
	}

	centeringOffset := 0
	if opts.Centered {
		dealiasedGates := 0
		totalFolds := 0
		for r := 1; r <= n; r++ {
			size := regionSizes[r-1]
			dealiasedGates += size
			totalFolds += size * rt.UnwrapNumber(r)
		}
		if dealiasedGates > 0 {
			centeringOffset = int(math.Round(float64(totalFolds) / float64(dealiasedGates)))
			if centeringOffset != 0 {
				rt.ShiftAllRegions(centeringOffset)
			}
		}
	}

	unwrapNumbers := make([]int, n+1)
	for r := 1; r <= n; r++ {
		nwrap := rt.UnwrapNumber(r)
		unwrapNumbers[r] = nwrap
		if nwrap != 0 {
			addFoldToRegion(output, labels, r, float64(nwrap)*nyquistInterval)
		}
	}

	if !opts.KeepOriginal {
		maskRegion(output, mask, opts.MaskSentinel)
	}

	residualMean, residualStdDev := liveEdgeResidualStats(et)
	stats := RunStats{
		RegionCount:     n,
		MaskedGateCount: maskedCount,
		EdgeCount:       et.NumEdges(),
		MergeCount:      mergeCount,
		CenteringOffset: centeringOffset,
		RegionSizes:     append([]int{0}, regionSizes...),
		UnwrapNumbers:   unwrapNumbers,
		ResidualMean:    residualMean,
		ResidualStdDev:  residualStdDev,
		Duration:        time.Since(start),
	}
	monitoring.Logf("dealias: sweep done rays=%d gates=%d regions=%d edges=%d merges=%d centering=%d duration=%s",
		rays, gates, n, stats.EdgeCount, mergeCount, centeringOffset, stats.Duration)

	return output, stats, nil
}

func validateLimits(limits []float64, nyquist float64) error {
	if len(limits) < 2 {
		return ErrTooFewLimits
	}
	for i := 1; i < len(limits); i++ {
		if limits[i] <= limits[i-1] {
			return fmt.Errorf("%w: limits[%d]=%v <= limits[%d]=%v", ErrNonMonotonicLimits, i, limits[i], i-1, limits[i-1])
		}
	}
	if limits[0] > -nyquist || limits[len(limits)-1] < nyquist {
		return fmt.Errorf("dealias: interval limits [%v, %v] do not cover [-%v, %v]", limits[0], limits[len(limits)-1], nyquist, nyquist)
	}
	return nil
}

func allMasked(mask [][]bool) bool {
	for _, row := range mask {
		for _, m := range row {
			if !m {
				return false
			}
		}
	}
	return true
}

func copyGrid(src [][]float64) [][]float64 {
	dst := make([][]float64, len(src))
	for r, row := range src {
		dst[r] = append([]float64(nil), row...)
	}
	return dst
}

// tallyRegions returns the per-region gate count (index 0 is region 1) and
// the total masked gate count.
func tallyRegions(labels [][]int, n int) (regionSizes []int, maskedCount int) {
	regionSizes = make([]int, n)
	for _, row := range labels {
		for _, label := range row {
			if label == 0 {
				maskedCount++
				continue
			}
			regionSizes[label-1]++
		}
	}
	return regionSizes, maskedCount
}

func addFoldToRegion(output [][]float64, labels [][]int, region int, delta float64) {
	for r, row := range labels {
		for g, label := range row {
			if label == region {
				output[r][g] += delta
			}
		}
	}
}

func maskRegion(output [][]float64, mask [][]bool, sentinel float64) {
	for r, row := range mask {
		for g, masked := range row {
			if masked {
				output[r][g] = sentinel
			}
		}
	}
}

// liveEdgeResidualStats reports the mean and standard deviation of the
// average relative fold difference across every live edge of et, or 0, 0
// when none is live. Dealias calls it after its reduction loop, which only
// stops once PopEdge finds no live edge, so there both values are 0.
func liveEdgeResidualStats(et *EdgeTracker) (mean, stdDev float64) {
	diffs := make([]float64, 0, et.NumEdges())
	for e := 0; e < et.NumEdges(); e++ {
		if !et.Alive(e) {
			continue
		}
		diffs = append(diffs, et.sumDiff[e]/float64(et.weight[e]))
	}
	if len(diffs) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(diffs, nil)
}
