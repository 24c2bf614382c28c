package dealias

// RegionTracker tracks, for each node of the reduction graph, which
// original regions it currently holds, how many gates it covers, and the
// accumulated integer fold count to apply to each of its regions.
//
// Node 0 is reserved for masked gates and never participates; live region
// ids run from 1 to n inclusive.
type RegionTracker struct {
	nodeSize      []int
	regionsInNode [][]int
	unwrapNumber  []int
}

// NewRegionTracker builds a tracker with one node per region, sized by
// regionSizes[r-1] for region r in [1, n].
func NewRegionTracker(regionSizes []int) *RegionTracker {
	n := len(regionSizes) + 1
	rt := &RegionTracker{
		nodeSize:      make([]int, n),
		regionsInNode: make([][]int, n),
		unwrapNumber:  make([]int, n),
	}
	for i := 0; i < n; i++ {
		rt.regionsInNode[i] = []int{i}
	}
	for r, size := range regionSizes {
		rt.nodeSize[r+1] = size
	}
	return rt
}

// GetNodeSize returns the current number of gates held by node n.
func (rt *RegionTracker) GetNodeSize(n int) int {
	return rt.nodeSize[n]
}

// UnwrapNumber returns the accumulated fold count for region r.
func (rt *RegionTracker) UnwrapNumber(r int) int {
	return rt.unwrapNumber[r]
}

// NumNodes returns one past the highest valid node/region id (n+1 where n
// is the region count).
func (rt *RegionTracker) NumNodes() int {
	return len(rt.nodeSize)
}

// UnwrapNode adds k to the fold count of every region currently held by
// node n. This is the only place unwrapNumber changes.
func (rt *RegionTracker) UnwrapNode(n, k int) {
	if k == 0 {
		return
	}
	for _, region := range rt.regionsInNode[n] {
		rt.unwrapNumber[region] += k
	}
}

// MergeNodes folds merge's regions and size into base, leaving merge dead
// (empty regions, zero size).
func (rt *RegionTracker) MergeNodes(base, merge int) {
	rt.regionsInNode[base] = append(rt.regionsInNode[base], rt.regionsInNode[merge]...)
	rt.regionsInNode[merge] = nil
	rt.nodeSize[base] += rt.nodeSize[merge]
	rt.nodeSize[merge] = 0
}

// ShiftAllRegions subtracts offset from the fold count of every region
// (used by the driver's optional centering pass, which operates across
// all regions regardless of which node currently holds them).
func (rt *RegionTracker) ShiftAllRegions(offset int) {
	if offset == 0 {
		return
	}
	for r := 1; r < len(rt.unwrapNumber); r++ {
		rt.unwrapNumber[r] -= offset
	}
}
