package dealias

// deadWeight marks a retired edge. Any negative value works since live
// weights only ever increase from 1; -1 keeps the zero value of an int
// slice unambiguous (0 never occurs for a live edge).
const deadWeight = -1

// PoppedEdge is the edge selected by EdgeTracker.PopEdge: the two node ids
// it joins, its weight, its average relative fold difference, and its id.
type PoppedEdge struct {
	N1, N2 int
	Weight int
	Diff   float64
	EdgeID int
}

// EdgeTracker is the weighted graph of regions under contraction. Edges
// are stored in parallel slices indexed by edge id; each node keeps an
// incidence list of the edge ids currently touching it.
//
// sum_diff is always expressed as (v_alpha - v_beta)/(2*Vn); merging and
// reversing edges must keep this convention, which is the one subtlety of
// this whole structure (see SPEC_FULL.md A.3).
type EdgeTracker struct {
	alpha, beta []int
	weight      []int
	sumDiff     []float64

	edgesInNode [][]int

	commonFinder []bool
	commonIndex  []int
	lastBaseNode int
}

// NewEdgeTracker builds the initial graph from a raw, duplicated edge
// stream (as produced by CollectEdges). Only entries with LabelA > LabelB
// are kept; the rest are the mirror-image duplicates of those. numNodes
// must be one greater than the region count (node ids run 0..numNodes-1).
func NewEdgeTracker(raw []RawEdge, numNodes int, nyquistInterval float64) *EdgeTracker {
	et := &EdgeTracker{
		edgesInNode:  make([][]int, numNodes),
		commonFinder: make([]bool, numNodes),
		commonIndex:  make([]int, numNodes),
		lastBaseNode: -1,
	}

	pairIndex := make(map[[2]int]int, len(raw)/2+1)
	for _, e := range raw {
		if e.LabelA <= e.LabelB {
			continue
		}
		key := [2]int{e.LabelA, e.LabelB}
		id, ok := pairIndex[key]
		if !ok {
			id = len(et.alpha)
			pairIndex[key] = id
			et.alpha = append(et.alpha, e.LabelA)
			et.beta = append(et.beta, e.LabelB)
			et.weight = append(et.weight, 0)
			et.sumDiff = append(et.sumDiff, 0)
			et.edgesInNode[e.LabelA] = append(et.edgesInNode[e.LabelA], id)
			et.edgesInNode[e.LabelB] = append(et.edgesInNode[e.LabelB], id)
		}
		et.weight[id]++
		et.sumDiff[id] += (e.VA - e.VB) / nyquistInterval
	}

	return et
}

// NumEdges returns the total number of edges ever allocated (including
// ones since retired).
func (et *EdgeTracker) NumEdges() int {
	return len(et.alpha)
}

// Alive reports whether edge e is still live.
func (et *EdgeTracker) Alive(e int) bool {
	return et.weight[e] >= 0
}

// PopEdge selects the live edge with maximum weight. Ties are broken by
// lowest edge id (the first one encountered in a left-to-right scan).
// done is true once no live edge remains.
func (et *EdgeTracker) PopEdge() (done bool, popped PoppedEdge) {
	best := -1
	bestWeight := deadWeight
	for e, w := range et.weight {
		if w > bestWeight {
			bestWeight = w
			best = e
		}
	}
	if best == -1 || bestWeight < 0 {
		return true, PoppedEdge{}
	}
	return false, PoppedEdge{
		N1:     et.alpha[best],
		N2:     et.beta[best],
		Weight: bestWeight,
		Diff:   et.sumDiff[best] / float64(bestWeight),
		EdgeID: best,
	}
}

// UnwrapNode shifts every gate of node n by k Nyquist intervals, keeping
// every incident edge's sum_diff consistent with the new velocities: for
// each live edge touching n, sum_diff moves by +/- k*weight depending on
// which side n is on.
func (et *EdgeTracker) UnwrapNode(n, k int) {
	if k == 0 {
		return
	}
	for _, e := range et.edgesInNode[n] {
		w := et.weight[e]
		if n == et.alpha[e] {
			et.sumDiff[e] += float64(w * k)
		} else {
			et.sumDiff[e] -= float64(w * k)
		}
	}
}

// MergeNodes merges merge into base, retiring the bridge edge that was
// just popped and reconciling every edge formerly incident to merge with
// base's existing edges to the same neighbor.
func (et *EdgeTracker) MergeNodes(base, merge, bridge int) {
	et.weight[bridge] = deadWeight
	et.edgesInNode[merge] = removeEdge(et.edgesInNode[merge], bridge)
	et.edgesInNode[base] = removeEdge(et.edgesInNode[base], bridge)
	et.commonFinder[merge] = false

	edgesInMerge := append([]int(nil), et.edgesInNode[merge]...)

	if et.lastBaseNode != base {
		for i := range et.commonFinder {
			et.commonFinder[i] = false
		}
		for _, e := range et.edgesInNode[base] {
			if et.beta[e] == base {
				et.reverseEdge(e)
			}
			neighbor := et.beta[e]
			et.commonFinder[neighbor] = true
			et.commonIndex[neighbor] = e
		}
	}

	for _, e := range edgesInMerge {
		if et.beta[e] == merge {
			et.reverseEdge(e)
		}
		et.alpha[e] = base
		neighbor := et.beta[e]
		if et.commonFinder[neighbor] {
			baseEdge := et.commonIndex[neighbor]
			et.weight[baseEdge] += et.weight[e]
			et.sumDiff[baseEdge] += et.sumDiff[e]
			et.weight[e] = deadWeight
			et.edgesInNode[merge] = removeEdge(et.edgesInNode[merge], e)
			et.edgesInNode[neighbor] = removeEdge(et.edgesInNode[neighbor], e)
		} else {
			et.commonFinder[neighbor] = true
			et.commonIndex[neighbor] = e
		}
	}

	et.edgesInNode[base] = append(et.edgesInNode[base], et.edgesInNode[merge]...)
	et.edgesInNode[merge] = nil
	et.lastBaseNode = base
}

// reverseEdge swaps alpha/beta and negates sum_diff so the direction
// convention sum_diff == (v_alpha - v_beta)/(2*Vn) keeps holding.
func (et *EdgeTracker) reverseEdge(e int) {
	et.alpha[e], et.beta[e] = et.beta[e], et.alpha[e]
	et.sumDiff[e] = -et.sumDiff[e]
}

// removeEdge deletes the first occurrence of edge from list, preserving
// the remaining order.
func removeEdge(list []int, edge int) []int {
	for i, e := range list {
		if e == edge {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
