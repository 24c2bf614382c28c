package dealias

import "testing"

func TestNewRegionTracker_InitialSizes(t *testing.T) {
	rt := NewRegionTracker([]int{4, 7, 2})
	if rt.NumNodes() != 4 {
		t.Fatalf("expected 4 nodes (0 + 3 regions), got %d", rt.NumNodes())
	}
	if rt.GetNodeSize(0) != 0 {
		t.Fatalf("node 0 (masked) should start with size 0, got %d", rt.GetNodeSize(0))
	}
	for r, want := range []int{4, 7, 2} {
		if got := rt.GetNodeSize(r + 1); got != want {
			t.Errorf("region %d size = %d, want %d", r+1, got, want)
		}
	}
	for r := 1; r <= 3; r++ {
		if rt.UnwrapNumber(r) != 0 {
			t.Errorf("region %d should start with unwrap number 0", r)
		}
	}
}

func TestRegionTracker_UnwrapNode(t *testing.T) {
	rt := NewRegionTracker([]int{3, 5})
	rt.UnwrapNode(1, 2)
	if rt.UnwrapNumber(1) != 2 {
		t.Fatalf("expected unwrap number 2 for region 1, got %d", rt.UnwrapNumber(1))
	}
	if rt.UnwrapNumber(2) != 0 {
		t.Fatalf("unwrapping node 1 should not affect region 2")
	}
}

func TestRegionTracker_MergeNodesCombinesSizeAndRegions(t *testing.T) {
	rt := NewRegionTracker([]int{3, 5, 2})
	rt.UnwrapNode(2, 1)
	rt.MergeNodes(1, 2)

	if rt.GetNodeSize(1) != 8 {
		t.Fatalf("merged node size = %d, want 8", rt.GetNodeSize(1))
	}
	if rt.GetNodeSize(2) != 0 {
		t.Fatalf("merged-away node should have size 0, got %d", rt.GetNodeSize(2))
	}
	// Region 2's own fold count survives the merge; only node membership
	// changes, per the structure of a RegionTracker.
	if rt.UnwrapNumber(2) != 1 {
		t.Fatalf("region 2 unwrap number should be unchanged by merge, got %d", rt.UnwrapNumber(2))
	}

	// Unwrapping node 1 after the merge must now reach region 2 as well.
	rt.UnwrapNode(1, 5)
	if rt.UnwrapNumber(1) != 5 || rt.UnwrapNumber(2) != 6 {
		t.Fatalf("post-merge unwrap should reach both regions: r1=%d r2=%d", rt.UnwrapNumber(1), rt.UnwrapNumber(2))
	}
}

func TestRegionTracker_ShiftAllRegions(t *testing.T) {
	rt := NewRegionTracker([]int{3, 5})
	rt.UnwrapNode(1, 2)
	rt.UnwrapNode(2, 4)
	rt.ShiftAllRegions(1)
	if rt.UnwrapNumber(1) != 1 || rt.UnwrapNumber(2) != 3 {
		t.Fatalf("expected shifted unwrap numbers 1 and 3, got %d and %d", rt.UnwrapNumber(1), rt.UnwrapNumber(2))
	}
}

func TestRegionTracker_ShiftAllRegionsNoOpOnZero(t *testing.T) {
	rt := NewRegionTracker([]int{3})
	rt.UnwrapNode(1, 5)
	rt.ShiftAllRegions(0)
	if rt.UnwrapNumber(1) != 5 {
		t.Fatalf("zero offset should not change unwrap numbers, got %d", rt.UnwrapNumber(1))
	}
}
