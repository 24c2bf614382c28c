package dealias

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func allFalseMask(rays, gates int) [][]bool {
	m := make([][]bool, rays)
	for r := range m {
		m[r] = make([]bool, gates)
	}
	return m
}

func TestLabelRegions_SingleRegion(t *testing.T) {
	v := ([][]float64{
		{5, 5, 5, 5},
		{5, 5, 5, 5},
		{5, 5, 5, 5},
		{5, 5, 5, 5},
	})
	mask := allFalseMask(4, 4)

	labels, n, err := LabelRegions(v, mask, DefaultIntervalLimits(10, 3))
	if err != nil {
		t.Fatalf("LabelRegions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 region, got %d", n)
	}
	for r := 0; r < 4; r++ {
		for g := 0; g < 4; g++ {
			if labels[r][g] != 1 {
				t.Errorf("labels[%d][%d] = %d, want 1", r, g, labels[r][g])
			}
		}
	}
}

func TestLabelRegions_TwoRegions(t *testing.T) {
	v := ([][]float64{
		{9, 9, -9, -9},
		{9, 9, -9, -9},
		{9, 9, -9, -9},
		{9, 9, -9, -9},
	})
	mask := allFalseMask(4, 4)

	labels, n, err := LabelRegions(v, mask, DefaultIntervalLimits(10, 3))
	if err != nil {
		t.Fatalf("LabelRegions: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 regions, got %d", n)
	}
	left := labels[0][0]
	right := labels[0][2]
	if left == right {
		t.Fatalf("left and right should be different regions")
	}
	for r := 0; r < 4; r++ {
		if labels[r][0] != left || labels[r][1] != left {
			t.Errorf("row %d left half not labeled %d: %v", r, left, labels[r])
		}
		if labels[r][2] != right || labels[r][3] != right {
			t.Errorf("row %d right half not labeled %d: %v", r, right, labels[r])
		}
	}
}

func TestLabelRegions_MaskedGateIsZero(t *testing.T) {
	v := ([][]float64{{1, 2}, {3, 4}})
	mask := ([][]bool{{false, true}, {false, false}})

	labels, _, err := LabelRegions(v, mask, DefaultIntervalLimits(10, 3))
	if err != nil {
		t.Fatalf("LabelRegions: %v", err)
	}
	if labels[0][1] != 0 {
		t.Errorf("masked gate should have label 0, got %d", labels[0][1])
	}
}

func TestLabelRegions_NoDiagonalConnectivity(t *testing.T) {
	// A checkerboard within one interval: diagonal neighbors must not merge.
	v := ([][]float64{
		{5, -5},
		{-5, 5},
	})
	mask := allFalseMask(2, 2)
	limits := []float64{-10, 0, 10}

	labels, n, err := LabelRegions(v, mask, limits)
	if err != nil {
		t.Fatalf("LabelRegions: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 singleton regions (no diagonal merge), got %d", n)
	}
	if labels[0][0] == labels[1][1] {
		t.Errorf("diagonal cells should not share a label")
	}
}

func TestLabelRegions_ShapeMismatch(t *testing.T) {
	v := ([][]float64{{1, 2}})
	mask := ([][]bool{{false}})
	if _, _, err := LabelRegions(v, mask, DefaultIntervalLimits(10, 3)); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestLabelRegions_NonMonotonicLimits(t *testing.T) {
	v := ([][]float64{{1}})
	mask := allFalseMask(1, 1)
	if _, _, err := LabelRegions(v, mask, []float64{0, 0}); err == nil {
		t.Fatal("expected non-monotonic limits error")
	}
}

func TestDefaultIntervalLimits(t *testing.T) {
	got := DefaultIntervalLimits(10, 4)
	want := []float64{-10, -5, 0, 5, 10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DefaultIntervalLimits mismatch (-want +got):\n%s", diff)
	}
}
