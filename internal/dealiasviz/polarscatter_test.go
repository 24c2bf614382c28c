package dealiasviz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/banshee-data/velocity.report/internal/testutil"
)

func gridOf(rays, gates int, v float64) [][]float64 {
	g := make([][]float64, rays)
	for r := range g {
		g[r] = make([]float64, gates)
		for c := range g[r] {
			g[r][c] = v
		}
	}
	return g
}

func maskOf(rays, gates int) [][]bool {
	m := make([][]bool, rays)
	for r := range m {
		m[r] = make([]bool, gates)
	}
	return m
}

func TestRenderPolarScatter_ProducesHTML(t *testing.T) {
	velocities := gridOf(4, 3, 1.0)
	mask := maskOf(4, 3)
	dealiased := gridOf(4, 3, 1.0)

	var buf bytes.Buffer
	err := RenderPolarScatter(&buf, velocities, mask, dealiased, PolarScatterOptions{})
	testutil.AssertNoError(t, err)
	if buf.Len() == 0 {
		t.Fatal("expected non-empty HTML output")
	}
	if !strings.Contains(buf.String(), "<html") {
		t.Error("expected output to contain an <html tag")
	}
}

func TestRenderPolarScatter_AcceptsMaskedGates(t *testing.T) {
	velocities := gridOf(2, 2, 5.0)
	mask := maskOf(2, 2)
	mask[0][0] = true
	dealiased := gridOf(2, 2, 5.0)

	var buf bytes.Buffer
	err := RenderPolarScatter(&buf, velocities, mask, dealiased, PolarScatterOptions{})
	testutil.AssertNoError(t, err)
	if buf.Len() == 0 {
		t.Fatal("expected non-empty HTML output")
	}
}

func TestRenderPolarScatter_EmptySweepErrors(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPolarScatter(&buf, nil, nil, nil, PolarScatterOptions{})
	testutil.AssertError(t, err)
}

func TestRenderPolarScatter_CustomTitleAppliesDefaults(t *testing.T) {
	velocities := gridOf(1, 1, 0.0)
	mask := maskOf(1, 1)
	dealiased := gridOf(1, 1, 0.0)

	var buf bytes.Buffer
	err := RenderPolarScatter(&buf, velocities, mask, dealiased, PolarScatterOptions{Title: "Custom"})
	testutil.AssertNoError(t, err)
	if !strings.Contains(buf.String(), "Custom") {
		t.Error("expected output to contain the custom title")
	}
}
