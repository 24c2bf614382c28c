// Package dealiasviz renders dealiasing results for human inspection: an
// interactive HTML polar scatter of dealiased velocity for a single
// sweep, and a static PNG histogram of per-region unwrap numbers
// for a run, for headless environments where the HTML chart can't be
// opened.
package dealiasviz

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// PolarScatterOptions controls the rendered page beyond the data itself.
type PolarScatterOptions struct {
	Title       string
	Width       string
	Height      string
	GateSpacing float64 // range distance per gate; defaults to 1.0
}

func (o PolarScatterOptions) withDefaults() PolarScatterOptions {
	if o.Title == "" {
		o.Title = "Dealiased Sweep"
	}
	if o.Width == "" {
		o.Width = "900px"
	}
	if o.Height == "" {
		o.Height = "900px"
	}
	if o.GateSpacing <= 0 {
		o.GateSpacing = 1.0
	}
	return o
}

// RenderPolarScatter projects a sweep's dealiased velocities onto
// range/azimuth coordinates and writes a standalone HTML scatter chart to
// w. velocities supplies only the sweep's dimensions; its values are not
// plotted. Each ray is spread evenly over 360 degrees; masked gates are
// skipped. The color channel encodes dealiased velocity so folds
// resolved across a region boundary are visible as smooth color bands.
func RenderPolarScatter(w io.Writer, velocities [][]float64, mask [][]bool, dealiased [][]float64, opts_ PolarScatterOptions) error {
	opts_ = opts_.withDefaults()
	rays := len(velocities)
	if rays == 0 {
		return fmt.Errorf("dealiasviz: empty sweep")
	}
	gates := len(velocities[0])

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  opts_.Title,
			Theme:      "dark",
			Width:      opts_.Width,
			Height:     opts_.Height,
			AssetsHost: echartsAssetsPrefix,
		}),
		charts.WithTitleOpts(opts.Title{Title: opts_.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "range (gates)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "range (gates)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:        opts.Bool(true),
			Calculable:  opts.Bool(true),
			Dimension:   "2",
			Min:         float32(minMaxFinite(dealiased, mask, false)),
			Max:         float32(minMaxFinite(dealiased, mask, true)),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#313695", "#4575b4", "#74add1", "#abd9e9", "#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026"},
			},
		}),
	)

	points := make([]opts.ScatterData, 0, rays*gates)
	for r := 0; r < rays; r++ {
		azimuth := 2 * math.Pi * float64(r) / float64(rays)
		for g := 0; g < gates; g++ {
			if mask[r][g] {
				continue
			}
			rng := float64(g) * opts_.GateSpacing
			x := rng * math.Cos(azimuth)
			y := rng * math.Sin(azimuth)
			points = append(points, opts.ScatterData{
				Value: []interface{}{round2(x), round2(y), round2(dealiased[r][g])},
			})
		}
	}

	scatter.AddSeries("dealiased velocity", points,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
	)

	return scatter.Render(w)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minMaxFinite(grid [][]float64, mask [][]bool, wantMax bool) float64 {
	best := math.NaN()
	for r := range grid {
		for g := range grid[r] {
			if mask[r][g] {
				continue
			}
			v := grid[r][g]
			if math.IsNaN(best) {
				best = v
				continue
			}
			if wantMax && v > best {
				best = v
			}
			if !wantMax && v < best {
				best = v
			}
		}
	}
	if math.IsNaN(best) {
		return 0
	}
	return best
}
