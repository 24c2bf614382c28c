package dealiasviz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/velocity.report/internal/dealias"
)

// HistogramOptions controls the rendered PNG beyond the data itself.
type HistogramOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	// Bins is the number of histogram buckets. Defaults to 16.
	Bins int
}

func (o HistogramOptions) withDefaults() HistogramOptions {
	if o.Title == "" {
		o.Title = "Unwrap Number Distribution"
	}
	if o.Width == 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 5 * vg.Inch
	}
	if o.Bins <= 0 {
		o.Bins = 16
	}
	return o
}

// SaveUnwrapHistogram renders a PNG histogram of a run's per-region
// unwrap numbers (fold counts) to path, for CI or headless environments
// where the HTML polar scatter isn't inspectable.
func SaveUnwrapHistogram(path string, stats dealias.RunStats, o HistogramOptions) error {
	o = o.withDefaults()

	if stats.RegionCount == 0 {
		return fmt.Errorf("dealiasviz: run has no regions to histogram")
	}

	values := make(plotter.Values, 0, stats.RegionCount)
	for r := 1; r <= stats.RegionCount; r++ {
		values = append(values, float64(stats.UnwrapNumbers[r]))
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "unwrap number (folds)"
	p.Y.Label.Text = "region count"

	hist, err := plotter.NewHist(values, o.Bins)
	if err != nil {
		return fmt.Errorf("dealiasviz: build histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(o.Width, o.Height, path); err != nil {
		return fmt.Errorf("dealiasviz: save histogram: %w", err)
	}
	return nil
}
