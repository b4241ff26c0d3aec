package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/palydovai/stotis/internal/plan"
)

// WriteChart renders the 24-hour elevation bar chart, one bar per planned
// pass labeled with its local rise time. An empty plan removes the stale
// chart instead of drawing an empty axis.
func (r *Renderer) WriteChart(passes []plan.Pass, loc *time.Location) error {
	path := filepath.Join(r.BaseDir, ChartFile)

	if len(passes) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	p := plot.New()
	p.Title.Text = "Praskridimai / Passes (24h)"
	p.Y.Label.Text = "Max elevation, deg"
	p.Y.Min = 0
	p.Y.Max = 90

	values := make(plotter.Values, len(passes))
	labels := make([]string, len(passes))
	for i, ps := range passes {
		values[i] = ps.MaxElev
		labels[i] = localLabel(ps.Rise, loc) + " " + ps.SatName
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = -0.9
	p.X.Tick.Label.XAlign = -0.9
	p.X.Tick.Label.YAlign = -0.4

	width := vg.Length(len(passes)) * vg.Points(40)
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
