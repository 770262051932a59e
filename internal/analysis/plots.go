package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cvalentine99/vpnflow/internal/dataset"
)

// saveHistogram renders a 20-bin histogram of values.
func saveHistogram(values []float64, title, xlabel, ylabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	h, err := plotter.NewHist(plotter.Values(values), 20)
	if err != nil {
		return fmt.Errorf("building histogram %s: %w", path, err)
	}
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

// saveScatter renders a scatter plot of ys against xs.
func saveScatter(xs, ys []float64, title, xlabel, ylabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building scatter %s: %w", path, err)
	}
	p.Add(s)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ.
type corrGrid struct {
	names []string
	m     [][]float64
}

func (g corrGrid) Dims() (int, int)   { return len(g.names), len(g.names) }
func (g corrGrid) Z(c, r int) float64 { return g.m[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// saveCorrHeatmap renders a pairwise Pearson correlation heatmap for the
// named table columns.
func saveCorrHeatmap(t *dataset.Table, columns []string, title, path string) error {
	series := make([][]float64, len(columns))
	for i, name := range columns {
		values, err := t.Column(name)
		if err != nil {
			return err
		}
		series[i] = values
	}
	return saveCorrHeatmapSeries(columns, series, title, path)
}

// saveCorrHeatmapSeries is saveCorrHeatmap over already-extracted series.
func saveCorrHeatmapSeries(columns []string, series [][]float64, title, path string) error {
	m := make([][]float64, len(columns))
	for i := range columns {
		m[i] = make([]float64, len(columns))
		for j := range columns {
			m[i][j] = stat.Correlation(series[i], series[j], nil)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.NominalX(columns...)
	p.NominalY(columns...)

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	h := plotter.NewHeatMap(corrGrid{names: columns, m: m}, cm.Palette(255))
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}
