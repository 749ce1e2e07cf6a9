// Package plotting renders recorded evaluation histories as learning curves.
package plotting

import (
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/keisho-oh/lightgbm/callback"
	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// PlotMetric draws one line per dataset for the given metric from a recorded
// evaluation history and writes the chart to path. The output format follows
// the file extension (.png, .svg, .pdf).
func PlotMetric(history callback.EvalHistory, metric, path string) error {
	if len(history) == 0 {
		return errors.NewValueError("plot", "evaluation history is empty")
	}

	// Deterministic line ordering across runs.
	datasets := make([]string, 0, len(history))
	for name, byMetric := range history {
		if _, ok := byMetric[metric]; ok {
			datasets = append(datasets, name)
		}
	}
	if len(datasets) == 0 {
		return errors.NewValueErrorf("plot", "metric %q not found in history", metric)
	}
	sort.Strings(datasets)

	p := plot.New()
	p.Title.Text = "Metric during training"
	p.X.Label.Text = "Iterations"
	p.Y.Label.Text = metric
	p.Legend.Top = true

	args := make([]interface{}, 0, 2*len(datasets))
	for _, name := range datasets {
		series := history[name][metric]
		pts := make(plotter.XYs, len(series))
		for i, v := range series {
			pts[i].X = float64(i + 1)
			pts[i].Y = v
		}
		args = append(args, name, pts)
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return errors.Wrap(err, "adding learning curves")
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot to %s", path)
	}
	return nil
}
