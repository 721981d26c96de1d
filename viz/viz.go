// Package viz draws diagnostic plots for fitted Bayesian linear models.
package viz

import (
	"image/color"
	"sort"
	"strconv"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default image size used by Save.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var (
	meanColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bandColor = color.RGBA{R: 31, G: 119, B: 180, A: 64}
	obsColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// TracePlot plots component j of variable name against the draw index, with
// a dashed line at the chain mean.
func TracePlot(chain *posterior.Chain, name string, j int) (*plot.Plot, error) {
	values, err := chain.Column(name, j)
	if err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, len(values))
	var sum float64
	for i, v := range values {
		pts[i].X = float64(chain.Warmup() + i)
		pts[i].Y = v
		sum += v
	}
	mean := sum / float64(len(values))

	p := plot.New()
	p.Title.Text = "Trace of " + componentLabel(chain, name, j)
	p.X.Label.Text = "draw"
	p.Y.Label.Text = name

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "viz.TracePlot")
	}
	line.LineStyle.Color = meanColor
	line.LineStyle.Width = vg.Points(0.8)

	first, last := pts[0].X, pts[len(pts)-1].X
	meanLine, err := plotter.NewLine(plotter.XYs{{X: first, Y: mean}, {X: last, Y: mean}})
	if err != nil {
		return nil, errors.Wrap(err, "viz.TracePlot")
	}
	meanLine.LineStyle.Color = obsColor
	meanLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(line, meanLine)
	p.Legend.Add("draws", line)
	p.Legend.Add("mean", meanLine)
	return p, nil
}

func componentLabel(chain *posterior.Chain, name string, j int) string {
	if chain.Dim(name) == 1 {
		return name
	}
	return name + "[" + strconv.Itoa(j) + "]"
}

// PredictionBand plots the predictive mean against x with a shaded band of
// ±k standard deviations. pred is the n×2 output of PredictWithStd. observed
// may be nil; otherwise it is drawn as points.
func PredictionBand(x []float64, pred mat.Matrix, k float64, observed []float64) (*plot.Plot, error) {
	const op = "viz.PredictionBand"
	r, c := pred.Dims()
	if c != 2 {
		return nil, errors.NewDimensionError(op, 2, c, 1)
	}
	if len(x) != r {
		return nil, errors.NewDimensionError(op, r, len(x), 0)
	}
	if observed != nil && len(observed) != r {
		return nil, errors.NewDimensionError(op+" (observed)", r, len(observed), 0)
	}
	if r == 0 {
		return nil, errors.NewValueError(op, "no rows to plot")
	}

	// 線が往復しないよう x の昇順に並べ替える
	order := make([]int, r)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	mean := make(plotter.XYs, r)
	upper := make(plotter.XYs, r)
	lower := make(plotter.XYs, r)
	for i, idx := range order {
		m, s := pred.At(idx, 0), pred.At(idx, 1)
		mean[i] = plotter.XY{X: x[idx], Y: m}
		upper[i] = plotter.XY{X: x[idx], Y: m + k*s}
		lower[r-1-i] = plotter.XY{X: x[idx], Y: m - k*s}
	}

	p := plot.New()
	p.Title.Text = "Posterior predictive mean"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	band, err := plotter.NewPolygon(append(append(plotter.XYs{}, upper...), lower...))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	band.Color = bandColor
	band.LineStyle.Width = 0

	line, err := plotter.NewLine(mean)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	line.LineStyle.Color = meanColor
	line.LineStyle.Width = vg.Points(1.5)

	p.Add(band, line)
	p.Legend.Add("mean", line)
	p.Legend.Add("±"+strconv.FormatFloat(k, 'g', -1, 64)+" std", band)

	if observed != nil {
		pts := make(plotter.XYs, r)
		for i := range observed {
			pts[i] = plotter.XY{X: x[i], Y: observed[i]}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		scatter.GlyphStyle.Color = obsColor
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add("observed", scatter)
	}
	return p, nil
}

// Save writes p to path; the format follows the extension (.png, .svg, .pdf).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
