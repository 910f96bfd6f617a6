// Package viz は学習結果を gonum/plot で画像に書き出す。
//
// 推定器からは呼ばれない。出力形式は path の拡張子 (.png, .svg, .pdf) で決まる。
package viz

import (
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/goml/core/model"
	"github.com/YuminosukeSato/goml/pkg/errors"
)

const (
	width  = 6 * vg.Inch
	height = 4 * vg.Inch
)

var palette = []color.RGBA{
	{R: 220, G: 50, B: 50, A: 255},
	{R: 50, G: 160, B: 50, A: 255},
	{R: 50, G: 50, B: 220, A: 255},
	{R: 200, G: 140, B: 0, A: 255},
	{R: 140, G: 0, B: 180, A: 255},
}

// PlotHistory は損失履歴を折れ線で描く。横軸は反復回数
func PlotHistory(h model.History, title, path string) error {
	if h.Len() == 0 {
		return errors.NewValueError("PlotHistory", "history is empty")
	}
	pts := make(plotter.XYs, h.Len())
	for i, loss := range h {
		pts[i].X = float64(i)
		pts[i].Y = loss
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Loss"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "PlotHistory")
	}
	line.Color = palette[2]
	p.Add(line)

	return save(p, path)
}

// PlotElbow は K = 1..len(inertias) の inertia を描く
func PlotElbow(inertias []float64, path string) error {
	if len(inertias) == 0 {
		return errors.NewValueError("PlotElbow", "inertias are empty")
	}
	pts := make(plotter.XYs, len(inertias))
	for i, v := range inertias {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}

	p := plot.New()
	p.Title.Text = "Elbow"
	p.X.Label.Text = "Clusters"
	p.Y.Label.Text = "Inertia"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "PlotElbow")
	}
	line.Color = palette[2]
	points.Color = palette[2]
	p.Add(line, points)

	return save(p, path)
}

// PlotClusters は先頭 2 特徴量の散布図をクラスタごとに色分けし、中心を重ねて描く
func PlotClusters(X mat.Matrix, labels []int, centroids mat.Matrix, path string) error {
	const op = "PlotClusters"
	n, d := X.Dims()
	if d < 2 {
		return errors.NewDimensionError(op, 2, d, 1)
	}
	if len(labels) != n {
		return errors.NewDimensionError(op, n, len(labels), 0)
	}

	groups := map[int]plotter.XYs{}
	maxLabel := 0
	for i, l := range labels {
		groups[l] = append(groups[l], plotter.XY{X: X.At(i, 0), Y: X.At(i, 1)})
		maxLabel = max(maxLabel, l)
	}

	p := plot.New()
	p.Title.Text = "Clusters"
	p.X.Label.Text = "Feature 1"
	p.Y.Label.Text = "Feature 2"

	for l := 0; l <= maxLabel; l++ {
		pts, ok := groups[l]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrap(err, op)
		}
		s.Color = palette[l%len(palette)]
		p.Add(s)
	}

	if centroids != nil {
		k, _ := centroids.Dims()
		pts := make(plotter.XYs, k)
		for c := 0; c < k; c++ {
			pts[c] = plotter.XY{X: centroids.At(c, 0), Y: centroids.At(c, 1)}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrap(err, op)
		}
		s.Color = color.Black
		s.Radius = vg.Points(5)
		p.Add(s)
	}

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "save plot to %s", path)
	}
	return nil
}
