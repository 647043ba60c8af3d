package plot

import (
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/afsmo/types/airfoil"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	width     = 10 * vg.Inch
	height    = 4 * vg.Inch
	minHeight = 3 * vg.Inch
)

// Comparison saves a plot of the original and smoothed perimeters to path.
// The image format follows the extension of path.
// With realAspect, both axes share one scale.
func Comparison(path string, original, smoothed *airfoil.Airfoil, realAspect bool) error {
	p := gplot.New()
	p.Title.Text = smoothed.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	err := plotutil.AddLinePoints(p,
		"original", xys(original.Perimeter),
		"smoothed", xys(smoothed.Perimeter),
	)
	if err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}

	h := height
	if realAspect {
		h = equalAspect(p, original.Bound().Union(smoothed.Bound()))
	}
	return p.Save(width, h, path)
}

// equalAspect sets the axis ranges of p to b and returns the image height
// at which one unit of x and y are drawn the same length.
func equalAspect(p *gplot.Plot, b orb.Bound) vg.Length {
	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	if dx <= 0 {
		return height
	}
	// Leave room for the axes.
	pad := 0.05 * dx
	p.X.Min, p.X.Max = b.Min[0]-pad, b.Max[0]+pad
	mid := (b.Min[1] + b.Max[1]) / 2
	half := dy/2 + pad
	p.Y.Min, p.Y.Max = mid-half, mid+half

	h := vg.Length(float64(width) * (2 * half) / (dx + 2*pad))
	if h < minHeight {
		// Widen the y range so the scale stays equal at the minimum height.
		half = float64(minHeight) / float64(width) * (dx + 2*pad) / 2
		p.Y.Min, p.Y.Max = mid-half, mid+half
		h = minHeight
	}
	return h
}

func xys(ls orb.LineString) plotter.XYs {
	out := make(plotter.XYs, len(ls))
	for i, pt := range ls {
		out[i].X = pt[0]
		out[i].Y = pt[1]
	}
	return out
}
