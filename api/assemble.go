package api

import (
	"fmt"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/rotblauer/afsmo/conceptual"
	"github.com/rotblauer/afsmo/engine"
	"github.com/rotblauer/afsmo/geo/cosine"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/types/airfoil"
	"time"
)

// Output is the product of one pipeline run.
type Output struct {
	ID    conceptual.RunID
	Input string

	// Path is the smoothed coordinate file. PlotPath is empty unless a plot was drawn.
	Path     string
	PlotPath string

	// Airfoil is the smoothed airfoil, in the input frame unless the run asked for
	// scaled output. Its Derivation leads back through the submitted airfoil to the input.
	Airfoil   *airfoil.Airfoil
	Transform *airfoil.ChordTransform

	Iterations  int
	Unconverged bool
	Warnings    []string

	// Residuals is nil when the engine did not report the smoothed ordinates of the input points.
	Residuals *Residuals
	Punch     engine.PunchRecords

	Elapsed time.Duration

	// Cached is set when the output was reused from an earlier identical run.
	Cached bool
}

// Residuals summarizes |y - y_smoothed| over the input points.
type Residuals struct {
	N      int
	Mean   float64
	Max    float64
	StdDev float64
}

// Assemble builds the smoothed airfoil from a parsed result. submitted is the
// airfoil the request was built from, in the chord frame of transform.
//
// The coordinate table splits into the upper and lower surfaces, both on the
// request's shared abscissas. Without engine interpolation the summary supplies
// the smoothed ordinates at the input abscissas, optionally resampled here onto
// cosine spacing. The surfaces merge trailing edge -> leading edge -> trailing edge
// and, unless the run asked for scaled output, map back to the input frame.
func Assemble(submitted *airfoil.Airfoil, req *engine.Request, res *engine.Result, transform *airfoil.ChordTransform, config params.Config) (*Output, error) {
	out := &Output{
		Input:       req.Name,
		Transform:   transform,
		Iterations:  res.Log.Iterations,
		Unconverged: !res.Log.Converged,
		Warnings:    append([]string(nil), res.Log.Warnings...),
		Punch:       res.Punch,
	}

	var upper, lower airfoil.Surface
	var spacing *airfoil.CosineSpacing
	source := airfoil.SourceEngine
	switch {
	case res.Coordinates != nil:
		nu, nl := req.OutputCounts()
		pts := make(orb.LineString, len(res.Coordinates.Rows))
		lines := make([]int, len(res.Coordinates.Rows))
		for i, r := range res.Coordinates.Rows {
			pts[i] = orb.Point{r.X, r.Y}
			lines[i] = r.Line
		}
		var err error
		upper, lower, err = split(res.Coordinates.File, pts, lines, nu, nl)
		if err != nil {
			return nil, err
		}
		// Both surfaces come back on the shared abscissas. An even point count
		// keeps one lower point fewer, on its own cosine spacing.
		if cu, cl := config.SurfaceCounts(); cu == upper.Len() && cl < lower.Len() {
			span := req.Abscissas[len(req.Abscissas)-1]
			lower, err = cosine.Resample("lower", lower, cosine.Abscissas(cl, span), config.Interpolation.RangeTolerance)
			if err != nil {
				return nil, err
			}
		}
		spacing = &airfoil.CosineSpacing{Upper: upper.Len(), Lower: lower.Len()}

	case res.Summary != nil:
		nu, nl := req.Upper.Len(), req.Lower.Len()
		pts := make(orb.LineString, len(res.Summary.Rows))
		lines := make([]int, len(res.Summary.Rows))
		residuals := make(stats.Float64Data, len(res.Summary.Rows))
		for i, r := range res.Summary.Rows {
			pts[i] = orb.Point{r.X, r.Smoothed}
			lines[i] = r.Line
			residuals[i] = r.Residual()
		}
		var err error
		upper, lower, err = split(res.Summary.File, pts, lines, nu, nl)
		if err != nil {
			return nil, err
		}
		if out.Residuals, err = summarize(residuals); err != nil {
			return nil, err
		}
		upper.Weights, lower.Weights = req.Upper.Weights, req.Lower.Weights

	default:
		return nil, &engine.ResultParseError{Reason: "result has neither coordinates nor summary"}
	}

	smoothed, err := airfoil.FromSurfaces(submitted.Title, upper, lower)
	if err != nil {
		return nil, err
	}

	if res.Summary != nil && config.Interpolation.Enabled && config.Interpolation.Local {
		nu, nl := config.SurfaceCounts()
		smoothed, err = cosine.ResampleAirfoil(smoothed, nu, nl, Span(submitted), config.Interpolation.RangeTolerance)
		if err != nil {
			return nil, err
		}
		spacing = &airfoil.CosineSpacing{Upper: nu, Lower: nl}
		source = airfoil.SourceLocal
	}

	if !config.Geometry.ScaledOutput {
		smoothed = smoothed.Derive(source, transform.Invert)
	}
	out.Airfoil = smoothed.WithDerivation(&airfoil.Derivation{
		Source:    source,
		Parent:    submitted,
		Transform: transform,
		Cosine:    spacing,
	})
	return out, nil
}

// split divides rows into the upper and lower surfaces, each leading edge first.
// lines holds the artifact line of every row. A count mismatch names the first
// surplus row, or the last row when the table is short.
func split(file string, pts orb.LineString, lines []int, nu, nl int) (upper, lower airfoil.Surface, err error) {
	if len(pts) != nu+nl {
		e := &engine.ResultParseError{
			File:   file,
			Reason: fmt.Sprintf("want %d rows (%d upper + %d lower), got %d", nu+nl, nu, nl, len(pts)),
		}
		switch {
		case len(lines) > nu+nl:
			e.Line = lines[nu+nl]
		case len(lines) > 0:
			e.Line = lines[len(lines)-1]
		}
		return upper, lower, e
	}
	return airfoil.NewSurface(pts[:nu].Clone()), airfoil.NewSurface(pts[nu:].Clone()), nil
}

func summarize(residuals stats.Float64Data) (*Residuals, error) {
	if len(residuals) == 0 {
		return nil, nil
	}
	mean, err := stats.Mean(residuals)
	if err != nil {
		return nil, err
	}
	hi, err := stats.Max(residuals)
	if err != nil {
		return nil, err
	}
	sd, err := stats.StandardDeviation(residuals)
	if err != nil {
		return nil, err
	}
	return &Residuals{N: len(residuals), Mean: mean, Max: hi, StdDev: sd}, nil
}

// Span is the chord-wise extent of cosine abscissas for a, from its leading edge
// to its trailing edge midpoint.
func Span(a *airfoil.Airfoil) float64 {
	return a.TrailingEdge()[0] - a.LeadingEdge()[0]
}
