package cosine

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/afsmo/types/airfoil"
	"gonum.org/v1/gonum/interp"
	"math"
)

var ErrRange = errors.New("interpolation range")

// InterpolationRangeError is returned when requested abscissas fall outside the domain
// sampled by the source surface, or the source surface is not single-valued in x.
type InterpolationRangeError struct {
	Surface  string
	X        float64
	Min, Max float64
	Reason   string
}

func (e *InterpolationRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s surface: %s: %s", e.Surface, ErrRange, e.Reason)
	}
	return fmt.Sprintf("%s surface: %s: x=%g outside [%g, %g]", e.Surface, ErrRange, e.X, e.Min, e.Max)
}

func (e *InterpolationRangeError) Unwrap() error {
	return ErrRange
}

// Abscissas returns n cosine-spaced abscissas from 0 to span,
// x_i = span * (1 - cos(pi*i/(n-1))) / 2, clustered toward both ends.
// The second half mirrors the first, so x_i + x_(n-1-i) == span.
func Abscissas(n int, span float64) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	xs := make([]float64, n)
	for i := 0; i <= (n-1)/2; i++ {
		xs[i] = span * 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(n-1)))
	}
	for i := (n-1)/2 + 1; i < n; i++ {
		xs[i] = span - xs[n-1-i]
	}
	xs[0], xs[n-1] = 0, span
	return xs
}

// Resample evaluates s at xs with a monotone piecewise cubic (Fritsch-Butland), which
// cannot overshoot the local extremes of the samples. Two-point surfaces interpolate linearly.
// Abscissas within tol outside the sampled domain take the end value.
// name labels the surface in errors.
func Resample(name string, s airfoil.Surface, xs []float64, tol float64) (airfoil.Surface, error) {
	srcX, srcY := distinct(s.Points)
	if len(srcX) < 2 {
		return airfoil.Surface{}, &InterpolationRangeError{Surface: name, Reason: "fewer than 2 distinct samples"}
	}
	for i := 1; i < len(srcX); i++ {
		if srcX[i] <= srcX[i-1] {
			return airfoil.Surface{}, &InterpolationRangeError{
				Surface: name, X: srcX[i],
				Reason: fmt.Sprintf("samples not increasing in x at index %d (%g after %g)", i, srcX[i], srcX[i-1]),
			}
		}
	}
	lo, hi := srcX[0], srcX[len(srcX)-1]
	for _, x := range xs {
		if x < lo-tol || x > hi+tol {
			return airfoil.Surface{}, &InterpolationRangeError{Surface: name, X: x, Min: lo, Max: hi}
		}
	}

	var fp interp.FittablePredictor = &interp.FritschButland{}
	if len(srcX) < 3 {
		fp = &interp.PiecewiseLinear{}
	}
	if err := fp.Fit(srcX, srcY); err != nil {
		return airfoil.Surface{}, &InterpolationRangeError{Surface: name, Reason: err.Error()}
	}

	pts := make(orb.LineString, len(xs))
	for i, x := range xs {
		pts[i] = orb.Point{x, fp.Predict(math.Min(math.Max(x, lo), hi))}
	}
	return airfoil.NewSurface(pts), nil
}

// distinct drops consecutive duplicate points.
func distinct(pts orb.LineString) (xs, ys []float64) {
	for i, p := range pts {
		if i > 0 && p == pts[i-1] {
			continue
		}
		xs = append(xs, p[0])
		ys = append(ys, p[1])
	}
	return xs, ys
}

// ResampleAirfoil resamples both surfaces of a, each on its own cosine spacing over
// [0, span], and merges them back into one loop sharing the leading edge.
func ResampleAirfoil(a *airfoil.Airfoil, nu, nl int, span, tol float64) (*airfoil.Airfoil, error) {
	upper, err := Resample("upper", a.Upper(), Abscissas(nu, span), tol)
	if err != nil {
		return nil, err
	}
	lower, err := Resample("lower", a.Lower(), Abscissas(nl, span), tol)
	if err != nil {
		return nil, err
	}
	out, err := airfoil.FromSurfaces(a.Title, upper, lower)
	if err != nil {
		return nil, err
	}
	d := &airfoil.Derivation{
		Source: airfoil.SourceCosine,
		Parent: a,
		Cosine: &airfoil.CosineSpacing{Upper: nu, Lower: nl},
	}
	if a.Derivation != nil {
		d.Transform = a.Derivation.Transform
	}
	return out.WithDerivation(d), nil
}
