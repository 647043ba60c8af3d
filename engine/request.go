package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/types/airfoil"
	"io"
	"math"
	"strings"
)

// Request is everything submitted to one engine run. It is not modified after NewRequest.
type Request struct {
	// Name is the input file the request was built from. It names the engine input file.
	Name    string
	Title   string
	Options params.SmoothingOptions

	// Upper and Lower run leading edge to trailing edge, in the submitted frame.
	Upper airfoil.Surface
	Lower airfoil.Surface

	// Abscissas are the interpolation abscissas, shared by both surfaces. The engine
	// input always carries them; Interpolate selects whether the run's output is the
	// engine's interpolated coordinates or its summary at the input abscissas.
	Abscissas   []float64
	Interpolate bool

	// Chord is the chord length in the submitted frame, used by the theta formats.
	Chord float64
}

// NewRequest validates opts and builds a request from a's two surfaces.
func NewRequest(name string, a *airfoil.Airfoil, opts params.SmoothingOptions, chord float64, abscissas []float64, interpolate bool) (*Request, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if n := len(abscissas); n < 2 || n > params.MaxSurfaceInterpPts {
		return nil, fmt.Errorf("%w: %d interpolation abscissas, want 2-%d", params.ErrInvalidOption, n, params.MaxSurfaceInterpPts)
	}
	if chord <= 0 {
		chord = 1
	}
	r := &Request{
		Name:    name,
		Title:   oneLine(a.Title),
		Options: opts,
		Upper:   a.Upper(),
		Lower:   a.Lower(),
		Chord:   chord,

		Abscissas:   append([]float64(nil), abscissas...),
		Interpolate: interpolate,
	}
	return r, nil
}

// Interpolates reports whether the run reads back the engine's interpolated coordinates.
func (r *Request) Interpolates() bool {
	return r.Interpolate
}

// Points is the number of coordinate points submitted, counting the shared leading edge twice.
func (r *Request) Points() int {
	return r.Upper.Len() + r.Lower.Len()
}

// OutputCounts is the number of rows per surface in the artifact the run reads back.
func (r *Request) OutputCounts() (upper, lower int) {
	if r.Interpolates() {
		return len(r.Abscissas), len(r.Abscissas)
	}
	return r.Upper.Len(), r.Lower.Len()
}

// Encode returns the engine input file contents.
func (r *Request) Encode() []byte {
	var buf bytes.Buffer
	_, _ = r.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes the engine input file: a title card, one header card of eight
// ten-column control fields, the two surfaces each preceded by a count card,
// the interpolation abscissas preceded by their count card, and a terminator card.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	o := r.Options

	fmt.Fprintln(cw, r.Title)
	fmt.Fprintln(cw, card(
		o.MaxIterations,
		o.ConvergenceExponent,
		int(o.InputFormat),
		int(o.Punch),
		flag(o.CheckCoordinates),
		flag(o.TranslateRotate),
		flag(o.ThicknessCamber),
		params.OutputInterpolated,
	))
	r.writeSurface(cw, r.Upper)
	r.writeSurface(cw, r.Lower)
	writeAbscissas(cw, r.Abscissas)
	fmt.Fprintln(cw, "  1.")

	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

func (r *Request) writeSurface(w io.Writer, s airfoil.Surface) {
	fmt.Fprintln(w, card(s.Len()))
	var slopes []float64
	if r.Options.InputFormat == params.InputXYSlope {
		slopes = Slopes(s.Xs(), s.Ys())
	}
	for i, p := range s.Points {
		x, y, wt := p[0], p[1], s.Weight(i)
		switch r.Options.InputFormat {
		case params.InputXY:
			fmt.Fprintf(w, "%12.6f%12.6f\n", x, y)
		case params.InputXYWeight:
			fmt.Fprintf(w, "%12.6f%12.6f%12.6f\n", x, y, wt)
		case params.InputThetaWeight:
			fmt.Fprintf(w, "%12.6f%12.6f%12.6f\n", ThetaDegrees(x, r.Chord), y/r.Chord, wt)
		case params.InputXYSlope:
			fmt.Fprintf(w, "%12.6f%12.6f%12.6f\n", x, y, slopes[i])
		}
	}
}

func writeAbscissas(w io.Writer, xs []float64) {
	fmt.Fprintln(w, card(len(xs)))
	for _, x := range xs {
		fmt.Fprintf(w, "%12.6f\n", x)
	}
}

// card formats integers as ten-column "N." fields, the layout of the engine's control cards.
func card(values ...int) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "   %-7s", fmt.Sprintf("%d.", v))
	}
	return strings.TrimRight(b.String(), " ")
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// ThetaDegrees is the angular chord coordinate, x/c = (1 - cos(theta)) / 2, in degrees.
func ThetaDegrees(x, chord float64) float64 {
	z := 1 - 2*x/chord
	z = math.Max(-1, math.Min(1, z))
	return math.Acos(z) * 180 / math.Pi
}

// Slopes estimates dy/dx at every sample with central differences,
// one-sided at the ends. Coincident abscissas give a zero slope.
func Slopes(xs, ys []float64) []float64 {
	n := len(xs)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := range xs {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		if dx := xs[hi] - xs[lo]; dx != 0 {
			out[i] = (ys[hi] - ys[lo]) / dx
		}
	}
	return out
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
