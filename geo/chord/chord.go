package chord

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/afsmo/types/airfoil"
	"math"
)

// tieTolerance is the relative slack within which two candidate chords count as tied.
const tieTolerance = 1e-12

// collinearTolerance is the largest perpendicular distance from the chord line,
// relative to chord length, at which every point still counts as on the line.
const collinearTolerance = 1e-12

var ErrDegenerate = errors.New("degenerate geometry")

// DegenerateGeometryError is returned when no chord can be determined.
type DegenerateGeometryError struct {
	Title  string
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("%s: %s", ErrDegenerate, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Title, ErrDegenerate, e.Reason)
}

func (e *DegenerateGeometryError) Unwrap() error {
	return ErrDegenerate
}

// Chord is the longest segment between any two points of a curve.
// LE and TE index the points it joins.
type Chord struct {
	LE, TE int
	Start  orb.Point
	End    orb.Point
	Length float64
}

// Theta is the chord's angle from the +x axis, leading edge to trailing edge.
func (c Chord) Theta() float64 {
	return math.Atan2(c.End[1]-c.Start[1], c.End[0]-c.Start[0])
}

// LongestChord finds the pair of points at maximum distance with an all-pairs search.
// Pairs within tieTolerance of the maximum resolve to the lexicographically smallest
// index pair. The endpoint with the smaller x (then smaller y) is the leading edge.
func LongestChord(pts orb.LineString) (Chord, error) {
	if len(pts) < 2 {
		return Chord{}, &DegenerateGeometryError{Reason: fmt.Sprintf("need at least 2 points, have %d", len(pts))}
	}
	best := 0.0
	for i := 0; i < len(pts)-1; i++ {
		for j := i + 1; j < len(pts); j++ {
			best = math.Max(best, planar.DistanceSquared(pts[i], pts[j]))
		}
	}
	if best <= 0 {
		return Chord{}, &DegenerateGeometryError{Reason: "zero-length chord"}
	}
	bi, bj := tiedPair(pts, best*(1-tieTolerance))
	le, te := bi, bj
	a, b := pts[bi], pts[bj]
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		le, te = bj, bi
	}
	c := Chord{
		LE:     le,
		TE:     te,
		Start:  pts[le],
		End:    pts[te],
		Length: math.Sqrt(best),
	}
	if collinear(pts, c) {
		return Chord{}, &DegenerateGeometryError{Reason: "all points lie on the chord line"}
	}
	return c, nil
}

// tiedPair returns the first index pair, in lexicographic order, whose squared distance reaches floor.
func tiedPair(pts orb.LineString, floor float64) (int, int) {
	for i := 0; i < len(pts)-1; i++ {
		for j := i + 1; j < len(pts); j++ {
			if planar.DistanceSquared(pts[i], pts[j]) >= floor {
				return i, j
			}
		}
	}
	return 0, 1
}

func collinear(pts orb.LineString, c Chord) bool {
	dx, dy := (c.End[0]-c.Start[0])/c.Length, (c.End[1]-c.Start[1])/c.Length
	for _, p := range pts {
		// Perpendicular distance via the 2D cross product with the unit chord.
		d := math.Abs((p[0]-c.Start[0])*dy - (p[1]-c.Start[1])*dx)
		if d > collinearTolerance*c.Length {
			return false
		}
	}
	return true
}

// NewTransform builds the transform placing c's leading edge at the origin, rotating
// the chord onto +x when derotate is set and scaling it to unit length when normalize is set.
func NewTransform(c Chord, derotate, normalize bool) airfoil.ChordTransform {
	t := airfoil.ChordTransform{
		Origin:    c.Start,
		Theta:     c.Theta(),
		Length:    c.Length,
		Scale:     1,
		Derotate:  derotate,
		Normalize: normalize,
	}
	if normalize {
		t.Scale = 1 / c.Length
	}
	return t
}

// Normalize computes the chord transform of a and returns the transformed airfoil.
// The result's Derivation references a and the transform, which inverts exactly.
// The result's leading edge is re-anchored on the chord's leading edge point when that
// point is interior to the loop, so both surfaces start at the origin.
func Normalize(a *airfoil.Airfoil, derotate, normalize bool) (*airfoil.Airfoil, *airfoil.ChordTransform, error) {
	c, err := LongestChord(a.Perimeter)
	if err != nil {
		var dge *DegenerateGeometryError
		if errors.As(err, &dge) {
			dge.Title = a.Title
		}
		return nil, nil, err
	}
	t := NewTransform(c, derotate, normalize)
	out := a.Derive(airfoil.SourceNormalizer, t.Apply)
	out.Derivation.Transform = &t
	if c.LE > 0 && c.LE < out.Len()-1 {
		out.LE = c.LE
	}
	return out, &t, nil
}
