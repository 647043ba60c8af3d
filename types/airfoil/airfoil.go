package airfoil

import (
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/afsmo/common"
)

// Surface is one side of an airfoil, ordered from the leading edge to the trailing edge.
// Weights, when present, has one entry per point.
type Surface struct {
	Points  orb.LineString
	Weights []float64
}

// NewSurface returns a surface with unit weights.
func NewSurface(pts orb.LineString) Surface {
	return Surface{Points: pts.Clone(), Weights: unitWeights(len(pts))}
}

func (s Surface) Len() int {
	return len(s.Points)
}

// Xs returns the abscissas of the surface points.
func (s Surface) Xs() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.X()
	}
	return out
}

// Ys returns the ordinates of the surface points.
func (s Surface) Ys() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Y()
	}
	return out
}

// Weight returns the weight for point i, or 1 if the surface carries no weights.
func (s Surface) Weight(i int) float64 {
	if i < len(s.Weights) {
		return s.Weights[i]
	}
	return 1
}

// Clone returns a deep copy of the surface.
func (s Surface) Clone() Surface {
	cp := Surface{Points: s.Points.Clone()}
	if s.Weights != nil {
		cp.Weights = append([]float64(nil), s.Weights...)
	}
	return cp
}

// Airfoil is an ordered, closed-ish loop of coordinates starting at one trailing edge point,
// running along one surface to the leading edge, and back along the other surface to the
// second trailing edge point.
// An Airfoil is never mutated after construction; derived airfoils are new values
// which keep a Derivation pointing back at what produced them.
type Airfoil struct {
	Title     string
	Perimeter orb.LineString
	Weights   []float64

	// LE is the index of the leading edge point in Perimeter.
	LE int

	// Derivation is nil for airfoils read from raw input.
	Derivation *Derivation
}

// Derivation records how a derived airfoil was produced.
type Derivation struct {
	Source    string
	Parent    *Airfoil
	Transform *ChordTransform
	Cosine    *CosineSpacing
}

// CosineSpacing names the per-surface counts used for a cosine resample.
type CosineSpacing struct {
	Upper int
	Lower int
}

const (
	SourceNormalizer = "normalizer"
	SourceCosine     = "cosine"
	SourceEngine     = "engine"
	SourceLocal      = "local"
)

// New validates and builds an Airfoil.
func New(title string, perimeter orb.LineString, weights []float64, le int) (*Airfoil, error) {
	if len(perimeter) < 3 {
		return nil, fmt.Errorf("airfoil %q: need at least 3 points, have %d", title, len(perimeter))
	}
	if le <= 0 || le >= len(perimeter)-1 {
		return nil, fmt.Errorf("airfoil %q: leading edge index %d not interior to [0,%d]", title, le, len(perimeter)-1)
	}
	if weights == nil {
		weights = unitWeights(len(perimeter))
	}
	if len(weights) != len(perimeter) {
		return nil, fmt.Errorf("airfoil %q: %d weights for %d points", title, len(weights), len(perimeter))
	}
	return &Airfoil{
		Title:     title,
		Perimeter: perimeter.Clone(),
		Weights:   append([]float64(nil), weights...),
		LE:        le,
	}, nil
}

// FromSurfaces merges two leading-to-trailing-edge surfaces into one perimeter,
// trailing edge -> upper -> leading edge -> lower -> trailing edge.
// The lower surface's first point is taken to duplicate the upper's leading edge and is dropped.
func FromSurfaces(title string, upper, lower Surface) (*Airfoil, error) {
	if upper.Len() < 2 || lower.Len() < 2 {
		return nil, fmt.Errorf("airfoil %q: surfaces need at least 2 points each (upper=%d lower=%d)",
			title, upper.Len(), lower.Len())
	}
	n := upper.Len() + lower.Len() - 1
	perimeter := make(orb.LineString, 0, n)
	weights := make([]float64, 0, n)
	for i := upper.Len() - 1; i >= 0; i-- {
		perimeter = append(perimeter, upper.Points[i])
		weights = append(weights, upper.Weight(i))
	}
	for i := 1; i < lower.Len(); i++ {
		perimeter = append(perimeter, lower.Points[i])
		weights = append(weights, lower.Weight(i))
	}
	return New(title, perimeter, weights, upper.Len()-1)
}

func (a *Airfoil) Len() int {
	return len(a.Perimeter)
}

// Upper returns the first surface of the loop, leading edge first.
func (a *Airfoil) Upper() Surface {
	s := Surface{
		Points:  make(orb.LineString, 0, a.LE+1),
		Weights: make([]float64, 0, a.LE+1),
	}
	for i := a.LE; i >= 0; i-- {
		s.Points = append(s.Points, a.Perimeter[i])
		s.Weights = append(s.Weights, a.weight(i))
	}
	return s
}

// Lower returns the second surface of the loop, leading edge first.
func (a *Airfoil) Lower() Surface {
	n := len(a.Perimeter) - a.LE
	s := Surface{
		Points:  make(orb.LineString, 0, n),
		Weights: make([]float64, 0, n),
	}
	for i := a.LE; i < len(a.Perimeter); i++ {
		s.Points = append(s.Points, a.Perimeter[i])
		s.Weights = append(s.Weights, a.weight(i))
	}
	return s
}

// LeadingEdge returns the leading edge point.
func (a *Airfoil) LeadingEdge() orb.Point {
	return a.Perimeter[a.LE]
}

// TrailingEdge returns the midpoint of the two trailing edge points.
// A finite-thickness trailing edge has two distinct end points.
func (a *Airfoil) TrailingEdge() orb.Point {
	return common.Midpoint(a.Perimeter[0], a.Perimeter[len(a.Perimeter)-1])
}

// TrailingEdgeGap returns the distance between the two trailing edge points.
func (a *Airfoil) TrailingEdgeGap() float64 {
	return planar.Distance(a.Perimeter[0], a.Perimeter[len(a.Perimeter)-1])
}

// Bound returns the bounding box of the perimeter.
func (a *Airfoil) Bound() orb.Bound {
	return a.Perimeter.Bound()
}

// Derive returns a new airfoil built from a point-for-point mapping of a.
func (a *Airfoil) Derive(source string, fn func(orb.Point) orb.Point) *Airfoil {
	pts := make(orb.LineString, len(a.Perimeter))
	for i, p := range a.Perimeter {
		pts[i] = fn(p)
	}
	return &Airfoil{
		Title:      a.Title,
		Perimeter:  pts,
		Weights:    append([]float64(nil), a.Weights...),
		LE:         a.LE,
		Derivation: &Derivation{Source: source, Parent: a},
	}
}

// WithDerivation returns a shallow copy of a carrying d.
func (a *Airfoil) WithDerivation(d *Derivation) *Airfoil {
	cp := *a
	cp.Derivation = d
	return &cp
}

func (a *Airfoil) String() string {
	return fmt.Sprintf("%s (points=%d le=%d)", a.Title, len(a.Perimeter), a.LE)
}

func (a *Airfoil) weight(i int) float64 {
	if i < len(a.Weights) {
		return a.Weights[i]
	}
	return 1
}

func unitWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
