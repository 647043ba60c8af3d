package airfoil

import (
	"github.com/paulmach/orb"
	"math"
)

// ChordTransform maps raw coordinates into the chord frame:
// translate Origin to (0,0), rotate by -Theta (if Derotate), then multiply by Scale.
// Theta and Length are recorded whether or not they are applied, so Invert is always exact.
type ChordTransform struct {
	Origin    orb.Point
	Theta     float64
	Length    float64
	Scale     float64
	Derotate  bool
	Normalize bool
}

// Identity is the transform that leaves every point in place.
var Identity = ChordTransform{Scale: 1, Length: 1}

func (t ChordTransform) rotation() float64 {
	if !t.Derotate {
		return 0
	}
	return t.Theta
}

func (t ChordTransform) scale() float64 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}

// Apply maps p from the raw frame into the chord frame.
func (t ChordTransform) Apply(p orb.Point) orb.Point {
	x, y := p[0]-t.Origin[0], p[1]-t.Origin[1]
	if th := t.rotation(); th != 0 {
		sin, cos := math.Sincos(-th)
		x, y = x*cos-y*sin, x*sin+y*cos
	}
	s := t.scale()
	return orb.Point{x * s, y * s}
}

// Invert maps p from the chord frame back into the raw frame.
func (t ChordTransform) Invert(p orb.Point) orb.Point {
	s := t.scale()
	x, y := p[0]/s, p[1]/s
	if th := t.rotation(); th != 0 {
		sin, cos := math.Sincos(th)
		x, y = x*cos-y*sin, x*sin+y*cos
	}
	return orb.Point{x + t.Origin[0], y + t.Origin[1]}
}

// ChordLength is the chord length as seen in the chord frame.
func (t ChordTransform) ChordLength() float64 {
	return t.Length * t.scale()
}

// IsIdentity reports whether the transform moves no point by more than tol
// over a chord-sized neighborhood.
func (t ChordTransform) IsIdentity(tol float64) bool {
	return math.Abs(t.rotation()) <= tol &&
		math.Abs(t.scale()-1) <= tol &&
		math.Abs(t.Origin[0]) <= tol && math.Abs(t.Origin[1]) <= tol
}

// ThetaDegrees returns Theta in degrees, for logging.
func (t ChordTransform) ThetaDegrees() float64 {
	return t.Theta * 180 / math.Pi
}
