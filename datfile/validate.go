package datfile

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/afsmo/common"
	"github.com/rotblauer/afsmo/types/airfoil"
	"math"
)

// SurfacesCross reports whether any segment of the upper surface crosses a segment
// of the lower surface, returning the first crossing found.
// Segments meeting at an end point, as they do at the leading edge and at a closed
// trailing edge, do not count.
func SurfacesCross(a *airfoil.Airfoil) (bool, orb.Point) {
	upper, lower := a.Upper().Points, a.Lower().Points
	for i := 1; i < len(upper); i++ {
		segA := orb.LineString{upper[i-1], upper[i]}
		for j := 1; j < len(lower); j++ {
			segB := orb.LineString{lower[j-1], lower[j]}
			ok, x, y := common.SegmentsIntersect(segA, segB)
			if !ok {
				continue
			}
			p := orb.Point{*x, *y}
			if touches(p, segA) || touches(p, segB) {
				continue
			}
			return true, p
		}
	}
	return false, orb.Point{}
}

func touches(p orb.Point, seg orb.LineString) bool {
	const eps = 1e-12
	for _, q := range seg {
		if math.Abs(p[0]-q[0]) <= eps && math.Abs(p[1]-q[1]) <= eps {
			return true
		}
	}
	return false
}
