package common

import "github.com/paulmach/orb"

// SegmentsIntersect reports whether two line segments cross, and where.
// The crossing is exclusive of segA's bounding corners, so segments that merely
// continue one another do not intersect. Parallel segments never intersect.
// See https://stackoverflow.com/a/1968345.
func SegmentsIntersect(segA, segB orb.LineString) (intersect bool, x, y *float64) {
	p0x, p0y := segA[0][0], segA[0][1]
	p1x, p1y := segA[1][0], segA[1][1]
	p2x, p2y := segB[0][0], segB[0][1]
	p3x, p3y := segB[1][0], segB[1][1]

	s1x, s1y := p1x-p0x, p1y-p0y
	s2x, s2y := p3x-p2x, p3y-p2y

	denom := -s2x*s1y + s1x*s2y
	if denom == 0 {
		return false, nil, nil
	}
	s := (-s1y*(p0x-p2x) + s1x*(p0y-p2y)) / denom
	t := (s2x*(p0y-p2y) - s2y*(p0x-p2x)) / denom
	if s < 0 || s > 1 || t < 0 || t > 1 {
		return false, nil, nil
	}
	ix, iy := p0x+t*s1x, p0y+t*s1y
	i := orb.Point{ix, iy}
	if segA.Bound().Min.Equal(i) || segA.Bound().Max.Equal(i) {
		return false, nil, nil
	}
	return true, &ix, &iy
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}
