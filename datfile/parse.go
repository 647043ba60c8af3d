package datfile

import (
	"bufio"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/afsmo/types/airfoil"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

type row struct {
	line   int
	values []float64
}

// ReadFile parses the coordinate file at path.
func ReadFile(path string) (*airfoil.Airfoil, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse reads an airfoil in the "dat" convention: an optional title line followed by
// one `x y [weight]` point per line.
// Both the continuous-loop (Selig) layout and the two-block Lednicer layout are accepted;
// either way the result is a single trailing edge -> leading edge -> trailing edge loop.
// name is used only in error messages.
func Parse(name string, r io.Reader) (*airfoil.Airfoil, error) {
	title, rows, err := scanRows(name, r)
	if err != nil {
		return nil, err
	}
	if nu, nl, ok := lednicerCounts(rows); ok {
		return fromLednicer(name, title, rows[1:], nu, nl)
	}
	return fromLoop(name, title, rows)
}

func scanRows(name string, r io.Reader) (title string, rows []row, err error) {
	sc := bufio.NewScanner(r)
	lineN := 0
	for sc.Scan() {
		lineN++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		values := make([]float64, 0, len(fields))
		bad := ""
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				bad = f
				break
			}
			values = append(values, v)
		}
		// Only the first non-blank line may be a title. A lone number such as
		// "2412" is a title too.
		if len(rows) == 0 && title == "" && (bad != "" || len(fields) == 1) {
			title = text
			continue
		}
		if bad != "" {
			return "", nil, &MalformedInputError{File: name, Line: lineN, Token: bad, Reason: "non-numeric field"}
		}
		if len(values) != 2 && len(values) != 3 {
			return "", nil, &MalformedInputError{
				File: name, Line: lineN, Token: text,
				Reason: fmt.Sprintf("want 2 or 3 fields, have %d", len(values)),
			}
		}
		rows = append(rows, row{line: lineN, values: values})
	}
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	return title, rows, nil
}

// lednicerCounts recognizes the `NU. NL.` counts line of the Lednicer layout.
func lednicerCounts(rows []row) (nu, nl int, ok bool) {
	if len(rows) == 0 || len(rows[0].values) != 2 {
		return 0, 0, false
	}
	a, b := rows[0].values[0], rows[0].values[1]
	if a < 2 || b < 2 || a != math.Trunc(a) || b != math.Trunc(b) {
		return 0, 0, false
	}
	nu, nl = int(a), int(b)
	if nu+nl != len(rows)-1 {
		return 0, 0, false
	}
	return nu, nl, true
}

func fromLednicer(name, title string, rows []row, nu, nl int) (*airfoil.Airfoil, error) {
	upper := rowsSurface(rows[:nu])
	lower := rowsSurface(rows[nu:])
	if upper.Points[0] != lower.Points[0] {
		// Surfaces without a shared leading edge point: keep every point,
		// the upper surface's first point stands in as the leading edge.
		lower = airfoil.Surface{
			Points:  append(orb.LineString{upper.Points[0]}, lower.Points...),
			Weights: append([]float64{upper.Weight(0)}, lower.Weights...),
		}
	}
	a, err := airfoil.FromSurfaces(title, upper, lower)
	if err != nil {
		return nil, &MalformedInputError{File: name, Reason: err.Error()}
	}
	return a, nil
}

func rowsSurface(rows []row) airfoil.Surface {
	s := airfoil.Surface{
		Points:  make(orb.LineString, len(rows)),
		Weights: make([]float64, len(rows)),
	}
	for i, r := range rows {
		s.Points[i] = orb.Point{r.values[0], r.values[1]}
		s.Weights[i] = 1
		if len(r.values) == 3 {
			s.Weights[i] = r.values[2]
		}
	}
	return s
}

func fromLoop(name, title string, rows []row) (*airfoil.Airfoil, error) {
	if len(rows) < 3 {
		return nil, &MalformedInputError{File: name, Reason: fmt.Sprintf("need at least 3 points, have %d", len(rows))}
	}
	s := rowsSurface(rows)
	pts := s.Points
	n := len(pts)

	if pts[0] == pts[1] && pts[n-1] == pts[n-2] {
		return nil, &MalformedInputError{
			File: name, Line: rows[0].line,
			Reason: "ambiguous trailing edge: duplicate points at both ends of the loop",
		}
	}

	le := LeadingEdge(pts)
	if le <= 0 || le >= n-1 {
		return nil, &MalformedInputError{
			File: name, Line: rows[le].line,
			Reason: "ambiguous trailing edge: leading edge found at an end of the loop",
		}
	}
	a, err := airfoil.New(title, pts, s.Weights, le)
	if err != nil {
		return nil, &MalformedInputError{File: name, Reason: err.Error()}
	}
	return a, nil
}

// LeadingEdge returns the index of the point farthest from the trailing edge midpoint,
// falling back to the minimum-x point when that lands on an end of the loop.
// Ties resolve to the smallest index.
func LeadingEdge(pts orb.LineString) int {
	n := len(pts)
	if n == 0 {
		return -1
	}
	te := orb.Point{(pts[0][0] + pts[n-1][0]) / 2, (pts[0][1] + pts[n-1][1]) / 2}
	best, bestD := 0, -1.0
	for i, p := range pts {
		if d := planar.DistanceSquared(p, te); d > bestD {
			best, bestD = i, d
		}
	}
	if best > 0 && best < n-1 {
		return best
	}
	minX := 0
	for i, p := range pts {
		if p[0] < pts[minX][0] {
			minX = i
		}
	}
	return minX
}
