package cosine

import (
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
	"github.com/rotblauer/afsmo/datfile"
	"github.com/rotblauer/afsmo/geo/chord"
	"github.com/rotblauer/afsmo/testing/testdata"
	"github.com/rotblauer/afsmo/types/airfoil"
	"math"
	"testing"
)

func TestAbscissas_Five(t *testing.T) {
	got := Abscissas(5, 1)
	want := []float64{0, 0.146, 0.5, 0.854, 1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-3)); diff != "" {
		t.Errorf("Abscissas(5) mismatch (-want +got):\n%s", diff)
	}
}

func TestAbscissas_Properties(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7, 80, 81, 100} {
		xs := Abscissas(n, 1)
		if len(xs) != n {
			t.Fatalf("n=%d: got %d abscissas", n, len(xs))
		}
		if xs[0] != 0 || xs[n-1] != 1 {
			t.Errorf("n=%d: bounds %v..%v", n, xs[0], xs[n-1])
		}
		for i := 1; i < n; i++ {
			if xs[i] <= xs[i-1] {
				t.Errorf("n=%d: not strictly increasing at %d", n, i)
			}
		}
		for i := 0; i < n; i++ {
			if math.Abs(xs[i]+xs[n-1-i]-1) > 1e-15 {
				t.Errorf("n=%d: x[%d]+x[%d] = %v, want 1", n, i, n-1-i, xs[i]+xs[n-1-i])
			}
		}
	}
}

func TestResample_FlatSurface(t *testing.T) {
	s := airfoil.NewSurface(orb.LineString{{0, 0}, {0.3, 0}, {0.7, 0}, {1, 0}})
	out, err := Resample("upper", s, Abscissas(5, 1), 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 5 {
		t.Fatalf("got %d points", out.Len())
	}
	for i, p := range out.Points {
		if p[1] != 0 {
			t.Errorf("point %d: y=%v, want 0", i, p[1])
		}
	}
	if diff := cmp.Diff([]float64{0, 0.146, 0.5, 0.854, 1}, out.Xs(), cmpopts.EquateApprox(0, 1e-3)); diff != "" {
		t.Errorf("abscissas (-want +got):\n%s", diff)
	}
}

func TestResample_NoOvershoot(t *testing.T) {
	// A sharp step; a natural cubic spline rings around it.
	s := airfoil.NewSurface(orb.LineString{{0, 0}, {0.1, 0}, {0.2, 0}, {0.21, 1}, {0.5, 1}, {1, 1}})
	out, err := Resample("upper", s, Abscissas(60, 1), 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range out.Points {
		if p[1] < -1e-12 || p[1] > 1+1e-12 {
			t.Errorf("point %d overshoots: %v", i, p)
		}
	}
}

func TestResample_TwoPointsLinear(t *testing.T) {
	s := airfoil.NewSurface(orb.LineString{{0, 0}, {1, 2}})
	out, err := Resample("lower", s, []float64{0, 0.25, 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0, 0.5, 2}, out.Ys(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestResample_RangeErrors(t *testing.T) {
	s := airfoil.NewSurface(orb.LineString{{0, 0}, {0.5, 0.05}, {0.9, 0.01}})
	_, err := Resample("upper", s, Abscissas(5, 1), 1e-3)
	var rerr *InterpolationRangeError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want *InterpolationRangeError", err)
	}
	if rerr.X != 1 || rerr.Max != 0.9 {
		t.Errorf("got %+v", rerr)
	}

	// Within tolerance the end value is used.
	out, err := Resample("upper", s, []float64{0, 0.9005}, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if out.Points[1][1] != 0.01 {
		t.Errorf("clamped y=%v, want 0.01", out.Points[1][1])
	}

	back := airfoil.NewSurface(orb.LineString{{0, 0}, {0.5, 0.05}, {0.4, 0.04}, {1, 0}})
	if _, err := Resample("upper", back, Abscissas(5, 1), 0); !errors.Is(err, ErrRange) {
		t.Errorf("non-monotone source: got %v, want ErrRange", err)
	}
}

func TestResampleAirfoil_Counts(t *testing.T) {
	raw, err := datfile.ReadFile(testdata.Path(testdata.NACA0012))
	if err != nil {
		t.Fatal(err)
	}
	norm, _, err := chord.Normalize(raw, true, true)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ResampleAirfoil(norm, 81, 80, 1, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 160 {
		t.Errorf("got %d points, want 160", out.Len())
	}
	if out.Derivation == nil || out.Derivation.Cosine == nil || out.Derivation.Transform == nil {
		t.Fatalf("derivation not recorded: %+v", out.Derivation)
	}
	if le := out.LeadingEdge(); math.Abs(le[0]) > 1e-12 || math.Abs(le[1]) > 1e-12 {
		t.Errorf("leading edge %v, want origin", le)
	}
	// The thickest point of a NACA 0012 is 12% of chord.
	b := out.Bound()
	if math.Abs((b.Max[1]-b.Min[1])-0.12) > 0.005 {
		t.Errorf("thickness %v, want about 0.12", b.Max[1]-b.Min[1])
	}
}
