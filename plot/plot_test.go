package plot

import (
	"fmt"
	"github.com/rotblauer/afsmo/datfile"
	afsmotesting "github.com/rotblauer/afsmo/testing"
	"github.com/rotblauer/afsmo/testing/testdata"
	gplot "gonum.org/v1/plot"
	"os"
	"path/filepath"
	"testing"
)

func TestComparison(t *testing.T) {
	a, err := datfile.ReadFile(testdata.Path(testdata.NACA0012))
	if err != nil {
		t.Fatal(err)
	}
	// Left in place for a look after the run.
	dir := filepath.Join(afsmotesting.DefaultTestDir(), "plot")
	if err := os.MkdirAll(dir, 0770); err != nil {
		t.Fatal(err)
	}
	for _, realAspect := range []bool{false, true} {
		path := filepath.Join(dir, fmt.Sprintf("naca0012_sm_real-aspect-%v.png", realAspect))
		if err := Comparison(path, a, a, realAspect); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Errorf("realAspect=%v: empty image", realAspect)
		}
	}
}

func TestEqualAspect_MinHeight(t *testing.T) {
	a, err := datfile.ReadFile(testdata.Path(testdata.NACA0012))
	if err != nil {
		t.Fatal(err)
	}
	// A 12% thick section at a 10in width would be well under the minimum height.
	p := gplot.New()
	if h := equalAspect(p, a.Bound()); h != minHeight {
		t.Errorf("height %v, want %v", h, minHeight)
	}
	xr, yr := p.X.Max-p.X.Min, p.Y.Max-p.Y.Min
	if got, want := yr/xr, float64(minHeight)/float64(width); got < want*0.999 || got > want*1.001 {
		t.Errorf("y/x range ratio %g, want %g", got, want)
	}
}
