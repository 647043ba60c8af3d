package engine

import (
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/rotblauer/afsmo/params"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLog(t *testing.T) {
	cases := []struct {
		name       string
		log        string
		iterations int
		converged  bool
		reported   bool
	}{
		{"converged", " AFSMO\n ITERATIONS =   3\n SMOOTHING CONVERGED\n", 3, true, false},
		{"unconverged", " ITERATIONS =  80\n SOLUTION NOT CONVERGED\n", 80, false, false},
		{"bad coordinate", " AFSMO\n *** BAD COORDINATE AT POINT 3\n", 0, true, true},
		{"error", " *** ERROR IN INPUT\n", 0, true, true},
		{"abnormal", " abnormal termination\n", 0, true, true},
		{"empty", "", 0, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, err := ParseLog("afsmo.out", strings.NewReader(c.log))
			if c.reported {
				var failure *ExternalEngineFailure
				if !errors.As(err, &failure) || failure.Reason != ReasonReported {
					t.Fatalf("want reported failure, got %v", err)
				}
				if !errors.Is(err, ErrEngineFailure) {
					t.Error("want errors.Is ErrEngineFailure")
				}
				if failure.Line < 1 {
					t.Errorf("want line number, got %d", failure.Line)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if status.Iterations != c.iterations || status.Converged != c.converged {
				t.Errorf("got %+v", status)
			}
			if !c.converged && len(status.Warnings) == 0 {
				t.Error("want a non-convergence warning")
			}
		})
	}
}

func TestParseLog_BadIterations(t *testing.T) {
	_, err := ParseLog("afsmo.out", strings.NewReader(" ITERATIONS = many\n"))
	var perr *ResultParseError
	if !errors.As(err, &perr) || perr.Token != "many" || perr.Line != 1 {
		t.Errorf("want parse error on token many, got %v", err)
	}
}

func TestParseCoordinates(t *testing.T) {
	got, err := ParseCoordinates("afsmo.dat", strings.NewReader(
		"    0.000000    0.000000\n\n    0.500000    0.100000\n    1.000000    0.000000\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []CoordinateRow{{Line: 1, X: 0, Y: 0}, {Line: 3, X: 0.5, Y: 0.1}, {Line: 4, X: 1, Y: 0}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}

	got, err = ParseCoordinates("afsmo.dat", strings.NewReader("0.5 0.1 -0.2 1.5D+00\n"))
	if err != nil {
		t.Fatal(err)
	}
	if r := got.Rows[0]; !r.HasDerivatives || r.Slope != -0.2 || r.Curvature != 1.5 {
		t.Errorf("derivatives: got %+v", r)
	}
}

func TestParseCoordinates_Errors(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		line  int
		token string
	}{
		{"three fields", "0 0 0.25\n", 1, "0.25"},
		{"mixed widths", "0 0\n0.5 0.1 0 0\n", 2, "0"},
		{"short row", "0 0\n0.5\n", 2, "0.5"},
		{"not a number", "0 0\n0.5 abc\n", 2, "abc"},
	}
	for _, c := range cases {
		_, err := ParseCoordinates("afsmo.dat", strings.NewReader(c.in))
		var perr *ResultParseError
		if !errors.As(err, &perr) {
			t.Errorf("%s: want *ResultParseError, got %v", c.name, err)
			continue
		}
		if perr.Line != c.line || perr.Token != c.token {
			t.Errorf("%s: line %d token %q, want line %d token %q", c.name, perr.Line, perr.Token, c.line, c.token)
		}
	}
}

const summaryFixture = ` AFSMO SMOOTHING SUMMARY
 DIAMOND

    I SURF           X           Y      WEIGHT    Y SMOOTH       DELTA

    1    1    0.000000    0.000000    1.000000    0.000000    0.000000
    2    1    0.500000    0.100000    1.000000    0.098000   -0.002000
    3    1    1.000000    0.000000    1.000000    0.000000    0.000000
`

func TestParseSummary(t *testing.T) {
	got, err := ParseSummary("afsmo.smr", strings.NewReader(summaryFixture))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(got.Rows))
	}
	r := got.Rows[1]
	if r.Index != 2 || r.Surface != 1 || r.X != 0.5 || r.Y != 0.1 || r.Weight != 1 || r.Smoothed != 0.098 {
		t.Errorf("row 2: got %+v", r)
	}
	if r.Line != 7 {
		t.Errorf("row 2 line = %d, want 7", r.Line)
	}
	if d := r.Residual(); d < 0.0019999 || d > 0.0020001 {
		t.Errorf("residual %g", d)
	}
}

func TestParseSummary_Errors(t *testing.T) {
	bad := strings.Replace(summaryFixture, "0.100000", "1.0x", 1)
	_, err := ParseSummary("afsmo.smr", strings.NewReader(bad))
	var perr *ResultParseError
	if !errors.As(err, &perr) || perr.Token != "1.0x" || perr.Line != 7 {
		t.Errorf("want parse error on 1.0x at line 7, got %v", err)
	}

	short := summaryFixture + "    4    2    0.5\n"
	if _, err := ParseSummary("afsmo.smr", strings.NewReader(short)); !errors.Is(err, ErrResultParse) {
		t.Errorf("short row: want ErrResultParse, got %v", err)
	}

	if _, err := ParseSummary("afsmo.smr", strings.NewReader(" AFSMO\n DIAMOND\n")); !errors.Is(err, ErrResultParse) {
		t.Errorf("truncated header: want ErrResultParse, got %v", err)
	}
}

func TestParsePunch_Variants(t *testing.T) {
	sections := " UPPER SURFACE\n 0.0 0.0 1.0 2.0\n 1.0 0.0 3.0 4.0\n LOWER SURFACE\n 0.0 0.0 5.0 6.0\n"
	rec, err := ParsePunch(params.PunchCurvature, "afsmo.pch", strings.NewReader(sections))
	if err != nil {
		t.Fatal(err)
	}
	p, ok := rec.(*Punched[Curvature])
	if !ok {
		t.Fatalf("want *Punched[Curvature], got %T", rec)
	}
	if p.Option() != params.PunchCurvature || p.File() != "afsmo.pch" || p.Len() != 3 {
		t.Errorf("got option=%v file=%s len=%d", p.Option(), p.File(), p.Len())
	}
	upper, ok := p.Section("upper")
	if !ok || len(upper.Rows) != 2 || upper.Rows[1] != (Curvature{X: 1, Y: 0, DYDX: 3, D2YDX2: 4}) {
		t.Errorf("upper section %+v", upper)
	}

	rec, err = ParsePunch(params.PunchThicknessCamber, "afsmo.pch", strings.NewReader(
		" THICKNESS AND CAMBER\n 0.5 0.12 0.01\n"))
	if err != nil {
		t.Fatal(err)
	}
	tc := rec.(*Punched[ThicknessCamber])
	if got := tc.Sections[0].Rows[0]; got != (ThicknessCamber{X: 0.5, Thickness: 0.12, Camber: 0.01}) {
		t.Errorf("got %+v", got)
	}

	widths := map[params.PunchOption]string{
		params.PunchXYWeight:    "0 0 1\n",
		params.PunchThetaWeight: "90 0.1 1\n",
		params.PunchSlope:       "0.5 0.1 0\n",
		params.PunchThetaSlope:  "90 0.1 0 0\n",
	}
	for opt, in := range widths {
		rec, err := ParsePunch(opt, "afsmo.pch", strings.NewReader(in))
		if err != nil || rec.Option() != opt || rec.Len() != 1 {
			t.Errorf("option %v: got %v, %v", opt, rec, err)
		}
	}
}

func TestParsePunch_Errors(t *testing.T) {
	if _, err := ParsePunch(params.PunchSlope, "afsmo.pch", strings.NewReader("0 0 0 0\n")); !errors.Is(err, ErrResultParse) {
		t.Errorf("wrong width: want ErrResultParse, got %v", err)
	}
	corrupt := " UPPER SURFACE\n 0.0 0.0 1.0\n 0.5x 0.06 1.0\n 1.0 0.0 1.0\n"
	_, err := ParsePunch(params.PunchXYWeight, "afsmo.pch", strings.NewReader(corrupt))
	var perr *ResultParseError
	if !errors.As(err, &perr) || perr.Token != "0.5x" || perr.Line != 3 {
		t.Errorf("corrupt row: want parse error on 0.5x at line 3, got %v", err)
	}
	for name, in := range map[string]string{"empty": "", "headers only": " UPPER SURFACE\n LOWER SURFACE\n"} {
		if _, err := ParsePunch(params.PunchXYWeight, "afsmo.pch", strings.NewReader(in)); !errors.Is(err, ErrResultParse) {
			t.Errorf("%s: want ErrResultParse, got %v", name, err)
		}
	}
	if _, err := ParsePunch(9, "afsmo.pch", strings.NewReader("")); !errors.Is(err, params.ErrInvalidOption) {
		t.Errorf("bad option: want ErrInvalidOption, got %v", err)
	}
	rec, err := ParsePunch(params.PunchNone, "afsmo.pch", nil)
	if rec != nil || err != nil {
		t.Errorf("none: got %v, %v", rec, err)
	}
}

func TestReadResult_PunchNoneNeverOpened(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0660); err != nil {
			t.Fatal(err)
		}
		return p
	}
	art := &Artifacts{
		Dir:     dir,
		Log:     write(params.ArtifactLog, " ITERATIONS =   3\n"),
		Summary: write(params.ArtifactSummary, summaryFixture),
		// A punch path that does not exist fails the read if it is ever opened.
		Punch: filepath.Join(dir, "missing.pch"),
	}
	res, err := ReadResult(params.DefaultSmoothingOptions, art)
	if err != nil {
		t.Fatal(err)
	}
	if res.Punch != nil || res.Coordinates != nil || len(res.Summary.Rows) != 3 {
		t.Errorf("got %+v", res)
	}

	opts := params.DefaultSmoothingOptions
	opts.Punch = params.PunchXYWeight
	if _, err := ReadResult(opts, art); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("punch 1: want not-exist error, got %v", err)
	}
}
