package cmd

import (
	"errors"
	"github.com/rotblauer/afsmo/conceptual"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/state"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func bindTestFlags(t *testing.T, args ...string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSmoothingFlags(flags)
	flags.String("datadir", t.TempDir(), "")
	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}
	if err := viper.BindPFlags(flags); err != nil {
		t.Fatal(err)
	}
}

func TestConfigFromViper_Defaults(t *testing.T) {
	bindTestFlags(t)
	cfg, err := configFromViper()
	if err != nil {
		t.Fatal(err)
	}
	want := params.DefaultConfig()
	if !reflect.DeepEqual(cfg.Options, want.Options) {
		t.Errorf("options %+v, want %+v", cfg.Options, want.Options)
	}
	if !reflect.DeepEqual(cfg.Geometry, want.Geometry) {
		t.Errorf("geometry %+v", cfg.Geometry)
	}
	if cfg.Interpolation.Enabled || cfg.Interpolation.Points != 160 {
		t.Errorf("interpolation %+v", cfg.Interpolation)
	}
	if cfg.Ledger.Enabled || filepath.Base(cfg.Ledger.Path) != params.LedgerDBName {
		t.Errorf("ledger %+v", cfg.Ledger)
	}
	if filepath.Base(cfg.Engine.WorkDir) != params.RunsDir {
		t.Errorf("workdir %s", cfg.Engine.WorkDir)
	}
	if !reflect.DeepEqual([]string(cfg.Engine.Args), []string(params.EngineArgs)) {
		t.Errorf("engine args %v", cfg.Engine.Args)
	}
}

func TestConfigFromViper_Flags(t *testing.T) {
	bindTestFlags(t, "-i", "-n", "120", "-p", "-a", "-s", "--derotate=false",
		"--punch", "6", "--thickness", "0", "--input-format", "2",
		"--engine", "/opt/afsmo", "--engine-arg", "-q", "--engine-arg", "${INPUT_FILE}",
		"--timeout", "30s", "--workdir", "/tmp/afsmo-runs", "--reuse")
	cfg, err := configFromViper()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Interpolation.Enabled || cfg.Interpolation.Points != 120 || cfg.Interpolation.Local {
		t.Errorf("interpolation %+v", cfg.Interpolation)
	}
	if !cfg.Plot.Enabled || !cfg.Plot.RealAspect {
		t.Errorf("plot %+v", cfg.Plot)
	}
	if cfg.Geometry.Derotate || !cfg.Geometry.Normalize || !cfg.Geometry.ScaledOutput {
		t.Errorf("geometry %+v", cfg.Geometry)
	}
	if cfg.Options.Punch != params.PunchThicknessCamber || cfg.Options.ThicknessCamber || cfg.Options.InputFormat != 2 {
		t.Errorf("options %+v", cfg.Options)
	}
	if cfg.Engine.Command != "/opt/afsmo" || cfg.Engine.Timeout != 30*time.Second || cfg.Engine.WorkDir != "/tmp/afsmo-runs" {
		t.Errorf("engine %+v", cfg.Engine)
	}
	if !reflect.DeepEqual([]string(cfg.Engine.Args), []string{"-q", "${INPUT_FILE}"}) {
		t.Errorf("engine args %v", cfg.Engine.Args)
	}
	if !cfg.Ledger.Enabled || !cfg.Ledger.Reuse {
		t.Errorf("reuse implies the ledger: %+v", cfg.Ledger)
	}
}

func TestConfigFromViper_Invalid(t *testing.T) {
	bindTestFlags(t, "--punch", "9")
	if _, err := configFromViper(); !errors.Is(err, params.ErrInvalidOption) {
		t.Fatalf("want ErrInvalidOption, got %v", err)
	}
	bindTestFlags(t, "-i", "-n", "400")
	if _, err := configFromViper(); !errors.Is(err, params.ErrInvalidOption) {
		t.Fatalf("want ErrInvalidOption for too many points, got %v", err)
	}
}

func TestParseJob(t *testing.T) {
	cases := []struct {
		line    string
		want    batchJob
		wantErr bool
	}{
		{line: "airfoils/e387.dat", want: batchJob{File: "airfoils/e387.dat"}},
		{line: `{"file": "e387.dat"}`, want: batchJob{File: "e387.dat"}},
		{line: `{"file": "e387.dat", "interpolate": true, "points": 120}`,
			want: batchJob{File: "e387.dat", SetInterpolate: true, Interpolate: true, Points: 120}},
		{line: `{"file": "e387.dat", "interpolate": false}`,
			want: batchJob{File: "e387.dat", SetInterpolate: true}},
		{line: `{"points": 120}`, wantErr: true},
		{line: `{"file": `, wantErr: true},
	}
	for _, c := range cases {
		got := parseJob([]byte(c.line))
		if (got.err != nil) != c.wantErr {
			t.Errorf("%s: err %v", c.line, got.err)
			continue
		}
		if c.wantErr {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: got %+v, want %+v", c.line, got, c.want)
		}
	}
}

func TestBatchJob_Apply(t *testing.T) {
	base := params.DefaultConfig()
	base.Interpolation.Enabled = true

	cfg := batchJob{File: "a.dat"}.apply(base)
	if !cfg.Interpolation.Enabled || cfg.Interpolation.Points != 160 {
		t.Errorf("unset fields should keep the flags: %+v", cfg.Interpolation)
	}
	cfg = batchJob{File: "a.dat", SetInterpolate: true, Points: 80}.apply(base)
	if cfg.Interpolation.Enabled || cfg.Interpolation.Points != 80 {
		t.Errorf("interpolation %+v", cfg.Interpolation)
	}
	if !base.Interpolation.Enabled {
		t.Error("apply must not modify its argument")
	}
}

func TestBatchJob_Dedupe(t *testing.T) {
	pass := dedupeJobs()
	if !pass(parseJob([]byte("e387.dat"))) {
		t.Fatal("first job should pass")
	}
	if pass(parseJob([]byte(`{"file": "e387.dat"}`))) {
		t.Error("the same job as JSON should be deduplicated")
	}
	// Both would write e387_sm.dat.
	if pass(parseJob([]byte(`{"file": "./e387.dat", "points": 120}`))) {
		t.Error("a second job for the same file should be skipped")
	}
	if !pass(parseJob([]byte("naca0012.dat"))) {
		t.Error("a different file should pass")
	}
	bad := parseJob([]byte(`{"points": 120}`))
	if !pass(bad) || !pass(bad) {
		t.Error("jobs with errors should always pass")
	}
}

func TestFindRecord(t *testing.T) {
	records := []*state.Record{
		{ID: conceptual.RunID("a1b2c3d4e5f60718")},
		{ID: conceptual.RunID("a1b2ffffffffffff")},
	}
	r, err := findRecord(records, "a1b2c")
	if err != nil || r != records[0] {
		t.Errorf("got %v, %v", r, err)
	}
	if _, err := findRecord(records, "a1b2"); err == nil {
		t.Error("ambiguous prefix should fail")
	}
	if _, err := findRecord(records, "ff"); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}
