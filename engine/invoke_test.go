package engine

import (
	"context"
	"errors"
	"github.com/rotblauer/afsmo/params"
	afsmotesting "github.com/rotblauer/afsmo/testing"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fakeProcess(t *testing.T, mode string, timeout time.Duration) *Process {
	t.Helper()
	bin, err := afsmotesting.WriteFakeEngine(t.TempDir())
	if errors.Is(err, afsmotesting.ErrNoShell) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(afsmotesting.FakeEngineModeEnv, mode)
	return NewProcess(params.EngineConfig{Command: bin, Timeout: timeout})
}

func wantFailure(t *testing.T, err error, reason FailureReason) *ExternalEngineFailure {
	t.Helper()
	var failure *ExternalEngineFailure
	if !errors.As(err, &failure) {
		t.Fatalf("want *ExternalEngineFailure, got %T: %v", err, err)
	}
	if failure.Reason != reason {
		t.Fatalf("want reason %q, got %q: %v", reason, failure.Reason, err)
	}
	return failure
}

func TestProcess_Invoke_Summary(t *testing.T) {
	p := fakeProcess(t, "ok", 10*time.Second)
	req, err := NewRequest("diamond.dat", diamond(t), params.DefaultSmoothingOptions, 1, threeX, false)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	// Left over from an earlier run that asked for punch output.
	stale := filepath.Join(dir, params.ArtifactPunch)
	if err := os.WriteFile(stale, []byte(" UPPER SURFACE\n 0 0 1\n"), 0660); err != nil {
		t.Fatal(err)
	}

	art, err := p.Invoke(context.Background(), dir, req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale punch artifact should be removed")
	}
	if art.Coordinates != "" || art.Punch != "" || art.Summary == "" {
		t.Errorf("artifacts %+v", art)
	}
	if filepath.Base(art.Input) != "diamond.in" {
		t.Errorf("input file %s", art.Input)
	}

	res, err := ReadResult(req.Options, art)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Log.Converged || res.Log.Iterations != 3 {
		t.Errorf("log %+v", res.Log)
	}
	if len(res.Summary.Rows) != req.Points() {
		t.Fatalf("want %d summary rows, got %d", req.Points(), len(res.Summary.Rows))
	}
	if r := res.Summary.Rows[1]; r.X != 0.5 || r.Y != 0.1 || r.Smoothed != 0.1 {
		t.Errorf("row 2 %+v", r)
	}
	if r := res.Summary.Rows[4]; r.Surface != 2 || r.Y != -0.1 {
		t.Errorf("row 5 %+v", r)
	}
}

func TestProcess_Invoke_Interpolated(t *testing.T) {
	p := fakeProcess(t, "ok", 10*time.Second)
	opts := params.DefaultSmoothingOptions
	opts.Punch = params.PunchThicknessCamber
	req, err := NewRequest("diamond.dat", diamond(t), opts, 1, []float64{0, 0.25, 0.5, 1}, true)
	if err != nil {
		t.Fatal(err)
	}
	art, err := p.Invoke(context.Background(), t.TempDir(), req)
	if err != nil {
		t.Fatal(err)
	}
	res, err := ReadResult(opts, art)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary != nil || len(res.Coordinates.Rows) != 8 {
		t.Fatalf("result %+v", res)
	}
	if r := res.Coordinates.Rows[1]; r.X != 0.25 || r.Y != 0.05 {
		t.Errorf("upper 0.25: got %+v", r)
	}
	if r := res.Coordinates.Rows[5]; r.X != 0.25 || r.Y != -0.05 {
		t.Errorf("lower 0.25: got %+v", r)
	}
	tc, ok := res.Punch.(*Punched[ThicknessCamber])
	if !ok {
		t.Fatalf("punch %T", res.Punch)
	}
	mid, ok := tc.Section("thickness")
	if !ok || len(mid.Rows) != 3 || mid.Rows[1].Thickness != 0.2 {
		t.Errorf("thickness section %+v", mid)
	}
}

func TestProcess_Invoke_Failures(t *testing.T) {
	req, err := NewRequest("diamond.dat", diamond(t), params.DefaultSmoothingOptions, 1, threeX, false)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("exit", func(t *testing.T) {
		p := fakeProcess(t, "exit", 10*time.Second)
		_, err := p.Invoke(context.Background(), t.TempDir(), req)
		if f := wantFailure(t, err, ReasonExit); f.ExitCode != 3 {
			t.Errorf("exit code %d", f.ExitCode)
		}
	})
	t.Run("missing log", func(t *testing.T) {
		p := fakeProcess(t, "nolog", 10*time.Second)
		_, err := p.Invoke(context.Background(), t.TempDir(), req)
		if f := wantFailure(t, err, ReasonMissingArtifact); f.File != params.ArtifactLog {
			t.Errorf("missing %s", f.File)
		}
	})
	t.Run("timeout", func(t *testing.T) {
		p := fakeProcess(t, "hang", 300*time.Millisecond)
		start := time.Now()
		_, err := p.Invoke(context.Background(), t.TempDir(), req)
		wantFailure(t, err, ReasonTimeout)
		if time.Since(start) > 10*time.Second {
			t.Errorf("timeout took %v", time.Since(start))
		}
	})
	t.Run("reported", func(t *testing.T) {
		p := fakeProcess(t, "badcoord", 10*time.Second)
		art, err := p.Invoke(context.Background(), t.TempDir(), req)
		if err != nil {
			t.Fatal(err)
		}
		_, err = ReadResult(req.Options, art)
		wantFailure(t, err, ReasonReported)
	})
	t.Run("no such command", func(t *testing.T) {
		p := NewProcess(params.EngineConfig{Command: filepath.Join(t.TempDir(), "nope"), Timeout: time.Second})
		_, err := p.Invoke(context.Background(), t.TempDir(), req)
		wantFailure(t, err, ReasonStart)
	})
	t.Run("caller deadline", func(t *testing.T) {
		p := fakeProcess(t, "hang", 10*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		_, err := p.Invoke(ctx, t.TempDir(), req)
		wantFailure(t, err, ReasonTimeout)
		if !errors.Is(err, ErrEngineFailure) {
			t.Errorf("want ErrEngineFailure, got %v", err)
		}
	})
	t.Run("canceled", func(t *testing.T) {
		p := fakeProcess(t, "hang", 10*time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Invoke(ctx, t.TempDir(), req)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("want context.Canceled, got %v", err)
		}
	})
}

func TestRequiredArtifacts(t *testing.T) {
	opts := params.DefaultSmoothingOptions
	opts.Punch = params.PunchSlope
	req, err := NewRequest("d", diamond(t), opts, 1, []float64{0, 1}, true)
	if err != nil {
		t.Fatal(err)
	}
	got := RequiredArtifacts(req)
	want := []string{params.ArtifactLog, params.ArtifactPunch, params.ArtifactCoordinates}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
