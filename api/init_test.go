package api

import (
	"errors"
	"github.com/rotblauer/afsmo/datfile"
	"github.com/rotblauer/afsmo/engine"
	"github.com/rotblauer/afsmo/params"
	afsmotesting "github.com/rotblauer/afsmo/testing"
	"github.com/rotblauer/afsmo/testing/testdata"
	"github.com/rotblauer/afsmo/types/airfoil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// copyFixture copies a testdata file into a fresh directory so outputs written
// next to it stay out of the source tree.
func copyFixture(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filepath.Base(rel))
	if err := os.WriteFile(path, testdata.MustRead(rel), 0660); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeDiamond(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diamond.dat")
	if err := os.WriteFile(path, []byte(testdata.Diamond), 0660); err != nil {
		t.Fatal(err)
	}
	return path
}

func diamond(t *testing.T) *airfoil.Airfoil {
	t.Helper()
	a, err := datfile.Parse("diamond.dat", strings.NewReader(testdata.Diamond))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// testConfig returns the default config running the fake engine in mode,
// with every run directory under a temporary root.
func testConfig(t *testing.T, mode string) params.Config {
	t.Helper()
	bin, err := afsmotesting.WriteFakeEngine(t.TempDir())
	if errors.Is(err, afsmotesting.ErrNoShell) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(afsmotesting.FakeEngineModeEnv, mode)
	cfg := params.DefaultConfig().WithWorkDir(filepath.Join(t.TempDir(), params.RunsDir))
	cfg.Engine.Command = bin
	cfg.Engine.Timeout = 10 * time.Second
	cfg.Ledger.Path = filepath.Join(t.TempDir(), params.LedgerDBName)
	return cfg
}

// countingInvoker counts calls through to another invoker.
type countingInvoker struct {
	engine.Invoker
	calls int
}
