package params

import (
	"github.com/ethereum/go-ethereum/metrics"
	"os"
	"path/filepath"
	"time"
)

func init() {
	metrics.Enabled = true
}

const (
	// RunsDir holds one working directory per pipeline run under the data root.
	RunsDir        = "runs"
	LedgerDBName   = "ledger.db"
	ConfigName     = ".afsmo"
	EnvPrefix      = "AFSMO"
	InputFileExt   = ".in"
	SmoothedSuffix = "_sm"
	DatFileExt     = ".dat"
	PlotFileExt    = ".png"
)

// Engine artifact names. The engine writes these into its working directory
// regardless of the input file name.
const (
	ArtifactLog         = "afsmo.out"
	ArtifactPunch       = "afsmo.pch"
	ArtifactCoordinates = "afsmo.dat"
	ArtifactSummary     = "afsmo.smr"
)

// Artifacts lists every file the engine may leave behind in its working directory.
var Artifacts = []string{ArtifactLog, ArtifactPunch, ArtifactCoordinates, ArtifactSummary}

// SummaryHeaderLines is the number of title lines preceding the summary table.
const SummaryHeaderLines = 5

var DatadirRoot = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "afsmo")
	}
	return filepath.Join(home, ".afsmo")
}()

var DefaultEngineTimeout = 2 * time.Minute

var DefaultWorkersN = 4

var DefaultCacheSize = 256
