package params

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Config is constructed once per run and passed by value through every stage.
// Nothing downstream of the command layer mutates it.
type Config struct {
	Engine        EngineConfig
	Options       SmoothingOptions
	Geometry      GeometryConfig
	Interpolation InterpolationConfig
	Plot          PlotConfig
	Ledger        LedgerConfig
}

type EngineConfig struct {
	Command string
	Args    CLIFlagsT
	Timeout time.Duration

	// WorkDir is where the engine input and artifacts live.
	// Concurrent runs must not share a WorkDir.
	WorkDir string

	// ArchiveLogs keeps a gzipped copy of each engine log under the run directory.
	ArchiveLogs bool
}

// SmoothingOptions are the numeric controls written to the engine input header.
type SmoothingOptions struct {
	MaxIterations int
	// ConvergenceExponent is the engine's convergence criterion as a power of ten.
	ConvergenceExponent int
	InputFormat         InputFormat
	Punch               PunchOption
	CheckCoordinates    bool
	TranslateRotate     bool
	ThicknessCamber     bool
}

type GeometryConfig struct {
	Derotate  bool
	Normalize bool

	// ScaledOutput writes the final coordinates in the chord frame
	// instead of mapping them back to the input frame.
	ScaledOutput bool
}

type InterpolationConfig struct {
	Enabled bool

	// Points is the total number of points in the final perimeter.
	Points int

	// Local resamples the smoothed coordinates in-process instead of asking the engine to.
	Local bool

	// RangeTolerance is how far, in chord units, a requested abscissa may fall
	// outside a surface's sampled domain before it is an error.
	RangeTolerance float64
}

type PlotConfig struct {
	Enabled    bool
	RealAspect bool
}

type LedgerConfig struct {
	Enabled bool
	Path    string

	// Reuse returns a previously recorded output for an identical request without running the engine.
	Reuse bool
}

var DefaultSmoothingOptions = SmoothingOptions{
	MaxIterations:       80,
	ConvergenceExponent: 10,
	InputFormat:         InputXYWeight,
	Punch:               PunchNone,
	CheckCoordinates:    true,
	TranslateRotate:     true,
	ThicknessCamber:     true,
}

func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Command: EngineCommand,
			Args:    EngineArgs.Copy(),
			Timeout: DefaultEngineTimeout,
			WorkDir: filepath.Join(DatadirRoot, RunsDir),
		},
		Options: DefaultSmoothingOptions,
		Geometry: GeometryConfig{
			Derotate:  true,
			Normalize: true,
		},
		Interpolation: InterpolationConfig{
			Points:         160,
			RangeTolerance: 1e-3,
		},
		Ledger: LedgerConfig{
			Path: filepath.Join(DatadirRoot, LedgerDBName),
		},
	}
}

var ErrInvalidOption = errors.New("invalid option")

func invalid(name string, value any, why string) error {
	return fmt.Errorf("%w: %s=%v: %s", ErrInvalidOption, name, value, why)
}

// Validate reports the first out-of-range option.
func (c Config) Validate() error {
	if err := c.Options.Validate(); err != nil {
		return err
	}
	if c.Engine.Command == "" {
		return invalid("engine", c.Engine.Command, "empty command")
	}
	if c.Engine.Timeout <= 0 {
		return invalid("timeout", c.Engine.Timeout, "must be positive")
	}
	if c.Engine.WorkDir == "" {
		return invalid("workdir", c.Engine.WorkDir, "empty")
	}
	// The abscissa count reaches the engine input even without interpolation.
	if c.Interpolation.Points < 3 {
		return invalid("n-inter", c.Interpolation.Points, "need at least 3 points")
	}
	if n := c.EngineAbscissas(); n > MaxSurfaceInterpPts {
		return invalid("n-inter", c.Interpolation.Points,
			fmt.Sprintf("at most %d points per surface", MaxSurfaceInterpPts))
	}
	if c.Interpolation.Enabled && c.Interpolation.RangeTolerance < 0 {
		return invalid("range-tolerance", c.Interpolation.RangeTolerance, "must not be negative")
	}
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return invalid("ledger", c.Ledger.Path, "empty path")
	}
	return nil
}

func (o SmoothingOptions) Validate() error {
	if o.MaxIterations < 1 {
		return invalid("max-iterations", o.MaxIterations, "must be positive")
	}
	if o.ConvergenceExponent < 0 {
		return invalid("convergence", o.ConvergenceExponent, "must not be negative")
	}
	if !o.InputFormat.Valid() {
		return invalid("input-format", int(o.InputFormat), "want 0-3")
	}
	if !o.Punch.Valid() {
		return invalid("punch", int(o.Punch), "want 0-6")
	}
	return nil
}

// SurfaceCounts splits the total interpolation point count between the two surfaces
// so that the merged perimeter, which shares the leading edge, has exactly Points points.
func (c Config) SurfaceCounts() (upper, lower int) {
	n := c.Interpolation.Points
	upper = n/2 + 1
	lower = n + 1 - upper
	return upper, lower
}

// EngineAbscissas is the length of the abscissa list in the engine input, which both
// surfaces share. It is the upper surface count, so with an even Points the engine's
// lower surface has one point more than the final perimeter keeps.
func (c Config) EngineAbscissas() int {
	upper, _ := c.SurfaceCounts()
	return upper
}

// EngineInterpolates reports whether the engine, rather than this process, builds the
// cosine-spaced output.
func (c Config) EngineInterpolates() bool {
	return c.Interpolation.Enabled && !c.Interpolation.Local
}

// WithWorkDir returns a copy of c using dir as the engine working directory.
func (c Config) WithWorkDir(dir string) Config {
	c.Engine.WorkDir = dir
	c.Engine.Args = c.Engine.Args.Copy()
	return c
}
