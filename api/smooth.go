package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/rotblauer/afsmo/catdb/cache"
	"github.com/rotblauer/afsmo/catdb/flat"
	"github.com/rotblauer/afsmo/conceptual"
	"github.com/rotblauer/afsmo/datfile"
	"github.com/rotblauer/afsmo/engine"
	"github.com/rotblauer/afsmo/events"
	"github.com/rotblauer/afsmo/geo/chord"
	"github.com/rotblauer/afsmo/geo/cosine"
	"github.com/rotblauer/afsmo/names"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/plot"
	"github.com/rotblauer/afsmo/state"
	"github.com/rotblauer/afsmo/types/airfoil"
	"log/slog"
	"os"
	"time"
)

// Pipeline runs the smoothing stages for one input file at a time.
// Concurrent Smooth calls are safe as long as they smooth different requests.
type Pipeline struct {
	Config  params.Config
	Invoker engine.Invoker

	// Ledger and Cache are optional.
	Ledger *state.Ledger
	Cache  *cache.Outputs[*Output]

	logger *slog.Logger
}

func NewPipeline(config params.Config, inv engine.Invoker) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if inv == nil {
		inv = engine.NewProcess(config.Engine)
	}
	return &Pipeline{
		Config:  config,
		Invoker: inv,
		logger:  slog.With("pipeline", "smooth"),
	}, nil
}

// Smooth runs the whole pipeline on input with cfg.
// A nil inv runs the engine named by cfg as a child process.
func Smooth(ctx context.Context, cfg params.Config, input string, inv engine.Invoker) (*Output, error) {
	p, err := NewPipeline(cfg, inv)
	if err != nil {
		return nil, err
	}
	return p.Smooth(ctx, input)
}

// runKey is everything that determines a run's output.
type runKey struct {
	Request       *engine.Request
	Command       string
	Geometry      params.GeometryConfig
	Interpolation params.InterpolationConfig
}

// Smooth parses input, normalizes it, has the engine smooth it, assembles the
// result, and writes it next to input. Stages run strictly in order and the
// first error stops the run.
func (p *Pipeline) Smooth(ctx context.Context, input string) (*Output, error) {
	started := time.Now()
	out, err := p.smooth(ctx, input)
	if err != nil {
		p.logger.Error("Smoothing failed", "input", input, "error", err)
		return nil, fmt.Errorf("smooth %s: %w", input, err)
	}
	out.Elapsed = time.Since(started)
	p.logger.Info("Smoothed airfoil", "input", input, "output", out.Path,
		"points", out.Airfoil.Len(), "iterations", out.Iterations,
		"unconverged", out.Unconverged, "cached", out.Cached,
		"elapsed", out.Elapsed.Round(time.Millisecond))
	return out, nil
}

func (p *Pipeline) smooth(ctx context.Context, input string) (*Output, error) {
	config := p.Config

	raw, err := datfile.ReadFile(input)
	if err != nil {
		return nil, err
	}
	var warnings []string
	if crossed, at := datfile.SurfacesCross(raw); crossed {
		w := fmt.Sprintf("upper and lower surfaces cross near (%.6f, %.6f)", at[0], at[1])
		p.logger.Warn("Suspicious input", "input", input, "warning", w)
		warnings = append(warnings, w)
	}

	submitted, transform, err := chord.Normalize(raw, config.Geometry.Derotate, config.Geometry.Normalize)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Normalized", "input", input, "points", submitted.Len(),
		"chord", transform.Length, "theta.deg", transform.ThetaDegrees())

	xs := cosine.Abscissas(config.EngineAbscissas(), Span(submitted))
	req, err := engine.NewRequest(input, submitted, config.Options, transform.ChordLength(), xs, config.EngineInterpolates())
	if err != nil {
		return nil, err
	}

	id, err := cache.RunID(&runKey{
		Request:       req,
		Command:       config.Engine.Command,
		Geometry:      config.Geometry,
		Interpolation: config.Interpolation,
	})
	if err != nil {
		return nil, err
	}
	if out, ok := p.reuse(id, input); ok {
		return out, nil
	}

	dir := flat.NewFlatWithRoot(config.Engine.WorkDir).ForRun(names.RunDirName(input, id))
	art, err := p.Invoker.Invoke(ctx, dir.Path(), req)
	if err != nil {
		return nil, err
	}
	res, err := engine.ReadResult(config.Options, art)
	if err != nil {
		return nil, err
	}
	out, err := Assemble(submitted, req, res, transform, config)
	if err != nil {
		return nil, err
	}
	out.ID = id
	out.Input = input
	out.Warnings = append(warnings, out.Warnings...)
	if out.Unconverged {
		p.logger.Warn("Engine did not converge", "input", input, "iterations", out.Iterations)
	}

	out.Path = names.SmoothedPath(input)
	if err := datfile.WriteFile(out.Path, out.Airfoil); err != nil {
		return nil, err
	}

	if config.Engine.ArchiveLogs {
		if _, err := dir.Archive(params.ArtifactLog); err != nil {
			return nil, fmt.Errorf("archive engine log: %w", err)
		}
	}

	if config.Plot.Enabled {
		original := raw
		if config.Geometry.ScaledOutput {
			original = submitted
		}
		out.PlotPath = names.PlotPath(input)
		if err := plot.Comparison(out.PlotPath, original, out.Airfoil, config.Plot.RealAspect); err != nil {
			return nil, err
		}
	}

	rec := record(out, art)
	if p.Ledger != nil && config.Ledger.Enabled {
		if err := p.Ledger.Put(rec); err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
	}
	events.SmoothedFeed.Send(rec)
	if p.Cache != nil {
		p.Cache.Add(id, out)
	}
	return out, nil
}

// reuse returns an earlier output of the identical run, from the cache or,
// when the ledger allows it, from the ledger.
func (p *Pipeline) reuse(id conceptual.RunID, input string) (*Output, bool) {
	if p.Cache != nil {
		if cached, ok := p.Cache.Get(id); ok {
			cp := *cached
			cp.Cached = true
			return &cp, true
		}
	}
	if p.Ledger == nil || !p.Config.Ledger.Enabled || !p.Config.Ledger.Reuse {
		return nil, false
	}
	r, err := p.Ledger.Get(id)
	if errors.Is(err, state.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		p.logger.Warn("Ledger read failed", "id", id, "error", err)
		return nil, false
	}
	if _, err := os.Stat(r.Output); err != nil {
		return nil, false
	}
	a, err := airfoil.New(r.Title, r.Perimeter, nil, r.LE)
	if err != nil {
		p.logger.Warn("Ledger record unusable", "id", id, "error", err)
		return nil, false
	}
	p.logger.Info("Reusing ledger record", "id", id, "input", input, "created", r.Created)
	return &Output{
		ID:          id,
		Input:       input,
		Path:        r.Output,
		Airfoil:     a,
		Iterations:  r.Iterations,
		Unconverged: r.Unconverged,
		Warnings:    r.Warnings,
		Cached:      true,
	}, true
}

func record(out *Output, art *engine.Artifacts) *state.Record {
	return &state.Record{
		ID:          out.ID,
		Input:       out.Input,
		Output:      out.Path,
		Dir:         art.Dir,
		Title:       out.Airfoil.Title,
		Perimeter:   out.Airfoil.Perimeter,
		LE:          out.Airfoil.LE,
		Iterations:  out.Iterations,
		Unconverged: out.Unconverged,
		Warnings:    out.Warnings,
		Elapsed:     art.Elapsed,
		Created:     time.Now(),
	}
}
