package engine

import (
	"context"
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/afsmo/catdb/flat"
	"github.com/rotblauer/afsmo/names"
	"github.com/rotblauer/afsmo/params"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// waitDelay bounds how long a killed engine may hold its output pipes open.
const waitDelay = 2 * time.Second

var (
	runTimer      = metrics.NewRegisteredTimer("engine/run", nil)
	failureCount  = metrics.NewRegisteredCounter("engine/failures", nil)
	timeoutCount  = metrics.NewRegisteredCounter("engine/timeouts", nil)
	reportedCount = metrics.NewRegisteredCounter("engine/reported", nil)
)

// Artifacts are the files one engine run left in its working directory.
// Paths are empty for artifacts the run was not asked to produce.
type Artifacts struct {
	Dir         string
	Input       string
	Log         string
	Punch       string
	Coordinates string
	Summary     string

	// Output is the engine's combined stdout and stderr.
	Output  []byte
	Elapsed time.Duration
}

// Invoker runs the engine on one request in dir.
// Concurrent calls must use distinct dirs.
type Invoker interface {
	Invoke(ctx context.Context, dir string, req *Request) (*Artifacts, error)
}

// Process invokes the engine as a child process.
type Process struct {
	Command string
	Args    params.CLIFlagsT
	Timeout time.Duration

	logger *slog.Logger
}

func NewProcess(config params.EngineConfig) *Process {
	command := config.Command
	if command == "" {
		command = params.EngineCommand
	}
	// A relative path with a separator would otherwise resolve against the work dir.
	if strings.ContainsRune(command, filepath.Separator) && !filepath.IsAbs(command) {
		if abs, err := filepath.Abs(command); err == nil {
			command = abs
		}
	}
	args := config.Args
	if len(args) == 0 {
		args = params.EngineArgs
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = params.DefaultEngineTimeout
	}
	return &Process{
		Command: command,
		Args:    args.Copy(),
		Timeout: timeout,
		logger:  slog.With("engine", filepath.Base(command)),
	}
}

// RequiredArtifacts names the artifacts a successful run of req must leave behind.
func RequiredArtifacts(req *Request) []string {
	out := []string{params.ArtifactLog}
	if req.Options.Punch != params.PunchNone {
		out = append(out, params.ArtifactPunch)
	}
	if req.Interpolates() {
		out = append(out, params.ArtifactCoordinates)
	} else {
		out = append(out, params.ArtifactSummary)
	}
	return out
}

// Invoke clears stale artifacts from dir, writes the request as the engine input file,
// and runs the engine there. Any failure is returned before any artifact is read.
func (p *Process) Invoke(ctx context.Context, dir string, req *Request) (*Artifacts, error) {
	f := flat.NewFlatWithRoot(dir)
	if err := f.MkdirAll(); err != nil {
		return nil, err
	}
	if err := f.RemoveNamed(params.Artifacts...); err != nil {
		return nil, fmt.Errorf("clear stale artifacts: %w", err)
	}
	input := names.InputFileName(req.Name)
	if err := f.WriteNamed(input, req.Encode()); err != nil {
		return nil, fmt.Errorf("write engine input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := p.Args.Expand(map[string]string{
		"INPUT_FILE": input,
		"WORK_DIR":   f.Path(),
	})
	cmd := exec.CommandContext(runCtx, p.Command, args...)
	cmd.Dir = f.Path()
	cmd.WaitDelay = waitDelay

	p.logger.Info("Running engine", "dir", f.Path(), "input", input,
		"points", req.Points(), "interpolate", req.Interpolates(), "timeout", p.Timeout)
	start := time.Now()
	out, err := cmd.CombinedOutput()
	runTimer.UpdateSince(start)
	elapsed := time.Since(start)
	if out != nil {
		// Log output line by line
		for _, line := range strings.Split(string(out), "\n") {
			if line == "" {
				continue
			}
			p.logger.Debug("+ "+line, "cmd", cmd.String())
		}
	}

	if err != nil || runCtx.Err() != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			failureCount.Inc(1)
			return nil, fmt.Errorf("engine run canceled: %w", ctx.Err())
		}
		failure := &ExternalEngineFailure{Dir: f.Path(), Detail: lastLine(out), Err: err}
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			timeoutCount.Inc(1)
			failure.Reason = ReasonTimeout
			failure.Detail = fmt.Sprintf("no exit after %v", p.Timeout)
			if ctx.Err() != nil {
				failure.Detail = fmt.Sprintf("caller deadline passed after %v", elapsed.Round(time.Millisecond))
			}
		case cmd.ProcessState == nil:
			failure.Reason = ReasonStart
		default:
			failure.Reason = ReasonExit
			failure.ExitCode = cmd.ProcessState.ExitCode()
		}
		failureCount.Inc(1)
		p.logger.Error("Engine failed", "dir", f.Path(), "reason", failure.Reason, "error", err)
		return nil, failure
	}

	for _, name := range RequiredArtifacts(req) {
		if !f.Has(name) {
			failureCount.Inc(1)
			p.logger.Error("Engine artifact missing", "dir", f.Path(), "artifact", name)
			return nil, &ExternalEngineFailure{
				Reason: ReasonMissingArtifact,
				Dir:    f.Path(),
				File:   name,
				Detail: lastLine(out),
			}
		}
	}

	art := &Artifacts{
		Dir:     f.Path(),
		Input:   f.Named(input),
		Log:     f.Named(params.ArtifactLog),
		Output:  out,
		Elapsed: elapsed,
	}
	if req.Options.Punch != params.PunchNone {
		art.Punch = f.Named(params.ArtifactPunch)
	}
	if req.Interpolates() {
		art.Coordinates = f.Named(params.ArtifactCoordinates)
	} else {
		art.Summary = f.Named(params.ArtifactSummary)
	}
	p.logger.Info("Engine finished", "dir", f.Path(),
		"elapsed", elapsed.Round(time.Millisecond),
		"log", humanize.Bytes(uint64(f.Size(params.ArtifactLog))))
	return art, nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
