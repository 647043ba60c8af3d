package params

import (
	"fmt"
	"os"
)

// EngineCommand is the smoothing engine executable.
var EngineCommand = "afsmo"

// InputFormat selects the per-point layout of the engine input file.
type InputFormat int

const (
	InputXY          InputFormat = iota // x, y
	InputXYWeight                       // x, y, weight
	InputThetaWeight                    // theta, y/c, weight
	InputXYSlope                        // x, y, dy/dx
)

func (f InputFormat) Valid() bool {
	return f >= InputXY && f <= InputXYSlope
}

func (f InputFormat) String() string {
	switch f {
	case InputXY:
		return "x,y"
	case InputXYWeight:
		return "x,y,w"
	case InputThetaWeight:
		return "theta,y/c,w"
	case InputXYSlope:
		return "x,y,dy/dx"
	}
	return fmt.Sprintf("InputFormat(%d)", int(f))
}

// PunchOption selects which derived quantities the engine writes to the punch artifact.
type PunchOption int

const (
	PunchNone            PunchOption = iota // no punch output
	PunchXYWeight                           // x, y, weight
	PunchThetaWeight                        // theta, y/c, weight
	PunchSlope                              // x, y, dy/dx
	PunchCurvature                          // x, y, dy/dx, d2y/dx2
	PunchThetaSlope                         // theta, y/c, dy/dtheta, d2y/dtheta2
	PunchThicknessCamber                    // x, t/c, camber/c
)

func (p PunchOption) Valid() bool {
	return p >= PunchNone && p <= PunchThicknessCamber
}

func (p PunchOption) String() string {
	switch p {
	case PunchNone:
		return "none"
	case PunchXYWeight:
		return "x,y,w"
	case PunchThetaWeight:
		return "theta,y/c,w"
	case PunchSlope:
		return "x,y,dy/dx"
	case PunchCurvature:
		return "x,y,dy/dx,d2y/dx2"
	case PunchThetaSlope:
		return "theta,y/c,dy/dtheta,d2y/dtheta2"
	case PunchThicknessCamber:
		return "x,t/c,camber"
	}
	return fmt.Sprintf("PunchOption(%d)", int(p))
}

const (
	// OutputInterpolated is the last header field. The engine then writes both the
	// summary and the interpolated coordinates.
	OutputInterpolated = 2

	// MaxSurfaceInterpPts bounds the interpolation abscissa count.
	MaxSurfaceInterpPts = 100
)

type CLIFlagsT []string

// EngineArgs are passed to EngineCommand. Placeholders are expanded per run.
var EngineArgs = CLIFlagsT{"${INPUT_FILE}"}

func (c CLIFlagsT) Add(flag ...string) CLIFlagsT {
	return append(c.Copy(), flag...)
}

// Expand returns a copy with ${NAME} placeholders replaced from vars.
// Unknown placeholders expand to the empty string.
func (c CLIFlagsT) Expand(vars map[string]string) CLIFlagsT {
	out := make(CLIFlagsT, len(c))
	for i, f := range c {
		out[i] = os.Expand(f, func(k string) string {
			return vars[k]
		})
	}
	return out
}

func (c CLIFlagsT) Copy() CLIFlagsT {
	return append(CLIFlagsT{}, c...)
}
