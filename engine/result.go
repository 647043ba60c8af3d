package engine

import (
	"bufio"
	"fmt"
	"github.com/rotblauer/afsmo/params"
	"io"
	"os"
	"strconv"
	"strings"
)

// Log markers. The engine writes them in upper case.
var failureMarkers = []string{"BAD COORDINATE", "*** ERROR", "ABNORMAL TERMINATION"}

const (
	unconvergedMarker = "NOT CONVERGED"
	iterationsMarker  = "ITERATIONS ="
)

// Result is everything read back from one successful engine run.
type Result struct {
	Log LogStatus

	// Punch is nil when no punch output was requested.
	Punch PunchRecords

	// Exactly one of Coordinates and Summary is set.
	Coordinates *Coordinates
	Summary     *Summary
}

// LogStatus is what the engine log says about a run.
type LogStatus struct {
	File       string
	Iterations int
	Converged  bool
	Warnings   []string
}

// ParseLog scans the engine log. A failure marker anywhere in the log is returned
// as an *ExternalEngineFailure with ReasonReported; non-convergence is only a warning.
func ParseLog(path string, r io.Reader) (LogStatus, error) {
	status := LogStatus{File: path, Converged: true}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		upper := strings.ToUpper(text)
		for _, marker := range failureMarkers {
			if strings.Contains(upper, marker) {
				return status, &ExternalEngineFailure{
					Reason: ReasonReported,
					File:   path,
					Line:   line,
					Detail: text,
				}
			}
		}
		if strings.Contains(upper, unconvergedMarker) {
			status.Converged = false
			status.Warnings = append(status.Warnings, fmt.Sprintf("line %d: %s", line, text))
		}
		if i := strings.Index(upper, iterationsMarker); i >= 0 {
			fields := strings.Fields(text[i+len(iterationsMarker):])
			if len(fields) == 0 {
				return status, &ResultParseError{File: path, Line: line, Reason: "iteration count missing"}
			}
			n, err := strconv.Atoi(strings.TrimSuffix(fields[0], "."))
			if err != nil {
				return status, &ResultParseError{File: path, Line: line, Token: fields[0], Reason: "iteration count not an integer"}
			}
			status.Iterations = n
		}
	}
	if err := scanner.Err(); err != nil {
		return status, err
	}
	return status, nil
}

// CoordinateRow is one smoothed point from the coordinates artifact.
// Slope and Curvature are zero unless HasDerivatives.
type CoordinateRow struct {
	Line           int
	X, Y           float64
	Slope          float64
	Curvature      float64
	HasDerivatives bool
}

// Coordinates is the engine's smoothed, interpolated coordinate table,
// upper surface rows first, then lower, each leading edge to trailing edge.
type Coordinates struct {
	File string
	Rows []CoordinateRow
}

// ParseCoordinates reads rows of x y, or x y dy/dx d2y/dx2. Every row has the width of the first.
func ParseCoordinates(path string, r io.Reader) (*Coordinates, error) {
	out := &Coordinates{File: path}
	width := 0
	err := scanRows(path, r, 0, func(line int, tokens []string) error {
		if width == 0 {
			width = len(tokens)
			if width != 2 && width != 4 {
				return widthError(path, line, tokens, 2, fmt.Sprintf("want 2 or 4 fields, got %d", width))
			}
		}
		if len(tokens) != width {
			return widthError(path, line, tokens, width, fmt.Sprintf("want %d fields, got %d", width, len(tokens)))
		}
		v, err := parseFields(path, line, tokens)
		if err != nil {
			return err
		}
		row := CoordinateRow{Line: line, X: v[0], Y: v[1]}
		if width == 4 {
			row.Slope, row.Curvature, row.HasDerivatives = v[2], v[3], true
		}
		out.Rows = append(out.Rows, row)
		return nil
	})
	return out, err
}

// SummaryRow is one input point as the engine reports it after smoothing.
type SummaryRow struct {
	Line     int
	Index    int
	Surface  int
	X        float64
	Y        float64
	Weight   float64
	Smoothed float64
}

// Residual is the absolute change the engine made to the ordinate.
func (r SummaryRow) Residual() float64 {
	d := r.Y - r.Smoothed
	if d < 0 {
		return -d
	}
	return d
}

// Summary is the per-input-point table of the summary artifact, in submission order.
type Summary struct {
	File string
	Rows []SummaryRow
}

// ParseSummary skips the summary header and reads rows of at least six fields:
// index, surface, x, y, weight, smoothed y. Further columns are ignored.
func ParseSummary(path string, r io.Reader) (*Summary, error) {
	out := &Summary{File: path}
	err := scanRows(path, r, params.SummaryHeaderLines, func(line int, tokens []string) error {
		if len(tokens) < 6 {
			return widthError(path, line, tokens, 6, fmt.Sprintf("want at least 6 fields, got %d", len(tokens)))
		}
		v, err := parseFields(path, line, tokens[:6])
		if err != nil {
			return err
		}
		out.Rows = append(out.Rows, SummaryRow{
			Line:     line,
			Index:    int(v[0]),
			Surface:  int(v[1]),
			X:        v[2],
			Y:        v[3],
			Weight:   v[4],
			Smoothed: v[5],
		})
		return nil
	})
	return out, err
}

// ReadResult parses the artifacts of a successful run. Only the artifacts the run
// produced are opened; no punch option means the punch artifact is never read.
func ReadResult(opts params.SmoothingOptions, art *Artifacts) (*Result, error) {
	res := &Result{}
	err := parseFile(art.Log, func(r io.Reader) (err error) {
		res.Log, err = ParseLog(art.Log, r)
		return err
	})
	if err != nil {
		if _, ok := err.(*ExternalEngineFailure); ok {
			reportedCount.Inc(1)
		}
		return nil, err
	}
	if opts.Punch != params.PunchNone {
		err := parseFile(art.Punch, func(r io.Reader) (err error) {
			res.Punch, err = ParsePunch(opts.Punch, art.Punch, r)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	switch {
	case art.Coordinates != "":
		err = parseFile(art.Coordinates, func(r io.Reader) (err error) {
			res.Coordinates, err = ParseCoordinates(art.Coordinates, r)
			return err
		})
	case art.Summary != "":
		err = parseFile(art.Summary, func(r io.Reader) (err error) {
			res.Summary, err = ParseSummary(art.Summary, r)
			return err
		})
	default:
		err = &ResultParseError{File: art.Dir, Reason: "no coordinate or summary artifact"}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func parseFile(path string, fn func(r io.Reader) error) error {
	if path == "" {
		return &ResultParseError{Reason: "artifact path is empty"}
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// scanRows calls fn with the fields of every non-blank line after the first skip lines.
func scanRows(path string, r io.Reader, skip int, fn func(line int, tokens []string) error) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if line <= skip {
			continue
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if err := fn(line, tokens); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if line < skip {
		return &ResultParseError{File: path, Line: line, Reason: fmt.Sprintf("truncated: want %d header lines", skip)}
	}
	return nil
}

// widthError names the first surplus token of a long row, or the last token of a short one.
func widthError(path string, line int, tokens []string, want int, reason string) *ResultParseError {
	tok := tokens[len(tokens)-1]
	if len(tokens) > want {
		tok = tokens[want]
	}
	return &ResultParseError{File: path, Line: line, Token: tok, Reason: reason}
}

func parseFields(path string, line int, tokens []string) ([]float64, error) {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, ok := parseNumber(tok)
		if !ok {
			return nil, &ResultParseError{File: path, Line: line, Token: tok, Reason: fmt.Sprintf("field %d is not a number", i+1)}
		}
		out[i] = v
	}
	return out, nil
}

// parseNumber also accepts Fortran D exponents.
func parseNumber(tok string) (float64, bool) {
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return v, true
	}
	if strings.ContainsAny(tok, "Dd") {
		if v, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(tok), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
