package engine

import (
	"fmt"
	"github.com/rotblauer/afsmo/params"
	"io"
	"strings"
)

// PunchRecords is the parsed punch artifact. The concrete type is one of
// *Punched[XYWeight], *Punched[ThetaWeight], *Punched[Slope], *Punched[Curvature],
// *Punched[ThetaSlope] or *Punched[ThicknessCamber], matching Option.
type PunchRecords interface {
	Option() params.PunchOption
	File() string
	Len() int
}

type XYWeight struct{ X, Y, Weight float64 }

type ThetaWeight struct{ Theta, Y, Weight float64 }

type Slope struct{ X, Y, DYDX float64 }

type Curvature struct{ X, Y, DYDX, D2YDX2 float64 }

type ThetaSlope struct{ Theta, Y, DYDTheta, D2YDTheta2 float64 }

type ThicknessCamber struct{ X, Thickness, Camber float64 }

// Section is a run of punch rows under one header line, such as " UPPER SURFACE".
type Section[T any] struct {
	Name string
	Rows []T
}

type Punched[T any] struct {
	option   params.PunchOption
	file     string
	Sections []Section[T]
}

func (p *Punched[T]) Option() params.PunchOption {
	return p.option
}

func (p *Punched[T]) File() string {
	return p.file
}

// Len counts rows across all sections.
func (p *Punched[T]) Len() int {
	n := 0
	for _, s := range p.Sections {
		n += len(s.Rows)
	}
	return n
}

// Section returns the first section whose name contains name, ignoring case.
func (p *Punched[T]) Section(name string) (Section[T], bool) {
	for _, s := range p.Sections {
		if strings.Contains(strings.ToUpper(s.Name), strings.ToUpper(name)) {
			return s, true
		}
	}
	return Section[T]{}, false
}

// ParsePunch reads the punch artifact written for opt. PunchNone returns nil records.
func ParsePunch(opt params.PunchOption, path string, r io.Reader) (PunchRecords, error) {
	switch opt {
	case params.PunchNone:
		return nil, nil
	case params.PunchXYWeight:
		return parsePunched(opt, path, r, 3, func(v []float64) XYWeight {
			return XYWeight{v[0], v[1], v[2]}
		})
	case params.PunchThetaWeight:
		return parsePunched(opt, path, r, 3, func(v []float64) ThetaWeight {
			return ThetaWeight{v[0], v[1], v[2]}
		})
	case params.PunchSlope:
		return parsePunched(opt, path, r, 3, func(v []float64) Slope {
			return Slope{v[0], v[1], v[2]}
		})
	case params.PunchCurvature:
		return parsePunched(opt, path, r, 4, func(v []float64) Curvature {
			return Curvature{v[0], v[1], v[2], v[3]}
		})
	case params.PunchThetaSlope:
		return parsePunched(opt, path, r, 4, func(v []float64) ThetaSlope {
			return ThetaSlope{v[0], v[1], v[2], v[3]}
		})
	case params.PunchThicknessCamber:
		return parsePunched(opt, path, r, 3, func(v []float64) ThicknessCamber {
			return ThicknessCamber{v[0], v[1], v[2]}
		})
	}
	return nil, fmt.Errorf("%w: punch=%d", params.ErrInvalidOption, int(opt))
}

// parsePunched splits the artifact into sections at every line with no numeric
// field. Rows before the first header go in an unnamed section. A row mixing
// numbers and words is an error, and so is an artifact with no rows at all.
func parsePunched[T any](opt params.PunchOption, path string, r io.Reader, width int, row func([]float64) T) (PunchRecords, error) {
	out := &Punched[T]{option: opt, file: path}
	err := scanRows(path, r, 0, func(line int, tokens []string) error {
		if isHeader(tokens) {
			out.Sections = append(out.Sections, Section[T]{Name: strings.Join(tokens, " ")})
			return nil
		}
		v, err := parseFields(path, line, tokens)
		if err != nil {
			return err
		}
		if len(tokens) != width {
			return widthError(path, line, tokens, width,
				fmt.Sprintf("punch option %d: want %d fields, got %d", int(opt), width, len(tokens)))
		}
		if len(out.Sections) == 0 {
			out.Sections = append(out.Sections, Section[T]{})
		}
		last := &out.Sections[len(out.Sections)-1]
		last.Rows = append(last.Rows, row(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, &ResultParseError{File: path, Reason: fmt.Sprintf("punch option %d: no records", int(opt))}
	}
	return out, nil
}

func isHeader(tokens []string) bool {
	for _, tok := range tokens {
		if _, ok := parseNumber(tok); ok {
			return false
		}
	}
	return true
}
