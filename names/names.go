package names

import (
	"github.com/rotblauer/afsmo/conceptual"
	"github.com/rotblauer/afsmo/params"
	"path/filepath"
	"strings"
)

// Base is the file name of path without its directory or extension.
func Base(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

// InputFileName is the engine input file name for an airfoil file.
func InputFileName(path string) string {
	return Sanitize(Base(path)) + params.InputFileExt
}

// SmoothedPath is where the smoothed coordinates of input are written, next to input.
func SmoothedPath(input string) string {
	return filepath.Join(filepath.Dir(input), Base(input)+params.SmoothedSuffix+params.DatFileExt)
}

// PlotPath is where the comparison plot of input is written, next to input.
func PlotPath(input string) string {
	return filepath.Join(filepath.Dir(input), Base(input)+params.SmoothedSuffix+params.PlotFileExt)
}

// RunDirName names the engine working directory of one run.
func RunDirName(input string, id conceptual.RunID) string {
	base := Sanitize(Base(input))
	if id.Empty() {
		return base
	}
	return base + "-" + id.Short()
}

// Sanitize replaces every rune outside [A-Za-z0-9._-] with an underscore.
// The engine reads its input file name from a fixed-width field.
func Sanitize(name string) string {
	if name == "" {
		return "airfoil"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
