package testdata

import (
	"os"
	"path/filepath"
	"runtime"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path of rel relative to this testdata/ directory.
// If rel is already absolute, it is returned unmodified.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(basepath, rel)
}

// Fixture files.
const (
	NACA0012         = "naca0012.dat"
	NACA0012Lednicer = "naca0012_lednicer.dat"
	NACA0012Rotated  = "naca0012_rotated.dat"
)

// NACA0012Points is the number of points in each NACA0012 fixture loop.
const NACA0012Points = 65

// Diamond is the four-point symmetric airfoil, closed at the trailing edge.
const Diamond = `DIAMOND
1.0 0.0
0.5 0.1
0.0 0.0
0.5 -0.1
1.0 0.0
`

// MustRead returns the contents of a fixture file, panicking on error.
func MustRead(rel string) []byte {
	b, err := os.ReadFile(Path(rel))
	if err != nil {
		panic(err)
	}
	return b
}
