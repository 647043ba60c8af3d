package datfile

import (
	"bufio"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/afsmo/types/airfoil"
	"io"
	"os"
	"path/filepath"
)

// Write writes title and pts in the same convention Parse reads.
func Write(w io.Writer, title string, pts orb.LineString) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, title); err != nil {
		return err
	}
	for _, p := range pts {
		if _, err := fmt.Fprintf(bw, "%.7f %.7f\n", p[0], p[1]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes a to path, creating parent directories as needed.
func WriteFile(path string, a *airfoil.Airfoil) error {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, a.Title, a.Perimeter); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
