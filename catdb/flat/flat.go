package flat

import (
	"compress/gzip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// ArchiveExt is appended to the names of archived artifacts.
const ArchiveExt = ".gz"

type Flat struct {
	// path is the run directory for flat file storage.
	// It includes the root directory.
	path string
}

func NewFlatWithRoot(root string) *Flat {
	root = filepath.Clean(root)
	// If root is not absolute, make it absolute.
	if !filepath.IsAbs(root) {
		root, _ = filepath.Abs(root)
	}
	return &Flat{path: root}
}

// ForRun returns the working directory for the named run under f.
func (f *Flat) ForRun(name string) *Flat {
	return f.Joining(name)
}

// Joining returns a new Flat for paths under f.
func (f *Flat) Joining(paths ...string) *Flat {
	return &Flat{path: filepath.Join(append([]string{f.path}, paths...)...)}
}

// Exists returns true if the directory exists.
func (f *Flat) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *Flat) MkdirAll() error {
	return os.MkdirAll(f.path, 0770)
}

func (f *Flat) Path() string {
	return f.path
}

// Named returns the path of the named file in the directory.
func (f *Flat) Named(name string) string {
	return filepath.Join(f.path, name)
}

// Has reports whether the named regular file exists.
func (f *Flat) Has(name string) bool {
	fi, err := os.Stat(f.Named(name))
	return err == nil && fi.Mode().IsRegular()
}

// Size is the size in bytes of the named file, or 0 if it does not exist.
func (f *Flat) Size(name string) int64 {
	fi, err := os.Stat(f.Named(name))
	if err != nil {
		return 0
	}
	return fi.Size()
}

// RemoveNamed deletes the named files. Files that do not exist are ignored.
func (f *Flat) RemoveNamed(names ...string) error {
	var errs []error
	for _, name := range names {
		if err := os.Remove(f.Named(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteNamed replaces the named file with data.
func (f *Flat) WriteNamed(name string, data []byte) error {
	if err := f.MkdirAll(); err != nil {
		return err
	}
	return os.WriteFile(f.Named(name), data, 0660)
}

// Archive writes a gzipped copy of the named file as name+ArchiveExt and returns its path.
func (f *Flat) Archive(name string) (string, error) {
	src, err := os.Open(f.Named(name))
	if err != nil {
		return "", err
	}
	defer src.Close()

	config := DefaultGZFileWriterConfig()
	config.Flag = os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	gzw, err := f.NamedGZWriter(name+ArchiveExt, config)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(gzw.Writer(), src); err != nil {
		_ = gzw.Close()
		return "", err
	}
	if err := gzw.Close(); err != nil {
		return "", err
	}
	return gzw.Path(), nil
}

func (f *Flat) NamedGZWriter(name string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if config == nil {
		config = DefaultGZFileWriterConfig()
	}
	return NewFlatGZWriter(filepath.Join(f.path, name), config)
}

func (f *Flat) NamedGZReader(name string) (*GZFileReader, error) {
	return NewFlatGZReader(filepath.Join(f.path, name))
}

type GZFileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool

	GZFileWriterConfig
}

type GZFileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

func DefaultGZFileWriterConfig() *GZFileWriterConfig {
	return &GZFileWriterConfig{
		CompressionLevel: gzip.BestCompression,
		Flag:             os.O_WRONLY | os.O_APPEND | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewFlatGZWriter(path string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &GZFileWriter{
		f:                  fi,
		gzw:                gzw,
		GZFileWriterConfig: *config,
	}, nil
}

// Writer returns a gzip writer for the file.
// While the writer is not closed, an exclusive lock is held on the file.
func (g *GZFileWriter) Writer() *gzip.Writer {
	if !g.locked && g.f != nil {
		if err := syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX); err != nil {
			panic(err)
		}
		g.locked = true
	}
	return g.gzw
}

func (g *GZFileWriter) Close() error {
	if err := g.gzw.Close(); err != nil {
		return err
	}
	if err := g.f.Sync(); err != nil {
		return err
	}
	if g.locked {
		if err := syscall.Flock(int(g.f.Fd()), syscall.LOCK_UN); err != nil {
			panic(err)
		}
		g.locked = false
	}
	return g.f.Close()
}

func (g *GZFileWriter) Path() string {
	return g.f.Name()
}

type GZFileReader struct {
	f      *os.File
	gzr    *gzip.Reader
	locked bool
	closed bool
}

func NewFlatGZReader(path string) (*GZFileReader, error) {
	fi, err := os.OpenFile(path, os.O_RDONLY, 0660)
	if err != nil {
		return nil, err
	}
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &GZFileReader{f: fi, gzr: gzr}, nil
}

// Reader returns a gzip reader for the file.
// While the reader is not closed, a shared lock is held on the file.
func (g *GZFileReader) Reader() *gzip.Reader {
	if g.closed {
		panic("closed")
	}
	if !g.locked {
		if err := syscall.Flock(int(g.f.Fd()), syscall.LOCK_SH); err != nil {
			panic(err)
		}
		g.locked = true
	}
	return g.gzr
}

func (g *GZFileReader) Close() error {
	if g.closed {
		return nil
	}
	defer func() {
		g.closed = true
	}()
	if err := g.gzr.Close(); err != nil {
		return err
	}
	if g.locked {
		if err := syscall.Flock(int(g.f.Fd()), syscall.LOCK_UN); err != nil {
			panic(err)
		}
	}
	return g.f.Close()
}
