package state

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/afsmo/conceptual"
	"go.etcd.io/bbolt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

var runsBucket = []byte("runs")

var ErrNotFound = errors.New("run not found")

// Ledger is the on-disk record of completed runs, keyed by run ID.
// One Ledger may be shared by concurrent runs.
type Ledger struct {
	DB    *bbolt.DB
	Path  string
	rOnly bool
}

// OpenLedger opens or creates the ledger database at path.
// A writable ledger holds an exclusive file lock until Close.
func OpenLedger(path string, readOnly bool) (*Ledger, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		ReadOnly: readOnly,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	return &Ledger{DB: db, Path: path, rOnly: readOnly}, nil
}

func (l *Ledger) Close() error {
	return l.DB.Close()
}

// Record is one completed run.
type Record struct {
	ID          conceptual.RunID
	Input       string
	Output      string
	// Dir is the engine working directory of the run.
	Dir         string
	Title       string
	Perimeter   orb.LineString
	LE          int
	Iterations  int
	Unconverged bool
	Warnings    []string
	Elapsed     time.Duration
	Created     time.Time
}

// Feature encodes r as a GeoJSON LineString feature of the smoothed perimeter.
func (r *Record) Feature() *geojson.Feature {
	f := geojson.NewFeature(r.Perimeter)
	f.ID = r.ID.String()
	f.Properties["input"] = r.Input
	f.Properties["output"] = r.Output
	f.Properties["dir"] = r.Dir
	f.Properties["title"] = r.Title
	f.Properties["le"] = r.LE
	f.Properties["iterations"] = r.Iterations
	f.Properties["unconverged"] = r.Unconverged
	f.Properties["warnings"] = r.Warnings
	f.Properties["elapsed"] = r.Elapsed.String()
	f.Properties["created"] = r.Created.UTC().Format(time.RFC3339)
	return f
}

// RecordFromFeature decodes a feature written by Record.Feature.
func RecordFromFeature(f *geojson.Feature) (*Record, error) {
	ls, ok := f.Geometry.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("ledger record %v: geometry is %T, not a LineString", f.ID, f.Geometry)
	}
	r := &Record{
		ID:          conceptual.RunID(fmt.Sprint(f.ID)),
		Input:       f.Properties.MustString("input", ""),
		Output:      f.Properties.MustString("output", ""),
		Dir:         f.Properties.MustString("dir", ""),
		Title:       f.Properties.MustString("title", ""),
		Perimeter:   ls,
		LE:          f.Properties.MustInt("le", 0),
		Iterations:  f.Properties.MustInt("iterations", 0),
		Unconverged: f.Properties.MustBool("unconverged", false),
	}
	if ws, ok := f.Properties["warnings"].([]interface{}); ok {
		for _, w := range ws {
			r.Warnings = append(r.Warnings, fmt.Sprint(w))
		}
	}
	if d, err := time.ParseDuration(f.Properties.MustString("elapsed", "0s")); err == nil {
		r.Elapsed = d
	}
	if t, err := time.Parse(time.RFC3339, f.Properties.MustString("created", "")); err == nil {
		r.Created = t
	}
	return r, nil
}

// Put stores r under its ID, replacing any earlier record.
func (l *Ledger) Put(r *Record) error {
	if r.ID.Empty() {
		return fmt.Errorf("ledger put: empty run id")
	}
	data, err := r.Feature().MarshalJSON()
	if err != nil {
		return err
	}
	err = l.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(runsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(r.ID), data)
	})
	if err != nil {
		return err
	}
	slog.Debug("Stored run", "id", r.ID, "input", r.Input, "points", len(r.Perimeter))
	return nil
}

// Get returns the record for id, or ErrNotFound.
func (l *Ledger) Get(id conceptual.RunID) (*Record, error) {
	var got []byte
	err := l.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		if bucket == nil {
			return nil
		}
		// Gotcha! The value returned by Get is only valid in the scope of the transaction.
		if v := bucket.Get([]byte(id)); v != nil {
			got = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f, err := geojson.UnmarshalFeature(got)
	if err != nil {
		return nil, fmt.Errorf("ledger record %s: %w", id, err)
	}
	return RecordFromFeature(f)
}

// List returns every record, most recent first.
func (l *Ledger) List() ([]*Record, error) {
	var out []*Record
	err := l.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			f, err := geojson.UnmarshalFeature(v)
			if err != nil {
				return fmt.Errorf("ledger record %s: %w", k, err)
			}
			r, err := RecordFromFeature(f)
			if err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out, nil
}
