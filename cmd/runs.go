/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/afsmo/catdb/flat"
	"github.com/rotblauer/afsmo/conceptual"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/state"
	"github.com/spf13/cobra"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var optRunsGeoJSON bool
var optRunsLog string

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the runs recorded in the ledger",
	Long: `Runs lists every ledger record, newest first.

  --geojson   Print the records as a GeoJSON FeatureCollection of smoothed perimeters.
  --log ID    Print the archived engine log of one run (see smooth --archive-logs).
              ID may be any unique prefix.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		ledger, err := state.OpenLedger(filepath.Join(datadir(), params.LedgerDBName), true)
		if err != nil {
			return err
		}
		defer ledger.Close()

		records, err := ledger.List()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()

		if optRunsLog != "" {
			r, err := findRecord(records, optRunsLog)
			if err != nil {
				return err
			}
			return printArchivedLog(w, r)
		}

		if optRunsGeoJSON {
			fc := geojson.NewFeatureCollection()
			for _, r := range records {
				fc.Append(r.Feature())
			}
			data, err := fc.MarshalJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(data))
			return err
		}

		for _, r := range records {
			status := "ok"
			if r.Unconverged {
				status = "unconverged"
			}
			fmt.Fprintf(w, "%s  %s  %s -> %s  %d points  %d iterations  %s  %s\n",
				r.ID.Short(), humanize.Time(r.Created), r.Input, r.Output,
				len(r.Perimeter), r.Iterations, status, r.Elapsed.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().BoolVar(&optRunsGeoJSON, "geojson", false, "Print records as GeoJSON")
	runsCmd.Flags().StringVar(&optRunsLog, "log", "", "Print the archived engine log of a run")
}

func findRecord(records []*state.Record, prefix string) (*state.Record, error) {
	var found *state.Record
	for _, r := range records {
		if !strings.HasPrefix(r.ID.String(), prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
		}
		found = r
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", state.ErrNotFound, conceptual.RunID(prefix))
	}
	return found, nil
}

func printArchivedLog(w io.Writer, r *state.Record) error {
	if r.Dir == "" {
		return fmt.Errorf("run %s has no working directory", r.ID.Short())
	}
	gzr, err := flat.NewFlatWithRoot(r.Dir).NamedGZReader(params.ArtifactLog + flat.ArchiveExt)
	if err != nil {
		return fmt.Errorf("run %s: %w (was it run with --archive-logs?)", r.ID.Short(), err)
	}
	defer gzr.Close()
	_, err = io.Copy(w, gzr.Reader())
	return err
}
