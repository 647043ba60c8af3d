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
	"bytes"
	"context"
	"fmt"
	"github.com/rotblauer/afsmo/api"
	"github.com/rotblauer/afsmo/catdb/cache"
	"github.com/rotblauer/afsmo/common"
	"github.com/rotblauer/afsmo/events"
	"github.com/rotblauer/afsmo/names"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/state"
	"github.com/rotblauer/afsmo/stream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"log/slog"
	"path/filepath"
	"time"
)

var optWorkersN int
var optProgressInterval time.Duration

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Smooth many airfoil files read from stdin",
	Long: `Batch reads one job per line from stdin. A line is either a path
or a JSON object overriding the interpolation flags for that file:

  {"file": "e387.dat", "interpolate": true, "points": 120}

Jobs run on --workers concurrent workers; each worker owns its own engine
working directory under --workdir. Only the first job for a file runs;
later jobs that would write the same smoothed file are skipped.
A failed job is logged and does not stop the others; the command fails
if any job did.

Examples:

  ls airfoils/*.dat | afsmo batch --workers 8 -i
  cat jobs.ndjson | afsmo batch --ledger --reuse
`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		cfg, err := configFromViper()
		if err != nil {
			return err
		}
		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		var ledger *state.Ledger
		if cfg.Ledger.Enabled {
			ledger, err = state.OpenLedger(cfg.Ledger.Path, false)
			if err != nil {
				return err
			}
			defer ledger.Close()
		}
		outputs := cache.NewOutputs[*api.Output](params.DefaultCacheSize)

		meter := stream.NewProgressMeter(optProgressInterval)
		defer meter.Stop()

		smoothed := make(chan *state.Record, optWorkersN)
		sub := events.SmoothedFeed.Subscribe(smoothed)
		marked := make(chan struct{})
		go func() {
			defer close(marked)
			for r := range smoothed {
				meter.Mark(true, len(r.Perimeter))
			}
		}()

		lines, errs := stream.Lines(ctx, cmd.InOrStdin())
		jobs := stream.Filter(ctx, dedupeJobs(), stream.Transform(ctx, parseJob, lines))

		results := stream.Work(ctx, optWorkersN, func(worker int, j batchJob) batchResult {
			jobCfg := j.apply(cfg).WithWorkDir(filepath.Join(cfg.Engine.WorkDir, fmt.Sprintf("worker-%d", worker)))
			res := batchResult{job: j}
			if j.err != nil {
				res.err = j.err
				return res
			}
			p, err := api.NewPipeline(jobCfg, nil)
			if err != nil {
				res.err = err
				return res
			}
			p.Ledger = ledger
			p.Cache = outputs
			slog.Info("Smoothing", "worker", fmt.Sprintf("%d/%d", worker, optWorkersN), "file", j.File)
			res.out, res.err = p.Smooth(ctx, j.File)
			return res
		}, jobs)

		failed := 0
		for res := range results {
			if res.err != nil {
				failed++
				meter.Mark(false, 0)
				slog.Error("Job failed", "file", res.job.File, "error", res.err)
				continue
			}
			if res.out.Cached {
				meter.Mark(true, res.out.Airfoil.Len())
			}
			printOutput(cmd.OutOrStdout(), res.out)
		}
		sub.Unsubscribe()
		close(smoothed)
		<-marked
		meter.Log()
		if err := <-errs; err != nil {
			return fmt.Errorf("read jobs: %w", err)
		}
		if failed > 0 {
			return fmt.Errorf("%d jobs failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	flags := batchCmd.Flags()
	addSmoothingFlags(flags)
	flags.IntVar(&optWorkersN, "workers", params.DefaultWorkersN, "Number of jobs to run in parallel")
	flags.DurationVar(&optProgressInterval, "progress", 10*time.Second, "Progress log interval")
}

// batchJob is one line of batch input. Interpolate and Points are zero unless the line set them.
type batchJob struct {
	File           string
	SetInterpolate bool
	Interpolate    bool
	Points         int

	err error
}

type batchResult struct {
	job batchJob
	out *api.Output
	err error
}

// parseJob reads a path or a JSON job line. A bad line becomes a job carrying its error
// so that it is reported with the other results.
func parseJob(line []byte) batchJob {
	if !bytes.HasPrefix(line, []byte("{")) {
		return batchJob{File: string(line)}
	}
	if !gjson.ValidBytes(line) {
		return batchJob{File: string(line), err: fmt.Errorf("invalid job line: %s", line)}
	}
	j := batchJob{File: gjson.GetBytes(line, "file").String()}
	if j.File == "" {
		j.err = fmt.Errorf("job line has no file: %s", line)
		return j
	}
	if v := gjson.GetBytes(line, "interpolate"); v.Exists() {
		j.SetInterpolate = true
		j.Interpolate = v.Bool()
	}
	if v := gjson.GetBytes(line, "points"); v.Exists() {
		j.Points = int(v.Int())
	}
	return j
}

// dedupeJobs passes the first job for each smoothed output path. Jobs carrying a
// parse error always pass so that they are reported.
func dedupeJobs() func(batchJob) bool {
	pass := cache.NewDedupePassLRUFunc[string]()
	return func(j batchJob) bool {
		if j.err != nil {
			return true
		}
		if pass(filepath.Clean(names.SmoothedPath(j.File))) {
			return true
		}
		slog.Warn("Skipping job, its output is already queued", "file", j.File)
		return false
	}
}

func (j batchJob) apply(cfg params.Config) params.Config {
	if j.SetInterpolate {
		cfg.Interpolation.Enabled = j.Interpolate
	}
	if j.Points > 0 {
		cfg.Interpolation.Points = j.Points
	}
	return cfg
}
