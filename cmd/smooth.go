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
	"context"
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/afsmo/api"
	"github.com/rotblauer/afsmo/common"
	"github.com/rotblauer/afsmo/params"
	"github.com/rotblauer/afsmo/state"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"io"
	"log/slog"
	"path/filepath"
	"time"
)

var optDatFile string

// smoothCmd represents the smooth command
var smoothCmd = &cobra.Command{
	Use:   "smooth [-d FILE] [FILE...]",
	Short: "Smooth one or more airfoil coordinate files",
	Long: `Smooth reads each airfoil .dat file (Selig or Lednicer layout), rotates and
scales it onto a unit chord, runs the AFSMO engine on it, and writes the
result next to the input as <name>_sm.dat.

Files are smoothed one after the other; the first failure stops the command.

Examples:

  afsmo smooth -d naca0012.dat
  afsmo smooth -d e387.dat -i -n 160 -p
  afsmo smooth --engine ./bin/afsmo --punch 6 *.dat
`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		inputs := args
		if optDatFile != "" {
			inputs = append([]string{optDatFile}, inputs...)
		}
		if len(inputs) == 0 {
			return errors.New("no input file (use -d FILE)")
		}

		cfg, err := configFromViper()
		if err != nil {
			return err
		}
		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		p, err := api.NewPipeline(cfg, nil)
		if err != nil {
			return err
		}
		if cfg.Ledger.Enabled {
			ledger, err := state.OpenLedger(cfg.Ledger.Path, false)
			if err != nil {
				return err
			}
			defer ledger.Close()
			p.Ledger = ledger
		}

		for _, input := range inputs {
			out, err := p.Smooth(ctx, input)
			if err != nil {
				return err
			}
			printOutput(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(smoothCmd)

	flags := smoothCmd.Flags()
	flags.StringVarP(&optDatFile, "dat", "d", "", "Airfoil coordinate file")
	addSmoothingFlags(flags)
}

// addSmoothingFlags defines the flags shared by smooth and batch.
// Each name is also a viper key.
func addSmoothingFlags(flags *pflag.FlagSet) {
	defaults := params.DefaultConfig()
	o := defaults.Options

	flags.BoolP("interpolate", "i", false, "Interpolate the smoothed airfoil onto cosine spacing")
	flags.IntP("n-inter", "n", defaults.Interpolation.Points, fmt.Sprintf("Total points after interpolation (at most %d per surface)", params.MaxSurfaceInterpPts))
	flags.Bool("local-interp", false, "Interpolate here instead of asking the engine to")
	flags.Float64("range-tolerance", defaults.Interpolation.RangeTolerance, "Chord units an abscissa may fall outside a surface")
	flags.BoolP("plot", "p", false, "Draw a comparison plot next to the output")
	flags.BoolP("real-aspect", "a", false, "Plot with equal axis scales")
	flags.BoolP("scaled", "s", false, "Write the output in the unit chord frame")
	flags.Bool("derotate", defaults.Geometry.Derotate, "Rotate the chord onto the x axis")
	flags.Bool("normalize", defaults.Geometry.Normalize, "Scale the chord to unit length")

	flags.Int("max-iterations", o.MaxIterations, "Engine iteration limit (MAXIT)")
	flags.Int("convergence", o.ConvergenceExponent, "Engine convergence exponent (CONV)")
	flags.Int("input-format", int(o.InputFormat), "Engine input format 0-3 (INFMT)")
	flags.Int("punch", int(o.Punch), "Engine punch option 0-6 (IPUNCH)")
	flags.Int("check", boolInt(o.CheckCoordinates), "Engine coordinate check 0/1 (ICHECK)")
	flags.Int("translate-rotate", boolInt(o.TranslateRotate), "Engine translate and rotate 0/1 (ITRANS)")
	flags.Int("thickness", boolInt(o.ThicknessCamber), "Engine thickness and camber 0/1 (ITHICK)")

	flags.String("engine", defaults.Engine.Command, "Engine executable")
	flags.StringSlice("engine-arg", defaults.Engine.Args, "Engine arguments; ${INPUT_FILE} and ${WORK_DIR} are expanded")
	flags.Duration("timeout", defaults.Engine.Timeout, "Engine time limit per run")
	flags.String("workdir", "", "Engine working directory root (default <datadir>/"+params.RunsDir+")")
	flags.Bool("archive-logs", false, "Keep a gzipped copy of every engine log")

	flags.Bool("ledger", false, "Record runs in the ledger")
	flags.Bool("reuse", false, "Reuse ledger records of identical runs")
}

// configFromViper builds the run config from the bound flags, the config file and the environment.
func configFromViper() (params.Config, error) {
	root := datadir()
	cfg := params.DefaultConfig().WithWorkDir(filepath.Join(root, params.RunsDir))
	if wd := viper.GetString("workdir"); wd != "" {
		cfg = cfg.WithWorkDir(wd)
	}
	cfg.Engine.Command = viper.GetString("engine")
	if args := viper.GetStringSlice("engine-arg"); len(args) > 0 {
		cfg.Engine.Args = params.CLIFlagsT{}.Add(args...)
	}
	cfg.Engine.Timeout = viper.GetDuration("timeout")
	cfg.Engine.ArchiveLogs = viper.GetBool("archive-logs")

	cfg.Options = params.SmoothingOptions{
		MaxIterations:       viper.GetInt("max-iterations"),
		ConvergenceExponent: viper.GetInt("convergence"),
		InputFormat:         params.InputFormat(viper.GetInt("input-format")),
		Punch:               params.PunchOption(viper.GetInt("punch")),
		CheckCoordinates:    viper.GetInt("check") != 0,
		TranslateRotate:     viper.GetInt("translate-rotate") != 0,
		ThicknessCamber:     viper.GetInt("thickness") != 0,
	}
	cfg.Geometry = params.GeometryConfig{
		Derotate:     viper.GetBool("derotate"),
		Normalize:    viper.GetBool("normalize"),
		ScaledOutput: viper.GetBool("scaled"),
	}
	cfg.Interpolation = params.InterpolationConfig{
		Enabled:        viper.GetBool("interpolate"),
		Points:         viper.GetInt("n-inter"),
		Local:          viper.GetBool("local-interp"),
		RangeTolerance: viper.GetFloat64("range-tolerance"),
	}
	cfg.Plot = params.PlotConfig{
		Enabled:    viper.GetBool("plot"),
		RealAspect: viper.GetBool("real-aspect"),
	}
	cfg.Ledger = params.LedgerConfig{
		Enabled: viper.GetBool("ledger") || viper.GetBool("reuse"),
		Path:    filepath.Join(root, params.LedgerDBName),
		Reuse:   viper.GetBool("reuse"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	slog.Debug("Config", "engine", cfg.Engine.Command, "workdir", cfg.Engine.WorkDir,
		"interpolate", cfg.Interpolation.Enabled, "points", cfg.Interpolation.Points)
	return cfg, nil
}

func printOutput(w io.Writer, out *api.Output) {
	status := "converged"
	if out.Unconverged {
		status = "NOT converged"
	}
	fmt.Fprintf(w, "%s -> %s  %d points  %d iterations (%s)  %s",
		out.Input, out.Path, out.Airfoil.Len(), out.Iterations, status,
		out.Elapsed.Round(time.Millisecond))
	if out.Cached {
		fmt.Fprint(w, "  [reused]")
	}
	if r := out.Residuals; r != nil {
		fmt.Fprintf(w, "  max |dy| %s", humanize.FtoaWithDigits(r.Max, 6))
	}
	fmt.Fprintln(w)
	for _, warning := range out.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	if out.PlotPath != "" {
		fmt.Fprintf(w, "  plot: %s\n", out.PlotPath)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
