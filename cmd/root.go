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
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/afsmo/common"
	"github.com/rotblauer/afsmo/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "afsmo",
	Short: "Smooth airfoil coordinates with the AFSMO engine",
	Long: `afsmo reads airfoil coordinate files, normalizes them onto a unit chord,
hands them to the AFSMO smoothing engine, and writes the smoothed
coordinates next to the input as <name>_sm.dat.

Flags may also be set in $HOME/.afsmo.yaml or as AFSMO_* environment variables,
e.g. AFSMO_ENGINE=/opt/afsmo/bin/afsmo.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/"+params.ConfigName+".yaml)")
	pFlags.CountP("verbosity", "v", "Increase log verbosity (-v info, -vv debug)")
	pFlags.String("datadir", params.DatadirRoot, "Root directory for run directories and the ledger")
	_ = viper.BindPFlags(pFlags)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".afsmo" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(params.ConfigName)
	}

	viper.SetEnvPrefix(params.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	slog.SetLogLoggerLevel(common.SlogLevelForVerbosity(viper.GetInt("verbosity")))
	slog.Debug("Command", "name", cmd.Name(), "args", args, "config", viper.ConfigFileUsed())
}

// datadir is the expanded data root. A leading ~ is allowed.
func datadir() string {
	d, err := homedir.Expand(viper.GetString("datadir"))
	if err != nil || d == "" {
		return params.DatadirRoot
	}
	return filepath.Clean(d)
}
