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
	"github.com/rotblauer/potholed/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"strings"
)

var cfgFile string
var optVerbosity int

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "potholed",
	Short: "Detect potholes from a vehicle-mounted accelerometer and GPS",
	Long: `potholed reads accelerometer samples and location fixes, filters vertical acceleration,
and classifies each sample as a pothole or normal road.

Samples and fixes arrive as newline-delimited JSON records:

  {"type":"accel","time":1700000000.5,"x":0.1,"y":0.2,"z":9.8}
  {"type":"fix","time":1700000000.7,"lat":40.01,"lon":-105.27}

Classified events can be posted to a remote JSON store, written to InfluxDB,
kept in a local bbolt store with per-cell pothole counts, archived as gzipped NDJSON,
and served over HTTP and a websocket.`,
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

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/"+params.DefaultConfigFileName+")")
	rootCmd.PersistentFlags().IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo),
		"slog level: -4 debug, 0 info, 4 warn, 8 error")
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

		// Search config in home directory with name ".potholed" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(params.DefaultConfigFileName, ".yaml"))
	}

	configureEnv(viper.GetViper()) // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(optVerbosity),
	})))
}
