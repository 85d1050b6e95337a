// Package cmd implements the mocsim command-line front end: loading a job
// configuration, driving the scheduler to completion, and a utility
// subcommand for pretty-printing jump histograms from a saved state file
// (spec.md out-of-scope item (b): the CLI itself is a thin front end, not
// part of the kernel).
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "mocsim",
	Short: "Lattice kinetic/equilibrium Monte Carlo simulation kernel",
}

// Execute runs the root command, exiting non-zero on any returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(printJumpHistogramsCmd)
}
