package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

var (
	dbPath     string
	dbDriver   string
	configPath string
	verbose    bool
	jsonOutput bool

	// RootCmd is the root command for gemindex
	RootCmd = &cobra.Command{
		Use:   "gemindex",
		Short: "Assemble compact-index metadata from a gem store",
		Long: `gemindex reads gems, versions and dependencies from a relational store and
projects them into the three views a compact index is built from:

  names     every gem name, byte-wise sorted
  versions  every indexed version label, grouped by gem
  deps      the dependency manifest of each gem's latest version

The store is SQLite by default; set database.driver to "postgres" in the
config file (or GEMINDEX_DB_DRIVER) to read from PostgreSQL instead.

Examples:
  # Load gems from a fixture file
  gemindex import gems.yaml

  # Print the views
  gemindex names
  gemindex versions
  gemindex deps rack rails

  # Record the views and detect drift later
  gemindex snapshot create --reason "before release"
  gemindex snapshot check`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "gemindex: compact-index metadata from a gem store")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'gemindex import FILE' to load gems.")
			fmt.Fprintln(out, "Run 'gemindex --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path or DSN (default: ~/.gemindex/gemindex.db)")
	RootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "database driver: sqlite or postgres")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/gemindex/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(namesCmd)
	RootCmd.AddCommand(versionsCmd)
	RootCmd.AddCommand(depsCmd)
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(yankCmd)
	RootCmd.AddCommand(unyankCmd)
	RootCmd.AddCommand(snapshotCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// ReportError prints a command failure. With --verbose the error is logged
// with its structured fields.
func ReportError(w io.Writer, err error) {
	if verbose {
		zerr.Log(context.Background(), newLogger(w), err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
