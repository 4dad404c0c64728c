package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/output"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List every gem name",
	Long: `Print the name of every gem in the store, one per line, in byte-wise order.
Gems are listed whether or not they have an indexed version.`,
	Args: cobra.NoArgs,
	RunE: runNames,
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List indexed version labels per gem",
	Long: `Print one line per gem with at least one indexed version:

  NAME LABEL[,LABEL...] [INFO_CHECKSUM]

Labels are "NUMBER" for the canonical platform and "NUMBER-PLATFORM" otherwise.`,
	Args: cobra.NoArgs,
	RunE: runVersions,
}

var depsCmd = &cobra.Command{
	Use:   "deps [NAME...]",
	Short: "Show the dependency manifest of each gem's latest version",
	Long: `Show, for each requested gem, the dependencies of its most recently created
indexed version on the canonical platform. With no names, every gem is shown.
Unknown names are ignored.`,
	Example: `  gemindex deps
  gemindex deps rack rails
  gemindex deps rails --json`,
	RunE: runDeps,
}

func runNames(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.query.Names(cmdContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list names: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), names)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderNames(names))
	return nil
}

func runVersions(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.query.VersionList(cmdContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), list)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderVersions(list))
	return nil
}

func runDeps(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	// No arguments selects every gem.
	var names []string
	if len(args) > 0 {
		names = args
	}

	summaries, err := s.query.DepsFor(cmdContext(cmd), names)
	if err != nil {
		return fmt.Errorf("failed to load dependencies: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), summaries)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderDepsTable(summaries))
	return nil
}
