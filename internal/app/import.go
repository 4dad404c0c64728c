package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load gems, versions and dependencies from a YAML file",
	Long: `Create the schema if needed and load the gems described in a YAML file.

Each version defaults to the "ruby" platform and to being indexed. Dependencies
may name gems declared anywhere in the file, or gems the file never declares.`,
	Example: `  gemindex import gems.yaml
  gemindex import gems.yaml --driver postgres --db postgres://localhost/gems`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := loadFixture(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.CreateSchema(); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	progress := output.NewProgress(len(f.Gems), "importing gems")
	progress.SetWriter(cmd.ErrOrStderr())

	stats, err := f.apply(cmdContext(cmd), s.store, progress)
	if err != nil {
		return fmt.Errorf("import failed after %d gems: %w", stats.Gems, err)
	}
	progress.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d gems, %d versions, %d dependencies\n",
		stats.Gems, stats.Versions, stats.Dependencies)
	return nil
}
