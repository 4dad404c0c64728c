package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/store"
)

var yankPlatform string

var yankCmd = &cobra.Command{
	Use:   "yank NAME VERSION",
	Short: "Remove a version from the index",
	Long: `Mark a version as not indexed. The row stays in the store but disappears
from the versions and deps views, and stops counting as a dependency target.`,
	Example: `  gemindex yank rack 1.0.0
  gemindex yank nokogiri 1.16.0 --platform java`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIndexed(cmd, args[0], args[1], false)
	},
}

var unyankCmd = &cobra.Command{
	Use:   "unyank NAME VERSION",
	Short: "Return a yanked version to the index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIndexed(cmd, args[0], args[1], true)
	},
}

func init() {
	yankCmd.Flags().StringVar(&yankPlatform, "platform", gem.DefaultPlatform, "version platform")
	unyankCmd.Flags().StringVar(&yankPlatform, "platform", gem.DefaultPlatform, "version platform")
}

func setIndexed(cmd *cobra.Command, name, number string, indexed bool) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	label := gem.Label(number, yankPlatform)
	if err := s.store.SetIndexed(cmdContext(cmd), name, number, yankPlatform, indexed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s %s not found", name, label)
		}
		return err
	}

	verb := "Yanked"
	if indexed {
		verb = "Restored"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, name, label)
	return nil
}
