package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/output"
)

var infoPURL bool

var infoCmd = &cobra.Command{
	Use:   "info NAME",
	Short: "Show every indexed version of a gem",
	Long: `Print the info file of a gem: one line per indexed version, in creation
order, with its dependencies and requirements.

  LABEL DEP:REQ[,DEP:REQ...]|checksum:SUM,ruby:REQ,rubygems:REQ`,
	Example: `  gemindex info rack
  gemindex info nokogiri --purl`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoPURL, "purl", false, "print package URLs instead of the info file")
}

// versionJSON is the JSON shape of one gem.Version.
type versionJSON struct {
	Number              string           `json:"number"`
	Platform            string           `json:"platform"`
	PURL                string           `json:"purl"`
	Checksum            *string          `json:"checksum"`
	InfoChecksum        *string          `json:"info_checksum"`
	RequiredRubyVersion *string          `json:"required_ruby_version"`
	RubygemsVersion     *string          `json:"rubygems_version"`
	Dependencies        []gem.Dependency `json:"dependencies"`
}

func toVersionJSON(name string, v gem.Version) versionJSON {
	return versionJSON{
		Number:              v.Number(),
		Platform:            v.Platform(),
		PURL:                v.PackageURL(name),
		Checksum:            ptr(v.Checksum()),
		InfoChecksum:        ptr(v.InfoChecksum()),
		RequiredRubyVersion: ptr(v.RequiredRubyVersion()),
		RubygemsVersion:     ptr(v.RubygemsVersion()),
		Dependencies:        v.Dependencies(),
	}
}

func ptr(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	versions, err := s.query.Info(cmdContext(cmd), name)
	if err != nil {
		return fmt.Errorf("failed to load info for %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		list := make([]versionJSON, 0, len(versions))
		for _, v := range versions {
			list = append(list, toVersionJSON(name, v))
		}
		return writeJSON(out, list)
	case infoPURL:
		for _, v := range versions {
			fmt.Fprintln(out, v.PackageURL(name))
		}
		return nil
	}

	if len(versions) == 0 {
		return fmt.Errorf("gem %q has no indexed versions", name)
	}
	fmt.Fprint(out, output.RenderInfo(versions))
	return nil
}
