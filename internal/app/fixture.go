package app

import (
	"context"
	"fmt"
	"os"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/output"
	"github.com/blackwell-systems/gemindex/internal/store"
)

// fixture is the YAML document read by the import command:
//
//	gems:
//	  - name: foo
//	    versions:
//	      - number: 1.0.0
//	        checksum: abc
//	        dependencies:
//	          - name: rack
//	            requirement: "= 1.0.0"
type fixture struct {
	Gems []fixtureGem `yaml:"gems"`
}

type fixtureGem struct {
	Name     string           `yaml:"name"`
	Versions []fixtureVersion `yaml:"versions"`
}

type fixtureVersion struct {
	Number              string              `yaml:"number"`
	Platform            string              `yaml:"platform"`
	Indexed             *bool               `yaml:"indexed"` // default true
	Checksum            *string             `yaml:"checksum"`
	InfoChecksum        *string             `yaml:"info_checksum"`
	RequiredRubyVersion *string             `yaml:"required_ruby_version"`
	RubygemsVersion     *string             `yaml:"rubygems_version"`
	Dependencies        []fixtureDependency `yaml:"dependencies"`
}

type fixtureDependency struct {
	Name        string `yaml:"name"`
	Requirement string `yaml:"requirement"`
}

type importStats struct {
	Gems         int
	Versions     int
	Dependencies int
}

// loadFixture reads and validates a fixture file.
func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse fixture"), "path", path)
	}

	if err := f.validate(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid fixture"), "path", path)
	}
	return &f, nil
}

// validate checks every version the way the read side will materialize it.
func (f *fixture) validate() error {
	for i, g := range f.Gems {
		if g.Name == "" {
			return zerr.With(zerr.New("gem name is empty"), "gem_index", i)
		}
		for _, v := range g.Versions {
			deps := make([]gem.Dependency, 0, len(v.Dependencies))
			for _, d := range v.Dependencies {
				deps = append(deps, gem.Dependency{Name: d.Name, Requirement: d.Requirement})
			}
			if _, err := gem.NewVersion(v.Number, v.Platform, gem.WithDependencies(deps)); err != nil {
				return zerr.With(zerr.Wrap(err, "invalid fixture version"), "gem", g.Name)
			}
		}
	}
	return nil
}

// apply writes the fixture to st. Versions are created first so dependency
// edges can point at gems declared later in the file; edges to gems the file
// never declares create a bare rubygem row.
func (f *fixture) apply(ctx context.Context, st *store.Store, progress *output.Progress) (importStats, error) {
	var stats importStats

	type pending struct {
		versionID int64
		deps      []fixtureDependency
	}
	var edges []pending

	for _, g := range f.Gems {
		rubygemID, err := st.EnsureRubygem(ctx, g.Name)
		if err != nil {
			return stats, err
		}
		stats.Gems++

		for _, v := range g.Versions {
			indexed := v.Indexed == nil || *v.Indexed
			versionID, err := st.CreateVersion(ctx, rubygemID, store.VersionInput{
				Number:              v.Number,
				Platform:            v.Platform,
				Indexed:             indexed,
				Checksum:            v.Checksum,
				InfoChecksum:        v.InfoChecksum,
				RequiredRubyVersion: v.RequiredRubyVersion,
				RubygemsVersion:     v.RubygemsVersion,
			})
			if err != nil {
				return stats, fmt.Errorf("gem %s: %w", g.Name, err)
			}
			stats.Versions++
			if len(v.Dependencies) > 0 {
				edges = append(edges, pending{versionID: versionID, deps: v.Dependencies})
			}
		}

		if progress != nil {
			progress.Increment()
		}
	}

	for _, e := range edges {
		for _, d := range e.deps {
			targetID, err := st.EnsureRubygem(ctx, d.Name)
			if err != nil {
				return stats, err
			}
			if _, err := st.CreateDependency(ctx, e.versionID, targetID, d.Requirement); err != nil {
				return stats, err
			}
			stats.Dependencies++
		}
	}

	return stats, nil
}
