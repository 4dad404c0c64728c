// Package gem holds the immutable records produced by the index queries.
package gem

import (
	"slices"

	"go.trai.ch/zerr"
)

// DefaultPlatform is the platform of a pure-Ruby build. Versions on this
// platform are labelled by number alone.
const DefaultPlatform = "ruby"

// ErrInvalidVersion is returned by NewVersion when a required field is empty.
var ErrInvalidVersion = zerr.New("invalid version record")

// Dependency is one declared requirement of a version on another gem.
type Dependency struct {
	Name        string `json:"name"`
	Requirement string `json:"requirement"` // e.g. "= 1.0.0", ">= 2.0, < 3"
}

// Version is one published build of a gem. It is immutable once built:
// the zero value is empty and every field is set through NewVersion.
type Version struct {
	number              string
	platform            string
	checksum            *string
	infoChecksum        *string
	dependencies        []Dependency
	requiredRubyVersion *string
	rubygemsVersion     *string
}

// Option sets an optional attribute on a Version under construction.
type Option func(*Version)

// WithChecksum records the checksum of the .gem file.
func WithChecksum(sum string) Option {
	return func(v *Version) { v.checksum = &sum }
}

// WithInfoChecksum records the checksum of the gem's info file.
func WithInfoChecksum(sum string) Option {
	return func(v *Version) { v.infoChecksum = &sum }
}

// WithRequiredRubyVersion records the minimum Ruby version constraint.
func WithRequiredRubyVersion(req string) Option {
	return func(v *Version) { v.requiredRubyVersion = &req }
}

// WithRubygemsVersion records the minimum RubyGems version constraint.
func WithRubygemsVersion(req string) Option {
	return func(v *Version) { v.rubygemsVersion = &req }
}

// WithDependencies records the dependency list in declaration order.
// The slice is copied.
func WithDependencies(deps []Dependency) Option {
	return func(v *Version) { v.dependencies = slices.Clone(deps) }
}

// NewVersion builds a Version. An empty platform means DefaultPlatform.
func NewVersion(number, platform string, opts ...Option) (Version, error) {
	if number == "" {
		return Version{}, zerr.Wrap(ErrInvalidVersion, "version number is empty")
	}
	if platform == "" {
		platform = DefaultPlatform
	}

	v := Version{number: number, platform: platform}
	for _, opt := range opts {
		opt(&v)
	}

	for i, dep := range v.dependencies {
		if dep.Name == "" {
			err := zerr.Wrap(ErrInvalidVersion, "dependency name is empty")
			return Version{}, zerr.With(zerr.With(err, "number", number), "dependency_index", i)
		}
	}

	return v, nil
}

// Number returns the version number as published.
func (v Version) Number() string { return v.number }

// Platform returns the build platform.
func (v Version) Platform() string { return v.platform }

// Checksum returns the .gem checksum, if one was recorded.
func (v Version) Checksum() (string, bool) { return deref(v.checksum) }

// InfoChecksum returns the info file checksum, if one was recorded.
func (v Version) InfoChecksum() (string, bool) { return deref(v.infoChecksum) }

// RequiredRubyVersion returns the Ruby version constraint, if one was recorded.
func (v Version) RequiredRubyVersion() (string, bool) { return deref(v.requiredRubyVersion) }

// RubygemsVersion returns the RubyGems version constraint, if one was recorded.
func (v Version) RubygemsVersion() (string, bool) { return deref(v.rubygemsVersion) }

// Dependencies returns a copy of the dependency list in declaration order.
// A version without dependencies returns an empty, non-nil slice.
func (v Version) Dependencies() []Dependency {
	if len(v.dependencies) == 0 {
		return []Dependency{}
	}
	return slices.Clone(v.dependencies)
}

// Label returns the identity clients see in the versions file: the number
// alone on the default platform, "number-platform" otherwise.
func (v Version) Label() string {
	return Label(v.number, v.platform)
}

// Label joins a number and platform the way Version.Label does.
func Label(number, platform string) string {
	if platform == "" || platform == DefaultPlatform {
		return number
	}
	return number + "-" + platform
}

// Equal reports whether two versions carry identical fields. An absent
// optional is never equal to a present empty string.
func (v Version) Equal(o Version) bool {
	return v.number == o.number &&
		v.platform == o.platform &&
		optEqual(v.checksum, o.checksum) &&
		optEqual(v.infoChecksum, o.infoChecksum) &&
		optEqual(v.requiredRubyVersion, o.requiredRubyVersion) &&
		optEqual(v.rubygemsVersion, o.rubygemsVersion) &&
		slices.Equal(v.dependencies, o.dependencies)
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
