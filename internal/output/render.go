// Package output renders gemindex results for the terminal.
//
// The Render* functions return strings so commands can decide where to write
// them. Names, versions and info use the line formats of the compact index;
// deps and snapshots are human-oriented tables. Progress and Spinner report
// long-running work and are safe for concurrent use.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/gemindex/internal/gem"
	"github.com/blackwell-systems/gemindex/internal/index"
	"github.com/blackwell-systems/gemindex/internal/store"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// header separates the (empty) metadata section of a compact index file
// from its body.
const header = "---\n"

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderNames renders the names file: one gem name per line.
func RenderNames(names []string) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RenderVersions renders the versions file. Each line holds the gem name, its
// comma-joined labels and, when known, the info checksum of its latest
// version.
func RenderVersions(list []index.PackageVersions) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, pv := range list {
		sb.WriteString(pv.Name)
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(pv.Labels, ","))
		if pv.InfoChecksum != nil {
			sb.WriteByte(' ')
			sb.WriteString(*pv.InfoChecksum)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RenderInfo renders the info file of one gem:
//
//	1.0.0 rack:= 1.0.0,rake:>= 12|checksum:abc,ruby:>= 2.7
func RenderInfo(versions []gem.Version) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, v := range versions {
		sb.WriteString(v.Label())
		sb.WriteByte(' ')

		deps := v.Dependencies()
		parts := make([]string, 0, len(deps))
		for _, dep := range deps {
			parts = append(parts, dep.Name+":"+dep.Requirement)
		}
		sb.WriteString(strings.Join(parts, ","))

		sb.WriteByte('|')
		sb.WriteString(strings.Join(requirementFields(v), ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func requirementFields(v gem.Version) []string {
	var fields []string
	if sum, ok := v.Checksum(); ok {
		fields = append(fields, "checksum:"+sum)
	}
	if ruby, ok := v.RequiredRubyVersion(); ok {
		fields = append(fields, "ruby:"+ruby)
	}
	if rubygems, ok := v.RubygemsVersion(); ok {
		fields = append(fields, "rubygems:"+rubygems)
	}
	return fields
}

// RenderDepsTable renders dependency summaries as a table. Summaries keep
// the order they were given in.
func RenderDepsTable(summaries []index.Summary) string {
	if len(summaries) == 0 {
		return "No gems found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-12s %-10s %s\n", "Gem", "Version", "Platform", "Dependencies"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, s := range summaries {
		deps := colorize(colorGray, "none")
		if len(s.Dependencies) > 0 {
			parts := make([]string, 0, len(s.Dependencies))
			for _, dep := range s.Dependencies {
				parts = append(parts, fmt.Sprintf("%s (%s)", dep.Name, dep.Requirement))
			}
			deps = strings.Join(parts, ", ")
		}

		sb.WriteString(fmt.Sprintf("%-24s %-12s %-10s %s\n",
			truncate(s.Name, 24),
			truncate(s.Number, 12),
			truncate(s.Platform, 10),
			deps))
	}

	return sb.String()
}

// RenderSnapshotTable renders stored snapshots in the order given.
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-17s %-6s %s\n", "ID", "Created", "Gems", "Reason"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("%-5d %-17s %-6d %s\n",
			snap.ID,
			formatRelativeTime(snap.CreatedAt),
			snap.PackageCount,
			truncate(snap.Reason, 30)))
	}

	return sb.String()
}

// RenderDrift reports which views differ from a snapshot.
func RenderDrift(snapshotID int64, changed []string) string {
	if len(changed) == 0 {
		return colorize(colorGreen, fmt.Sprintf("✓ index matches snapshot %d", snapshotID)) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(colorize(colorRed, fmt.Sprintf("✗ index differs from snapshot %d", snapshotID)))
	sb.WriteString("\n")
	for _, view := range changed {
		sb.WriteString(fmt.Sprintf("  %s changed\n", view))
	}
	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
