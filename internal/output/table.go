// Package output renders tools, version records and version agreement for
// the terminal.
//
// Tables use fixed-width columns and ANSI colors, and colors are dropped when
// stdout is not a terminal or NO_COLOR is set.
package output

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/cincanproject/cincan-registry/internal/store"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

// ANSI color codes for status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// now is swapped in tests so relative times are stable.
var now = time.Now

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// Status is the one-word verdict shown for a tool.
type Status string

const (
	StatusCurrent  Status = "current"
	StatusOutdated Status = "outdated"
	StatusMismatch Status = "mismatch"
	StatusUnknown  Status = "unknown"
)

// StatusOf classifies an agreement. A local image that differs from the
// remote one wins over an outdated remote.
func StatusOf(a tool.Agreement) Status {
	switch {
	case a.Local != nil && a.Remote != nil && !a.LocalMatchesRemote:
		return StatusMismatch
	case a.Remote == nil || a.Upstream == nil:
		return StatusUnknown
	case a.UpToDate():
		return StatusCurrent
	default:
		return StatusOutdated
	}
}

func statusLabel(s Status) string {
	switch s {
	case StatusCurrent:
		return colorize(colorGreen, "✓ current")
	case StatusOutdated:
		return colorize(colorYellow, "↑ outdated")
	case StatusMismatch:
		return colorize(colorRed, "✗ mismatch")
	default:
		return colorize(colorGray, "? unknown")
	}
}

// RenderToolTable renders one row per tool with its latest local, remote and
// upstream versions. Tools are sorted by name, then location.
func RenderToolTable(ctx context.Context, tools []*tool.Tool) string {
	if len(tools) == 0 {
		return "No tools found.\n"
	}

	sorted := make([]*tool.Tool, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Location < sorted[j].Location
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %-12s %-12s %-12s %-12s %-15s %s\n",
		"Tool", "Location", "Local", "Remote", "Upstream", "Updated", "Status"))
	sb.WriteString(strings.Repeat("─", 104))
	sb.WriteString("\n")

	for _, t := range sorted {
		a, err := t.Agreement(ctx)
		status := statusLabel(StatusOf(a))
		if err != nil {
			status = colorize(colorRed, "error: "+err.Error())
		}
		sb.WriteString(fmt.Sprintf("%-28s %-12s %-12s %-12s %-12s %-15s %s\n",
			truncate(t.Name, 28),
			truncate(t.Location, 12),
			truncate(orDash(a.LocalVersion), 12),
			truncate(orDash(a.RemoteVersion), 12),
			truncate(orDash(a.UpstreamVersion), 12),
			formatRelativeTime(t.Updated),
			status))
	}
	return sb.String()
}

// RenderVersionTable renders version records in the given order. Origin
// records are marked with an asterisk.
func RenderVersionTable(ctx context.Context, versions []*tool.VersionRecord) string {
	if len(versions) == 0 {
		return "No versions found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-16s %-14s %-22s %-10s %s\n",
		"Type", "Version", "Source", "Tags", "Size", "Updated"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	for _, r := range versions {
		ver, err := r.Version(ctx)
		if err != nil {
			ver = "error"
		}
		if r.Origin() {
			ver += "*"
		}
		sb.WriteString(fmt.Sprintf("%-10s %-16s %-14s %-22s %-10s %s\n",
			string(r.Type),
			truncate(ver, 16),
			truncate(r.Source.String(), 14),
			truncate(orDash(strings.Join(r.Tags, ",")), 22),
			formatSize(r),
			formatRelativeTime(r.Updated())))
	}
	return sb.String()
}

// RenderAgreement renders the local, remote and upstream comparison of one
// tool.
func RenderAgreement(name string, a tool.Agreement) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tool:     %s\n", name))
	sb.WriteString(fmt.Sprintf("Local:    %s\n", describe(a.Local, a.LocalVersion)))
	sb.WriteString(fmt.Sprintf("Remote:   %s\n", describe(a.Remote, a.RemoteVersion)))
	sb.WriteString(fmt.Sprintf("Upstream: %s\n", describe(a.Upstream, a.UpstreamVersion)))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", statusLabel(StatusOf(a))))
	return sb.String()
}

// RenderCounts renders cache totals for the status command.
func RenderCounts(path string, c store.Counts) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Database: %s\n", path))
	sb.WriteString(fmt.Sprintf("Tools:    %s\n", humanize.Comma(int64(c.Tools))))
	sb.WriteString(fmt.Sprintf("Versions: %s\n", humanize.Comma(int64(c.Versions))))
	sb.WriteString(fmt.Sprintf("Metadata: %s\n", humanize.Comma(int64(c.Metadata))))
	return sb.String()
}

func describe(r *tool.VersionRecord, ver string) string {
	if r == nil {
		return "—"
	}
	return fmt.Sprintf("%s (%s, %s)", ver, r.Source.String(), formatRelativeTime(r.Updated()))
}

// formatSize renders a record's size with SI units, or the raw value when it
// does not parse.
func formatSize(r *tool.VersionRecord) string {
	if n, ok := r.SizeBytes(); ok {
		return humanize.Bytes(uint64(n))
	}
	return orDash(r.Size)
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now(), "ago", "from now")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
