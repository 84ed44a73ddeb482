package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/musicmgr/internal/tasks"
)

// Progress renders a progress update as a single line. Match lines are colored by outcome.
func Progress(u tasks.ProgressUpdate) string {
	switch {
	case strings.Contains(u.Message, "✓"):
		return strings.Replace(u.Message, "✓", styles.OK("✓"), 1)
	case strings.Contains(u.Message, "✗"):
		return strings.Replace(u.Message, "✗", styles.Err("✗"), 1)
	case u.Phase == tasks.SearchTracks:
		return styles.Help(u.Message)
	default:
		return "→ " + u.Message
	}
}

// CreateSummary renders the result of a create-playlist run.
func CreateSummary(res *tasks.CreateResult) string {
	var b strings.Builder

	report := res.Report
	total := len(report.Results)
	matched := len(report.Matched())

	if res.Playlist != nil {
		b.WriteString(styles.OK("✓ Playlist created") + "\n")
		fmt.Fprintf(&b, "  Name: %s\n", res.Playlist.Name)
		fmt.Fprintf(&b, "  ID: %s\n", res.Playlist.ID)
		fmt.Fprintf(&b, "  Tracks added: %d\n", res.Added)
	} else {
		b.WriteString(styles.Err("✗ No playlist created") + "\n")
	}

	fmt.Fprintf(&b, "  Matched: %d/%d (%.1f%%)\n", matched, total, percent(matched, total))
	if report.Duplicates > 0 {
		fmt.Fprintf(&b, "  Duplicates skipped: %d\n", report.Duplicates)
	}
	if failed := report.Failed(); failed > 0 {
		b.WriteString(styles.Warn(fmt.Sprintf("  Failed searches: %d", failed)) + "\n")
	}
	if unmatched := total - matched; unmatched > 0 {
		b.WriteString(styles.Warn(fmt.Sprintf("  Unmatched: %d", unmatched)) + "\n")
	}
	return b.String()
}

// AddSummary renders the result of an add-unmatched run.
func AddSummary(res *tasks.AddResult) string {
	var b strings.Builder

	b.WriteString(styles.OK(fmt.Sprintf("✓ Added %d tracks", res.Added)) + "\n")
	fmt.Fprintf(&b, "  Found: %d\n", len(res.Found))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&b, "  Skipped placeholders: %d\n", len(res.Skipped))
	}
	if len(res.NotFound) > 0 {
		b.WriteString(styles.Warn(fmt.Sprintf("  Not found: %d", len(res.NotFound))) + "\n")
		for _, line := range res.NotFound {
			b.WriteString("    • " + line + "\n")
		}
	}
	return b.String()
}

// RemoveSummary renders the result of a remove-tracks run.
func RemoveSummary(res *tasks.RemoveResult) string {
	var b strings.Builder

	switch {
	case len(res.Matched) == 0:
		b.WriteString(styles.Help("No matching tracks") + "\n")
		return b.String()
	case res.DryRun:
		b.WriteString(styles.Warn(fmt.Sprintf("Dry run: %d tracks would be removed", len(res.Matched))) + "\n")
	default:
		b.WriteString(styles.OK(fmt.Sprintf("✓ Removed %d tracks", res.Removed)) + "\n")
	}

	for _, t := range res.Matched {
		b.WriteString("  • " + t.Entry() + "\n")
	}
	return b.String()
}

// CompareSummary renders both sides of a comparison and the duplicate counts.
func CompareSummary(cmp *tasks.CompareResult) string {
	var b strings.Builder

	b.WriteString(styles.Title(fmt.Sprintf("Only in song list (%d)", len(cmp.OnlyInLocal))) + "\n")
	for _, e := range cmp.OnlyInLocal {
		b.WriteString("  " + e + "\n")
	}
	b.WriteString("\n" + styles.Title(fmt.Sprintf("Only in playlist (%d)", len(cmp.OnlyInRemote))) + "\n")
	for _, e := range cmp.OnlyInRemote {
		b.WriteString("  " + e + "\n")
	}

	fmt.Fprintf(&b, "\nMatched: %d\n", cmp.Matched)
	fmt.Fprintf(&b, "Duplicates removed from song list: %d\n", cmp.LocalRemoved)
	fmt.Fprintf(&b, "Duplicates removed from playlist: %d\n", cmp.RemoteRemoved)
	return b.String()
}

// DedupeSummary renders the result of remove-duplicates.
func DedupeSummary(path string, kept, removed int) string {
	if removed == 0 {
		return styles.Help(fmt.Sprintf("No duplicates in %s (%d entries)", path, kept)) + "\n"
	}
	return styles.OK(fmt.Sprintf("✓ Removed %d duplicates", removed)) +
		fmt.Sprintf("\n  %d entries written to %s\n", kept, path)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
