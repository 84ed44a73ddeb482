// package formatter renders run reports (unmatched tracks, playlist comparisons) as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/tasks"
)

// Format is a report output format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats in flag order.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat accepts a format name or a common alias ("text", "markdown").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// FormatFromPath picks the format from the file extension, falling back to plain text.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatText
	}
	return f
}

// UnmatchedEntry is a local track that was not found.
type UnmatchedEntry struct {
	Entry string `json:"entry"`
	Path  string `json:"path"`
	Query string `json:"query,omitempty"`
	Error string `json:"error,omitempty"`
}

// UnmatchedReport lists the tracks of a create-playlist run that could not be matched.
type UnmatchedReport struct {
	RunID      string           `json:"run_id"`
	Source     string           `json:"source"`
	PlaylistID string           `json:"playlist_id,omitempty"`
	Generated  time.Time        `json:"generated"`
	Total      int              `json:"total"`
	Matched    int              `json:"matched"`
	Duplicates int              `json:"duplicates"`
	Unmatched  []UnmatchedEntry `json:"unmatched"`
}

// NewUnmatchedReport builds a report from a match run. playlistID may be empty when no playlist
// was created.
func NewUnmatchedReport(report *tasks.MatchReport, playlistID string) *UnmatchedReport {
	r := &UnmatchedReport{
		RunID:      shared.GenerateID(),
		PlaylistID: playlistID,
		Generated:  time.Now().UTC(),
		Total:      len(report.Results),
		Matched:    len(report.Matched()),
		Duplicates: report.Duplicates,
		Unmatched:  []UnmatchedEntry{},
	}
	if report.Library != nil {
		r.Source = report.Library.Root
	}

	for _, res := range report.Unmatched() {
		e := UnmatchedEntry{Entry: res.Track.Entry(), Path: res.Track.RelPath, Query: res.Query}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		r.Unmatched = append(r.Unmatched, e)
	}
	return r
}

// ExportUnmatched renders the report. The text format is a song list, one entry per line,
// readable by the add-unmatched command.
func ExportUnmatched(r *UnmatchedReport, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		var buf bytes.Buffer
		for _, e := range r.Unmatched {
			buf.WriteString(e.Entry + "\n")
		}
		return buf.Bytes(), nil
	case FormatMarkdown:
		return unmatchedMarkdown(r), nil
	case FormatCSV:
		rows := make([][]string, 0, len(r.Unmatched))
		for _, e := range r.Unmatched {
			rows = append(rows, []string{e.Entry, e.Path, e.Query, e.Error})
		}
		return toCSV([]string{"Entry", "Path", "Query", "Error"}, rows)
	case FormatJSON:
		return toJSON(r)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

func unmatchedMarkdown(r *UnmatchedReport) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Unmatched tracks\n\n")
	fmt.Fprintf(&buf, "**Source**: %s\n", r.Source)
	if r.PlaylistID != "" {
		fmt.Fprintf(&buf, "**Playlist**: %s\n", r.PlaylistID)
	}
	fmt.Fprintf(&buf, "**Matched**: %d of %d\n", r.Matched, r.Total)
	fmt.Fprintf(&buf, "**Duplicates skipped**: %d\n", r.Duplicates)
	fmt.Fprintf(&buf, "**Run**: %s (%s)\n\n", r.RunID, r.Generated.Format(time.RFC3339))

	buf.WriteString("## Tracks\n\n")
	for i, e := range r.Unmatched {
		fmt.Fprintf(&buf, "%d. %s `%s`", i+1, e.Entry, e.Path)
		if e.Error != "" {
			fmt.Fprintf(&buf, " (error: %s)", e.Error)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// ComparisonReport is the result of comparing a playlist with a song list.
type ComparisonReport struct {
	RunID         string    `json:"run_id"`
	PlaylistID    string    `json:"playlist_id"`
	Source        string    `json:"source"`
	Generated     time.Time `json:"generated"`
	Matched       int       `json:"matched"`
	LocalRemoved  int       `json:"local_duplicates_removed"`
	RemoteRemoved int       `json:"remote_duplicates_removed"`
	OnlyInLocal   []string  `json:"only_in_local"`
	OnlyInRemote  []string  `json:"only_in_remote"`
}

// NewComparisonReport builds a report from a comparison of the playlist with the song list at source.
func NewComparisonReport(cmp *tasks.CompareResult, source string) *ComparisonReport {
	return &ComparisonReport{
		RunID:         shared.GenerateID(),
		PlaylistID:    cmp.PlaylistID,
		Source:        source,
		Generated:     time.Now().UTC(),
		Matched:       cmp.Matched,
		LocalRemoved:  cmp.LocalRemoved,
		RemoteRemoved: cmp.RemoteRemoved,
		OnlyInLocal:   cmp.OnlyInLocal,
		OnlyInRemote:  cmp.OnlyInRemote,
	}
}

// ExportComparison renders the report.
func ExportComparison(r *ComparisonReport, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return comparisonText(r), nil
	case FormatMarkdown:
		return comparisonMarkdown(r), nil
	case FormatCSV:
		rows := make([][]string, 0, len(r.OnlyInLocal)+len(r.OnlyInRemote))
		for _, e := range r.OnlyInLocal {
			rows = append(rows, []string{"local", e})
		}
		for _, e := range r.OnlyInRemote {
			rows = append(rows, []string{"remote", e})
		}
		return toCSV([]string{"Side", "Entry"}, rows)
	case FormatJSON:
		return toJSON(r)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

func comparisonText(r *ComparisonReport) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", r.PlaylistID)
	fmt.Fprintf(&buf, "Song list: %s\n", r.Source)
	fmt.Fprintf(&buf, "Matched: %d\n", r.Matched)
	fmt.Fprintf(&buf, "Duplicates removed: %d local, %d playlist\n\n", r.LocalRemoved, r.RemoteRemoved)

	fmt.Fprintf(&buf, "Only in song list (%d):\n", len(r.OnlyInLocal))
	for _, e := range r.OnlyInLocal {
		buf.WriteString("  " + e + "\n")
	}
	fmt.Fprintf(&buf, "\nOnly in playlist (%d):\n", len(r.OnlyInRemote))
	for _, e := range r.OnlyInRemote {
		buf.WriteString("  " + e + "\n")
	}
	return buf.Bytes()
}

func comparisonMarkdown(r *ComparisonReport) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Playlist %s\n\n", r.PlaylistID)
	fmt.Fprintf(&buf, "**Song list**: %s\n", r.Source)
	fmt.Fprintf(&buf, "**Matched**: %d\n", r.Matched)
	fmt.Fprintf(&buf, "**Duplicates removed**: %d local, %d playlist\n\n", r.LocalRemoved, r.RemoteRemoved)

	fmt.Fprintf(&buf, "## Only in song list (%d)\n\n", len(r.OnlyInLocal))
	for i, e := range r.OnlyInLocal {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, e)
	}
	fmt.Fprintf(&buf, "\n## Only in playlist (%d)\n\n", len(r.OnlyInRemote))
	for i, e := range r.OnlyInRemote {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, e)
	}
	return buf.Bytes()
}

func toCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

func toJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport writes data to path, creating the parent directory.
func WriteReport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrFileAccess, dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrFileAccess, path, err)
	}
	return nil
}

// DefaultReportPath returns the default unmatched report location for a library directory:
// a sibling file named "<dir>_unmatched.<ext>".
func DefaultReportPath(dir string, format Format) string {
	clean := filepath.Clean(dir)
	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}
	return filepath.Join(filepath.Dir(clean), filepath.Base(clean)+"_unmatched."+string(format))
}
