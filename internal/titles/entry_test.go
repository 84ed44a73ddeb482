package titles

import (
	"slices"
	"testing"
)

func TestParseEntry(t *testing.T) {
	tc := []struct {
		name    string
		line    string
		title   string
		artists []string
	}{
		{name: "title and artists", line: "Song by A, B", title: "Song", artists: []string{"A", "B"}},
		{name: "title only", line: "  Song  ", title: "Song"},
		{name: "splits at first separator", line: "Stand by Me by Ben E. King", title: "Stand", artists: []string{"Me by Ben E. King"}},
		{name: "empty artists dropped", line: "Song by A, , B,", title: "Song", artists: []string{"A", "B"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			e := ParseEntry(tt.line)
			if e.Title != tt.title {
				t.Errorf("Title = %q, want %q", e.Title, tt.title)
			}
			if !slices.Equal(e.Artists, tt.artists) {
				t.Errorf("Artists = %q, want %q", e.Artists, tt.artists)
			}
		})
	}
}

func TestEntryPlaceholder(t *testing.T) {
	tc := []struct {
		title string
		want  bool
	}{
		{"Track", true},
		{"Track 7", true},
		{"TRACK 07", true},
		{"Track-12", true},
		{"Track One", false},
		{"Back on Track 2", false},
		{"Song", false},
	}

	for _, tt := range tc {
		t.Run(tt.title, func(t *testing.T) {
			if got := (Entry{Title: tt.title}).Placeholder(); got != tt.want {
				t.Errorf("Placeholder(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestEntryQueries(t *testing.T) {
	t.Run("all variants", func(t *testing.T) {
		e := ParseEntry("The Sound of Silence (feat. Someone) by Simon, Garfunkel")
		want := []string{
			"the sound of silence simon garfunkel",
			"the sound of silence",
			"the sound of silence simon",
			"sound of silence simon garfunkel",
		}
		if got := e.Queries(); !slices.Equal(got, want) {
			t.Errorf("Queries() = %q, want %q", got, want)
		}
	})

	t.Run("single artist short title", func(t *testing.T) {
		want := []string{"song artist", "song"}
		if got := ParseEntry("Song by Artist").Queries(); !slices.Equal(got, want) {
			t.Errorf("Queries() = %q, want %q", got, want)
		}
	})

	t.Run("no artists", func(t *testing.T) {
		want := []string{"song"}
		if got := ParseEntry("Song").Queries(); !slices.Equal(got, want) {
			t.Errorf("Queries() = %q, want %q", got, want)
		}
	})

	t.Run("empty title", func(t *testing.T) {
		if got := (Entry{}).Queries(); got != nil {
			t.Errorf("Queries() = %q, want nil", got)
		}
	})
}
