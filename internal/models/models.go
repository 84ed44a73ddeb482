package models

import "strings"

// Track represents a track returned by a music service.
type Track struct {
	ID      string
	URI     string
	Title   string
	Artists []string
	Album   string
}

// Artist returns the artists joined with ", ".
func (t Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// Entry renders the track the way song lists store it: "Title by Artist1, Artist2", or just the
// title when the track has no artists.
func (t Track) Entry() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return t.Title + " by " + t.Artist()
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}
