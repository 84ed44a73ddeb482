package tasks

import (
	"fmt"

	"github.com/desertthunder/musicmgr/internal/library"
	"github.com/desertthunder/musicmgr/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ScanLibrary Phase = iota
	SearchTracks
	CreatePlaylist
	AddTracks
	FetchPlaylist
	Compare
	RemoveTracks
)

func (p Phase) String() string {
	switch p {
	case ScanLibrary:
		return "scan_library"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case FetchPlaylist:
		return "fetch_playlist"
	case Compare:
		return "compare"
	case RemoveTracks:
		return "remove_tracks"
	default:
		return ""
	}
}

func scanLibraryUpdate(root string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLibrary,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Scanning %s...", root),
	}
}

func scannedLibraryUpdate(lib *library.Library) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d audio files", len(lib.Tracks)),
		Data:    lib,
	}
}

func searchTracksUpdate(total, duplicates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching for %d tracks (%d duplicates skipped)", total, duplicates),
	}
}

func matchResultUpdate(step, total int, res MatchResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✗ %s", step, total, res.Track.Entry())
	if res.Candidate != nil {
		msg = fmt.Sprintf("[%d/%d] ✓ %s → %s (%s)", step, total, res.Track.Entry(), res.Candidate.Entry(), res.Level)
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func lineResultUpdate(step, total int, line string, found *models.Track) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✗ Not found: %s", step, total, line)
	if found != nil {
		msg = fmt.Sprintf("[%d/%d] ✓ Found: %s", step, total, line)
	}
	return ProgressUpdate{Phase: SearchTracks, Step: step, Total: total, Message: msg}
}

func skippedLineUpdate(step, total int, line string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Skipping track number: %s", step, total, line),
	}
}

func createPlaylistUpdate(step, total int, pl *models.Playlist, name string) ProgressUpdate {
	if pl == nil {
		return ProgressUpdate{
			Phase:   CreatePlaylist,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("Creating playlist %q...", name),
		}
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    0,
		Total:   count,
		Message: fmt.Sprintf("Adding %d tracks to playlist %s...", count, playlistID),
	}
}

func fetchPlaylistUpdate(step int, playlistID string, count int) ProgressUpdate {
	msg := fmt.Sprintf("Fetching playlist %s...", playlistID)
	if step > 0 {
		msg = fmt.Sprintf("Fetched %d tracks from playlist %s", count, playlistID)
	}
	return ProgressUpdate{Phase: FetchPlaylist, Step: step, Total: 1, Message: msg}
}

func compareUpdate(remote, local int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Comparing %d playlist tracks with %d lines...", remote, local),
	}
}

func removeTracksUpdate(count int, dryRun bool) ProgressUpdate {
	msg := fmt.Sprintf("Removing %d tracks...", count)
	if dryRun {
		msg = fmt.Sprintf("Dry run: %d tracks would be removed", count)
	}
	return ProgressUpdate{Phase: RemoveTracks, Step: 0, Total: count, Message: msg}
}
