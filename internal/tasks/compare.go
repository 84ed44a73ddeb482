package tasks

import (
	"context"

	"github.com/desertthunder/musicmgr/internal/models"
	"github.com/desertthunder/musicmgr/internal/titles"
)

// CompareResult is the reconciliation of a playlist with a song list.
type CompareResult struct {
	titles.Reconciliation
	PlaylistID    string
	Remote        []models.Track
	RemoteOnlyIDs []string // track IDs behind OnlyInRemote, deduplicated
}

// Compare fetches the playlist and reconciles its "title by artists" entries with lines.
// Nothing is modified; see [PlaylistEngine.PruneRemote].
func (e *PlaylistEngine) Compare(ctx context.Context, playlistID string, lines []string, progress chan<- ProgressUpdate) (*CompareResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	tracks, err := e.fetchPlaylist(ctx, playlistID, progress)
	if err != nil {
		return nil, err
	}

	remote := make([]string, len(tracks))
	for i, t := range tracks {
		remote[i] = t.Entry()
	}

	e.sendProgress(progress, compareUpdate(len(remote), len(lines)))
	rec := e.normalizer.Reconcile(remote, lines)

	onlyRemote := make(map[string]bool, len(rec.OnlyInRemote))
	for _, entry := range rec.OnlyInRemote {
		onlyRemote[e.normalizer.Identity(entry)] = true
	}

	ids := []string{}
	for _, t := range tracks {
		if t.ID != "" && onlyRemote[e.normalizer.Identity(t.Entry())] {
			ids = append(ids, t.ID)
		}
	}

	return &CompareResult{
		Reconciliation: rec,
		PlaylistID:     playlistID,
		Remote:         tracks,
		RemoteOnlyIDs:  uniqueIDs(ids),
	}, nil
}

// PruneRemote removes the tracks that only exist in the playlist. It returns the number of
// tracks removed.
func (e *PlaylistEngine) PruneRemote(ctx context.Context, cmp *CompareResult, progress chan<- ProgressUpdate) (int, error) {
	if err := e.requireService(); err != nil {
		return 0, err
	}
	if len(cmp.RemoteOnlyIDs) == 0 {
		return 0, nil
	}

	e.sendProgress(progress, removeTracksUpdate(len(cmp.RemoteOnlyIDs), false))
	if err := e.service.RemoveTracks(ctx, cmp.PlaylistID, cmp.RemoteOnlyIDs); err != nil {
		return 0, remoteWriteError(err)
	}
	return len(cmp.RemoteOnlyIDs), nil
}
