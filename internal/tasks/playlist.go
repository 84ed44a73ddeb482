package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/desertthunder/musicmgr/internal/library"
	"github.com/desertthunder/musicmgr/internal/models"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/titles"
)

// DefaultRemovePattern matches the placeholder titles left behind by ripping software.
const DefaultRemovePattern = `(?i)Track\s+\d+`

// CreateOpts configures [PlaylistEngine.CreatePlaylist].
type CreateOpts struct {
	Description string // defaults to a note naming the source directory
	Public      bool
	Scan        library.ScanOptions
}

// CreateResult contains the data from a create-playlist run. It is returned alongside any
// error once matching has happened, so the unmatched report can always be written.
type CreateResult struct {
	Report   *MatchReport
	Playlist *models.Playlist // nil when no playlist was created
	Added    int
}

// CreatePlaylist scans dir, matches its tracks and creates a playlist named name holding every
// match. No playlist is created when nothing matched ([shared.ErrNoMatches]).
func (e *PlaylistEngine) CreatePlaylist(ctx context.Context, dir, name string, opts CreateOpts, progress chan<- ProgressUpdate) (*CreateResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name is empty", shared.ErrInvalidArgument)
	}
	if opts.Scan.Logger == nil {
		opts.Scan.Logger = e.logger
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Created by musicmgr from %s", filepath.Base(filepath.Clean(dir)))
	}

	logger := shared.WithLogger(e.logger, "playlist", name)
	e.sendProgress(progress, scanLibraryUpdate(dir))
	lib, err := library.Scan(dir, opts.Scan)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, scannedLibraryUpdate(lib))
	report := e.Match(ctx, lib, progress)
	result := &CreateResult{Report: report}

	ids := report.TrackIDs()
	if len(ids) == 0 {
		return result, fmt.Errorf("%w: none of %d tracks in %s were found", shared.ErrNoMatches, len(report.Results), dir)
	}

	e.sendProgress(progress, createPlaylistUpdate(0, 1, nil, name))
	pl, err := e.service.CreatePlaylist(ctx, name, opts.Description, opts.Public)
	if err != nil {
		return result, remoteWriteError(err)
	}
	result.Playlist = pl
	e.sendProgress(progress, createPlaylistUpdate(1, 1, pl, name))

	e.sendProgress(progress, addTracksUpdate(len(ids), pl.ID))
	added, err := e.service.AddTracks(ctx, pl.ID, ids)
	result.Added = added
	if err != nil {
		logger.Error("adding tracks failed", "added", added, "total", len(ids), "error", err)
		if errors.Is(err, shared.ErrRemoteWrite) {
			return result, err
		}
		return result, fmt.Errorf("%w: added %d of %d tracks: %v", shared.ErrRemoteWrite, added, len(ids), err)
	}
	pl.TrackCount = added
	logger.Info("playlist created", "id", pl.ID, "tracks", added)

	return result, nil
}

// AddResult contains the data from an add-from-list run.
type AddResult struct {
	Found    []FoundLine
	NotFound []string // lines without a match, in input order
	Skipped  []string // placeholder lines that were not searched
	Added    int
}

// FoundLine pairs a song-list line with the track it resolved to.
type FoundLine struct {
	Line  string
	Query string
	Track models.Track
}

// AddFromList searches for each "title by artists" line and adds the tracks found to an
// existing playlist. Placeholder titles ("Track 7") are skipped. For each line the query
// variants from [titles.Entry.Queries] are tried in order and the first candidate wins.
func (e *PlaylistEngine) AddFromList(ctx context.Context, playlistID string, lines []string, progress chan<- ProgressUpdate) (*AddResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	result := &AddResult{Found: []FoundLine{}, NotFound: []string{}, Skipped: []string{}}
	total := len(lines)

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry := titles.ParseEntry(line)
		if entry.Placeholder() {
			result.Skipped = append(result.Skipped, line)
			e.sendProgress(progress, skippedLineUpdate(i+1, total, line))
			continue
		}

		found, query := e.findEntry(ctx, entry)
		if found == nil {
			result.NotFound = append(result.NotFound, line)
		} else {
			result.Found = append(result.Found, FoundLine{Line: line, Query: query, Track: *found})
		}
		e.sendProgress(progress, lineResultUpdate(i+1, total, line, found))
	}

	ids := make([]string, 0, len(result.Found))
	for _, f := range result.Found {
		ids = append(ids, f.Track.ID)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}

	e.sendProgress(progress, addTracksUpdate(len(ids), playlistID))
	added, err := e.service.AddTracks(ctx, playlistID, ids)
	result.Added = added
	if err != nil {
		return result, remoteWriteError(err)
	}
	return result, nil
}

func (e *PlaylistEngine) findEntry(ctx context.Context, entry titles.Entry) (*models.Track, string) {
	for _, query := range entry.Queries() {
		candidates, err := e.search(ctx, query)
		if err != nil {
			e.logger.Warn("search failed", "query", query, "error", err)
			continue
		}
		if len(candidates) > 0 {
			return &candidates[0], query
		}
	}
	return nil, ""
}

// RemoveResult contains the data from a remove-matching run.
type RemoveResult struct {
	Matched []models.Track // tracks whose title matched, one per ID
	Removed int
	DryRun  bool
}

// RemoveMatching removes every track whose title matches pattern. With dryRun set nothing is
// removed and the matching tracks are only reported.
func (e *PlaylistEngine) RemoveMatching(ctx context.Context, playlistID string, pattern *regexp.Regexp, dryRun bool, progress chan<- ProgressUpdate) (*RemoveResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}
	if pattern == nil {
		pattern = regexp.MustCompile(DefaultRemovePattern)
	}

	tracks, err := e.fetchPlaylist(ctx, playlistID, progress)
	if err != nil {
		return nil, err
	}

	var matched []models.Track
	for _, t := range tracks {
		if t.ID != "" && pattern.MatchString(t.Title) {
			matched = append(matched, t)
		}
	}
	matched, _ = titles.DedupeBy(matched, func(t models.Track) string { return t.ID })

	result := &RemoveResult{Matched: matched, DryRun: dryRun}
	e.sendProgress(progress, removeTracksUpdate(len(matched), dryRun))
	if dryRun || len(matched) == 0 {
		return result, nil
	}

	ids := make([]string, len(matched))
	for i, t := range matched {
		ids[i] = t.ID
	}
	if err := e.service.RemoveTracks(ctx, playlistID, ids); err != nil {
		return result, remoteWriteError(err)
	}
	result.Removed = len(ids)
	return result, nil
}

func (e *PlaylistEngine) fetchPlaylist(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) ([]models.Track, error) {
	e.sendProgress(progress, fetchPlaylistUpdate(0, playlistID, 0))
	tracks, err := e.service.PlaylistTracks(ctx, playlistID)
	if err != nil {
		if !errors.Is(err, shared.ErrAPIRequest) && !errors.Is(err, shared.ErrPlaylistNotFound) {
			err = fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		return nil, err
	}
	e.sendProgress(progress, fetchPlaylistUpdate(1, playlistID, len(tracks)))
	return tracks, nil
}

func remoteWriteError(err error) error {
	if errors.Is(err, shared.ErrRemoteWrite) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrRemoteWrite, err)
}
