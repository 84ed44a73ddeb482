package tasks

import (
	"context"
	"strings"

	"github.com/desertthunder/musicmgr/internal/library"
	"github.com/desertthunder/musicmgr/internal/models"
	"github.com/desertthunder/musicmgr/internal/titles"
	"github.com/hbollon/go-edlib"
)

// Confidence levels reported for a match.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

const (
	highConfidence   = 0.9
	mediumConfidence = 0.75
)

// MatchResult is the outcome of searching for one local track.
type MatchResult struct {
	Track      library.Track
	Query      string
	Candidate  *models.Track // nil when unmatched
	Confidence float32       // title similarity between the local track and the candidate
	Level      string        // empty when unmatched
	Err        error         // search failure, if any
}

// Matched reports whether a candidate was found.
func (r MatchResult) Matched() bool {
	return r.Candidate != nil
}

// MatchReport collects the results of [PlaylistEngine.Match] in library order.
type MatchReport struct {
	Library    *library.Library
	Results    []MatchResult
	Duplicates int // tracks dropped before matching
}

// Matched returns the results that have a candidate.
func (r *MatchReport) Matched() []MatchResult {
	return r.filter(true)
}

// Unmatched returns the results without a candidate, including failed searches.
func (r *MatchReport) Unmatched() []MatchResult {
	return r.filter(false)
}

func (r *MatchReport) filter(matched bool) []MatchResult {
	out := []MatchResult{}
	for _, res := range r.Results {
		if res.Matched() == matched {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the number of searches that returned an error.
func (r *MatchReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// TrackIDs returns the candidate IDs in result order with duplicates removed.
func (r *MatchReport) TrackIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Candidate != nil && res.Candidate.ID != "" {
			ids = append(ids, res.Candidate.ID)
		}
	}
	return uniqueIDs(ids)
}

// BuildQuery returns the search query for a title and artist: "track:<title> artist:<artist>",
// or the bare title without an artist.
func BuildQuery(title, artist string) string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return title
	}
	return "track:" + title + " artist:" + artist
}

// Match searches for every track of lib after removing duplicate files. It never fails: search
// errors and empty candidate lists both leave the track unmatched.
func (e *PlaylistEngine) Match(ctx context.Context, lib *library.Library, progress chan<- ProgressUpdate) *MatchReport {
	deduped, duplicates := lib.Dedupe(e.normalizer)
	report := &MatchReport{
		Library:    deduped,
		Results:    make([]MatchResult, 0, len(deduped.Tracks)),
		Duplicates: duplicates,
	}

	total := len(deduped.Tracks)
	e.sendProgress(progress, searchTracksUpdate(total, duplicates))
	for i, track := range deduped.Tracks {
		res := e.matchTrack(ctx, track)
		if res.Err != nil {
			e.logger.Warn("search failed", "query", res.Query, "error", res.Err)
		}

		report.Results = append(report.Results, res)
		e.sendProgress(progress, matchResultUpdate(i+1, total, res))
	}

	return report
}

func (e *PlaylistEngine) matchTrack(ctx context.Context, track library.Track) MatchResult {
	title := track.TitleKey(e.normalizer)
	res := MatchResult{Track: track}
	if title.Degenerate() {
		e.logger.Debug("nothing to search for", "path", track.RelPath)
		return res
	}

	res.Query = BuildQuery(string(title), track.ArtistName())
	if e.service == nil {
		res.Err = e.requireService()
		return res
	}

	candidates, err := e.search(ctx, res.Query)
	if err != nil {
		res.Err = err
		return res
	}
	if len(candidates) == 0 {
		return res
	}

	candidate := candidates[0]
	res.Candidate = &candidate
	res.Confidence = e.confidence(title, candidate)
	res.Level = level(res.Confidence)
	return res
}

// confidence is the Jaro-Winkler similarity of the normalized titles.
func (e *PlaylistEngine) confidence(title titles.Key, candidate models.Track) float32 {
	other := e.normalizer.Normalize(candidate.Title)
	if title == other {
		return 1
	}
	score, err := edlib.StringsSimilarity(string(title), string(other), edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return score
}

func level(confidence float32) string {
	switch {
	case confidence >= highConfidence:
		return LevelHigh
	case confidence >= mediumConfidence:
		return LevelMedium
	default:
		return LevelLow
	}
}
