package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/musicmgr/internal/library"
	"github.com/desertthunder/musicmgr/internal/models"
	"github.com/desertthunder/musicmgr/internal/shared"
	tu "github.com/desertthunder/musicmgr/internal/testing"
)

func newEngine(svc *tu.MockService) *PlaylistEngine {
	opts := EngineOpts{}
	if svc != nil {
		opts.Service = svc
	}
	return NewPlaylistEngine(opts)
}

func writeLibrary(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("failed to write %s: %v", f, err)
		}
	}
	return root
}

func track(id, title string, artists ...string) models.Track {
	return models.Track{ID: id, URI: "spotify:track:" + id, Title: title, Artists: artists}
}

func TestNewPlaylistEngine(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		e := NewPlaylistEngine(EngineOpts{})
		if e.Normalizer() == nil {
			t.Error("expected default normalizer")
		}
		if e.logger == nil {
			t.Error("expected default logger")
		}
		if e.limiter == nil {
			t.Error("expected limiter")
		}
	})

	t.Run("missing service", func(t *testing.T) {
		e := NewPlaylistEngine(EngineOpts{})
		if _, err := e.AddFromList(context.Background(), "pl", []string{"Song"}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("never errors when every search is empty", func(t *testing.T) {
		svc := tu.NewMockService()
		lib, err := library.Scan(writeLibrary(t, "A/One.mp3", "B/Two.flac", "Three.wav"), library.ScanOptions{})
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		report := newEngine(svc).Match(ctx, lib, nil)
		if len(report.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(report.Results))
		}
		if len(report.Matched()) != 0 || len(report.Unmatched()) != 3 {
			t.Errorf("expected all unmatched, got %d matched", len(report.Matched()))
		}
		if report.Failed() != 0 {
			t.Errorf("expected no failures, got %d", report.Failed())
		}
		if len(svc.Queries) != 3 {
			t.Errorf("expected 3 searches, got %v", svc.Queries)
		}
	})

	t.Run("search failure leaves the track unmatched", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.SearchErr["track:one artist:A"] = errors.New("boom")
		svc.Results["track:two artist:B"] = []models.Track{track("t2", "Two", "B")}

		lib, _ := library.Scan(writeLibrary(t, "A/One.mp3", "B/Two.mp3"), library.ScanOptions{})
		report := newEngine(svc).Match(ctx, lib, nil)

		if report.Failed() != 1 {
			t.Fatalf("expected 1 failure, got %d", report.Failed())
		}
		first := report.Results[0]
		if first.Matched() || !errors.Is(first.Err, shared.ErrSearchFailed) {
			t.Errorf("expected ErrSearchFailed, got %+v", first)
		}
		if !report.Results[1].Matched() {
			t.Error("expected second track to match after a failure")
		}
	})

	t.Run("numbered and unnumbered copies are searched once", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["track:track one artist:Artist"] = []models.Track{track("t1", "Track One", "Artist")}

		lib, _ := library.Scan(writeLibrary(t, "Artist/01 Track One.mp3", "Artist/Track One.mp3"), library.ScanOptions{})
		report := newEngine(svc).Match(ctx, lib, nil)

		if report.Duplicates != 1 {
			t.Errorf("expected 1 duplicate, got %d", report.Duplicates)
		}
		if len(svc.Queries) != 1 {
			t.Errorf("expected one search, got %v", svc.Queries)
		}
		res := report.Results[0]
		if !res.Matched() || res.Level != LevelHigh || res.Confidence != 1 {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("first candidate wins", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["song"] = []models.Track{track("a", "Other Thing"), track("b", "Song")}

		lib, _ := library.Scan(writeLibrary(t, "Song.mp3"), library.ScanOptions{})
		report := newEngine(svc).Match(ctx, lib, nil)

		res := report.Results[0]
		if res.Candidate == nil || res.Candidate.ID != "a" {
			t.Fatalf("expected first candidate, got %+v", res.Candidate)
		}
		if res.Level == LevelHigh {
			t.Errorf("expected lower confidence for a different title, got %v", res.Confidence)
		}
	})

	t.Run("degenerate title is not searched", func(t *testing.T) {
		svc := tu.NewMockService()
		lib, _ := library.Scan(writeLibrary(t, "(Live).mp3"), library.ScanOptions{})
		report := newEngine(svc).Match(ctx, lib, nil)

		if len(svc.Queries) != 0 {
			t.Errorf("expected no searches, got %v", svc.Queries)
		}
		if report.Results[0].Matched() {
			t.Error("expected unmatched")
		}
	})

	t.Run("track IDs are unique", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["track:one artist:A"] = []models.Track{track("same", "One")}
		svc.Results["track:uno artist:A"] = []models.Track{track("same", "One")}

		lib, _ := library.Scan(writeLibrary(t, "A/One.mp3", "A/Uno.mp3"), library.ScanOptions{})
		report := newEngine(svc).Match(ctx, lib, nil)

		if ids := report.TrackIDs(); !slices.Equal(ids, []string{"same"}) {
			t.Errorf("got %v", ids)
		}
	})
}

func TestBuildQuery(t *testing.T) {
	tc := []struct {
		title, artist, want string
	}{
		{"song", "artist", "track:song artist:artist"},
		{"song", "", "song"},
		{" song ", "  ", "song"},
	}

	for _, tt := range tc {
		if got := BuildQuery(tt.title, tt.artist); got != tt.want {
			t.Errorf("BuildQuery(%q, %q) = %q, want %q", tt.title, tt.artist, got, tt.want)
		}
	}
}

func TestCreatePlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("creates playlist with matches", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["track:one artist:A"] = []models.Track{track("t1", "One", "A")}
		svc.Results["track:two artist:B"] = []models.Track{track("t2", "Two", "B")}
		dir := writeLibrary(t, "A/One.mp3", "B/Two.mp3", "C/Three.mp3")

		progress := make(chan ProgressUpdate, 100)
		result, err := newEngine(svc).CreatePlaylist(ctx, dir, "Mix", CreateOpts{}, progress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		if result.Playlist == nil || result.Playlist.ID != "mock-1" {
			t.Fatalf("unexpected playlist %+v", result.Playlist)
		}
		if result.Added != 2 || result.Playlist.TrackCount != 2 {
			t.Errorf("expected 2 added, got %d", result.Added)
		}
		if got := svc.Added["mock-1"]; !slices.Equal(got, []string{"t1", "t2"}) {
			t.Errorf("got %v", got)
		}
		if !strings.Contains(svc.Created[0].Description, filepath.Base(dir)) {
			t.Errorf("unexpected description %q", svc.Created[0].Description)
		}
		if len(result.Report.Unmatched()) != 1 {
			t.Errorf("expected 1 unmatched, got %d", len(result.Report.Unmatched()))
		}

		phases := map[Phase]bool{}
		var messages []string
		for u := range progress {
			phases[u.Phase] = true
			messages = append(messages, u.Message)
		}
		for _, p := range []Phase{ScanLibrary, SearchTracks, CreatePlaylist, AddTracks} {
			if !phases[p] {
				t.Errorf("missing progress for %s", p)
			}
		}

		found := slices.Index(messages, "Found 3 audio files")
		searching := slices.Index(messages, "Searching for 3 tracks (0 duplicates skipped)")
		first := slices.IndexFunc(messages, func(m string) bool { return strings.HasPrefix(m, "[1/3]") })
		if found < 0 || searching < 0 || first < 0 || !(found < searching && searching < first) {
			t.Errorf("expected scan count, then search start, then results; got %q", messages)
		}
	})

	t.Run("no matches creates nothing", func(t *testing.T) {
		svc := tu.NewMockService()
		dir := writeLibrary(t, "A/One.mp3")

		result, err := newEngine(svc).CreatePlaylist(ctx, dir, "Mix", CreateOpts{}, nil)
		if !errors.Is(err, shared.ErrNoMatches) {
			t.Fatalf("expected ErrNoMatches, got %v", err)
		}
		if result == nil || len(result.Report.Unmatched()) != 1 {
			t.Fatal("expected report alongside the error")
		}
		if len(svc.Created) != 0 {
			t.Error("expected no playlist")
		}
	})

	t.Run("add failure", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["track:one artist:A"] = []models.Track{track("t1", "One", "A")}
		svc.AddErr = errors.New("quota")

		result, err := newEngine(svc).CreatePlaylist(ctx, writeLibrary(t, "A/One.mp3"), "Mix", CreateOpts{}, nil)
		if !errors.Is(err, shared.ErrRemoteWrite) {
			t.Fatalf("expected ErrRemoteWrite, got %v", err)
		}
		if result.Playlist == nil {
			t.Error("expected created playlist in result")
		}
		if !strings.Contains(err.Error(), "added 0 of 1") {
			t.Errorf("unexpected message %q", err)
		}
	})

	t.Run("add failure from the service is not wrapped twice", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["track:one artist:A"] = []models.Track{track("t1", "One", "A")}
		svc.AddErr = fmt.Errorf("%w: added 0 of 1 tracks: quota", shared.ErrRemoteWrite)

		_, err := newEngine(svc).CreatePlaylist(ctx, writeLibrary(t, "A/One.mp3"), "Mix", CreateOpts{}, nil)
		if !errors.Is(err, shared.ErrRemoteWrite) {
			t.Fatalf("expected ErrRemoteWrite, got %v", err)
		}
		if n := strings.Count(err.Error(), "added 0 of 1"); n != 1 {
			t.Errorf("expected the count once, got %d in %q", n, err)
		}
	})

	t.Run("create failure", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["track:one artist:A"] = []models.Track{track("t1", "One", "A")}
		svc.CreateErr = errors.New("denied")

		_, err := newEngine(svc).CreatePlaylist(ctx, writeLibrary(t, "A/One.mp3"), "Mix", CreateOpts{}, nil)
		if !errors.Is(err, shared.ErrRemoteWrite) {
			t.Fatalf("expected ErrRemoteWrite, got %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := newEngine(tu.NewMockService()).CreatePlaylist(ctx, filepath.Join(t.TempDir(), "nope"), "Mix", CreateOpts{}, nil)
		if !errors.Is(err, shared.ErrFileAccess) {
			t.Errorf("expected ErrFileAccess, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := newEngine(tu.NewMockService()).CreatePlaylist(ctx, t.TempDir(), " ", CreateOpts{}, nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles playlist with lines", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["pl"] = []models.Track{
			track("r1", "Alpha", "X"),
			track("r2", "Gamma", "Z"),
			track("r3", "Gamma", "Z"),
		}
		lines := []string{"alpha by x", "Beta by Y", "Beta by Y"}

		cmp, err := newEngine(svc).Compare(ctx, "pl", lines, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !slices.Equal(cmp.OnlyInLocal, []string{"Beta by Y"}) {
			t.Errorf("OnlyInLocal = %v", cmp.OnlyInLocal)
		}
		if !slices.Equal(cmp.OnlyInRemote, []string{"Gamma by Z"}) {
			t.Errorf("OnlyInRemote = %v", cmp.OnlyInRemote)
		}
		if cmp.Matched != 1 || cmp.LocalRemoved != 1 || cmp.RemoteRemoved != 1 {
			t.Errorf("unexpected counts %+v", cmp.Reconciliation)
		}
		if !slices.Equal(cmp.RemoteOnlyIDs, []string{"r2", "r3"}) {
			t.Errorf("RemoteOnlyIDs = %v", cmp.RemoteOnlyIDs)
		}
		if len(svc.Removed) != 0 {
			t.Error("compare must not modify the playlist")
		}
	})

	t.Run("prune remote", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["pl"] = []models.Track{track("r1", "Alpha", "X"), track("r2", "Gamma", "Z")}

		e := newEngine(svc)
		cmp, err := e.Compare(ctx, "pl", []string{"Alpha by X"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		n, err := e.PruneRemote(ctx, cmp, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 || !slices.Equal(svc.Removed["pl"], []string{"r2"}) {
			t.Errorf("removed %d: %v", n, svc.Removed["pl"])
		}
	})

	t.Run("prune with nothing to remove", func(t *testing.T) {
		svc := tu.NewMockService()
		n, err := newEngine(svc).PruneRemote(ctx, &CompareResult{PlaylistID: "pl"}, nil)
		if err != nil || n != 0 {
			t.Errorf("got %d, %v", n, err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.FetchErr = errors.New("offline")
		if _, err := newEngine(svc).Compare(ctx, "pl", nil, nil); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestAddFromList(t *testing.T) {
	ctx := context.Background()

	t.Run("tries query variants in order", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["song one"] = []models.Track{track("s1", "Song One", "Band")}
		svc.Results["the long song name band"] = []models.Track{track("s2", "The Long Song Name", "Band")}
		svc.Results["long song name band"] = []models.Track{track("wrong", "Long Song Name", "Band")}
		lines := []string{
			"Song One by Band",
			"Track 7",
			"",
			"The Long Song Name by Band",
			"Missing by Nobody",
		}

		result, err := newEngine(svc).AddFromList(ctx, "pl", lines, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Found) != 2 || result.Found[0].Query != "song one" {
			t.Errorf("unexpected found %+v", result.Found)
		}
		if !slices.Equal(result.NotFound, []string{"Missing by Nobody"}) {
			t.Errorf("NotFound = %v", result.NotFound)
		}
		if !slices.Equal(result.Skipped, []string{"Track 7"}) {
			t.Errorf("Skipped = %v", result.Skipped)
		}
		if result.Added != 2 || !slices.Equal(svc.Added["pl"], []string{"s1", "s2"}) {
			t.Errorf("added %d: %v", result.Added, svc.Added["pl"])
		}
		if !slices.Equal(svc.Queries[:2], []string{"song one band", "song one"}) {
			t.Errorf("unexpected query order %v", svc.Queries)
		}
	})

	t.Run("search error moves on to the next query", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.SearchErr["song band"] = errors.New("rate limited")
		svc.Results["song"] = []models.Track{track("s", "Song")}

		result, err := newEngine(svc).AddFromList(ctx, "pl", []string{"Song by Band"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Found) != 1 {
			t.Errorf("expected a match from the fallback query, got %+v", result)
		}
	})

	t.Run("nothing found adds nothing", func(t *testing.T) {
		svc := tu.NewMockService()
		result, err := newEngine(svc).AddFromList(ctx, "pl", []string{"Nope"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Added != 0 || len(svc.Added) != 0 {
			t.Error("expected no adds")
		}
	})

	t.Run("add failure", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Results["song"] = []models.Track{track("s", "Song")}
		svc.AddErr = errors.New("denied")

		if _, err := newEngine(svc).AddFromList(ctx, "pl", []string{"Song"}, nil); !errors.Is(err, shared.ErrRemoteWrite) {
			t.Errorf("expected ErrRemoteWrite, got %v", err)
		}
	})
}

func TestRemoveMatching(t *testing.T) {
	ctx := context.Background()
	playlist := []models.Track{
		track("a", "Track 1"),
		track("b", "Real Song"),
		track("c", "track 12"),
		track("a", "Track 1"),
	}

	t.Run("dry run", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["pl"] = playlist

		result, err := newEngine(svc).RemoveMatching(ctx, "pl", nil, true, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Matched) != 2 || result.Removed != 0 || !result.DryRun {
			t.Errorf("unexpected result %+v", result)
		}
		if len(svc.Removed) != 0 {
			t.Error("dry run must not remove")
		}
	})

	t.Run("removes matching tracks", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["pl"] = playlist

		result, err := newEngine(svc).RemoveMatching(ctx, "pl", nil, false, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Removed != 2 || !slices.Equal(svc.Removed["pl"], []string{"a", "c"}) {
			t.Errorf("removed %d: %v", result.Removed, svc.Removed["pl"])
		}
	})

	t.Run("custom pattern", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["pl"] = playlist

		result, err := newEngine(svc).RemoveMatching(ctx, "pl", regexp.MustCompile(`^Real`), true, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Matched) != 1 || result.Matched[0].ID != "b" {
			t.Errorf("unexpected matches %+v", result.Matched)
		}
	})

	t.Run("remove failure", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["pl"] = playlist
		svc.RemoveErr = errors.New("denied")

		if _, err := newEngine(svc).RemoveMatching(ctx, "pl", nil, false, nil); !errors.Is(err, shared.ErrRemoteWrite) {
			t.Errorf("expected ErrRemoteWrite, got %v", err)
		}
	})
}

func TestSendProgress(t *testing.T) {
	e := newEngine(nil)

	t.Run("nil channel", func(t *testing.T) {
		e.sendProgress(nil, ProgressUpdate{})
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		e.sendProgress(ch, ProgressUpdate{Message: "first"})
		e.sendProgress(ch, ProgressUpdate{Message: "second"})
		if got := <-ch; got.Message != "first" {
			t.Errorf("got %q", got.Message)
		}
	})
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		ScanLibrary:  "scan_library",
		SearchTracks: "search_tracks",
		Compare:      "compare",
		RemoveTracks: "remove_tracks",
		Phase(99):    "",
	} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
