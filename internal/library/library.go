// Package library scans a local music directory into an ordered list of tracks.
//
// Each [Track] carries the file stem used as its title, an artist hint taken from the folder
// layout and, when enabled, the title and artist read from the file's tags. Tags only fill in
// what the path cannot provide.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/titles"
)

// DefaultExtensions are the audio file extensions a scan keeps.
var DefaultExtensions = []string{"mp3", "m4a", "wav", "flac"}

// Track is a single audio file found by [Scan].
type Track struct {
	Path    string // absolute path
	RelPath string // path relative to the library root
	Name    string // file name without extension
	Ext     string // lower-case extension without the dot
	Artist  string // artist hint from the folder layout, empty for flat layouts
	Tags    *Tags  // nil when tags were not read or could not be parsed
}

// TitleKey returns the normalized title: the file stem, or the tag title when the stem
// normalizes to nothing.
func (t Track) TitleKey(n *titles.Normalizer) titles.Key {
	key := n.Normalize(t.Name)
	if key.Degenerate() && t.Tags != nil && t.Tags.Title != "" {
		return n.Normalize(t.Tags.Title)
	}
	return key
}

// ArtistName returns the folder hint, falling back to the tag artist.
func (t Track) ArtistName() string {
	if t.Artist != "" {
		return t.Artist
	}
	if t.Tags != nil {
		return t.Tags.Artist
	}
	return ""
}

// Entry renders the track as a song-list line, "<title> by <artist>", with the track number
// removed from the title.
func (t Track) Entry() string {
	title := titles.StripTrackNumber(t.Name)
	if title == "" {
		title = t.Name
	}
	if artist := t.ArtistName(); artist != "" {
		return title + titles.EntrySeparator + artist
	}
	return title
}

// Library is the ordered result of a scan.
type Library struct {
	Root   string
	Tracks []Track
}

// Dedupe returns a copy of the library keeping the first track for every (artist, title)
// pair, and the number of tracks dropped.
func (l *Library) Dedupe(n *titles.Normalizer) (*Library, int) {
	kept, removed := titles.DedupeBy(l.Tracks, func(t Track) string {
		title := t.TitleKey(n)
		id := string(title)
		if title.Degenerate() {
			id = n.Identity(t.Name)
		}
		return strings.ToLower(strings.TrimSpace(t.ArtistName())) + "\x1f" + id
	})
	return &Library{Root: l.Root, Tracks: kept}, removed
}

// ScanOptions controls [Scan].
type ScanOptions struct {
	Extensions []string    // defaults to [DefaultExtensions]
	ReadTags   bool        // read ID3v2 / FLAC tags
	Logger     *log.Logger // debug output for skipped files and tag errors
}

// Scan walks root recursively and returns every audio file in walk order (lexical per
// directory). Hidden files and directories are skipped.
func Scan(root string, opts ScanOptions) (*Library, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
		opts.Logger.SetLevel(log.WarnLevel)
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrFileAccess, root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrFileAccess, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrFileAccess, root)
	}

	lib := &Library{Root: abs, Tracks: []Track{}}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			opts.Logger.Debug("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != abs && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if !exts[ext] {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}

		track := Track{
			Path:    path,
			RelPath: rel,
			Name:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Ext:     ext,
			Artist:  ArtistHint(rel),
		}

		if opts.ReadTags {
			tags, err := ReadTags(path)
			switch {
			case errors.Is(err, ErrUnsupportedFormat):
			case err != nil:
				opts.Logger.Debug("tag read failed", "path", rel, "error", err)
			default:
				track.Tags = tags
			}
		}

		lib.Tracks = append(lib.Tracks, track)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrFileAccess, root, err)
	}

	return lib, nil
}

// ArtistHint derives an artist from a path relative to the library root.
//
// Inside an iTunes layout ("iTunes Music/<artist>/..." or "iTunes Media/Music/<artist>/...")
// the folder after the music folder is used. Otherwise the first folder below the root is the
// artist. Files directly in the root have no hint.
func ArtistHint(rel string) string {
	dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	if len(dirs) == 1 && (dirs[0] == "." || dirs[0] == "") {
		return ""
	}

	for i, dir := range dirs {
		lower := strings.ToLower(dir)
		switch {
		case lower == "itunes music" && i+1 < len(dirs):
			return dirs[i+1]
		case lower == "itunes media" && i+2 < len(dirs) && strings.EqualFold(dirs[i+1], "music"):
			return dirs[i+2]
		}
	}
	return dirs[0]
}
