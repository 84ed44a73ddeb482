package library

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// ErrUnsupportedFormat is returned by [ReadTags] for files whose tags are not read.
var ErrUnsupportedFormat = errors.New("unsupported tag format")

// Tags holds the metadata read from an audio file.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

func (t *Tags) empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == ""
}

// ReadTags reads title, artist and album from an MP3 (ID3v2) or FLAC (Vorbis comment) file.
func ReadTags(path string) (*Tags, error) {
	var (
		tags *Tags
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		tags, err = readID3(path)
	case ".flac":
		tags, err = readVorbis(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if tags.empty() {
		return nil, fmt.Errorf("no tags in %s", filepath.Base(path))
	}
	return tags, nil
}

func readID3(path string) (*Tags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read id3 tag: %w", err)
	}
	defer tag.Close()

	return &Tags{
		Title:  clean(tag.Title()),
		Artist: clean(tag.Artist()),
		Album:  clean(tag.Album()),
	}, nil
}

func readVorbis(path string) (*Tags, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac: %w", err)
	}

	tags := &Tags{}
	for _, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		cmts, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			continue
		}

		tags.Title = first(cmts, flacvorbis.FIELD_TITLE)
		tags.Artist = first(cmts, flacvorbis.FIELD_ARTIST)
		tags.Album = first(cmts, flacvorbis.FIELD_ALBUM)
		break
	}
	return tags, nil
}

func first(cmts *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	values, err := cmts.Get(field)
	if err != nil || len(values) == 0 {
		return ""
	}
	return clean(values[0])
}

// clean drops the NUL padding some taggers leave behind.
func clean(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
