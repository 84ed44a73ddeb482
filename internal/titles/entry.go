package titles

import (
	"regexp"
	"strings"
)

// EntrySeparator separates the title from the artists in a song-list line.
const EntrySeparator = " by "

var (
	placeholderRe = regexp.MustCompile(`^track(?:\s+\d+)?$`)
	searchCutRe   = regexp.MustCompile(`\b(?:featuring|feat|ft)\b.*$`)
	articles      = map[string]bool{"the": true, "a": true, "an": true}
)

// Entry is a song-list line split into its title and artists.
type Entry struct {
	Raw     string
	Title   string
	Artists []string
}

// ParseEntry splits line at the first " by ". A line without the separator is all title.
// Artists are split on commas.
func ParseEntry(line string) Entry {
	line = strings.TrimSpace(line)
	e := Entry{Raw: line, Title: line}

	title, artists, ok := strings.Cut(line, EntrySeparator)
	if !ok {
		return e
	}

	e.Title = strings.TrimSpace(title)
	for a := range strings.SplitSeq(artists, ",") {
		if a = strings.TrimSpace(a); a != "" {
			e.Artists = append(e.Artists, a)
		}
	}
	return e
}

// Placeholder reports whether the title is a ripping placeholder such as "Track" or "Track 07".
func (e Entry) Placeholder() bool {
	return placeholderRe.MatchString(cleanForSearch(e.Title))
}

// Queries returns the search queries to try for the entry, most specific first and without
// duplicates: title with all artists, title alone, title with the first artist, and the title
// without articles plus all artists when the title has more than two words.
func (e Entry) Queries() []string {
	title := cleanForSearch(e.Title)
	if title == "" {
		return nil
	}

	cleaned := make([]string, 0, len(e.Artists))
	for _, a := range e.Artists {
		if c := cleanForSearch(a); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	artists := strings.Join(cleaned, " ")

	queries := []string{joinQuery(title, artists), title}
	if len(cleaned) > 1 {
		queries = append(queries, joinQuery(title, cleaned[0]))
	}

	if words := strings.Fields(title); len(words) > 2 {
		var kept []string
		for _, w := range words {
			if !articles[w] {
				kept = append(kept, w)
			}
		}
		if len(kept) > 0 {
			queries = append(queries, joinQuery(strings.Join(kept, " "), artists))
		}
	}

	out, _ := DedupeBy(queries, func(q string) string { return q })
	return out
}

func joinQuery(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// cleanForSearch lower-cases s, drops a featured-artist suffix and replaces punctuation with spaces.
func cleanForSearch(s string) string {
	s = strings.ToLower(s)
	s = searchCutRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(stripPunctuation(s)), " ")
}
