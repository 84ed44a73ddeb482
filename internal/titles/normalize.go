// package titles implements title normalization, duplicate reduction and playlist reconciliation
// for song lists and file names.
package titles

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// minPasses is the floor of the fixpoint bound in [Normalizer.Normalize]. Past the first pass the
// text is lower-case and punctuation free, so each further pass either leaves it alone or shortens it.
const minPasses = 4

// Key is the canonical comparison form of a raw entry. It is never shown to the user.
type Key string

// Degenerate reports whether normalization stripped everything from the entry.
func (k Key) Degenerate() bool { return k == "" }

func (k Key) String() string { return string(k) }

// Rules is the data that drives normalization.
type Rules struct {
	Extensions   []string // file extensions stripped from the end, without the dot
	CutTokens    []string // tokens removed along with everything up to the next " by " or end
	NoisePhrases []string // trailing phrases removed along with an adjacent year
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		Extensions: []string{"mp3", "m4a", "wav", "flac", "aac", "ogg", "opus", "wma", "aiff", "alac", "txt"},
		CutTokens:  []string{"feat", "featuring", "ft"},
		NoisePhrases: []string{
			"remastered", "remaster", "remastered version",
			"official music video", "official video", "official audio", "official lyric video",
			"lyric video", "lyrics", "explicit", "hd", "hq",
		},
	}
}

var (
	trackNumberRe     = regexp.MustCompile(`^\d{1,3}(?:[-.]\d{1,3})?(?:\s*[-._)]\s*|\s+)`)
	trailingBracketRe = regexp.MustCompile(`\s*(?:\([^()]*\)|\[[^\[\]]*\])\s*$`)
)

// Normalizer converts raw entries into [Key] values using a fixed set of [Rules].
//
// A Normalizer is immutable after construction and safe to share.
type Normalizer struct {
	rules      Rules
	extensions map[string]bool
	cut        *regexp.Regexp
	noise      *regexp.Regexp
}

var defaultNormalizer = NewNormalizer(DefaultRules())

// Default returns the [Normalizer] built from [DefaultRules].
func Default() *Normalizer { return defaultNormalizer }

// Normalize normalizes raw with the default rules.
func Normalize(raw string) Key { return defaultNormalizer.Normalize(raw) }

// NewNormalizer compiles rules into a [Normalizer]. Nil rule lists fall back to the defaults;
// empty, non-nil lists disable that rule.
func NewNormalizer(rules Rules) *Normalizer {
	defaults := DefaultRules()
	if rules.Extensions == nil {
		rules.Extensions = defaults.Extensions
	}
	if rules.CutTokens == nil {
		rules.CutTokens = defaults.CutTokens
	}
	if rules.NoisePhrases == nil {
		rules.NoisePhrases = defaults.NoisePhrases
	}

	n := &Normalizer{rules: rules, extensions: make(map[string]bool, len(rules.Extensions))}
	for _, ext := range rules.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			n.extensions[ext] = true
		}
	}

	if alt := alternation(rules.CutTokens); alt != "" {
		n.cut = regexp.MustCompile(`\b(?:` + alt + `)\b.*?(?:( by )|$)`)
	}
	if alt := alternation(rules.NoisePhrases); alt != "" {
		// A phrase only counts as noise when it ends the title, at the end of the text or before
		// " by ". A year in front of it is taken only after a dash, colon or bracket.
		n.noise = regexp.MustCompile(`(?:^|\s*[-–—:(\[]\s*(?:\d{4}\s+)?|\s+)(?:` + alt + `)(?:\s+\d{4})?[^\p{L}\p{N}]*?(\s+by\s+|$)`)
	}
	return n
}

// Rules returns the rule set the normalizer was built from.
func (n *Normalizer) Rules() Rules { return n.rules }

// Normalize returns the comparison key for raw. It never fails; the result may be empty.
//
// The pipeline is applied until it reaches a fixpoint, so Normalize(string(Normalize(x))) equals
// Normalize(x) for every x.
func (n *Normalizer) Normalize(raw string) Key {
	s := raw
	for range len(raw) + minPasses {
		next := n.pass(s)
		if next == s {
			break
		}
		s = next
	}
	return Key(s)
}

// Identity is the value used to compare entries: the key, or for a degenerate key the trimmed raw
// text, so a degenerate entry only ever equals an identical entry.
func (n *Normalizer) Identity(raw string) string {
	if k := n.Normalize(raw); !k.Degenerate() {
		return string(k)
	}
	return "\x00" + strings.TrimSpace(raw)
}

// StripTrackNumber removes a leading track-number prefix ("01 - ", "1-03 ") and collapses
// whitespace, keeping case and qualifiers. It is used for display, not comparison.
func StripTrackNumber(s string) string {
	s = trackNumberRe.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.Join(strings.Fields(s), " ")
}

func (n *Normalizer) pass(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "._")
	s = n.stripExtension(s)
	s = trackNumberRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)

	for {
		stripped := trailingBracketRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	if n.noise != nil {
		s = n.noise.ReplaceAllString(s, "${1}")
	}

	s = stripPunctuation(s)
	if n.cut != nil {
		s = n.cut.ReplaceAllString(s, "${1}")
	}
	return strings.Join(strings.Fields(s), " ")
}

func (n *Normalizer) stripExtension(s string) string {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return s
	}
	if n.extensions[strings.ToLower(s[i+1:])] {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// stripPunctuation drops apostrophes and turns every other rune that is not a letter, digit or
// combining mark into a space.
func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == '‘' || r == '`':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// alternation builds a regexp alternation from phrases, longest first so multi-word phrases win
// over their prefixes. Phrases are lower-cased and stripped of punctuation to line up with the
// text they are matched against.
func alternation(phrases []string) string {
	seen := make(map[string]bool, len(phrases))
	var parts []string
	for _, p := range phrases {
		p = strings.Join(strings.Fields(stripPunctuation(strings.ToLower(p))), " ")
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		parts = append(parts, p)
	}

	sort.SliceStable(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return strings.Join(parts, "|")
}
