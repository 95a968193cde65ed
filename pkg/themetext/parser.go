// Package themetext parses MyAnimeList theme-song description strings into
// structured fields.
package themetext

import (
	"regexp"
	"strings"
)

// UnknownField is the value substituted for name and artist when a theme-song
// description cannot be parsed.
const UnknownField = "Unknown"

var (
	// A trailing parenthetical that contains the "ep" token, e.g. "(ep 5)" or
	// "(eps 1-11)". Go regexp has no lookahead, so the episode clause is
	// sliced off the end of the string before the rest of the grammar runs;
	// this keeps a greedy artist match from swallowing it.
	episodeRegex = regexp.MustCompile(`\s*\(([^()]*ep[^()]+)\)\s*$`)

	// [#<index>:] "<name>" [by <artist>]
	themeRegex = regexp.MustCompile(`(?:#(\d+):)?\s*"([^"]+)"\s*(?:by\s+(.*\S))?`)
)

// ParsedTheme holds the structured fields recovered from a theme-song
// description. Name is always populated; the remaining fields are nil when
// the source text does not carry them.
type ParsedTheme struct {
	Index   *string
	Name    string
	Artist  *string
	Episode *string
}

// Parse extracts index, song name, artist and episode range from a raw
// theme-song string of the form `#1: "Song" by Artist (eps 1-11)`, where
// every group except the quoted name is optional. Parse never fails: when
// the text has no quoted name it returns the degraded defaults
// {Name: "Unknown", Artist: "Unknown"}.
func Parse(raw string) ParsedTheme {
	var episode *string
	rest := raw

	if loc := episodeRegex.FindStringSubmatchIndex(raw); loc != nil {
		ep := raw[loc[2]:loc[3]]
		episode = &ep
		rest = raw[:loc[0]]
	}

	m := themeRegex.FindStringSubmatch(rest)
	if m == nil {
		unknown := UnknownField
		return ParsedTheme{Name: UnknownField, Artist: &unknown}
	}

	parsed := ParsedTheme{Name: m[2], Episode: episode}
	if m[1] != "" {
		index := m[1]
		parsed.Index = &index
	}
	if artist := strings.TrimSpace(m[3]); artist != "" {
		parsed.Artist = &artist
	}

	return parsed
}
