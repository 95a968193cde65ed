// Package anime holds the domain entities built from MyAnimeList documents
// and the resolution pipeline that attaches playable references to them.
package anime

import (
	"strings"

	"malplaylist/internal/core"
	"malplaylist/internal/mal"
	"malplaylist/pkg/themetext"
)

// ThemeSong combines the parsed fields of one opening or ending theme with
// its resolved external references. The theme's MAL ID is the cache key for
// resolution and must be unique across the whole corpus.
type ThemeSong struct {
	ID         int     `json:"id"`
	AnimeID    int     `json:"anime_id"`
	Text       string  `json:"text"`
	Index      *string `json:"index"`
	Name       string  `json:"name"`
	Artist     *string `json:"artist"`
	Episode    *string `json:"episode"`
	YTID       string  `json:"yt_id"`
	YTURL      string  `json:"yt_url"`
	YTQuery    string  `json:"yt_query"`
	ATURL      string  `json:"at_url"`
	SpotifyURI string  `json:"spotify_uri"`

	resolved bool
	outcome  Outcome
}

// finish marks the song terminal; further resolution attempts are no-ops.
func (t *ThemeSong) finish(outcome Outcome) {
	t.resolved = true
	t.outcome = outcome
}

// NewThemeSong parses a raw theme entry into a song. Parsing never fails;
// unparseable text degrades to the Unknown placeholders.
func NewThemeSong(theme mal.Theme) *ThemeSong {
	parsed := themetext.Parse(theme.Text)

	return &ThemeSong{
		ID:      theme.ID,
		AnimeID: theme.AnimeID,
		Text:    theme.Text,
		Index:   parsed.Index,
		Name:    parsed.Name,
		Artist:  parsed.Artist,
		Episode: parsed.Episode,
	}
}

// ArtistName returns the parsed artist or the empty string when absent.
func (t *ThemeSong) ArtistName() string {
	if t.Artist == nil {
		return ""
	}
	return *t.Artist
}

// Searchable reports whether the song carries enough metadata to be worth
// searching for. A blank name never triggers a search.
func (t *ThemeSong) Searchable() bool {
	return strings.TrimSpace(t.Name) != ""
}

// Resolved reports whether a resolution attempt has completed for this song
// in the current process, successfully or not.
func (t *ThemeSong) Resolved() bool {
	return t.resolved
}

// Reference returns the resolved reference for the given service, empty when
// resolution found nothing.
func (t *ThemeSong) Reference(service core.Service) string {
	if service == core.ServiceSpotify {
		return t.SpotifyURI
	}
	return t.YTURL
}
