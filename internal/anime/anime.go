package anime

import (
	"malplaylist/internal/mal"
)

// Anime holds one show and its theme songs in document order.
type Anime struct {
	ID            int          `json:"id"`
	Title         string       `json:"title"`
	Picture       string       `json:"picture"`
	OpeningThemes []*ThemeSong `json:"opening_themes"`
	EndingThemes  []*ThemeSong `json:"ending_themes"`
}

// NewAnime builds an Anime from its detail document. The medium picture is
// preferred over the large one. AnimeThemes video links, when provided, are
// attached positionally: one link per theme, openings before endings, in
// the same order both APIs list them.
func NewAnime(detail *mal.Detail, videoLinks []string) *Anime {
	picture := detail.MainPicture.Medium
	if picture == "" {
		picture = detail.MainPicture.Large
	}

	a := &Anime{
		ID:      detail.ID,
		Title:   detail.Title,
		Picture: picture,
	}

	i := 0
	for _, theme := range detail.OpeningThemes {
		song := NewThemeSong(theme)
		if i < len(videoLinks) {
			song.ATURL = videoLinks[i]
		}
		i++
		a.OpeningThemes = append(a.OpeningThemes, song)
	}
	for _, theme := range detail.EndingThemes {
		song := NewThemeSong(theme)
		if i < len(videoLinks) {
			song.ATURL = videoLinks[i]
		}
		i++
		a.EndingThemes = append(a.EndingThemes, song)
	}

	return a
}

// Themes returns all theme songs, openings first.
func (a *Anime) Themes() []*ThemeSong {
	themes := make([]*ThemeSong, 0, len(a.OpeningThemes)+len(a.EndingThemes))
	themes = append(themes, a.OpeningThemes...)
	themes = append(themes, a.EndingThemes...)
	return themes
}
