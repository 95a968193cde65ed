package anime

import (
	"encoding/json"
)

// EncodeOptions controls which fields appear when entities are encoded for
// export. Include lists win over exclude lists; with neither set every
// field is emitted. IncludeNull keeps fields whose parsed value is absent.
type EncodeOptions struct {
	IncludeNull  bool
	AnimeInclude []string
	AnimeExclude []string
	ThemeInclude []string
	ThemeExclude []string
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{IncludeNull: true}
}

// Encode returns the song as a field-filtered map ready for JSON marshaling.
func (t *ThemeSong) Encode(opts EncodeOptions) map[string]any {
	fields := map[string]any{
		"id":          t.ID,
		"anime_id":    t.AnimeID,
		"text":        t.Text,
		"index":       ptrValue(t.Index),
		"name":        t.Name,
		"artist":      ptrValue(t.Artist),
		"episode":     ptrValue(t.Episode),
		"yt_id":       t.YTID,
		"yt_url":      t.YTURL,
		"yt_query":    t.YTQuery,
		"at_url":      t.ATURL,
		"spotify_uri": t.SpotifyURI,
	}

	return filterFields(fields, opts.ThemeInclude, opts.ThemeExclude, opts.IncludeNull)
}

// Encode returns the anime as a field-filtered map; theme songs are encoded
// recursively with the same options.
func (a *Anime) Encode(opts EncodeOptions) map[string]any {
	fields := map[string]any{
		"id":             a.ID,
		"title":          a.Title,
		"picture":        a.Picture,
		"opening_themes": encodeThemes(a.OpeningThemes, opts),
		"ending_themes":  encodeThemes(a.EndingThemes, opts),
	}

	return filterFields(fields, opts.AnimeInclude, opts.AnimeExclude, opts.IncludeNull)
}

// Encode returns the whole list with every anime encoded recursively.
func (l *AnimeList) Encode(opts EncodeOptions) map[string]any {
	animeValues := make([]map[string]any, 0, len(l.Anime))
	for _, a := range l.Anime {
		animeValues = append(animeValues, a.Encode(opts))
	}

	return map[string]any{
		"username": l.Username,
		"anime":    animeValues,
	}
}

// DecodeAnimeList reads a fully-encoded list back into entities. Only
// unfiltered encodings round-trip; filtered fields decode to zero values.
func DecodeAnimeList(data []byte) (*AnimeList, error) {
	var list AnimeList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func encodeThemes(themes []*ThemeSong, opts EncodeOptions) []map[string]any {
	encoded := make([]map[string]any, 0, len(themes))
	for _, theme := range themes {
		encoded = append(encoded, theme.Encode(opts))
	}
	return encoded
}

func filterFields(fields map[string]any, include, exclude []string, includeNull bool) map[string]any {
	out := make(map[string]any, len(fields))

	if len(include) > 0 {
		for _, field := range include {
			value, ok := fields[field]
			if !ok || (!includeNull && value == nil) {
				continue
			}
			out[field] = value
		}
		return out
	}

	excluded := make(map[string]bool, len(exclude))
	for _, field := range exclude {
		excluded[field] = true
	}
	for field, value := range fields {
		if excluded[field] || (!includeNull && value == nil) {
			continue
		}
		out[field] = value
	}
	return out
}

// ptrValue keeps absent optionals as untyped nil so null filtering works on
// the encoded map.
func ptrValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
