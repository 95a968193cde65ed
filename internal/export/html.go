package export

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"malplaylist/internal/anime"
	"malplaylist/internal/core"
)

const (
	malAnimeURLFormat     = "https://myanimelist.net/anime/%d/"
	malAnimeListURLFormat = "https://myanimelist.net/animelist/%s?order=-5&status=2"
	spotifyTrackURLFormat = "https://open.spotify.com/track/%s"
)

var spotifyTrackIDRegex = regexp.MustCompile(`spotify:track:([a-zA-Z0-9]+)`)

// playlistTemplate mirrors the static-site page: one ordered list of anime,
// each with its picture, a MAL link and nested opening/ending theme lists.
// Unresolved themes render as plain text instead of a link.
var playlistTemplate = template.Must(template.New("playlist").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Anime playlist {{.Username}}</title>
<link rel="stylesheet" href="css/index.css">
</head>
<body>
<h1><a href="{{.ListURL}}">Anime playlist {{.Username}}</a></h1>
<ol class="anime-list">
{{- range .Anime}}
<li class="anime-item"><div class="anime-content">
<img src="{{.Picture}}" alt="{{.Title}}" width="100">
<div class="anime-details"><a href="{{.URL}}" style="font-weight: bold;">{{.Title}}</a>
<ul><li>Opening Theme</li><ol>
{{- range .Openings}}
<li>{{if .URL}}<a href="{{.URL}}">{{.Label}}</a>{{else}}{{.Label}}{{end}}</li>
{{- end}}
</ol><li>Ending Theme</li><ol>
{{- range .Endings}}
<li>{{if .URL}}<a href="{{.URL}}">{{.Label}}</a>{{else}}{{.Label}}{{end}}</li>
{{- end}}
</ol></ul></div>
</div></li>
{{- end}}
</ol>
</body>
</html>
`))

type themeView struct {
	Label string
	URL   string
}

type animeView struct {
	Title    string
	Picture  string
	URL      string
	Openings []themeView
	Endings  []themeView
}

type playlistView struct {
	Username string
	ListURL  string
	Anime    []animeView
}

// RenderHTML writes the playlist page for a resolved list. Theme links use
// the active service's reference; a song without one still shows its label.
func RenderHTML(w io.Writer, list *anime.AnimeList, service core.Service) error {
	view := playlistView{
		Username: list.Username,
		ListURL:  fmt.Sprintf(malAnimeListURLFormat, list.Username),
	}

	for _, a := range list.Anime {
		av := animeView{
			Title:   a.Title,
			Picture: a.Picture,
			URL:     fmt.Sprintf(malAnimeURLFormat, a.ID),
		}
		for _, song := range a.OpeningThemes {
			av.Openings = append(av.Openings, newThemeView(song, service))
		}
		for _, song := range a.EndingThemes {
			av.Endings = append(av.Endings, newThemeView(song, service))
		}
		view.Anime = append(view.Anime, av)
	}

	return playlistTemplate.Execute(w, view)
}

// WriteHTML renders the playlist page into dir as
// anime_playlist_{username}.html.
func WriteHTML(dir string, list *anime.AnimeList, service core.Service, logger *zap.Logger) (string, error) {
	if err := os.MkdirAll(dir, exportDirPermission); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("anime_playlist_%s.html", list.Username))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create playlist page: %w", err)
	}
	defer file.Close()

	if err := RenderHTML(file, list, service); err != nil {
		return "", fmt.Errorf("failed to render playlist page: %w", err)
	}

	logger.Info("Wrote playlist page",
		zap.String("path", path),
		zap.Int("anime", len(list.Anime)))
	return path, nil
}

func newThemeView(song *anime.ThemeSong, service core.Service) themeView {
	label := fmt.Sprintf("%q", song.Name)
	if artist := song.ArtistName(); artist != "" {
		label += " by " + artist
	}
	if song.Episode != nil {
		label += fmt.Sprintf(" (%s)", *song.Episode)
	}

	return themeView{
		Label: label,
		URL:   themeLink(song, service),
	}
}

// themeLink returns a browser-openable link for the song's reference. A
// Spotify URI is rewritten to its open.spotify.com page; in YouTube mode
// the search-query URL stands in when no video was found.
func themeLink(song *anime.ThemeSong, service core.Service) string {
	if service == core.ServiceSpotify {
		if m := spotifyTrackIDRegex.FindStringSubmatch(song.SpotifyURI); m != nil {
			return fmt.Sprintf(spotifyTrackURLFormat, m[1])
		}
		return ""
	}

	if song.YTURL != "" {
		return song.YTURL
	}
	return song.YTQuery
}
