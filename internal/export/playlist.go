package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"malplaylist/internal/anime"
	"malplaylist/internal/store"
)

// dedupFalsePositiveRate is acceptable for playlist building; a false
// positive at worst drops one duplicate-looking track.
const dedupFalsePositiveRate = 0.001

// PlaylistCreator creates a playlist from track URIs and returns its ID.
type PlaylistCreator interface {
	CreatePlaylist(ctx context.Context, name string, uris []string) (string, error)
}

// PlaylistURIs collects the resolved Spotify URIs in list order with
// duplicates removed. The same song shared by two anime (reruns, sequels
// reusing a theme) appears once, at its first position.
func PlaylistURIs(list *anime.AnimeList) []string {
	songs := list.Songs()
	seen := store.NewDedupStore(len(songs)+1, dedupFalsePositiveRate)

	var uris []string
	for _, song := range songs {
		if song.SpotifyURI == "" {
			continue
		}
		if seen.Admit(song.SpotifyURI) {
			uris = append(uris, song.SpotifyURI)
		}
	}
	return uris
}

// CreatePlaylist builds the deduplicated URI list and hands it to the
// creator. An empty list is an error; creating a bare playlist would only
// mislead.
func CreatePlaylist(ctx context.Context, creator PlaylistCreator, list *anime.AnimeList, name string, logger *zap.Logger) (string, error) {
	uris := PlaylistURIs(list)
	if len(uris) == 0 {
		return "", fmt.Errorf("no resolved spotify tracks to add")
	}

	id, err := creator.CreatePlaylist(ctx, name, uris)
	if err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	logger.Info("Created playlist",
		zap.String("name", name),
		zap.String("playlist_id", id),
		zap.Int("tracks", len(uris)))
	return id, nil
}
