// Package export renders resolved anime lists into their downstream
// artifacts: song-metadata JSON feeds, an HTML playlist and Spotify
// playlists.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"malplaylist/internal/anime"
	"malplaylist/internal/core"
)

const (
	exportFilePermission = 0600
	exportDirPermission  = 0755
)

// songsFileName returns the feed file name for a service, e.g.
// "songs_youtube.json".
func songsFileName(service core.Service) string {
	return fmt.Sprintf("songs_%s.json", service)
}

// Songs collects every theme song holding a reference for the given service,
// keyed by stringified theme ID. Songs the service could not resolve are
// left out of the feed.
func Songs(list *anime.AnimeList, service core.Service, opts anime.EncodeOptions) map[string]map[string]any {
	songs := make(map[string]map[string]any)
	for _, song := range list.Songs() {
		if song.Reference(service) == "" {
			continue
		}
		songs[strconv.Itoa(song.ID)] = song.Encode(opts)
	}
	return songs
}

// WriteSongs writes the song feed for a service into dir and returns the
// file path and the number of songs written.
func WriteSongs(dir string, list *anime.AnimeList, service core.Service, opts anime.EncodeOptions, logger *zap.Logger) (string, int, error) {
	if err := os.MkdirAll(dir, exportDirPermission); err != nil {
		return "", 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	songs := Songs(list, service, opts)

	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode song feed: %w", err)
	}

	path := filepath.Join(dir, songsFileName(service))
	if err := os.WriteFile(path, data, exportFilePermission); err != nil {
		return "", 0, fmt.Errorf("failed to write song feed: %w", err)
	}

	logger.Info("Wrote song feed",
		zap.String("path", path),
		zap.String("service", string(service)),
		zap.Int("songs", len(songs)))
	return path, len(songs), nil
}
