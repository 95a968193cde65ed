package anime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"malplaylist/internal/mal"
)

// AnimeList is a user's completed anime, oldest completion first, with every
// theme song parsed and ready for resolution.
type AnimeList struct {
	Username string   `json:"username"`
	Anime    []*Anime `json:"anime"`
}

// Songs returns every theme song across the whole list, list order, openings
// before endings within each anime.
func (l *AnimeList) Songs() []*ThemeSong {
	var songs []*ThemeSong
	for _, a := range l.Anime {
		songs = append(songs, a.Themes()...)
	}
	return songs
}

// ListSource yields a user's raw list entries.
type ListSource interface {
	Get(ctx context.Context, username string, refresh bool) ([]mal.ListEntry, error)
}

// DetailSource yields the detail document for one anime.
type DetailSource interface {
	Get(ctx context.Context, id int) (*mal.Detail, error)
}

// VideoSource yields AnimeThemes video links for one anime, one per theme.
type VideoSource interface {
	VideoLinks(ctx context.Context, malID int) ([]string, error)
}

// Builder assembles an AnimeList from the MAL collaborators. Video links
// are a best-effort supplement; a failing detail fetch skips that one anime
// with a warning rather than aborting the whole list.
type Builder struct {
	lists   ListSource
	details DetailSource
	videos  VideoSource
	logger  *zap.Logger
}

func NewBuilder(lists ListSource, details DetailSource, videos VideoSource, logger *zap.Logger) *Builder {
	return &Builder{
		lists:   lists,
		details: details,
		videos:  videos,
		logger:  logger,
	}
}

// Build fetches the user's completed list and constructs every anime with
// its parsed themes. MAL pages most-recently-updated first; the result is
// reversed so playlist order runs oldest completion to newest.
func (b *Builder) Build(ctx context.Context, username string, refresh bool) (*AnimeList, error) {
	entries, err := b.lists.Get(ctx, username, refresh)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anime list for %q: %w", username, err)
	}

	list := &AnimeList{Username: username}
	for _, entry := range entries {
		detail, err := b.details.Get(ctx, entry.ID)
		if err != nil {
			b.logger.Warn("Skipping anime, detail fetch failed",
				zap.Int("anime_id", entry.ID),
				zap.String("title", entry.Title),
				zap.Error(err))
			continue
		}

		var links []string
		if b.videos != nil {
			links, err = b.videos.VideoLinks(ctx, entry.ID)
			if err != nil {
				b.logger.Warn("No theme videos for anime",
					zap.Int("anime_id", entry.ID),
					zap.Error(err))
				links = nil
			}
		}

		list.Anime = append(list.Anime, NewAnime(detail, links))
	}

	for i, j := 0, len(list.Anime)-1; i < j; i, j = i+1, j-1 {
		list.Anime[i], list.Anime[j] = list.Anime[j], list.Anime[i]
	}

	b.logger.Info("Built anime list",
		zap.String("username", username),
		zap.Int("anime", len(list.Anime)),
		zap.Int("songs", len(list.Songs())))
	return list, nil
}
