package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"malplaylist/internal/core"
)

type animeThemesResponse struct {
	Anime []struct {
		AnimeThemes []struct {
			Entries []struct {
				Videos []struct {
					Link string `json:"link"`
				} `json:"videos"`
			} `json:"animethemeentries"`
		} `json:"animethemes"`
	} `json:"anime"`
}

// AnimeThemes looks up official theme videos on the AnimeThemes API by MAL
// external ID. Results are cached one JSON file per anime; a lookup miss is
// cached too so absent anime are not re-queried every run.
type AnimeThemes struct {
	http   *resty.Client
	dir    string
	logger *zap.Logger
}

func NewAnimeThemes(config *core.MALConfig, dir string, logger *zap.Logger) (*AnimeThemes, error) {
	if err := os.MkdirAll(dir, cacheDirPermission); err != nil {
		return nil, fmt.Errorf("failed to create animethemes cache directory: %w", err)
	}

	http := resty.New().
		SetBaseURL(config.AnimeThemesBaseURL).
		SetTimeout(config.RequestTimeout)

	return &AnimeThemes{
		http:   http,
		dir:    dir,
		logger: logger,
	}, nil
}

// VideoLinks returns one video link per theme in document order, openings
// before endings, matching the order MAL lists the same themes. A theme
// without a video yields an empty string so positions still line up.
func (a *AnimeThemes) VideoLinks(ctx context.Context, malID int) ([]string, error) {
	path := filepath.Join(a.dir, strconv.Itoa(malID)+".json")

	if data, err := os.ReadFile(path); err == nil {
		var links []string
		if err := json.Unmarshal(data, &links); err == nil {
			return links, nil
		}
		a.logger.Warn("Discarding corrupt animethemes cache file",
			zap.Int("anime_id", malID))
	}

	links, err := a.fetch(ctx, malID)
	if err != nil {
		return nil, err
	}

	if data, err := json.MarshalIndent(links, "", "  "); err == nil {
		if writeErr := os.WriteFile(path, data, cacheFilePermission); writeErr != nil {
			a.logger.Warn("Failed to write animethemes cache file",
				zap.Int("anime_id", malID),
				zap.Error(writeErr))
		}
	}

	return links, nil
}

func (a *AnimeThemes) fetch(ctx context.Context, malID int) ([]string, error) {
	var result animeThemesResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"filter[has]":         "resources",
			"filter[site]":        "MyAnimeList",
			"filter[external_id]": strconv.Itoa(malID),
			"fields[anime]":       "id,name,slug",
			"include":             "animethemes.animethemeentries.videos",
		}).
		SetResult(&result).
		Get("/anime")
	if err != nil {
		return nil, fmt.Errorf("animethemes request for %d failed: %w", malID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("animethemes request for %d returned status %d", malID, resp.StatusCode())
	}

	if len(result.Anime) == 0 {
		return []string{}, nil
	}

	themes := result.Anime[0].AnimeThemes
	links := make([]string, 0, len(themes))
	for _, theme := range themes {
		link := ""
		if len(theme.Entries) > 0 && len(theme.Entries[0].Videos) > 0 {
			link = theme.Entries[0].Videos[0].Link
		}
		links = append(links, link)
	}

	return links, nil
}
