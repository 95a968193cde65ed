package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"go.uber.org/zap"

	"malplaylist/internal/core"
	"malplaylist/pkg/fuzzy"
)

const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// Video IDs are 11-character tokens embedded in the results page markup.
var videoIDRegex = regexp.MustCompile(`watch\?v=(\S{11})`)

// YouTubeStrategy searches the public results page and extracts video IDs
// from the raw markup. No API key required.
type YouTubeStrategy struct {
	resultsURL string
	client     *http.Client
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

func NewYouTubeStrategy(config *core.YouTubeConfig, logger *zap.Logger) *YouTubeStrategy {
	return &YouTubeStrategy{
		resultsURL: config.ResultsURL,
		client:     &http.Client{Timeout: config.RequestTimeout},
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

func (y *YouTubeStrategy) Service() core.Service {
	return core.ServiceYouTube
}

// Search tries each candidate query in order and returns the canonical watch
// URL of the first video found. A failed request counts as zero results for
// that query.
func (y *YouTubeStrategy) Search(ctx context.Context, songName, artist, fallbackTitle string) (string, error) {
	queries := BuildQueries(y.normalizer, songName, artist, fallbackTitle)
	if len(queries) == 0 {
		return "", ErrNotFound
	}

	for _, query := range queries {
		ids, err := y.videoIDs(ctx, query)
		if err != nil {
			y.logger.Debug("YouTube query failed, trying next candidate",
				zap.String("query", query),
				zap.Error(err))
			continue
		}
		if len(ids) == 0 {
			continue
		}
		return fmt.Sprintf(watchURLFormat, ids[0]), nil
	}

	return "", ErrNotFound
}

// QueryURL returns the results-page URL for a song's primary query. It is a
// deterministic, clickable link regardless of whether the search ever found
// a video.
func (y *YouTubeStrategy) QueryURL(songName, artist string) string {
	query := y.normalizer.SanitizeQuery(fmt.Sprintf("%s %s", songName, artist))
	if query == "" {
		return ""
	}
	return y.resultsURL + "?search_query=" + url.QueryEscape(query)
}

func (y *YouTubeStrategy) videoIDs(ctx context.Context, query string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		y.resultsURL+"?search_query="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build results request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("results request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("results request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read results page: %w", err)
	}

	matches := videoIDRegex.FindAllStringSubmatch(string(body), -1)
	seen := make(map[string]bool, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}

	return ids, nil
}
