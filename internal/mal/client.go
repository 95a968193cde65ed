// Package mal talks to the MyAnimeList API v2 and keeps file-backed caches
// of anime lists and per-anime detail documents.
package mal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"malplaylist/internal/core"
)

// pageSize is the MAL API maximum for animelist pagination.
const pageSize = 100

// ListEntry is one anime on a user's completed list, in API order
// (most recently updated first).
type ListEntry struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Picture holds the anime artwork URLs MAL serves in two sizes.
type Picture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// Theme is a raw opening or ending theme entry. Text is the free-form
// description string; parsing it is the caller's concern.
type Theme struct {
	ID      int    `json:"id"`
	AnimeID int    `json:"anime_id"`
	Text    string `json:"text"`
}

// Detail is the anime document with theme fields requested.
type Detail struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	MainPicture   Picture `json:"main_picture"`
	OpeningThemes []Theme `json:"opening_themes"`
	EndingThemes  []Theme `json:"ending_themes"`
}

type listPage struct {
	Data []struct {
		Node ListEntry `json:"node"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// Client is a thin MyAnimeList API v2 client authenticated with a client ID.
type Client struct {
	http   *resty.Client
	delay  time.Duration
	logger *zap.Logger
}

func NewClient(config *core.MALConfig, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(config.BaseURL).
		SetHeader("X-MAL-CLIENT-ID", config.ClientID).
		SetTimeout(config.RequestTimeout)

	return &Client{
		http:   http,
		delay:  config.RequestDelay,
		logger: logger,
	}
}

// AnimeList pages through a user's completed list and returns every entry in
// API order, most recently updated first.
func (c *Client) AnimeList(ctx context.Context, username string) ([]ListEntry, error) {
	var entries []ListEntry

	for offset := 0; ; offset += pageSize {
		var page listPage
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"offset": strconv.Itoa(offset),
				"status": "completed",
				"sort":   "list_updated_at",
				"limit":  strconv.Itoa(pageSize),
			}).
			SetResult(&page).
			Get(fmt.Sprintf("/users/%s/animelist", url.PathEscape(username)))
		if err != nil {
			return nil, fmt.Errorf("animelist request for %q (offset %d) failed: %w", username, offset, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("animelist request for %q (offset %d) returned status %d", username, offset, resp.StatusCode())
		}

		for _, item := range page.Data {
			entries = append(entries, item.Node)
		}

		c.logger.Debug("Fetched animelist page",
			zap.String("username", username),
			zap.Int("offset", offset),
			zap.Int("entries", len(page.Data)))

		if page.Paging.Next == "" {
			break
		}
		c.pause(ctx)
	}

	return entries, nil
}

// Anime fetches one anime's detail document including its theme entries.
func (c *Client) Anime(ctx context.Context, id int) (*Detail, error) {
	var detail Detail
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "opening_themes,ending_themes").
		SetResult(&detail).
		Get(fmt.Sprintf("/anime/%d", id))
	if err != nil {
		return nil, fmt.Errorf("anime request for %d failed: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("anime request for %d returned status %d", id, resp.StatusCode())
	}

	return &detail, nil
}

// pause sleeps the configured inter-request delay, bailing early when the
// context is canceled.
func (c *Client) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.delay):
	}
}
