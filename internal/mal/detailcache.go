package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	cacheFilePermission = 0600
	cacheDirPermission  = 0700
	// detailLRUSize bounds the in-memory layer; the file layer is unbounded.
	detailLRUSize = 512
)

// DetailFetcher is the slice of Client the detail cache needs.
type DetailFetcher interface {
	Anime(ctx context.Context, id int) (*Detail, error)
}

// ListFetcher is the slice of Client the list cache needs.
type ListFetcher interface {
	AnimeList(ctx context.Context, username string) ([]ListEntry, error)
}

// DetailCache is a read-through cache of anime detail documents, one JSON
// file per anime plus an in-memory LRU in front. Cache failures are
// fail-open: a corrupt or unwritable file degrades to a live fetch, never
// an error.
type DetailCache struct {
	dir     string
	fetcher DetailFetcher
	memory  *lru.Cache[int, *Detail]
	logger  *zap.Logger
}

func NewDetailCache(dir string, fetcher DetailFetcher, logger *zap.Logger) (*DetailCache, error) {
	if err := os.MkdirAll(dir, cacheDirPermission); err != nil {
		return nil, fmt.Errorf("failed to create anime cache directory: %w", err)
	}

	memory, err := lru.New[int, *Detail](detailLRUSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create detail LRU: %w", err)
	}

	return &DetailCache{
		dir:     dir,
		fetcher: fetcher,
		memory:  memory,
		logger:  logger,
	}, nil
}

// Get returns the detail document for an anime, consulting memory, then the
// file cache, then the live API. A live fetch is persisted for the next run.
func (d *DetailCache) Get(ctx context.Context, id int) (*Detail, error) {
	if detail, ok := d.memory.Get(id); ok {
		return detail, nil
	}

	if detail, ok := d.readFile(id); ok {
		d.memory.Add(id, detail)
		return detail, nil
	}

	detail, err := d.fetcher.Anime(ctx, id)
	if err != nil {
		return nil, err
	}

	d.writeFile(id, detail)
	d.memory.Add(id, detail)
	return detail, nil
}

func (d *DetailCache) path(id int) string {
	return filepath.Join(d.dir, strconv.Itoa(id)+".json")
}

func (d *DetailCache) readFile(id int) (*Detail, bool) {
	data, err := os.ReadFile(d.path(id))
	if err != nil {
		return nil, false
	}

	var detail Detail
	if err := json.Unmarshal(data, &detail); err != nil {
		d.logger.Warn("Discarding corrupt anime cache file",
			zap.Int("anime_id", id),
			zap.Error(err))
		return nil, false
	}

	return &detail, true
}

func (d *DetailCache) writeFile(id int, detail *Detail) {
	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		d.logger.Warn("Failed to encode anime cache file",
			zap.Int("anime_id", id),
			zap.Error(err))
		return
	}

	if err := os.WriteFile(d.path(id), data, cacheFilePermission); err != nil {
		d.logger.Warn("Failed to write anime cache file",
			zap.Int("anime_id", id),
			zap.Error(err))
	}
}

// ListCache persists a user's anime list as one JSON file per username so
// repeated runs do not re-page the API. Refresh forces a live fetch and
// rewrites the file.
type ListCache struct {
	dir     string
	fetcher ListFetcher
	logger  *zap.Logger
}

func NewListCache(dir string, fetcher ListFetcher, logger *zap.Logger) (*ListCache, error) {
	if err := os.MkdirAll(dir, cacheDirPermission); err != nil {
		return nil, fmt.Errorf("failed to create animelist cache directory: %w", err)
	}

	return &ListCache{
		dir:     dir,
		fetcher: fetcher,
		logger:  logger,
	}, nil
}

func (l *ListCache) Get(ctx context.Context, username string, refresh bool) ([]ListEntry, error) {
	path := filepath.Join(l.dir, username+".json")

	if !refresh {
		if data, err := os.ReadFile(path); err == nil {
			var entries []ListEntry
			unmarshalErr := json.Unmarshal(data, &entries)
			if unmarshalErr == nil {
				l.logger.Debug("Loaded animelist from cache",
					zap.String("username", username),
					zap.Int("entries", len(entries)))
				return entries, nil
			}
			l.logger.Warn("Discarding corrupt animelist cache file",
				zap.String("username", username),
				zap.Error(unmarshalErr))
		}
	}

	entries, err := l.fetcher.AnimeList(ctx, username)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, cacheFilePermission)
	}
	if err != nil {
		l.logger.Warn("Failed to write animelist cache file",
			zap.String("username", username),
			zap.Error(err))
	}

	return entries, nil
}
