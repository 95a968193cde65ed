package anime

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"malplaylist/internal/cache"
	"malplaylist/internal/core"
	"malplaylist/internal/search"
)

// Outcome classifies the end state of one song's resolution attempt.
type Outcome string

const (
	// OutcomeResolved means a reference was found, now or in a prior run.
	OutcomeResolved Outcome = "resolved"
	// OutcomeNotFound means the search exhausted every candidate query.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeSkipped means the song had no usable name and was never searched.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means a hard error; the song stays unresolved and
	// uncached so a later run can retry.
	OutcomeFailed Outcome = "failed"
)

var watchIDRegex = regexp.MustCompile(`watch\?v=([^&\s]{11})`)

// Recorder observes resolution progress. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordResolution(service core.Service, outcome string)
	RecordCacheLookup(service core.Service, hit bool)
	RecordSearch(service core.Service)
}

// QueryLinker is the optional strategy extension that exposes a clickable
// search link for a song regardless of resolution outcome.
type QueryLinker interface {
	QueryURL(songName, artist string) string
}

// Summary totals one ResolveAll pass.
type Summary struct {
	Resolved int
	NotFound int
	Skipped  int
	Failed   int
}

// Resolver attaches references to theme songs: cache first, live search on
// a miss, result written back so the next run never re-queries.
type Resolver struct {
	service     core.Service
	strategy    search.Strategy
	store       cache.Store
	recorder    Recorder
	logger      *zap.Logger
	concurrency int
}

func NewResolver(strategy search.Strategy, store cache.Store, recorder Recorder, concurrency int, logger *zap.Logger) *Resolver {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		service:     strategy.Service(),
		strategy:    strategy,
		store:       store,
		recorder:    recorder,
		logger:      logger,
		concurrency: concurrency,
	}
}

// ResolveSong resolves one song at most once per process. fallbackTitle is
// the owning anime's title, used to widen the candidate queries.
func (r *Resolver) ResolveSong(ctx context.Context, song *ThemeSong, fallbackTitle string) (Outcome, error) {
	if song.resolved {
		return song.outcome, nil
	}

	if r.service == core.ServiceYouTube {
		if linker, ok := r.strategy.(QueryLinker); ok && song.YTQuery == "" {
			song.YTQuery = linker.QueryURL(song.Name, song.ArtistName())
		}
	}

	if !song.Searchable() {
		song.finish(OutcomeSkipped)
		r.recorder.RecordResolution(r.service, string(OutcomeSkipped))
		r.logger.Debug("Skipping song without a name",
			zap.Int("theme_id", song.ID),
			zap.String("text", song.Text))
		return OutcomeSkipped, nil
	}

	key := strconv.Itoa(song.ID)

	value, hit := r.store.Get(key)
	r.recorder.RecordCacheLookup(r.service, hit)
	if !hit {
		var searchErr error
		var err error
		value, err = r.store.GetOrResolve(key, func() (string, error) {
			r.recorder.RecordSearch(r.service)
			ref, err := r.strategy.Search(ctx, song.Name, song.ArtistName(), fallbackTitle)
			if errors.Is(err, search.ErrNotFound) {
				return "", nil
			}
			if err != nil {
				searchErr = err
				return "", err
			}
			return ref, nil
		})
		if searchErr != nil {
			r.recorder.RecordResolution(r.service, string(OutcomeFailed))
			return OutcomeFailed, fmt.Errorf("search for theme %d failed: %w", song.ID, searchErr)
		}
		if err != nil {
			// Cache write failed; the value is still good for this run.
			r.logger.Warn("Failed to persist resolved reference",
				zap.Int("theme_id", song.ID),
				zap.Error(err))
		}
	}

	r.apply(song, value)

	outcome := OutcomeResolved
	if value == "" {
		outcome = OutcomeNotFound
	}
	song.finish(outcome)
	r.recorder.RecordResolution(r.service, string(outcome))
	return outcome, nil
}

// ResolveAll resolves every song in the list, bounded by the configured
// concurrency. It is best-effort: a failed song is counted, logged and left
// unresolved, never fatal for the batch.
func (r *Resolver) ResolveAll(ctx context.Context, list *AnimeList) Summary {
	var (
		mu      sync.Mutex
		summary Summary
	)

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for _, a := range list.Anime {
		for _, song := range a.Themes() {
			title := a.Title
			song := song
			g.Go(func() error {
				if ctx.Err() != nil {
					mu.Lock()
					summary.Failed++
					mu.Unlock()
					return nil
				}

				outcome, err := r.ResolveSong(ctx, song, title)
				if err != nil {
					r.logger.Warn("Song resolution failed",
						zap.Int("theme_id", song.ID),
						zap.String("name", song.Name),
						zap.Error(err))
				}

				mu.Lock()
				switch outcome {
				case OutcomeResolved:
					summary.Resolved++
				case OutcomeNotFound:
					summary.NotFound++
				case OutcomeSkipped:
					summary.Skipped++
				default:
					summary.Failed++
				}
				mu.Unlock()
				return nil
			})
		}
	}

	_ = g.Wait()

	r.logger.Info("Resolution pass complete",
		zap.String("service", string(r.service)),
		zap.Int("resolved", summary.Resolved),
		zap.Int("not_found", summary.NotFound),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary
}

// apply writes the resolved reference into the song's service fields.
func (r *Resolver) apply(song *ThemeSong, value string) {
	if r.service == core.ServiceSpotify {
		song.SpotifyURI = value
		return
	}

	song.YTURL = value
	if m := watchIDRegex.FindStringSubmatch(value); m != nil {
		song.YTID = m[1]
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordResolution(core.Service, string) {}
func (noopRecorder) RecordCacheLookup(core.Service, bool)  {}
func (noopRecorder) RecordSearch(core.Service)             {}
