// Package search resolves theme-song metadata to playable references by
// querying external music services with a ranked sequence of candidate
// queries.
package search

import (
	"context"
	"errors"
	"fmt"

	"malplaylist/internal/core"
	"malplaylist/pkg/fuzzy"
)

// ErrNotFound reports that every candidate query was exhausted without a
// usable result. It is the only error a Strategy returns for an ordinary
// empty search; callers cache it as "searched, not found".
var ErrNotFound = errors.New("no results for any candidate query")

// Strategy performs an external search for one theme song. Implementations
// must treat per-query backend failures as zero results for that query and
// move on; only exhausting all candidates yields ErrNotFound.
type Strategy interface {
	Service() core.Service
	Search(ctx context.Context, songName, artist, fallbackTitle string) (string, error)
}

// BuildQueries assembles the ordered candidate queries for a song, most
// specific first. Every fragment is sanitized, empty candidates are dropped
// and duplicates are removed preserving first occurrence. An empty song name
// yields no candidates at all: searching a large corpus for nothing is
// wasted work.
func BuildQueries(normalizer *fuzzy.Normalizer, songName, artist, fallbackTitle string) []string {
	name := normalizer.SanitizeQuery(songName)
	if name == "" {
		return nil
	}
	by := normalizer.SanitizeQuery(artist)
	title := normalizer.SanitizeQuery(fallbackTitle)

	candidates := []string{
		fmt.Sprintf("%s %s", name, by),
		name,
		fmt.Sprintf("%s %s", name, title),
		fmt.Sprintf("%s by %s", name, by),
		fmt.Sprintf("%s %s", title, name),
	}

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, len(candidates))
	for _, q := range candidates {
		q = normalizer.SanitizeQuery(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}

	return queries
}
