// Package fuzzy normalizes free-text song metadata into search-safe query
// strings.
package fuzzy

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// Characters that break external search endpoints when embedded in a
	// query: quoting, escapes and parenthetical clauses.
	strippedCharsRegex = regexp.MustCompile(`["\\()]+`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// SanitizeQuery prepares a raw metadata fragment for use inside a search
// query: unicode compatibility normalization, removal of quotes, backslashes
// and parentheses, and whitespace collapse. An all-noise input sanitizes to
// the empty string.
func (n *Normalizer) SanitizeQuery(text string) string {
	text = norm.NFKC.String(text)
	text = strippedCharsRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
