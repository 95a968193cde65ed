package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"malplaylist/internal/core"
	"malplaylist/pkg/fuzzy"
)

const (
	// tokenFilePermission is the permission for the persisted OAuth token.
	tokenFilePermission = 0600
	// maxTrackResults limits how many tracks a single search request returns.
	maxTrackResults = 5
	// playlistAddBatchSize is the Web API limit for one add-tracks request.
	playlistAddBatchSize = 100
)

var spotifyURIRegex = regexp.MustCompile(`spotify:track:([a-zA-Z0-9]+)`)

// trackSearcher is the slice of the Spotify client the strategy needs for
// searching. Narrowed so tests can substitute a fake.
type trackSearcher interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

// SpotifyStrategy searches the Spotify catalog through the Web API and
// returns track URIs. Requires an authenticated client; call Authenticate
// before the first Search.
type SpotifyStrategy struct {
	config     *core.SpotifyConfig
	logger     *zap.Logger
	auth       *spotifyauth.Authenticator
	client     *spotify.Client
	searcher   trackSearcher
	normalizer *fuzzy.Normalizer
}

type tokenData struct {
	Token *oauth2.Token `json:"token"`
}

func NewSpotifyStrategy(config *core.SpotifyConfig, logger *zap.Logger) *SpotifyStrategy {
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(config.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
	)

	return &SpotifyStrategy{
		config:     config,
		logger:     logger,
		auth:       auth,
		normalizer: fuzzy.NewNormalizer(),
	}
}

func (s *SpotifyStrategy) Service() core.Service {
	return core.ServiceSpotify
}

// Authenticate loads a persisted OAuth token or walks the user through the
// authorization-code flow, then verifies the token against the API.
func (s *SpotifyStrategy) Authenticate(ctx context.Context) error {
	token, err := s.loadToken()
	if err != nil {
		s.logger.Info("No saved token found, starting OAuth flow")
		return s.startOAuthFlow(ctx)
	}

	client := spotify.New(s.auth.Client(ctx, token))

	user, err := client.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("Saved token invalid, starting OAuth flow", zap.Error(err))
		return s.startOAuthFlow(ctx)
	}

	s.setClient(client)
	s.logger.Info("Authenticated successfully", zap.String("user", user.DisplayName))
	return nil
}

// Search tries each candidate query in order and returns the URI of the
// first track found, e.g. "spotify:track:4uLU6hMCjMI75M1A2tKUQC".
func (s *SpotifyStrategy) Search(ctx context.Context, songName, artist, fallbackTitle string) (string, error) {
	if s.searcher == nil {
		return "", fmt.Errorf("spotify client not authenticated")
	}

	queries := BuildQueries(s.normalizer, songName, artist, fallbackTitle)
	if len(queries) == 0 {
		return "", ErrNotFound
	}

	for _, query := range queries {
		results, err := s.searcher.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(maxTrackResults))
		if err != nil {
			s.logger.Debug("Spotify query failed, trying next candidate",
				zap.String("query", query),
				zap.Error(err))
			continue
		}
		if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
			continue
		}
		return string(results.Tracks.Tracks[0].URI), nil
	}

	return "", ErrNotFound
}

// CreatePlaylist creates a playlist for the current user and fills it with
// the given track URIs in order, batched to the API limit. Returns the new
// playlist's ID.
func (s *SpotifyStrategy) CreatePlaylist(ctx context.Context, name string, uris []string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("spotify client not authenticated")
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}

	playlist, err := s.client.CreatePlaylistForUser(ctx, user.ID, name, "", false, false)
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}

	ids := make([]spotify.ID, 0, len(uris))
	for _, uri := range uris {
		ids = append(ids, trackID(uri))
	}

	for start := 0; start < len(ids); start += playlistAddBatchSize {
		end := start + playlistAddBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if _, err := s.client.AddTracksToPlaylist(ctx, playlist.ID, ids[start:end]...); err != nil {
			return "", fmt.Errorf("failed to add tracks %d-%d: %w", start, end, err)
		}
	}

	s.logger.Info("Created playlist",
		zap.String("playlist", name),
		zap.Int("tracks", len(ids)))
	return string(playlist.ID), nil
}

func (s *SpotifyStrategy) setClient(client *spotify.Client) {
	s.client = client
	s.searcher = client
}

func (s *SpotifyStrategy) startOAuthFlow(ctx context.Context) error {
	state := "malplaylist-auth-state"
	authURL := s.auth.AuthURL(state)

	fmt.Printf("Please visit the following URL to authorize the application:\n%s\n", authURL)
	fmt.Print("Enter the authorization code: ")

	var code string
	if _, err := fmt.Scanln(&code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if saveErr := s.saveToken(token); saveErr != nil {
		s.logger.Warn("Failed to save token", zap.Error(saveErr))
	}

	client := spotify.New(s.auth.Client(ctx, token))

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	s.setClient(client)
	s.logger.Info("OAuth flow completed successfully", zap.String("user", user.DisplayName))
	return nil
}

func (s *SpotifyStrategy) loadToken() (*oauth2.Token, error) {
	file, err := os.Open(s.config.TokenPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, err
	}

	return td.Token, nil
}

func (s *SpotifyStrategy) saveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.config.TokenPath, data, tokenFilePermission)
}

// trackID strips the "spotify:track:" prefix when present so both bare IDs
// and full URIs are accepted.
func trackID(uri string) spotify.ID {
	if m := spotifyURIRegex.FindStringSubmatch(uri); m != nil {
		return spotify.ID(m[1])
	}
	return spotify.ID(uri)
}
