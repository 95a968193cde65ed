// Package core holds the configuration model and shared types for the
// theme-song resolution pipeline.
package core

import (
	"time"
)

type Config struct {
	MAL     MALConfig
	Spotify SpotifyConfig
	YouTube YouTubeConfig
	Cache   CacheConfig
	Export  ExportConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

type MALConfig struct {
	ClientID           string
	BaseURL            string
	AnimeThemesBaseURL string
	RequestTimeout     time.Duration
	RequestDelay       time.Duration
}

type SpotifyConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	TokenPath      string
	PlaylistName   string
	CreatePlaylist bool
}

type YouTubeConfig struct {
	ResultsURL     string
	RequestTimeout time.Duration
}

type CacheConfig struct {
	Dir     string
	Backend string
}

type ExportConfig struct {
	Dir  string
	HTML bool
	JSON bool
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type AppConfig struct {
	Username    string
	Service     Service
	Concurrency int
	Refresh     bool
}

func DefaultConfig() *Config {
	return &Config{
		MAL: MALConfig{
			BaseURL:            "https://api.myanimelist.net/v2",
			AnimeThemesBaseURL: "https://api.animethemes.moe",
			RequestTimeout:     10 * time.Second,
			RequestDelay:       100 * time.Millisecond,
		},
		Spotify: SpotifyConfig{
			RedirectURL:  "http://127.0.0.1:8888/callback",
			TokenPath:    "./spotify_token.json",
			PlaylistName: "Anime Themes Collection",
		},
		YouTube: YouTubeConfig{
			ResultsURL:     "https://www.youtube.com/results",
			RequestTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Dir:     "./cache",
			Backend: CacheBackendFile,
		},
		Export: ExportConfig{
			Dir:  "./docs/data",
			HTML: true,
			JSON: true,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		App: AppConfig{
			Service:     ServiceYouTube,
			Concurrency: 1,
		},
	}
}
