// Package main provides the malplaylist CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"malplaylist/internal/anime"
	"malplaylist/internal/cache"
	"malplaylist/internal/core"
	"malplaylist/internal/export"
	httpserver "malplaylist/internal/http"
	"malplaylist/internal/mal"
	"malplaylist/internal/search"
)

const defaultServerHost = "0.0.0.0"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "malplaylist",
	Short: "malplaylist - MyAnimeList theme songs → YouTube/Spotify playlist",
	Long: `malplaylist reads a user's completed anime list from MyAnimeList, parses
every opening and ending theme, resolves a playable reference for each song
on YouTube or Spotify, and exports the result as JSON feeds, an HTML
playlist page and optionally a Spotify playlist. Resolved references are
cached on disk so repeated runs never re-query an already-resolved song.`,
	RunE: runMALPlaylist,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("username", "", "MyAnimeList username")
	rootCmd.PersistentFlags().String("service", "youtube", "music service (youtube, spotify)")
	rootCmd.PersistentFlags().Bool("refresh", false, "Re-fetch the anime list even when cached")
	rootCmd.PersistentFlags().Int("concurrency", 1, "Concurrent song resolutions")
	rootCmd.PersistentFlags().String("mal-client-id", "", "MyAnimeList API client ID")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-token-path", "", "Spotify OAuth token file")
	rootCmd.PersistentFlags().String("spotify-playlist-name", "", "Name for the created Spotify playlist")
	rootCmd.PersistentFlags().Bool("spotify-create-playlist", false, "Create a Spotify playlist from resolved tracks")
	rootCmd.PersistentFlags().String("cache-dir", "./cache", "Cache directory")
	rootCmd.PersistentFlags().String("cache-backend", "file", "Reference cache backend (file, bolt)")
	rootCmd.PersistentFlags().String("output-dir", "./docs/data", "Export directory")
	rootCmd.PersistentFlags().Bool("export-html", true, "Write the HTML playlist page")
	rootCmd.PersistentFlags().Bool("export-json", true, "Write the song feed JSON")
	rootCmd.PersistentFlags().Bool("serve-metrics", false, "Serve Prometheus metrics during the run")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		// Don't exit if .env file doesn't exist, just warn
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("MALPLAYLIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureMAL(cfg)
	configureSpotify(cfg)
	configureCache(cfg)
	configureExport(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureMAL(cfg *core.Config) {
	cfg.MAL.ClientID = viper.GetString("mal-client-id")
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	cfg.Spotify.CreatePlaylist = viper.GetBool("spotify-create-playlist")

	if path := viper.GetString("spotify-token-path"); path != "" {
		cfg.Spotify.TokenPath = path
	}
	if name := viper.GetString("spotify-playlist-name"); name != "" {
		cfg.Spotify.PlaylistName = name
	}
}

func configureCache(cfg *core.Config) {
	cfg.Cache.Dir = viper.GetString("cache-dir")
	cfg.Cache.Backend = viper.GetString("cache-backend")
}

func configureExport(cfg *core.Config) {
	cfg.Export.Dir = viper.GetString("output-dir")
	cfg.Export.HTML = viper.GetBool("export-html")
	cfg.Export.JSON = viper.GetBool("export-json")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Enabled = viper.GetBool("serve-metrics")
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
}

func configureApp(cfg *core.Config) {
	cfg.App.Username = viper.GetString("username")
	cfg.App.Service = core.Service(viper.GetString("service"))
	cfg.App.Refresh = viper.GetBool("refresh")
	cfg.App.Concurrency = viper.GetInt("concurrency")
	if cfg.App.Concurrency < 1 {
		cfg.App.Concurrency = 1
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func validateConfig() error {
	if config.App.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !config.App.Service.Valid() {
		return fmt.Errorf("unknown service %q (expected youtube or spotify)", config.App.Service)
	}
	if config.MAL.ClientID == "" {
		return fmt.Errorf("mal-client-id is required")
	}
	if config.App.Service == core.ServiceSpotify {
		if config.Spotify.ClientID == "" || config.Spotify.ClientSecret == "" {
			return fmt.Errorf("spotify-client-id and spotify-client-secret are required for the spotify service")
		}
	}
	if config.Cache.Backend != core.CacheBackendFile && config.Cache.Backend != core.CacheBackendBolt {
		return fmt.Errorf("unknown cache backend %q (expected file or bolt)", config.Cache.Backend)
	}
	return nil
}

func runMALPlaylist(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting malplaylist",
		zap.String("username", config.App.Username),
		zap.String("service", string(config.App.Service)),
		zap.Int("concurrency", config.App.Concurrency),
		zap.Bool("refresh", config.App.Refresh))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var server *httpserver.Server
	if config.Server.Enabled {
		server = httpserver.NewServer(&config.Server, logger.Named("http"))
	}

	g, gCtx := errgroup.WithContext(ctx)
	if server != nil {
		g.Go(func() error {
			return server.Start(gCtx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return runPipeline(gCtx, server)
	})

	if err := g.Wait(); err != nil {
		logger.Error("malplaylist stopped with error", zap.Error(err))
		return err
	}

	logger.Info("malplaylist finished")
	return nil
}

func runPipeline(ctx context.Context, server *httpserver.Server) error {
	list, err := buildAnimeList(ctx)
	if err != nil {
		return err
	}

	var recorder anime.Recorder
	if server != nil {
		server.SetListSize(len(list.Anime), len(list.Songs()))
		recorder = server
	}

	strategy, err := buildStrategy(ctx)
	if err != nil {
		return err
	}

	store, err := buildReferenceStore()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("Failed to close reference cache", zap.Error(closeErr))
		}
	}()

	resolver := anime.NewResolver(strategy, store, recorder, config.App.Concurrency, logger.Named("resolver"))
	summary := resolver.ResolveAll(ctx, list)
	if summary.Resolved+summary.NotFound+summary.Skipped == 0 && summary.Failed > 0 {
		return fmt.Errorf("resolution failed for all %d songs", summary.Failed)
	}

	return writeExports(ctx, list, strategy)
}

func buildAnimeList(ctx context.Context) (*anime.AnimeList, error) {
	malClient := mal.NewClient(&config.MAL, logger.Named("mal"))

	listCache, err := mal.NewListCache(filepath.Join(config.Cache.Dir, "animelist"), malClient, logger.Named("mal"))
	if err != nil {
		return nil, err
	}
	detailCache, err := mal.NewDetailCache(filepath.Join(config.Cache.Dir, "anime"), malClient, logger.Named("mal"))
	if err != nil {
		return nil, err
	}
	animeThemes, err := mal.NewAnimeThemes(&config.MAL, filepath.Join(config.Cache.Dir, "animethemes"), logger.Named("animethemes"))
	if err != nil {
		return nil, err
	}

	builder := anime.NewBuilder(listCache, detailCache, animeThemes, logger.Named("builder"))
	return builder.Build(ctx, config.App.Username, config.App.Refresh)
}

func buildStrategy(ctx context.Context) (search.Strategy, error) {
	if config.App.Service == core.ServiceSpotify {
		strategy := search.NewSpotifyStrategy(&config.Spotify, logger.Named("spotify"))
		if err := strategy.Authenticate(ctx); err != nil {
			return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
		}
		return strategy, nil
	}
	return search.NewYouTubeStrategy(&config.YouTube, logger.Named("youtube")), nil
}

func buildReferenceStore() (cache.Store, error) {
	if config.Cache.Backend == core.CacheBackendBolt {
		path := filepath.Join(config.Cache.Dir, "references.db")
		return cache.NewBoltStore(path, string(config.App.Service), logger.Named("cache"))
	}

	path := filepath.Join(config.Cache.Dir, string(config.App.Service)+".json")
	return cache.NewFileStore(path, logger.Named("cache"))
}

func writeExports(ctx context.Context, list *anime.AnimeList, strategy search.Strategy) error {
	exportLogger := logger.Named("export")

	if config.Export.JSON {
		if _, _, err := export.WriteSongs(config.Export.Dir, list, config.App.Service, anime.DefaultEncodeOptions(), exportLogger); err != nil {
			return err
		}
	}

	if config.Export.HTML {
		if _, err := export.WriteHTML(config.Export.Dir, list, config.App.Service, exportLogger); err != nil {
			return err
		}
	}

	if config.App.Service == core.ServiceSpotify && config.Spotify.CreatePlaylist {
		creator, ok := strategy.(export.PlaylistCreator)
		if !ok {
			return fmt.Errorf("active strategy cannot create playlists")
		}
		if _, err := export.CreatePlaylist(ctx, creator, list, config.Spotify.PlaylistName, exportLogger); err != nil {
			return err
		}
	}

	return nil
}
