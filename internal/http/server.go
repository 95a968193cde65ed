// Package http exposes the pipeline's observability endpoints: Prometheus
// metrics plus health and readiness checks.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"malplaylist/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	ResolutionsTotal  *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	SearchesTotal     *prometheus.CounterVec
	AnimeCount        prometheus.Gauge
	SongCount         prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malplaylist_resolutions_total",
				Help: "Total number of theme-song resolutions by outcome",
			},
			[]string{"service", "outcome"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malplaylist_cache_lookups_total",
				Help: "Total number of reference cache lookups",
			},
			[]string{"service", "result"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malplaylist_searches_total",
				Help: "Total number of external search requests",
			},
			[]string{"service"},
		),
		AnimeCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "malplaylist_anime_count",
				Help: "Number of anime in the current list",
			},
		),
		SongCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "malplaylist_song_count",
				Help: "Number of theme songs in the current list",
			},
		),
	}

	prometheus.MustRegister(
		metrics.ResolutionsTotal,
		metrics.CacheLookupsTotal,
		metrics.SearchesTotal,
		metrics.AnimeCount,
		metrics.SongCount,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"malplaylist"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"malplaylist"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>malplaylist</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
    </style>
</head>
<body>
    <h1>malplaylist</h1>
    <p>MyAnimeList theme-song resolution pipeline</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		metrics: metrics,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}

// RecordResolution implements anime.Recorder.
func (s *Server) RecordResolution(service core.Service, outcome string) {
	s.metrics.ResolutionsTotal.WithLabelValues(string(service), outcome).Inc()
}

// RecordCacheLookup implements anime.Recorder.
func (s *Server) RecordCacheLookup(service core.Service, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.CacheLookupsTotal.WithLabelValues(string(service), result).Inc()
}

func (s *Server) RecordSearch(service core.Service) {
	s.metrics.SearchesTotal.WithLabelValues(string(service)).Inc()
}

func (s *Server) SetListSize(animeCount, songCount int) {
	s.metrics.AnimeCount.Set(float64(animeCount))
	s.metrics.SongCount.Set(float64(songCount))
}
