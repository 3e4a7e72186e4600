package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/api"
	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/directory/mock"
	"github.com/moviefinder/moviefinder/internal/directory/omdb"
	"github.com/moviefinder/moviefinder/internal/logger"
	"github.com/moviefinder/moviefinder/internal/startup"
	"github.com/moviefinder/moviefinder/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Path:            cfg.Logging.Path,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		MaxAgeDays:      cfg.Logging.MaxAgeDays,
		Compress:        cfg.Logging.Compress,
		EnableStreaming: true,
		BufferSize:      1000,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Str("provider", cfg.Directory.Provider).
		Msg("starting MovieFinder")

	provider, err := newProvider(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create movie directory")
	}
	if !provider.IsConfigured() {
		log.Warn().Str("provider", provider.Name()).Msg("movie directory has no API key, searches will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(log.Logger)
	go hub.Run(hubCtx)

	// Enable log streaming via WebSocket now that hub is available
	log.SetBroadcastHub(hub)

	server, err := api.NewServer(cfg, provider, hub, log, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create API server")
	}

	go func() {
		if err := server.CheckDirectory(ctx, startup.DefaultRetryConfig()); err != nil {
			log.Warn().Err(err).Msg("movie directory is unreachable, searches will fail until it recovers")
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	stopHub()

	log.Info().Msg("server stopped")
}

func newProvider(cfg *config.Config, log zerolog.Logger) (directory.Provider, error) {
	switch cfg.Directory.Provider {
	case config.ProviderMock:
		return mock.New(cfg.Search.PageSize)
	case config.ProviderOMDB:
		return omdb.NewClient(cfg.Directory.OMDB, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Directory.Provider)
	}
}
