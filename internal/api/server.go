//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/api/handlers"
	apimw "github.com/moviefinder/moviefinder/internal/api/middleware"
	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/health"
	"github.com/moviefinder/moviefinder/internal/metrics"
	"github.com/moviefinder/moviefinder/internal/scheduler"
	"github.com/moviefinder/moviefinder/internal/scheduler/tasks"
	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/session"
	"github.com/moviefinder/moviefinder/internal/startup"
	"github.com/moviefinder/moviefinder/internal/websocket"
)

// Server handles HTTP requests for the MovieFinder API.
type Server struct {
	echo      *echo.Echo
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	startTime time.Time

	provider       directory.Provider
	metrics        *metrics.Metrics
	health         *health.Service
	healthHandlers *health.Handlers
	scheduler      *scheduler.Scheduler
	logs           LogsProvider
}

// NewServer creates a new API server instance around provider.
// Every WebSocket client connected to hub gets its own search session.
func NewServer(cfg *config.Config, provider directory.Provider, hub *websocket.Hub, logs LogsProvider, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		hub:       hub,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
		metrics:   metrics.New(),
		health:    health.NewService(logger),
		logs:      logs,
	}

	s.provider = s.metrics.InstrumentDirectory(provider)
	s.metrics.RegisterGauge("websocket_clients", "Connected WebSocket clients.", func() float64 {
		return float64(hub.ClientCount())
	})

	s.health.SetBroadcaster(hub)
	s.health.RegisterItem(health.CategoryDirectory, s.provider.Name(), providerDisplayName(s.provider))
	s.healthHandlers = health.NewHandlers(s.health)
	s.healthHandlers.SetTest(health.CategoryDirectory, s.provider.Name(), s.provider.Test)

	sched, err := scheduler.New(logger, nil)
	if err != nil {
		return nil, err
	}
	s.scheduler = sched
	if err := tasks.RegisterDirectoryHealthTask(sched, s.provider, s.health, &cfg.Health, logger); err != nil {
		return nil, fmt.Errorf("failed to register directory health task: %w", err)
	}

	searchCfg := search.Config{
		Debounce:    cfg.Search.Debounce(),
		InitialPage: cfg.Search.InitialPage,
		PageSize:    cfg.Search.PageSize,
	}
	hub.SetSessionFactory(func(c *websocket.Client) websocket.SessionHandler {
		return session.New(s.provider, c, searchCfg,
			logger.With().Str("client", c.ID).Logger(),
			search.WithObserver(s.metrics),
		)
	})

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	s.echo.Use(apimw.SecurityHeaders())

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// promhttp negotiates its own encoding
			return c.Request().Header.Get("Upgrade") == "websocket" || c.Path() == "/metrics"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	s.echo.GET("/ws", s.hub.HandleWebSocket)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	directory.NewHandlers(s.provider, s.cfg.Search.InitialPage, s.cfg.Search.PageSize).
		RegisterRoutes(api.Group("/movies"))

	system := api.Group("/system")
	s.healthHandlers.RegisterRoutes(system.Group("/health"))
	handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(system.Group("/tasks"))
	if s.logs != nil {
		NewLogsHandlers(s.logs).RegisterRoutes(system.Group("/logs"))
	}
}

// CheckDirectory verifies the directory answers, retrying while the
// network is unavailable, and records the outcome as its health.
func (s *Server) CheckDirectory(ctx context.Context, cfg startup.RetryConfig) error {
	return startup.WithRetry(ctx, "directory check", cfg, func(ctx context.Context) error {
		return s.health.Check(ctx, health.CategoryDirectory, s.provider.Name(), s.provider.Test)
	}, s.logger)
}

// Start starts background tasks and begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	s.scheduler.Start()
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}

	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"version":          config.Version,
		"startTime":        s.startTime.Format(time.RFC3339),
		"provider":         s.provider.Name(),
		"configured":       s.provider.IsConfigured(),
		"websocketClients": s.hub.ClientCount(),
		"healthy":          !s.health.GetSummary().HasIssues,
	})
}

func providerDisplayName(p directory.Provider) string {
	switch name := p.Name(); name {
	case config.ProviderOMDB:
		return "OMDb"
	case "":
		return "Directory"
	default:
		return strings.ToUpper(name[:1]) + name[1:]
	}
}
