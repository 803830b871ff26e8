// Package rest provides the LoadAudit HTTP API.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/internal/limits"
	"yqhp/loadaudit/pkg/types"
)

// Runner is the run service behind the API. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, req types.LoadTestRequest) (*types.RunReport, error)
	History() history.Store
}

// Server represents the REST API server.
type Server struct {
	app      *fiber.App
	runner   Runner
	config   *config.ServerConfig
	gatherer prometheus.Gatherer

	systemLimits func() (*limits.Limits, error)
	systemStatus func() (*limits.Load, error)
}

// NewServer creates a new REST API server. gatherer backs the metrics
// endpoint; nil falls back to the default Prometheus registry.
func NewServer(r Runner, cfg *config.ServerConfig, gatherer prometheus.Gatherer) *Server {
	if cfg == nil {
		cfg = &config.DefaultConfig().Server
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          customErrorHandler,
		AppName:               "LoadAudit API",
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:          app,
		runner:       r,
		config:       cfg,
		gatherer:     gatherer,
		systemLimits: limits.Current,
		systemStatus: limits.CurrentStatus,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept",
			MaxAge:       86400,
		}))
	}
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.app.Get("/", s.root)
	s.app.Get("/health", s.healthCheck)

	// 兼容旧入口
	s.app.Post("/start", s.startRun)

	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthCheck)

	api.Post("/runs", s.startRun)

	api.Get("/history", s.listHistory)
	api.Get("/history/export", s.exportHistory)

	api.Get("/system/limits", s.getSystemLimits)
	api.Get("/system/status", s.getSystemStatus)

	if s.config.EnableMetrics {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Start starts the REST API server.
func (s *Server) Start() error {
	return s.app.Listen(s.config.Address)
}

// StartWithContext starts the server and shuts it down when ctx is done.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(s.config.Address)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ShutdownWithTimeout gracefully shuts down the server with a timeout.
func (s *Server) ShutdownWithTimeout(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// customErrorHandler handles errors returned by handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   fmt.Sprintf("error_%d", code),
		Message: message,
	})
}
