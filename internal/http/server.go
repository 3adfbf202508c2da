// Package http provides the HTTP API for entityd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/fyrsmithlabs/entityd/internal/search"
	"github.com/fyrsmithlabs/entityd/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server exposes the entity CRUD routes, the unified entity resolver, and
// unified search over HTTP.
type Server struct {
	echo       *echo.Echo
	store      store.Store
	aggregator *search.Aggregator
	logger     *zap.Logger
	config     *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Error         string   `json:"error"`
	ValidPrefixes []string `json:"valid_prefixes,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewServer creates a new HTTP server.
func NewServer(st store.Store, aggregator *search.Aggregator, logger *zap.Logger, cfg *Config) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:       e,
		store:      st,
		aggregator: aggregator,
		logger:     logger,
		config:     cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints: one CRUD resource family per
// creatable kind, the unified entity routes, and unified search.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")

	validators := entity.Validators()
	for _, kind := range entity.Kinds() {
		r := &entityRouter{
			kind:     kind,
			validate: validators[kind],
			store:    s.store,
			logger:   s.logger,
		}
		g := api.Group("/" + kind.Plural())
		g.GET("", r.handleList)
		g.POST("", r.handleCreate)
		g.GET("/:id", r.handleGet)
		g.PUT("/:id", r.handleUpdate)
		g.PATCH("/:id", r.handlePatch)
		g.DELETE("/:id", r.handleDelete)
	}

	// Unified cross-kind operations
	api.GET("/entities/:id", s.handleEntityGet)
	api.DELETE("/entities/:id", s.handleEntityDelete)
	api.POST("/entities/delete", s.handleEntityBatchDelete)
	api.POST("/entities/get", s.handleEntityBatchGet)

	// Unified search
	api.POST("/search", s.handleSearch)
	api.GET("/search", s.handleSearchQuery)

	api.GET("/stats", s.handleStats)
}

// Echo returns the underlying echo instance so main can mount extra handlers
// such as the metrics endpoint.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
