// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package server exposes the agent over HTTP/JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/agent"
	"github.com/teradata-labs/matchpoint/pkg/storage"
)

// Turner answers one user turn. *agent.Agent implements it.
type Turner interface {
	RunTurn(ctx context.Context, sessionID, userText string) (*agent.Response, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr        string        `mapstructure:"addr"`
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	Debug       bool          `mapstructure:"debug"`
	CORS        CORSConfig    `mapstructure:"cors"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		TurnTimeout: 5 * time.Minute,
		CORS:        DefaultCORSConfig(),
	}
}

// HTTPServer serves the turn API, health and metrics.
type HTTPServer struct {
	config     Config
	turner     Turner
	store      storage.Store
	checks     []HealthCheck
	gatherer   prometheus.Gatherer
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

// Option configures an HTTPServer.
type Option func(*HTTPServer)

// WithStore enables session deletion.
func WithStore(store storage.Store) Option {
	return func(h *HTTPServer) { h.store = store }
}

// WithHealthCheck adds a dependency check to /ready.
func WithHealthCheck(check HealthCheck) Option {
	return func(h *HTTPServer) { h.checks = append(h.checks, check) }
}

// WithGatherer sets the registry served on /metrics. Defaults to the
// Prometheus default gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *HTTPServer) { h.gatherer = g }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *HTTPServer) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHTTPServer builds the router. Call Start to listen.
func NewHTTPServer(turner Turner, cfg Config, opts ...Option) *HTTPServer {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	h := &HTTPServer{
		config:   cfg,
		turner:   turner,
		gatherer: prometheus.DefaultGatherer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	if cfg.CORS.Enabled {
		router.Use(corsMiddleware(cfg.CORS))
	}

	router.GET("/health", h.handleHealth)
	router.GET("/ready", h.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	{
		v1.POST("/turn", h.handleTurn)
		if h.store != nil {
			v1.DELETE("/sessions/:id", h.handleDeleteSession)
		}
	}

	h.router = router
	h.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return h
}

// Handler returns the router, for tests and embedding.
func (h *HTTPServer) Handler() http.Handler {
	return h.router
}

// Start serves until Stop is called.
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP server", zap.String("addr", h.httpServer.Addr))
	if err := h.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server")
	return h.httpServer.Shutdown(ctx)
}

func (h *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
