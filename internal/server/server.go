// Package server provides the HTTP scoring API for bunrui.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/classifier"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// Loader loads the model saved under prefix.
type Loader func(prefix string) (*classifier.TrainedModel, error)

// Server is the HTTP server for the bunrui API. It serves one model at a time; scoring
// calls are serialized because models are not safe for concurrent use.
type Server struct {
	config   *config.ServerConfig
	registry storage.Registry
	loader   Loader
	logger   *zap.Logger
	metrics  *Metrics
	server   *http.Server

	mu        sync.Mutex
	model     *classifier.TrainedModel
	modelName string
}

// Option configures a Server.
type Option func(*Server)

// WithModel sets the initially served model.
func WithModel(name string, tm *classifier.TrainedModel) Option {
	return func(s *Server) {
		s.modelName = name
		s.model = tm
	}
}

// WithRegistry enables the model listing endpoint.
func WithRegistry(r storage.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithLoader sets how Reload reads models from disk.
func WithLoader(l Loader) Option {
	return func(s *Server) { s.loader = l }
}

// NewServer creates a server with the given dependencies.
func NewServer(cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		config:  cfg,
		logger:  utils.OrNop(logger),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.ModelLabels.Set(float64(len(s.model.Labels())))
	return s
}

// SetModel swaps the served model. A nil model makes scoring endpoints return 503.
func (s *Server) SetModel(name string, tm *classifier.TrainedModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = tm
	s.modelName = name
	s.metrics.ModelLabels.Set(float64(len(tm.Labels())))
}

// Reload loads the model under prefix and serves it. On failure the current model stays.
// It matches the watcher callback signature.
func (s *Server) Reload(prefix string) {
	if s.loader == nil {
		return
	}
	tm, err := s.loader(prefix)
	if err != nil {
		s.metrics.ReloadsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("model reload failed, keeping current model", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	s.mu.Lock()
	name := s.modelName
	s.mu.Unlock()
	s.SetModel(name, tm)
	s.metrics.ReloadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("model reloaded", zap.String("prefix", prefix), zap.Strings("labels", tm.Labels()))
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/score", s.handleScore)
	r.Post("/api/v1/classify", s.handleClassify)
	r.Get("/api/v1/labels", s.handleLabels)
	r.Get("/api/v1/models", s.handleModels)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: middleware.Logger(s.Handler()),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
