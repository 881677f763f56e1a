// Package server provides the HTTP API for chatsearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/hyperjump/chatsearch/internal/indexer"
	"github.com/hyperjump/chatsearch/internal/metrics"
	"github.com/hyperjump/chatsearch/internal/search"
	"github.com/hyperjump/chatsearch/internal/storage"
	"github.com/hyperjump/chatsearch/pkg/utils"
	"go.uber.org/zap"
)

// ServiceName is reported by GET /.
const ServiceName = "Cursor Chat Semantic Search"

// Server is the HTTP server for the chatsearch API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	store   storage.Store
	config  *config.Config
	logger  *zap.Logger
	version string
	mu      sync.Mutex
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Store,
	cfg *config.Config,
	logger *zap.Logger,
	version string,
) *Server {
	return &Server{
		engine:  engine,
		indexer: idx,
		store:   store,
		config:  cfg,
		logger:  utils.OrNop(logger),
		version: version,
	}
}

// Handler returns the router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(recordMetrics)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/index", s.handleIndex)
	r.Delete("/index", s.handleClear)
	r.Post("/search", s.handleSearch)
	r.Get("/conversations/{id}", s.handleGetConversation)
	if s.config.Server.MetricsOrDefault() {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	s.logger.Info("Starting server",
		zap.String("addr", addr),
		zap.String("storage_backend", s.config.Storage.Backend),
		zap.String("embedding_provider", s.config.Embedding.Provider),
	)
	return srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
