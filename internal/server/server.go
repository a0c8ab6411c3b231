// Package server provides the HTTP API for COBALT.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Winder2006/COBALT/internal/config"
	"github.com/Winder2006/COBALT/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestTimeout covers a full rendered discovery plus a batch of downloads.
const requestTimeout = 10 * time.Minute

// Server is the HTTP server for the COBALT API.
type Server struct {
	svc    *service.Service
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server over svc.
func NewServer(svc *service.Service, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/documents", s.handleDocuments)
	r.Post("/api/documents/add", s.handleAddDocument)
	r.Post("/api/documents/extract", s.handleExtract)
	r.Post("/api/sessions/{id}/search", s.handleSearch)
	r.Get("/api/sessions/{id}", s.handleSession)
	r.Delete("/api/sessions/{id}", s.handleCleanup)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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
