// Package server provides the HTTP API for BONKai.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/config"
	"github.com/bonkai/bonkai/internal/contentindex"
	"github.com/bonkai/bonkai/internal/market"
	"github.com/bonkai/bonkai/internal/relevance"
	"github.com/bonkai/bonkai/internal/storage"
)

// Server is the HTTP server for the BONKai API.
type Server struct {
	storage  storage.Storage
	market   *market.Service
	index    *contentindex.Index
	registry *relevance.Registry
	config   *config.Config
	logger   *zap.Logger
	hub      *streamHub
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	marketSvc *market.Service,
	index *contentindex.Index,
	registry *relevance.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:  store,
		market:   marketSvc,
		index:    index,
		registry: registry,
		config:   cfg,
		logger:   logger,
		hub: newStreamHub(
			marketSvc,
			time.Duration(cfg.Market.StreamIntervalSeconds)*time.Second,
			logger,
		),
	}
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// The SSE stream is long-lived and must not sit behind the timeout middleware.
	r.Get("/api/bonk/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/api/bonk/price", s.handlePrice)

		r.Get("/api/alerts", s.handleListAlerts)
		r.Post("/api/alerts", s.handleCreateAlert)
		r.Get("/api/alerts/{id}", s.handleGetAlert)
		r.Put("/api/alerts/{id}", s.handleUpdateAlert)
		r.Delete("/api/alerts/{id}", s.handleDeleteAlert)

		r.Get("/api/events", s.handleListEvents)
		r.Post("/api/events", s.handleCreateEvent)
		r.Get("/api/audio", s.handleListTracks)
		r.Post("/api/audio", s.handleCreateTrack)

		r.Get("/api/search", s.handleSearch)

		r.Post("/api/auth/connect-wallet", s.handleWalletConnect)
		r.Post("/api/auth/verify-signature", s.handleVerifySignature)
		r.Delete("/api/auth/disconnect", s.handleWalletDisconnect)

		r.Get("/api/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})

	return r
}

// Start starts the stream hub and the HTTP server, blocking until the server stops.
func (s *Server) Start(ctx context.Context) error {
	s.hub.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
