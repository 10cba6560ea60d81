// Package server exposes the valuation engine and watchlist over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/recorder"
	"ValueSentinel/internal/watchlist"
)

// Tracker takes over valuations made under a watched ticker's own
// assumptions, so verdict changes are recorded and alerted.
// *scheduler.Scheduler implements it.
type Tracker interface {
	Track(v *model.Valuation)
}

// Config holds server configuration
type Config struct {
	Addr      string
	Log       zerolog.Logger
	Collector *collector.Collector
	Watchlist *watchlist.Manager
	Recorder  recorder.Recorder
	Tracker   Tracker // nil leaves watchlist state to the scheduler
	Defaults  model.Assumptions
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	collector *collector.Collector
	watchlist *watchlist.Manager
	recorder  recorder.Recorder
	tracker   Tracker
	defaults  model.Assumptions
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		collector: cfg.Collector,
		watchlist: cfg.Watchlist,
		recorder:  cfg.Recorder,
		tracker:   cfg.Tracker,
		defaults:  cfg.Defaults,
	}
	if s.recorder == nil {
		s.recorder = recorder.NewNoopRecorder()
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(25 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/valuation", s.handleValuation)

		r.Route("/stocks/{ticker}", func(r chi.Router) {
			r.Get("/", s.handleStock)
			r.Post("/valuation", s.handleStockValuation)
			r.Get("/history", s.handleHistory)
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.handleWatchlist)
			r.Put("/{ticker}", s.handleWatchPut)
			r.Delete("/{ticker}", s.handleWatchDelete)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
