// Package server exposes lineage analysis over HTTP, with live updates of a
// watched file pushed to subscribers as server-sent events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/internal/server/notifier"
)

// Server is the HTTP API server.
type Server struct {
	engine    *engine.Engine
	port      int
	watchFile string
	input     engine.Input
	logger    *slog.Logger
	notifier  *notifier.Notifier
}

// Config holds configuration for the server.
type Config struct {
	Engine *engine.Engine
	Port   int
	// WatchFile is analysed on start and again on every change (optional).
	WatchFile string
	Input     engine.Input
	Logger    *slog.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine:    cfg.Engine,
		port:      cfg.Port,
		watchFile: cfg.WatchFile,
		input:     cfg.Input,
		logger:    logger,
		notifier:  notifier.New(),
	}
}

// Notifier returns the server's notifier for live updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", s.handleEvents)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/graph", s.handleGraph)
		r.Get("/trace/{column}", s.handleTrace)
		r.Get("/history", s.handleHistoryList)
		r.Get("/history/{id}", s.handleHistoryGet)
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watchFile != "" {
		eg.Go(func() error {
			return s.engine.Watch(egctx, s.watchFile, s.input, s.publish)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// publish hands a watched-file outcome to live subscribers.
func (s *Server) publish(res *engine.Result, err error) {
	if err != nil {
		s.logger.Warn("analysis failed", "file", s.watchFile, "error", err)
	} else {
		s.logger.Info("graph updated",
			"file", res.Name,
			"nodes", len(res.Graph.Nodes),
			"edges", len(res.Graph.Edges),
		)
	}
	s.notifier.Publish(res, err)
}
