// Package server exposes activity reports over a local HTTP API for the
// browser extension.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/observability"
	"github.com/runnerr0/lookback/internal/report"
	"github.com/runnerr0/lookback/internal/storage"
)

// OwnerHeader scopes a request to one owner. Without it the configured
// default owner is used.
const OwnerHeader = "X-Lookback-Owner"

// ReportBuilder builds a report for a validated query.
type ReportBuilder interface {
	Build(ctx context.Context, q report.Query) (*report.Report, error)
}

// StatsSource reports database statistics for /status.
type StatsSource interface {
	GetStats(ctx context.Context, owner string) (*storage.Stats, error)
}

// Server serves the query API.
type Server struct {
	cfg     config.ServerConfig
	reports ReportBuilder
	stats   StatsSource
	metrics *observability.Collector
	logger  *zap.Logger
	version string
}

// New creates a Server. metrics and logger may be nil.
func New(cfg config.ServerConfig, reports ReportBuilder, stats StatsSource, metrics *observability.Collector, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		reports: reports,
		stats:   stats,
		metrics: metrics,
		logger:  logger.Named("server"),
		version: version,
	}
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Handler configures all routes and middleware.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger, s.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", OwnerHeader},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/status", s.handleStatus)
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if s.cfg.RequestTimeoutSeconds > 0 {
			r.Use(requestTimeout(time.Duration(s.cfg.RequestTimeoutSeconds) * time.Second))
		}
		r.Post("/lookback", s.handleLookbackPost)
		r.Get("/lookback", s.handleLookbackGet)
	})

	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// owner resolves the owner a request is scoped to.
func (s *Server) owner(r *http.Request) string {
	if o := r.Header.Get(OwnerHeader); o != "" {
		return o
	}
	return s.cfg.DefaultOwner
}
