// Package server answers queries over HTTP about the latest sample and
// the tracker's histories.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/metrics"
	"codeberg.org/mutker/thermotrack/internal/sensor"
	"codeberg.org/mutker/thermotrack/internal/tracker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultShutdownTimeout   = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

// Source is the read side of the tracker.
type Source interface {
	Latest() (history.Sample, bool)
	History(name string) (tracker.Snapshot, bool)
	HistoryNames() []string
	IsRunning() bool
}

type Config struct {
	Addr            string
	Scale           sensor.Scale
	ShutdownTimeout time.Duration
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func WithMetrics(m metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server exposes the tracker over HTTP.
type Server struct {
	cfg     Config
	source  Source
	log     logger.Logger
	metrics metrics.Collector
	router  chi.Router
}

func New(source Source, cfg Config, opts ...Option) (*Server, error) {
	errFactory := errors.New()

	if source == nil {
		return nil, errFactory.WithMessage(ErrInvalidConfig, "server requires a tracker")
	}
	if cfg.Scale == "" {
		cfg.Scale = sensor.Fahrenheit
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:     cfg,
		source:  source,
		log:     logger.Nop(),
		metrics: metrics.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.observe)
	router.Use(middleware.Recoverer)
	registerRoutes(router, &handler{source: source, scale: cfg.Scale, log: s.log, gatherer: s.metrics.Gatherer()})
	s.router = router

	return s, nil
}

// ServeHTTP allows Server to satisfy the http.Handler interface directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.New().Wrap(ErrListenFailed, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errFactory := errors.New()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("Query server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errFactory.Wrap(ErrListenFailed, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errFactory.Wrap(ErrShutdownFailed, err)
	}

	s.log.Info().Msg("Query server stopped")

	return nil
}
