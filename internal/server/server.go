// Package server assembles the development remote API: a chi router over the
// sqlite store with auth, rate limiting and request metrics.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/offlinedesk/internal/client/wake"
	"github.com/iudanet/offlinedesk/internal/config"
	"github.com/iudanet/offlinedesk/internal/metrics"
	"github.com/iudanet/offlinedesk/internal/server/handlers"
	"github.com/iudanet/offlinedesk/internal/server/middleware"
	"github.com/iudanet/offlinedesk/internal/server/storage"
)

// limiterIdle время, после которого bucket неактивного IP удаляется
const limiterIdle = 10 * time.Minute

// Store is everything the router needs from persistence
type Store interface {
	storage.UserStorage
	storage.RecordStorage
	handlers.Pinger
}

// NewRouter builds the HTTP handler. /api/health, /api/auth/* and /metrics are
// public; every other /api route requires a bearer token.
func NewRouter(logger *slog.Logger, store Store, jwtConfig handlers.JWTConfig, limiter *middleware.RateLimiter) http.Handler {
	health := handlers.NewHealthHandler(logger, store)
	auth := handlers.NewAuthHandler(logger, store, jwtConfig)
	resources := handlers.NewResourceHandler(logger, store)

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger, "/api/health", "/metrics"))
	r.Use(middleware.RecoveryMiddleware(logger))
	if limiter != nil {
		r.Use(middleware.RateLimitMiddleware(limiter, logger))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handlers.SendError(logger, w, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handlers.SendError(logger, w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(logger, jwtConfig))
			resources.Routes(r)
		})
	})

	return r
}

// Server runs the dev API until its context is cancelled
type Server struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	handler http.Handler
	limiter *middleware.RateLimiter
}

// New wires the router for cfg. The caller owns store.
func New(cfg config.ServerConfig, store Store, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	metrics.Register()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	jwtConfig := handlers.JWTConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		handler: NewRouter(logger, store, jwtConfig, limiter),
		limiter: limiter,
	}, nil
}

// Handler returns the assembled router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on cfg.Addr, announces itself on the wake channel and serves
// until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("server started", slog.String("addr", ln.Addr().String()))

	// сервер уже принимает соединения: клиенты могут выгружать очереди
	s.announce(ctx)

	if s.limiter != nil {
		go s.cleanupLimiter(ctx)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// announce публикует wake в redis; ошибки не мешают работе сервера
func (s *Server) announce(ctx context.Context) {
	if s.cfg.RedisURL == "" {
		return
	}

	client, err := wake.NewRedisClient(ctx, s.cfg.RedisURL)
	if err != nil {
		s.logger.Warn("wake announcement skipped", slog.Any("error", err))
		return
	}
	defer func() { _ = client.Close() }()

	if err := wake.NewRedis(client, s.cfg.WakeChannel, s.logger).Wake(ctx); err != nil {
		s.logger.Warn("wake announcement failed", slog.Any("error", err))
		return
	}
	s.logger.Info("wake announced", slog.String("channel", s.cfg.WakeChannel))
}

func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Cleanup(limiterIdle); n > 0 {
				s.logger.Debug("rate limiter cleanup", slog.Int("removed", n))
			}
		}
	}
}
