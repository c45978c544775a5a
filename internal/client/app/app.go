// Package app wires the client components around one local store handle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/iudanet/offlinedesk/internal/client/api"
	"github.com/iudanet/offlinedesk/internal/client/auth"
	"github.com/iudanet/offlinedesk/internal/client/connectivity"
	"github.com/iudanet/offlinedesk/internal/client/data"
	"github.com/iudanet/offlinedesk/internal/client/queue"
	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/client/storage/boltdb"
	"github.com/iudanet/offlinedesk/internal/client/storage/memory"
	"github.com/iudanet/offlinedesk/internal/client/sync"
	"github.com/iudanet/offlinedesk/internal/client/wake"
	"github.com/iudanet/offlinedesk/internal/config"
)

// ErrLocked is returned when another process holds the database file
var ErrLocked = errors.New("local database is locked by another process")

// App is the client handle. It is built once per process and closed on exit.
type App struct {
	Store  storage.Storage
	API    *api.Client
	Auth   *auth.Service
	Conn   connectivity.Checker
	Queue  *queue.Queue
	Data   *data.Service
	Engine *sync.Engine
	Runner *sync.Runner

	cfg     config.ClientConfig
	logger  *slog.Logger
	local   *wake.Local
	redis   *redis.Client
	durable bool
}

// Option configures Open
type Option func(*options)

type options struct {
	conn connectivity.Checker
}

// WithConnectivity replaces the health-probe connectivity checker
func WithConnectivity(conn connectivity.Checker) Option {
	return func(o *options) {
		o.conn = conn
	}
}

// Open builds the handle.
//
// When the bbolt file cannot be opened or upgraded the handle falls back
// to an in-memory store; Durable reports false in that case and nothing
// survives the process. A file locked by another process is an error.
func Open(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg, logger: logger, local: wake.NewLocal()}

	store, err := boltdb.New(ctx, cfg.DBPath, boltdb.WithQuota(cfg.QuotaBytes), boltdb.WithLogger(logger))
	switch {
	case err == nil:
		a.Store = store
		a.durable = true
	case errors.Is(err, berrors.ErrTimeout):
		return nil, fmt.Errorf("%w: %s", ErrLocked, cfg.DBPath)
	default:
		// кэш недоступен - работаем в памяти до конца процесса
		logger.Warn("Local database unavailable, changes will not survive restart", "path", cfg.DBPath, "error", err)
		mem, memErr := memory.New(storage.DefaultSchema)
		if memErr != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", memErr)
		}
		a.Store = mem
	}

	a.API = api.NewClient(cfg.ServerURL, api.WithTimeout(cfg.RequestTimeout))
	a.Auth = auth.NewService(a.API, a.Store, logger)

	a.Conn = o.conn
	if a.Conn == nil {
		ping := connectivity.PingFunc(func(ctx context.Context) error {
			_, err := a.API.Health(ctx)
			return err
		})
		a.Conn = connectivity.NewProbe(ping, cfg.ProbeTTL, 0, logger)
	}

	a.Queue = queue.New(a.Store, a.local, logger, queue.WithMaxRetries(cfg.MaxRetries))
	a.Data = data.NewService(a.Store, a.Queue, a.API, a.Conn, a.Auth, logger)
	a.Engine = sync.NewEngine(a.Queue, a.API, a.Conn, a.Auth, logger,
		sync.WithItemDelay(cfg.ItemDelay),
		sync.WithMetadata(a.Store))

	return a, nil
}

// Durable reports whether the handle persists to disk
func (a *App) Durable() bool {
	return a.durable
}

// Config returns the settings the handle was opened with
func (a *App) Config() config.ClientConfig {
	return a.cfg
}

// StartRunner builds the background runner. Wake signals come from local
// enqueues and, when a redis url is configured, from the shared channel.
// A redis failure is logged and the runner keeps the local signal and the
// timer.
func (a *App) StartRunner(ctx context.Context) *sync.Runner {
	listeners := []wake.Listener{a.local}

	if a.cfg.RedisURL != "" {
		client, err := wake.NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			a.logger.Warn("Redis wake channel unavailable", "error", err)
		} else {
			a.redis = client
			remote, err := wake.NewRedis(client, a.cfg.WakeChannel, a.logger).Listen(ctx)
			if err != nil {
				a.logger.Warn("Failed to subscribe to wake channel", "error", err)
			} else {
				listeners = append(listeners, remote)
			}
		}
	}

	a.Runner = sync.NewRunner(a.Engine, wake.Merge(ctx, listeners...), a.cfg.SyncInterval, a.logger)
	return a.Runner
}

// Close releases the store and the redis connection.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
