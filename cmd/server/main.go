package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/offlinedesk/internal/config"
	"github.com/iudanet/offlinedesk/internal/logging"
	"github.com/iudanet/offlinedesk/internal/server"
	"github.com/iudanet/offlinedesk/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	addr := flag.String("addr", "", "Listen address")
	dbPath := flag.String("db", "", "Path to SQLite database (\":memory:\" for a throwaway one)")
	redisURL := flag.String("redis", "", "Redis URL for the startup wake announcement")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *redisURL != "" {
		cfg.Server.RedisURL = *redisURL
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if cfg.Server.JWTSecret == "" {
		logger.Error("jwt secret is not set", slog.String("env", config.EnvPrefix+"JWT_SECRET"))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.Server.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", cfg.Server.DBPath), slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	srv, err := server.New(cfg.Server, store, logger)
	if err != nil {
		logger.Error("failed to build server", slog.Any("error", err))
		return 1
	}

	logger.Info("offlinedesk dev server",
		slog.String("version", Version),
		slog.String("addr", cfg.Server.Addr),
		slog.String("db", cfg.Server.DBPath))

	if err := srv.Run(ctx); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		return 1
	}
	return 0
}

func printVersion() {
	fmt.Printf("offlinedesk dev server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
