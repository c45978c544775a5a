package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/offlinedesk/internal/client/app"
	"github.com/iudanet/offlinedesk/internal/client/cli"
	"github.com/iudanet/offlinedesk/internal/client/connectivity"
	"github.com/iudanet/offlinedesk/internal/client/iocli"
	"github.com/iudanet/offlinedesk/internal/config"
	"github.com/iudanet/offlinedesk/internal/logging"
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
	stdio := iocli.NewStdio()

	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	serverURL := flag.String("server", "", "Server URL")
	dbPath := flag.String("db", "", "Path to local database")
	offline := flag.Bool("offline", false, "Treat the server as unreachable")
	password := flag.String("password", "", "Account password (not recommended, use env var or file)")
	passwordFile := flag.String("password-file", "", "Path to file containing the account password")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	flag.Usage = func() { cli.PrintUsage(stdio) }
	flag.Parse()

	if *showVersion {
		printVersion()
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}
	if *dbPath != "" {
		cfg.Client.DBPath = *dbPath
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

	// Ctrl+C останавливает watch и прерывает запросы
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if *offline {
		opts = append(opts, app.WithConnectivity(connectivity.NewStatic(false)))
	}

	a, err := app.Open(ctx, cfg.Client, logger, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close local store", "error", err)
		}
	}()

	c := cli.New(a, stdio, cli.Passwords{FromFile: *passwordFile, FromArgs: *password})
	if err := c.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if cli.IsUsageError(err) {
			cli.PrintUsage(stdio)
		}
		return 1
	}
	return 0
}

func printVersion() {
	fmt.Printf("offlinedesk client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
