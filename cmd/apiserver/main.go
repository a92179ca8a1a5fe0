// Command apiserver serves the Launch Radar HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/launch-radar/internal/interfaces/http"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const poolStatsInterval = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
		Service:     "radar-apiserver",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *configPath != "" {
		watchConfig(*configPath, cfg, logger)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("apiserver stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("apiserver stopped")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting Launch Radar API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("built", buildDate),
		logging.String("addr", cfg.Server.Addr()),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled))

	infra, err := openInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	app, err := buildApp(cfg, infra, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	bgCtx, cancelBG := context.WithCancel(ctx)
	defer cancelBG()
	go infra.reportPoolStats(bgCtx, app.metrics, poolStatsInterval)
	go app.warmDashboard(bgCtx)

	srv := httpserver.NewServer(cfg.Server, app.router, logger.Named("server"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watchConfig reports edits to the configuration file. Only the log level
// could be applied live and the zap level is fixed at construction, so edits
// are logged and take effect on restart.
func watchConfig(path string, current *config.Config, logger logging.Logger) {
	err := config.Watch(path, func(next *config.Config) {
		logger.Warn("configuration file changed; restart to apply",
			logging.String("path", path),
			logging.String("log_level", next.Log.Level),
			logging.Bool("server_changed", next.Server.Addr() != current.Server.Addr()))
	}, func(err error) {
		logger.Error("configuration file change rejected", logging.Err(err))
	})
	if err != nil {
		logger.Warn("configuration watch disabled", logging.Err(err))
	}
}
