// Command worker runs the Launch Radar background jobs: it consumes domain
// events and notifications from kafka and periodically flags stale
// blockers.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/launch-radar/internal/application/blockers"
	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/auth"
	pgconn "github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/launch-radar/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/launch-radar/internal/infrastructure/database/redis"
	"github.com/turtacn/launch-radar/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/launch-radar/internal/interfaces/http"
	"github.com/turtacn/launch-radar/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var version = "dev"

const (
	sweepLockName   = "stale-blocker-sweep"
	maxRetries      = 3
	retryBackoff    = time.Second
	maxRetryBackoff = 8 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	noSweep := flag.Bool("no-sweep", false, "consume events only")
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
		Service:     "radar-worker",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, !*noSweep, logger); err != nil {
		logger.Error("worker stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, sweep bool, logger logging.Logger) error {
	logger.Info("starting Launch Radar worker",
		logging.String("version", version),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("sweep", sweep),
		logging.Duration("sweep_interval", cfg.Worker.SweepInterval),
		logging.Duration("stale_after", cfg.Worker.StaleAfter))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:       cfg.Metrics.Namespace,
		EnableGoMetrics: true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewRadarMetrics(collector)

	db, err := pgconn.NewConnection(cfg.Database, logger.Named("postgres"))
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redisclient.NewClient(cfg.Redis, logger.Named("redis"))
	if err != nil {
		return err
	}
	defer rdb.Close()

	markets := redisclient.NewCachedMarketRepository(
		pgrepo.NewPostgresMarketRepo(db, logger),
		redisclient.NewRedisCache(rdb, logger, redisclient.WithPrefix("radar:")),
		cfg.Redis.TTL, metrics, logger)

	var emitter *events.Emitter
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers}, logger.Named("kafka"))
		if err != nil {
			return err
		}
		defer producer.Close()
		emitter = events.NewEmitter(
			kafka.NewEventPublisher(producer, kafka.NewTopicRouter(cfg.Kafka), "worker"), metrics, logger.Named("events"))
	}

	ctx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroup,
			Topics:  cfg.Kafka.Topics(),
			RetryConfig: kafka.RetryConfig{
				MaxRetries:      maxRetries,
				RetryBackoff:    retryBackoff,
				MaxRetryBackoff: maxRetryBackoff,
				DeadLetterTopic: kafka.DeadLetterTopic(cfg.Kafka),
			},
		}, logger.Named("consumer"))
		if err != nil {
			return err
		}
		registerHandlers(consumer, buildHandlerRegistry(cfg.Kafka, markets, notify.NewLogSink(logger), metrics, logger))
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		defer consumer.Close()
	}

	if sweep {
		svc, err := blockers.NewService(blockers.Deps{
			Repo:       pgrepo.NewPostgresBlockerRepo(db, logger),
			Authz:      auth.NewEnforcer(nil, logger),
			Events:     emitter,
			Metrics:    metrics,
			Logger:     logger,
			StaleAfter: cfg.Worker.StaleAfter,
		})
		if err != nil {
			return err
		}
		// The lock outlives one interval only if a replica dies mid-sweep.
		lock := redisclient.NewMutex(rdb, sweepLockName, cfg.Worker.SweepInterval)
		sweeper := NewSweeper(svc, lock, cfg.Worker.SweepInterval, metrics, logger.Named("sweep"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Run(ctx)
		}()
	}

	health := handlers.NewHealthHandler(version, metrics, logger,
		handlers.Check{Component: "postgres", Probe: db.HealthCheck},
		handlers.Check{Component: "redis", Probe: rdb.Ping})
	srv := httpserver.NewServer(config.ServerConfig{
		Host:            config.DefaultServerHost,
		Port:            cfg.Worker.HealthPort,
		ReadTimeout:     config.DefaultReadTimeout,
		WriteTimeout:    config.DefaultWriteTimeout,
		ShutdownTimeout: 5 * time.Second,
	}, healthRouter(health, collector.Handler()), logger.Named("health"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("health server shutdown failed", logging.Err(serr))
	}
	wg.Wait()
	return err
}

// healthRouter serves the probes and metrics of the worker.
func healthRouter(h *handlers.HealthHandler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
	r.Handle("/metrics", metrics)
	return r
}
