package main

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/redis"
	"github.com/turtacn/launch-radar/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/launch-radar/internal/infrastructure/storage/minio"
	"github.com/turtacn/launch-radar/internal/interfaces/http/handlers"
)

// infrastructure holds the external clients. producer and objects are nil
// when kafka or minio is disabled.
type infrastructure struct {
	db       *postgres.Connection
	redis    *redis.Client
	producer *kafka.Producer
	objects  *minio.Client
	logger   logging.Logger
}

// openInfrastructure connects every enabled backend. On failure whatever was
// already opened is closed again.
func openInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *infrastructure, err error) {
	infra := &infrastructure{logger: logger}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	if cfg.Database.AutoMigrate {
		if err = migrate(cfg.Database, logger); err != nil {
			return nil, err
		}
	}
	if infra.db, err = postgres.NewConnection(cfg.Database, logger.Named("postgres")); err != nil {
		return nil, err
	}
	if infra.redis, err = redis.NewClient(cfg.Redis, logger.Named("redis")); err != nil {
		return nil, err
	}

	if cfg.Kafka.Enabled {
		ensureTopics(ctx, cfg.Kafka, logger)
		infra.producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			AsyncErrorHandler: func(err error, msg *kafka.ProducerMessage) {
				logger.Warn("async publish failed", logging.String("topic", msg.Topic), logging.Err(err))
			},
		}, logger.Named("kafka"))
		if err != nil {
			return nil, err
		}
	}

	if cfg.MinIO.Enabled {
		if infra.objects, err = minio.NewClient(ctx, cfg.MinIO, logger.Named("minio")); err != nil {
			return nil, err
		}
	}
	return infra, nil
}

func migrate(cfg config.DatabaseConfig, logger logging.Logger) error {
	m, err := postgres.NewMigrator(cfg.DSN(), logger.Named("migrate"))
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// ensureTopics provisions the event topics. Brokers with auto-create or
// restricted admin rights make this optional, so failures only warn.
func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger.Named("kafka"))
	if err != nil {
		logger.Warn("topic provisioning skipped", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, kafka.RadarTopics(cfg)); err != nil {
		logger.Warn("topic provisioning failed", logging.Err(err))
	}
}

// healthChecks lists a readiness probe per connected backend.
func (i *infrastructure) healthChecks() []handlers.HealthChecker {
	checks := []handlers.HealthChecker{
		handlers.Check{Component: "postgres", Probe: i.db.HealthCheck},
		handlers.Check{Component: "redis", Probe: i.redis.Ping},
	}
	if i.objects != nil {
		checks = append(checks, handlers.Check{Component: "minio", Probe: i.objects.HealthCheck})
	}
	return checks
}

// reportPoolStats publishes database pool gauges until ctx is done.
func (i *infrastructure) reportPoolStats(ctx context.Context, metrics *prometheus.RadarMetrics, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			metrics.RecordDBStats(i.db.Stats())
		}
	}
}

// Close releases clients in reverse order of opening. The minio client
// holds no connections of its own.
func (i *infrastructure) Close() {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			i.logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			i.logger.Warn("postgres close failed", logging.Err(err))
		}
	}
}
