package config

import (
	"time"

	"github.com/spf13/viper"
)

// ── Server ───────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 20 * time.Second
	DefaultRateLimitRPS    = 20.0
	DefaultRateLimitBurst  = 40
)

// ── Database ─────────────────────────────────────────────────────────────────

const (
	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBName          = "launch_radar"
	DefaultDBSSLMode       = "disable"
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = 30 * time.Minute
)

// ── Redis ────────────────────────────────────────────────────────────────────

const (
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 20
	DefaultCacheTTL      = 10 * time.Minute
)

// ── Kafka ────────────────────────────────────────────────────────────────────

const (
	DefaultConsumerGroup     = "launch-radar-worker"
	DefaultBlockerTopic      = "radar.blocker.events"
	DefaultEscalationTopic   = "radar.escalation.events"
	DefaultCommentTopic      = "radar.comment.events"
	DefaultCatalogTopic      = "radar.catalog.events"
	DefaultNotificationTopic = "radar.notifications"
)

// ── MinIO ────────────────────────────────────────────────────────────────────

const (
	DefaultSnapshotBucket = "radar-snapshots"
	DefaultPresignExpiry  = time.Hour
)

// ── Auth / dashboard / worker / log ─────────────────────────────────────────

const (
	DefaultIssuer          = "launch-radar"
	DefaultTokenTTL        = 12 * time.Hour
	DefaultMetric          = "city_pct"
	DefaultRefreshInterval = time.Minute
	DefaultLoadTimeout     = 10 * time.Second
	DefaultStaleAfter      = 14 * 24 * time.Hour
	DefaultSweepInterval   = time.Hour
	DefaultWorkerHealth    = 8081
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultMetricsNS       = "radar"
)

// registerDefaults seeds viper so that every key is known before Unmarshal;
// without a known key AutomaticEnv cannot override it.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit_rps", DefaultRateLimitRPS)
	v.SetDefault("server.rate_limit_burst", DefaultRateLimitBurst)

	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", "radar")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", DefaultDBName)
	v.SetDefault("database.sslmode", DefaultDBSSLMode)
	v.SetDefault("database.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", DefaultConnMaxLifetime)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	v.SetDefault("redis.ttl", DefaultCacheTTL)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.consumer_group", DefaultConsumerGroup)
	v.SetDefault("kafka.blocker_topic", DefaultBlockerTopic)
	v.SetDefault("kafka.escalation_topic", DefaultEscalationTopic)
	v.SetDefault("kafka.comment_topic", DefaultCommentTopic)
	v.SetDefault("kafka.catalog_topic", DefaultCatalogTopic)
	v.SetDefault("kafka.notification_topic", DefaultNotificationTopic)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.snapshot_bucket", DefaultSnapshotBucket)
	v.SetDefault("minio.presign_expiry", DefaultPresignExpiry)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", DefaultIssuer)
	v.SetDefault("auth.token_ttl", DefaultTokenTTL)

	v.SetDefault("dashboard.default_metric", DefaultMetric)
	v.SetDefault("dashboard.refresh_interval", DefaultRefreshInterval)
	v.SetDefault("dashboard.load_timeout", DefaultLoadTimeout)

	v.SetDefault("worker.stale_after", DefaultStaleAfter)
	v.SetDefault("worker.sweep_interval", DefaultSweepInterval)
	v.SetDefault("worker.health_port", DefaultWorkerHealth)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNS)
}

// ApplyDefaults fills zero-valued fields of a programmatically built Config.
func ApplyDefaults(cfg *Config) {
	// ── Server ──
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// ── Database ──
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = DefaultConnMaxLifetime
	}

	// ── Redis ──
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultCacheTTL
	}

	// ── Kafka ──
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = DefaultConsumerGroup
	}
	if cfg.Kafka.BlockerTopic == "" {
		cfg.Kafka.BlockerTopic = DefaultBlockerTopic
	}
	if cfg.Kafka.EscalationTopic == "" {
		cfg.Kafka.EscalationTopic = DefaultEscalationTopic
	}
	if cfg.Kafka.CommentTopic == "" {
		cfg.Kafka.CommentTopic = DefaultCommentTopic
	}
	if cfg.Kafka.CatalogTopic == "" {
		cfg.Kafka.CatalogTopic = DefaultCatalogTopic
	}
	if cfg.Kafka.NotificationTopic == "" {
		cfg.Kafka.NotificationTopic = DefaultNotificationTopic
	}

	// ── MinIO ──
	if cfg.MinIO.SnapshotBucket == "" {
		cfg.MinIO.SnapshotBucket = DefaultSnapshotBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultPresignExpiry
	}

	// ── Auth ──
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultIssuer
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}

	// ── Dashboard ──
	if cfg.Dashboard.DefaultMetric == "" {
		cfg.Dashboard.DefaultMetric = DefaultMetric
	}
	if cfg.Dashboard.RefreshInterval == 0 {
		cfg.Dashboard.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Dashboard.LoadTimeout == 0 {
		cfg.Dashboard.LoadTimeout = DefaultLoadTimeout
	}

	// ── Worker ──
	if cfg.Worker.StaleAfter == 0 {
		cfg.Worker.StaleAfter = DefaultStaleAfter
	}
	if cfg.Worker.SweepInterval == 0 {
		cfg.Worker.SweepInterval = DefaultSweepInterval
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealth
	}

	// ── Log / metrics ──
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNS
	}
}
