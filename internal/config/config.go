// Package config provides configuration loading, defaults and validation for
// Launch Radar binaries.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration tree.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds cache settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// KafkaConfig holds event bus settings.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	ConsumerGroup     string   `mapstructure:"consumer_group"`
	BlockerTopic      string   `mapstructure:"blocker_topic"`
	EscalationTopic   string   `mapstructure:"escalation_topic"`
	CommentTopic      string   `mapstructure:"comment_topic"`
	CatalogTopic      string   `mapstructure:"catalog_topic"`
	NotificationTopic string   `mapstructure:"notification_topic"`
	Enabled           bool     `mapstructure:"enabled"`
}

// Topics returns every configured topic.
func (k KafkaConfig) Topics() []string {
	return []string{k.BlockerTopic, k.EscalationTopic, k.CommentTopic, k.CatalogTopic, k.NotificationTopic}
}

// MinIOConfig holds snapshot storage settings.
type MinIOConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	UseSSL         bool          `mapstructure:"use_ssl"`
	SnapshotBucket string        `mapstructure:"snapshot_bucket"`
	PresignExpiry  time.Duration `mapstructure:"presign_expiry"`
	Enabled        bool          `mapstructure:"enabled"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// DashboardConfig holds read-model settings.
type DashboardConfig struct {
	DefaultMetric   string        `mapstructure:"default_metric"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	LoadTimeout     time.Duration `mapstructure:"load_timeout"`
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	HealthPort    int           `mapstructure:"health_port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds prometheus settings.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Enabled   bool   `mapstructure:"enabled"`
}

// DSN returns a postgres connection URL.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

var validMetrics = map[string]bool{"city_pct": true, "gb_weighted_pct": true, "tam_pct": true}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("config: database.max_idle_conns (%d) exceeds max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers is required when kafka is enabled")
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.SnapshotBucket == "") {
		return fmt.Errorf("config: minio.endpoint and minio.snapshot_bucket are required when minio is enabled")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if !validMetrics[c.Dashboard.DefaultMetric] {
		return fmt.Errorf("config: dashboard.default_metric %q is not a known metric", c.Dashboard.DefaultMetric)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid", c.Log.Level)
	}
	if c.Worker.SweepInterval <= 0 {
		return fmt.Errorf("config: worker.sweep_interval must be positive")
	}
	return nil
}
