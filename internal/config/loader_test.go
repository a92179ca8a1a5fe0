package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9000
database:
  host: pg.internal
  dbname: radar_test
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
auth:
  jwt_secret: yaml-secret-0123456789
worker:
  stale_after: 48h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "radar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 48*time.Hour, cfg.Worker.StaleAfter)
	assert.Equal(t, DefaultSweepInterval, cfg.Worker.SweepInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("RADAR_DATABASE_HOST", "env-host")
	t.Setenv("RADAR_SERVER_PORT", "9191")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "auth:\n  jwt_secret: short\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RADAR_AUTH_JWT_SECRET", "env-secret-0123456789")
	t.Setenv("RADAR_KAFKA_ENABLED", "true")
	t.Setenv("RADAR_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RADAR_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RADAR_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("RADAR_TEST_DOTENV"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", "", "c"}))
	assert.Nil(t, splitList(nil))
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yaml")) })
}
