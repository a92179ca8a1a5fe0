//go:build integration

// Package integration runs the services against a real PostgreSQL started
// with testcontainers. Run with: go test -tags integration ./test/integration/...
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

// startPostgres runs a throwaway database, applies the embedded migrations
// and returns a connection to it.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests skipped in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("radar_test"),
		tcpostgres.WithUsername("radar"),
		tcpostgres.WithPassword("radar"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := logging.NewNopLogger()
	m, err := postgres.NewMigrator(dsn, log)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Status()
	require.NoError(t, err)
	require.False(t, dirty)
	require.NotZero(t, version)
	require.NoError(t, m.Close())

	// The postgres package registers the pgx driver.
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	conn := postgres.NewConnectionWithDB(db, log)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.HealthCheck(ctx))
	return conn
}
