package sqlstore

import (
	"context"
	"testing"
	"time"

	"cryptometrics/config"
	"cryptometrics/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway postgres and returns its DSN.
func setupPostgres(t *testing.T) string {
	t.Helper()
	dsn, _ := startPostgres(t)
	return dsn
}

func startPostgres(t *testing.T) (string, *postgres.PostgresContainer) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("cryptometrics"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn, container
}

// go test -v --run TestOpenLeavesSchemaAlone
func TestOpenLeavesSchemaAlone(t *testing.T) {
	_, container := startPostgres(t)
	ctx := context.Background()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.StoreConfig{
		Driver: config.DriverPostgres,
		Postgres: config.PostgresConfig{
			Host: host, Port: port.Int(), User: "test", Password: "test",
			DBName: "cryptometrics", SSLMode: "disable",
		},
	}

	reader, err := Open(cfg, "dev")
	require.NoError(t, err)
	defer reader.Close()

	rows, err := reader.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.False(t, reader.DB.Migrator().HasTable(&ObservationRecord{}))

	writer, err := InitializeAndMigrate(cfg, "dev")
	require.NoError(t, err)
	defer writer.Close()
	assert.True(t, reader.DB.Migrator().HasTable(&ObservationRecord{}))
}

// go test -v --run TestPostgresMigrationIsIdempotent
func TestPostgresMigrationIsIdempotent(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()

	client, err := NewPostgresClient(dsn)
	require.NoError(t, err)
	defer client.Close()

	require.True(t, client.IsHealthy(ctx))

	// Reads before the table exists are empty, not errors.
	empty, err := client.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, client.AutoMigrateObservations())

	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, client.Append(ctx, tick(at)))

	// Second initialization against the same database.
	again, err := NewPostgresClient(dsn)
	require.NoError(t, err)
	defer again.Close()
	require.NoError(t, again.AutoMigrateObservations())

	all, err := again.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// go test -v --run TestPostgresSeriesOrdering
func TestPostgresSeriesOrdering(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()

	client, err := NewPostgresClient(dsn)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.AutoMigrateObservations())

	t1 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Second)
	require.NoError(t, client.Append(ctx, tick(t1)))
	require.NoError(t, client.Append(ctx, []market.Observation{
		{ObservedAt: t2, CoinID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Price: 67100},
	}))

	btc, err := client.QueryByEntity(ctx, "bitcoin")
	require.NoError(t, err)
	require.Len(t, btc, 2)
	assert.Equal(t, t1, btc[0].ObservedAt)
	assert.Equal(t, t2, btc[1].ObservedAt)
	assert.Equal(t, 67100.0, btc[1].Price)

	n, err := client.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// A duplicate coin rejects the whole batch.
	bad := tick(t2.Add(30 * time.Second))
	bad[1].CoinID = "bitcoin"
	require.Error(t, client.Append(ctx, bad))

	n, err = client.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
