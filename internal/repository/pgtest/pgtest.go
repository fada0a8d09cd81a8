// Package pgtest gives tests a real Postgres. A container is started once per
// test binary; AIRBOOKING_TEST_DSN points the tests at an existing database
// instead. Started containers are removed by the testcontainers reaper when
// the test binary exits.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image    = "postgres:16-alpine"
	user     = "airbooking"
	password = "airbooking"
	database = "airbooking"
)

var (
	once     sync.Once
	dsn      string
	startErr error
)

// Pool returns a pool on the shared test database, closed when t ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests are skipped in short mode")
	}
	if os.Getenv("AIRBOOKING_TEST_DSN") == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	once.Do(func() { dsn, startErr = start(context.Background()) })
	require.NoError(t, startErr, "start postgres")

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func start(ctx context.Context) (string, error) {
	if dsn := os.Getenv("AIRBOOKING_TEST_DSN"); dsn != "" {
		return dsn, nil
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
				"POSTGRES_DB":       database,
			},
			// the server restarts once after initdb
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), database), nil
}
