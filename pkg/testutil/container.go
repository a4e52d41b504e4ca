// Package testutil provides testing utilities for the worktime backend:
// a PostgreSQL testcontainer, an integration suite, sqlmock wrappers and
// fixtures for timesheet data.
package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// defaultPostgresImage ships btree_gist, which the overlap constraint needs.
// WORKTIME_TEST_POSTGRES_IMAGE overrides it.
const defaultPostgresImage = "postgres:15-alpine"

// PostgresContainer is a throwaway PostgreSQL server for integration tests
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// StartPostgres runs a fresh PostgreSQL container and waits until it
// accepts connections
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	image := os.Getenv("WORKTIME_TEST_POSTGRES_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	// The server logs "ready" twice: once for the init run, once for real.
	ready := wait.ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(60 * time.Second)

	c, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(image),
		postgres.WithDatabase("worktime_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(ready),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: c, DSN: dsn}, nil
}
