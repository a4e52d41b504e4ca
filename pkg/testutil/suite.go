package testutil

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"testing"

	"github.com/worktime/worktime-backend/migrations"
	"github.com/worktime/worktime-backend/pkg/database"
	"github.com/worktime/worktime-backend/pkg/logger"
)

var (
	// Shared across every integration test in a package
	globalContainer *PostgresContainer
	globalDB        *database.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and applies
// the embedded migrations.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    os.Exit(testutil.RunIntegration(m, &suite))
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = StartPostgres(ctx)
		if containerErr != nil {
			return
		}
		globalDB, containerErr = database.NewWithDSN(globalContainer.DSN, logger.Nop())
		if containerErr != nil {
			return
		}
		_, containerErr = globalDB.Migrate(ctx, migrations.FS)
	})
	if containerErr != nil {
		return nil, containerErr
	}

	return &IntegrationSuite{
		Container: globalContainer,
		DB:        globalDB,
		Fixtures:  NewFixtureFactory(globalDB),
		Logger:    logger.Nop(),
	}, nil
}

// RunIntegration wires TestMain: under -short it runs the unit tests only,
// otherwise it builds the suite, runs everything and terminates the container.
func RunIntegration(m *testing.M, suite **IntegrationSuite) int {
	// testing.Short needs flags parsed before m.Run.
	if !flag.Parsed() {
		flag.Parse()
	}
	if testing.Short() {
		return m.Run()
	}

	ctx := context.Background()
	s, err := NewIntegrationSuite(ctx)
	if err != nil {
		fmt.Printf("failed to start integration suite: %v\n", err)
		return 1
	}
	*suite = s

	code := m.Run()
	TerminateContainer(ctx)
	return code
}

// Reset empties every domain table. Call it at the start of each test.
func (s *IntegrationSuite) Reset(t *testing.T) {
	t.Helper()
	_, err := s.DB.Exec("TRUNCATE time_entries, tasks, employees, positions CASCADE")
	if err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalDB != nil {
		_ = globalDB.Close()
	}
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}
