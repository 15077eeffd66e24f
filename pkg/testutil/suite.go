package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/medflow/hours-service/pkg/database"
	"github.com/medflow/hours-service/pkg/logger"
)

// IntegrationSuite provides a migrated PostgreSQL database for integration tests
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Logger    *logger.Logger
}

// NewIntegrationSuite starts a container and applies all migrations.
// Call this in TestMain.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    suite, err = testutil.NewIntegrationSuite(ctx)
//	    ...
//	    code := m.Run()
//	    suite.Terminate(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, err := NewPostgresContainer(ctx, DefaultPostgresConfig())
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	db, err := database.NewWithDSN(container.DSN, log)
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return &IntegrationSuite{
		Container: container,
		DB:        db,
		Logger:    log,
	}, nil
}

// Reset truncates every table so each test starts from an empty store
func (s *IntegrationSuite) Reset(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := s.DB.ExecContext(ctx, `TRUNCATE weekly_summaries, timesheet_entries, employees CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset test database: %v", err)
	}
}

// Terminate closes the database and removes the container
func (s *IntegrationSuite) Terminate(ctx context.Context) {
	s.DB.Close()
	s.Container.Terminate(ctx)
}
