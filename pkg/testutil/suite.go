package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/enjeyisback/HRMS/pkg/database"
	"github.com/enjeyisback/HRMS/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite creates a new integration test suite.
// Call this in TestMain to set up shared test infrastructure.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    var err error
//	    suite, err = testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
//
//	func TestSomething(t *testing.T) {
//	    db := suite.SetupSchema(t, context.Background(), repository.Migrations())
//	    // ... run tests against db
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		Fixtures:  NewFixtureFactory(),
		Logger:    logger.Nop(),
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// SetupSchema creates a private schema, applies migrations inside it and
// returns a database handle whose search_path points at it.
// Each test should use its own schema for isolation; it is dropped on cleanup.
func (s *IntegrationSuite) SetupSchema(t *testing.T, ctx context.Context, migrations []string) *database.DB {
	t.Helper()

	schema := "payroll_test_" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	if _, err := s.RawDB.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	db, err := database.NewWithDSN(withSearchPath(s.Container.DSN, schema), s.Logger)
	if err != nil {
		t.Fatalf("failed to connect to schema %s: %v", schema, err)
	}

	t.Cleanup(func() {
		db.Close()
		if _, err := s.RawDB.ExecContext(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
	})

	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("migration %d failed in schema %s: %v", i, schema, err)
		}
	}

	return db
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + schema + ",public"
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}
