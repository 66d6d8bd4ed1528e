// Package testutil starts a throwaway PostgreSQL for integration tests.
//
// One container is shared by all tests of a test binary; tests isolate
// themselves with Reset. When Docker is unavailable the calling test is skipped.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"todo-ideas-backend/internal/db"
)

var (
	once    sync.Once
	connStr string
	initErr error
)

func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// Postgres returns a Provider on a reconciled schema.
func Postgres(t *testing.T) *db.Provider {
	t.Helper()

	if !dockerAvailable() {
		t.Skip("Docker not available, skipping PostgreSQL integration tests")
	}

	once.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("todo"),
			postgres.WithUsername("todo"),
			postgres.WithPassword("todo"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			initErr = err
			return
		}
		connStr, initErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	if initErr != nil {
		t.Skipf("failed to start PostgreSQL container: %v", initErr)
	}

	p, err := db.Open(connStr)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	if err := db.NewReconciler(p, DiscardLogger()).Run(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	Reset(t, p)
	return p
}

// Reset empties every application table.
func Reset(t *testing.T, p *db.Provider) {
	t.Helper()
	err := p.WithConn(context.Background(), func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context.Background(), `TRUNCATE tasks, ideas, settings`)
		return err
	})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
