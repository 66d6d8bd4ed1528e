package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	DefaultReconcileAttempts = 5
	DefaultReconcileDelay    = 3 * time.Second
)

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGINT PRIMARY KEY,
		text TEXT NOT NULL,
		completed BOOLEAN DEFAULT FALSE,
		task_owner VARCHAR(255),
		due_date DATE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id BIGINT PRIMARY KEY,
		text TEXT NOT NULL,
		domain VARCHAR(100),
		recommendations TEXT,
		ai_feedback TEXT,
		feature_list TEXT,
		chat_history JSONB DEFAULT '[]'::jsonb,
		created_by VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP,
		feature_list_generated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key VARCHAR(100) PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_by VARCHAR(255)
	)`,
}

// addedColumn is a column that older deployments created their table without.
type addedColumn struct {
	Table      string
	Column     string
	Definition string
}

var addedColumns = []addedColumn{
	{"tasks", "task_owner", "VARCHAR(255)"},
	{"tasks", "due_date", "DATE"},
	{"ideas", "recommendations", "TEXT"},
	{"ideas", "ai_feedback", "TEXT"},
	{"ideas", "feature_list", "TEXT"},
	{"ideas", "chat_history", "JSONB DEFAULT '[]'::jsonb"},
	{"ideas", "created_by", "VARCHAR(255)"},
	{"ideas", "updated_at", "TIMESTAMP"},
	{"ideas", "feature_list_generated_at", "TIMESTAMP"},
}

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_domain ON ideas(domain)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_updated ON ideas(updated_at)`,
}

// Reconciler brings the schema up to the current column set. Every step is
// additive and idempotent, so running it on every boot is safe.
type Reconciler struct {
	DB       *Provider
	Logger   *slog.Logger
	Attempts int
	Delay    time.Duration
	// Sleep waits between attempts; nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewReconciler(p *Provider, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		DB:       p,
		Logger:   logger,
		Attempts: DefaultReconcileAttempts,
		Delay:    DefaultReconcileDelay,
	}
}

// Run retries connection-level failures up to Attempts times with a fixed
// delay. Any other failure is returned at once.
func (r *Reconciler) Run(ctx context.Context) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.DB.WithConn(ctx, func(conn *sql.Conn) error {
			return r.reconcile(ctx, conn)
		})
		if err == nil {
			r.Logger.Info("database schema reconciled", "attempt", attempt)
			return nil
		}
		if !IsConnectionError(err) {
			return fmt.Errorf("db: reconcile schema: %w", err)
		}
		if attempt == attempts {
			break
		}
		r.Logger.Warn("database not reachable, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"retry_in", r.Delay.String(),
			"error", err,
		)
		if serr := sleep(ctx, r.Delay); serr != nil {
			return fmt.Errorf("db: reconcile schema: %w", serr)
		}
	}

	return fmt.Errorf("db: reconcile schema: gave up after %d attempts: %w", attempts, err)
}

func (r *Reconciler) reconcile(ctx context.Context, conn *sql.Conn) error {
	for _, stmt := range createTables {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, col := range addedColumns {
		exists, err := columnExists(ctx, conn, col.Table, col.Column)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			pq.QuoteIdentifier(col.Table), pq.QuoteIdentifier(col.Column), col.Definition)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			// Another instance may have added it between the lookup and the ALTER.
			if isDuplicateColumn(err) {
				continue
			}
			return err
		}
		r.Logger.Info("added column", "table", col.Table, "column", col.Column)
	}

	for _, stmt := range createIndexes {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func columnExists(ctx context.Context, conn *sql.Conn, table, column string) (bool, error) {
	var exists bool
	err := conn.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			  AND table_name = $1
			  AND column_name = $2
		)
	`, table, column).Scan(&exists)
	return exists, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
