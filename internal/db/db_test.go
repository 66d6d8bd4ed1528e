package db_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-ideas-backend/internal/db"
	"todo-ideas-backend/internal/testutil"
)

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connect", fmt.Errorf("%w: boom", db.ErrConnect), true},
		{"bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"net op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
		{"admin shutdown class 08", &pq.Error{Code: "08006"}, true},
		{"starting up", &pq.Error{Code: "57P03"}, true},
		{"syntax error", &pq.Error{Code: "42601"}, false},
		{"duplicate column", &pq.Error{Code: "42701"}, false},
		{"plain", errors.New("something else"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, db.IsConnectionError(tc.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, db.IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, db.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, db.IsUniqueViolation(errors.New("x")))
}

func TestReconcilerRetriesUnreachableDatabase(t *testing.T) {
	// Nothing listens on port 1, so every acquisition is refused.
	p, err := db.Open("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=2")
	require.NoError(t, err)
	defer p.Close()

	var sleeps []time.Duration
	r := db.NewReconciler(p, testutil.DiscardLogger())
	r.Delay = 5 * time.Millisecond
	r.Sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrConnect))
	assert.Contains(t, err.Error(), "gave up after 5 attempts")
	assert.Len(t, sleeps, db.DefaultReconcileAttempts-1)
	for _, d := range sleeps {
		assert.Equal(t, 5*time.Millisecond, d)
	}
}

func TestReconcilerStopsWhenContextCancelled(t *testing.T) {
	p, err := db.Open("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=2")
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	r := db.NewReconciler(p, testutil.DiscardLogger())
	r.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err = r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// deniedConnector dials connections whose every statement fails with a
// permission error, as when the schema belongs to another role.
type deniedConnector struct {
	opens int
}

func (c *deniedConnector) Connect(context.Context) (driver.Conn, error) {
	c.opens++
	return deniedConn{}, nil
}

func (c *deniedConnector) Driver() driver.Driver { return nil }

type deniedConn struct{}

func (deniedConn) Prepare(string) (driver.Stmt, error) {
	return nil, &pq.Error{Code: "42501", Message: "permission denied for schema public"}
}
func (deniedConn) Close() error              { return nil }
func (deniedConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

func TestReconcilerDoesNotRetryStatementErrors(t *testing.T) {
	connector := &deniedConnector{}
	p := db.New(sql.OpenDB(connector))
	defer p.Close()

	sleeps := 0
	r := db.NewReconciler(p, testutil.DiscardLogger())
	r.Sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	err := r.Run(context.Background())
	require.Error(t, err)
	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("42501"), pqErr.Code)
	assert.False(t, errors.Is(err, db.ErrConnect))
	assert.NotContains(t, err.Error(), "gave up")
	assert.Equal(t, 1, connector.opens)
	assert.Zero(t, sleeps)
}

func TestReconcileIsIdempotent(t *testing.T) {
	p := testutil.Postgres(t)
	ctx := context.Background()

	// testutil.Postgres already reconciled once; a redeploy runs it again.
	require.NoError(t, db.NewReconciler(p, testutil.DiscardLogger()).Run(ctx))
	require.NoError(t, db.NewReconciler(p, testutil.DiscardLogger()).Run(ctx))

	cols := map[string][]string{}
	err := p.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT table_name, column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name IN ('tasks', 'ideas', 'settings')
			ORDER BY table_name, ordinal_position
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var table, col string
			if err := rows.Scan(&table, &col); err != nil {
				return err
			}
			cols[table] = append(cols[table], col)
		}
		return rows.Err()
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "text", "completed", "task_owner", "due_date", "created_at"}, cols["tasks"])
	assert.Equal(t, []string{
		"id", "text", "domain", "recommendations", "ai_feedback", "feature_list", "chat_history",
		"created_by", "created_at", "updated_at", "feature_list_generated_at",
	}, cols["ideas"])
	assert.Equal(t, []string{"key", "value", "updated_at", "updated_by"}, cols["settings"])
}

func TestReconcileAddsColumnsToLegacyTables(t *testing.T) {
	p := testutil.Postgres(t)
	ctx := context.Background()

	err := p.WithConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			ALTER TABLE tasks DROP COLUMN task_owner;
			ALTER TABLE tasks DROP COLUMN due_date;
			ALTER TABLE ideas DROP COLUMN chat_history;
			ALTER TABLE ideas DROP COLUMN created_by;
		`)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, db.NewReconciler(p, testutil.DiscardLogger()).Run(ctx))

	var n int
	err = p.WithConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			  AND (table_name, column_name) IN (
				('tasks', 'task_owner'), ('tasks', 'due_date'),
				('ideas', 'chat_history'), ('ideas', 'created_by'))
		`).Scan(&n)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestWithConnReleasesOnError(t *testing.T) {
	p := testutil.Postgres(t)
	ctx := context.Background()

	sentinel := errors.New("handler failed")
	err := p.WithConn(ctx, func(conn *sql.Conn) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	func() {
		defer func() { _ = recover() }()
		_ = p.WithConn(ctx, func(conn *sql.Conn) error {
			panic("boom")
		})
	}()

	assert.Eventually(t, func() bool {
		return p.Stats().InUse == 0 && p.Stats().Idle == 0
	}, time.Second, 10*time.Millisecond)
}
