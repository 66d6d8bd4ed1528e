// Package db provides per-operation PostgreSQL connections and the startup
// schema reconciliation for the tasks, ideas and settings tables.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a statement addressed a row that does not exist.
	ErrNotFound = errors.New("db: not found")
	// ErrConnect wraps failures to obtain a live connection.
	ErrConnect = errors.New("db: connect")
)

// Provider hands out one dedicated connection per logical operation.
// Idle connections are never retained, so every acquisition dials the server
// and every release closes the socket.
type Provider struct {
	db *sql.DB
}

func Open(connString string) (*Provider, error) {
	sqlDB, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	return New(sqlDB), nil
}

// New wraps an already opened handle and disables idle reuse on it.
func New(sqlDB *sql.DB) *Provider {
	sqlDB.SetMaxIdleConns(0)
	return &Provider{db: sqlDB}
}

// WithConn acquires a connection, runs fn on it and releases the connection on
// every exit path. Statements issued on conn outside an explicit transaction
// commit immediately.
func (p *Provider) WithConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	defer conn.Close()

	return fn(conn)
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Stats exposes pool counters for the connection gauge.
func (p *Provider) Stats() sql.DBStats {
	return p.db.Stats()
}

func (p *Provider) Close() error {
	return p.db.Close()
}

// IsConnectionError reports whether err means the server could not be reached
// or dropped the session, as opposed to rejecting a statement.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnect) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08xxx connection_exception, 57P03 cannot_connect_now (server starting up).
		return pqErr.Code.Class() == "08" || pqErr.Code == "57P03"
	}
	return false
}

// IsUniqueViolation reports a primary-key collision such as two creates with
// the same caller-chosen identifier.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isDuplicateColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42701"
}
