// Package settings is a key/value store for application-wide options.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo-ideas-backend/internal/db"
)

// MaxKeyLen matches the settings.key column width.
const MaxKeyLen = 100

type Setting struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	UpdatedAt *time.Time `json:"updated_at"`
	UpdatedBy *string    `json:"updated_by"`
}

type Store struct {
	DB *db.Provider
}

func NewStore(p *db.Provider) *Store {
	return &Store{DB: p}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSetting(row scanner) (Setting, error) {
	var s Setting
	var updated sql.NullTime
	var by sql.NullString
	if err := row.Scan(&s.Key, &s.Value, &updated, &by); err != nil {
		return Setting{}, err
	}
	if updated.Valid {
		s.UpdatedAt = &updated.Time
	}
	if by.Valid {
		s.UpdatedBy = &by.String
	}
	return s, nil
}

func (s *Store) List(ctx context.Context) ([]Setting, error) {
	out := []Setting{}
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT key, value, updated_at, updated_by
			FROM settings
			ORDER BY key
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			st, err := scanSetting(rows)
			if err != nil {
				return err
			}
			out = append(out, st)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) (Setting, error) {
	var st Setting
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		st, err = scanSetting(conn.QueryRowContext(ctx, `
			SELECT key, value, updated_at, updated_by
			FROM settings
			WHERE key = $1
		`, key))
		return err
	})
	return st, wrap("get", err)
}

// Put overwrites the value stored under key, creating it when absent.
func (s *Store) Put(ctx context.Context, key, value string, updatedBy *string) (Setting, error) {
	var st Setting
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		st, err = scanSetting(conn.QueryRowContext(ctx, `
			INSERT INTO settings (key, value, updated_at, updated_by)
			VALUES ($1, $2, NOW(), $3)
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value,
			    updated_at = EXCLUDED.updated_at,
			    updated_by = EXCLUDED.updated_by
			RETURNING key, value, updated_at, updated_by
		`, key, value, updatedBy))
		return err
	})
	return st, wrap("put", err)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var deleted string
		return conn.QueryRowContext(ctx,
			`DELETE FROM settings WHERE key = $1 RETURNING key`, key,
		).Scan(&deleted)
	})
	return wrap("delete", err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("settings: %s: %w", op, db.ErrNotFound)
	}
	return fmt.Errorf("settings: %s: %w", op, err)
}
