package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-ideas-backend/internal/db"
)

const taskColumns = `id, text, COALESCE(completed, FALSE), task_owner, due_date, created_at`

type Store struct {
	DB *db.Provider
}

func NewStore(p *db.Provider) *Store {
	return &Store{DB: p}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (Task, error) {
	var (
		t     Task
		owner sql.NullString
		due   sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Text, &t.Completed, &owner, &due, &t.CreatedAt); err != nil {
		return Task{}, err
	}
	if owner.Valid {
		t.TaskOwner = &owner.String
	}
	if due.Valid {
		d := NewDate(due.Time.Year(), due.Time.Month(), due.Time.Day())
		t.DueDate = &d
	}
	return t, nil
}

func dueArg(d *Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// List returns all tasks, newest first.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	out := []Task{}
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT `+taskColumns+`
			FROM tasks
			ORDER BY created_at DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		t, err = scanTask(conn.QueryRowContext(ctx, `
			SELECT `+taskColumns+`
			FROM tasks
			WHERE id = $1
		`, id))
		return err
	})
	return t, wrap("get", err)
}

// Create inserts a task under the caller's identifier. A duplicate identifier
// fails with the store's unique-violation error.
func (s *Store) Create(ctx context.Context, id int64, f Fields) (Task, error) {
	var t Task
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		t, err = scanTask(conn.QueryRowContext(ctx, `
			INSERT INTO tasks (id, text, completed, task_owner, due_date, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING `+taskColumns,
			id, f.Text, f.Completed, f.TaskOwner, dueArg(f.DueDate),
		))
		return err
	})
	return t, wrap("create", err)
}

// Replace overwrites every mutable field of the task.
func (s *Store) Replace(ctx context.Context, id int64, f Fields) (Task, error) {
	var t Task
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		t, err = scanTask(conn.QueryRowContext(ctx, `
			UPDATE tasks
			SET text = $1, completed = $2, task_owner = $3, due_date = $4
			WHERE id = $5
			RETURNING `+taskColumns,
			f.Text, f.Completed, f.TaskOwner, dueArg(f.DueDate), id,
		))
		return err
	})
	return t, wrap("replace", err)
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			`DELETE FROM tasks WHERE id = $1 RETURNING id`, id,
		).Scan(&deleted)
	})
	return deleted, wrap("delete", err)
}

// DeleteCompleted removes every completed task and reports how many went.
func (s *Store) DeleteCompleted(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM tasks WHERE completed = TRUE`)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("tasks: delete completed: %w", err)
	}
	return n, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tasks: %s: %w", op, db.ErrNotFound)
	}
	return fmt.Errorf("tasks: %s: %w", op, err)
}
