package ideas

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"todo-ideas-backend/internal/db"
)

const ideaColumns = `id, text, domain, recommendations, ai_feedback, feature_list,
	COALESCE(chat_history, '[]'::jsonb), created_by, created_at, updated_at, feature_list_generated_at`

type Store struct {
	DB *db.Provider
}

func NewStore(p *db.Provider) *Store {
	return &Store{DB: p}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdea(row scanner) (Idea, error) {
	var it Idea
	var domain, recs, feedback, features, by sql.NullString
	var updated, generated sql.NullTime
	var history []byte
	err := row.Scan(&it.ID, &it.Text, &domain, &recs, &feedback, &features,
		&history, &by, &it.CreatedAt, &updated, &generated)
	if err != nil {
		return Idea{}, err
	}
	it.Domain = nullString(domain)
	it.Recommendations = nullString(recs)
	it.AIFeedback = nullString(feedback)
	it.FeatureList = nullString(features)
	it.CreatedBy = nullString(by)
	if updated.Valid {
		it.UpdatedAt = &updated.Time
	}
	if generated.Valid {
		it.FeatureListGeneratedAt = &generated.Time
	}

	it.ChatHistory = []ChatTurn{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &it.ChatHistory); err != nil {
			return Idea{}, fmt.Errorf("decode chat_history of idea %d: %w", it.ID, err)
		}
		if it.ChatHistory == nil {
			it.ChatHistory = []ChatTurn{}
		}
	}
	return it, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// List returns all ideas, newest first.
func (s *Store) List(ctx context.Context) ([]Idea, error) {
	out := []Idea{}
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT `+ideaColumns+`
			FROM ideas
			ORDER BY created_at DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			it, err := scanIdea(rows)
			if err != nil {
				return err
			}
			out = append(out, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("ideas: list: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Idea, error) {
	var it Idea
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		it, err = scanIdea(conn.QueryRowContext(ctx, `
			SELECT `+ideaColumns+`
			FROM ideas
			WHERE id = $1
		`, id))
		return err
	})
	return it, wrap("get", err)
}

func (s *Store) Create(ctx context.Context, id int64, in NewIdea) (Idea, error) {
	var it Idea
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		it, err = scanIdea(conn.QueryRowContext(ctx, `
			INSERT INTO ideas (id, text, domain, chat_history, created_by, created_at)
			VALUES ($1, $2, $3, '[]'::jsonb, $4, NOW())
			RETURNING `+ideaColumns,
			id, in.Text, in.Domain, in.CreatedBy,
		))
		return err
	})
	return it, wrap("create", err)
}

// Update applies the patch in one statement. An empty patch writes nothing and
// returns the stored idea as is.
func (s *Store) Update(ctx context.Context, id int64, p Patch) (Idea, error) {
	assigns := p.Assignments()
	if len(assigns) == 0 {
		return s.Get(ctx, id)
	}

	query, args, err := buildUpdate(id, assigns)
	if err != nil {
		return Idea{}, fmt.Errorf("ideas: update: %w", err)
	}

	var it Idea
	err = s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		it, err = scanIdea(conn.QueryRowContext(ctx, query, args...))
		return err
	})
	return it, wrap("update", err)
}

// buildUpdate renders assignments as UPDATE ... RETURNING with one bound
// parameter per value; chat history travels as JSON text cast to jsonb.
func buildUpdate(id int64, assigns []Assignment) (string, []any, error) {
	sets := make([]string, 0, len(assigns))
	args := make([]any, 0, len(assigns)+1)

	for _, a := range assigns {
		col := pq.QuoteIdentifier(a.Column)
		if a.Now {
			sets = append(sets, col+" = NOW()")
			continue
		}
		switch v := a.Value.(type) {
		case []ChatTurn:
			b, err := json.Marshal(v)
			if err != nil {
				return "", nil, err
			}
			args = append(args, string(b))
			sets = append(sets, fmt.Sprintf("%s = $%d::jsonb", col, len(args)))
		default:
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE ideas
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), ideaColumns)
	return query, args, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			`DELETE FROM ideas WHERE id = $1 RETURNING id`, id,
		).Scan(&deleted)
	})
	return deleted, wrap("delete", err)
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM ideas`)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("ideas: delete all: %w", err)
	}
	return n, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("ideas: %s: %w", op, db.ErrNotFound)
	}
	return fmt.Errorf("ideas: %s: %w", op, err)
}
