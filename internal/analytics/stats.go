// Package analytics computes the dashboard summary over tasks and ideas.
// Nothing is stored; every call recomputes from the tables.
package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"todo-ideas-backend/internal/db"
)

type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Active    int64 `json:"active"`
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

type IdeaStats struct {
	Total               int64         `json:"total"`
	WithRecommendations int64         `json:"with_recommendations"`
	WithFeatures        int64         `json:"with_features"`
	ByDomain            []DomainCount `json:"by_domain"`
}

type Stats struct {
	Tasks TaskStats `json:"tasks"`
	Ideas IdeaStats `json:"ideas"`
}

type Service struct {
	DB *db.Provider
}

func NewService(p *db.Provider) *Service {
	return &Service{DB: p}
}

// Compute runs the summary queries on a single connection.
func (s *Service) Compute(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.WithConn(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, `
			SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
			FROM tasks
		`).Scan(&st.Tasks.Total, &st.Tasks.Completed)
		if err != nil {
			return fmt.Errorf("task counts: %w", err)
		}
		st.Tasks.Active = st.Tasks.Total - st.Tasks.Completed

		err = conn.QueryRowContext(ctx, `
			SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE recommendations IS NOT NULL),
				COUNT(*) FILTER (WHERE feature_list IS NOT NULL)
			FROM ideas
		`).Scan(&st.Ideas.Total, &st.Ideas.WithRecommendations, &st.Ideas.WithFeatures)
		if err != nil {
			return fmt.Errorf("idea counts: %w", err)
		}

		st.Ideas.ByDomain, err = byDomain(ctx, conn)
		return err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("analytics: stats: %w", err)
	}
	return st, nil
}

func byDomain(ctx context.Context, conn *sql.Conn) ([]DomainCount, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT domain, COUNT(*)
		FROM ideas
		WHERE domain IS NOT NULL
		GROUP BY domain
		ORDER BY domain
	`)
	if err != nil {
		return nil, fmt.Errorf("ideas by domain: %w", err)
	}
	defer rows.Close()

	out := []DomainCount{}
	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
