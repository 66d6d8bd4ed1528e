package ideas

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"todo-ideas-backend/internal/auth"
	"todo-ideas-backend/internal/db"
	"todo-ideas-backend/internal/httpx"
)

const notFound = "Idea not found"

// Repository is the persistence the idea handlers need; *Store implements it.
type Repository interface {
	List(ctx context.Context) ([]Idea, error)
	Get(ctx context.Context, id int64) (Idea, error)
	Create(ctx context.Context, id int64, in NewIdea) (Idea, error)
	Update(ctx context.Context, id int64, p Patch) (Idea, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Register mounts the idea routes. DELETE /api/ideas/all is literal and wins
// over {id}.
func Register(mux *http.ServeMux, repo Repository, logger *slog.Logger) {
	mux.HandleFunc("GET /api/ideas", GetIdeasHandler(repo))
	mux.HandleFunc("GET /api/ideas/{id}", GetIdeaHandler(repo))
	mux.HandleFunc("POST /api/ideas", CreateIdeaHandler(repo, logger))
	mux.HandleFunc("PUT /api/ideas/{id}", UpdateIdeaHandler(repo, logger))
	mux.HandleFunc("DELETE /api/ideas/{id}", DeleteIdeaHandler(repo))
	mux.HandleFunc("DELETE /api/ideas/all", DeleteAllHandler(repo, logger))
}

func GetIdeasHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.List(r.Context())
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

func GetIdeaHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		it, err := repo.Get(r.Context(), id)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, it)
	}
}

func CreateIdeaHandler(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body IdeaInput
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		if body.ID == nil {
			httpx.WriteError(w, http.StatusBadRequest, "id is required")
			return
		}
		if body.Text == nil {
			httpx.WriteError(w, http.StatusBadRequest, "text is required")
			return
		}

		in := NewIdea{Text: *body.Text, Domain: body.Domain, CreatedBy: body.CreatedBy}
		if in.CreatedBy == nil {
			if sub, ok := auth.SubjectFromContext(r.Context()); ok {
				in.CreatedBy = &sub
			}
		}

		it, err := repo.Create(r.Context(), *body.ID, in)
		if err != nil {
			if db.IsUniqueViolation(err) {
				logger.Warn("idea id already taken", "idea_id", *body.ID)
			}
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, it)
	}
}

func UpdateIdeaHandler(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		var p Patch
		if err := httpx.DecodeJSON(w, r, &p); err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}

		it, err := repo.Update(r.Context(), id, p)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		if p.FeatureList != nil {
			logger.Info("feature list stored", "idea_id", id)
		}
		httpx.WriteJSON(w, http.StatusOK, it)
	}
}

func DeleteIdeaHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		deleted, err := repo.Delete(r.Context(), id)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "Idea deleted successfully",
			"id":      deleted,
		})
	}
}

func DeleteAllHandler(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := repo.DeleteAll(r.Context())
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		logger.Info("all ideas deleted", "count", n)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("%d idea(s) deleted successfully", n),
			"count":   n,
		})
	}
}
