package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"todo-ideas-backend/internal/db"
	"todo-ideas-backend/internal/httpx"
)

const notFound = "Task not found"

// Repository is the persistence the task handlers need; *Store implements it.
type Repository interface {
	List(ctx context.Context) ([]Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	Create(ctx context.Context, id int64, f Fields) (Task, error)
	Replace(ctx context.Context, id int64, f Fields) (Task, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteCompleted(ctx context.Context) (int64, error)
}

// Register mounts the task routes. The literal completed/all route is more
// specific than {id} and wins for DELETE.
func Register(mux *http.ServeMux, repo Repository, logger *slog.Logger) {
	mux.HandleFunc("GET /api/tasks", GetTasksHandler(repo))
	mux.HandleFunc("GET /api/tasks/{id}", GetTaskHandler(repo))
	mux.HandleFunc("POST /api/tasks", CreateTaskHandler(repo, logger))
	mux.HandleFunc("PUT /api/tasks/{id}", UpdateTaskHandler(repo))
	mux.HandleFunc("DELETE /api/tasks/{id}", DeleteTaskHandler(repo))
	mux.HandleFunc("DELETE /api/tasks/completed/all", DeleteCompletedHandler(repo))
}

func GetTasksHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.List(r.Context())
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

func GetTaskHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		t, err := repo.Get(r.Context(), id)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, t)
	}
}

func CreateTaskHandler(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body TaskInput
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		if body.ID == nil {
			httpx.WriteError(w, http.StatusBadRequest, "id is required")
			return
		}
		f, err := body.Fields()
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}

		t, err := repo.Create(r.Context(), *body.ID, f)
		if err != nil {
			if db.IsUniqueViolation(err) {
				logger.Warn("task id already taken", "task_id", *body.ID)
			}
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, t)
	}
}

func UpdateTaskHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		var body TaskInput
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		f, err := body.Fields()
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}

		t, err := repo.Replace(r.Context(), id, f)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, t)
	}
}

func DeleteTaskHandler(repo Repository) http.HandlerFunc {
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
			"message": "Task deleted successfully",
			"id":      deleted,
		})
	}
}

func DeleteCompletedHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := repo.DeleteCompleted(r.Context())
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("%d completed task(s) deleted successfully", n),
			"count":   n,
		})
	}
}
