package settings

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"todo-ideas-backend/internal/auth"
	"todo-ideas-backend/internal/httpx"
)

const notFound = "Setting not found"

type Repository interface {
	List(ctx context.Context) ([]Setting, error)
	Get(ctx context.Context, key string) (Setting, error)
	Put(ctx context.Context, key, value string, updatedBy *string) (Setting, error)
	Delete(ctx context.Context, key string) error
}

type putRequest struct {
	Value     *string `json:"value"`
	UpdatedBy *string `json:"updated_by"`
}

func Register(mux *http.ServeMux, repo Repository, logger *slog.Logger) {
	mux.HandleFunc("GET /api/settings", ListHandler(repo))
	mux.HandleFunc("GET /api/settings/{key}", GetHandler(repo))
	mux.HandleFunc("PUT /api/settings/{key}", PutHandler(repo, logger))
	mux.HandleFunc("DELETE /api/settings/{key}", DeleteHandler(repo))
}

func pathKey(r *http.Request) (string, error) {
	key := r.PathValue("key")
	if key == "" || len(key) > MaxKeyLen {
		return "", httpx.BadRequest(fmt.Sprintf("key must be 1-%d characters", MaxKeyLen))
	}
	return key, nil
}

func ListHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.List(r.Context())
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

func GetHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := pathKey(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		st, err := repo.Get(r.Context(), key)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, st)
	}
}

func PutHandler(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := pathKey(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		var body putRequest
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		if body.Value == nil {
			httpx.WriteError(w, http.StatusBadRequest, "value is required")
			return
		}

		by := body.UpdatedBy
		if by == nil {
			if sub, ok := auth.SubjectFromContext(r.Context()); ok {
				by = &sub
			}
		}

		st, err := repo.Put(r.Context(), key, *body.Value, by)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		logger.Info("setting updated", "key", key)
		httpx.WriteJSON(w, http.StatusOK, st)
	}
}

func DeleteHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := pathKey(r)
		if err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		if err := repo.Delete(r.Context(), key); err != nil {
			httpx.WriteDBError(w, err, notFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "Setting deleted successfully",
			"key":     key,
		})
	}
}
