// Package server assembles the HTTP API: liveness endpoints, the resource
// routes under /api, CORS, and request-scoped middleware.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"todo-ideas-backend/internal/ai"
	"todo-ideas-backend/internal/analytics"
	"todo-ideas-backend/internal/auth"
	"todo-ideas-backend/internal/httpx"
	"todo-ideas-backend/internal/ideas"
	"todo-ideas-backend/internal/settings"
	"todo-ideas-backend/internal/tasks"
)

const Version = "1.0.0"

type Deps struct {
	Tasks    tasks.Repository
	Ideas    ideas.Repository
	Settings settings.Repository
	Stats    analytics.Computer
	AI       *ai.Gateway
	Logger   *slog.Logger
	// Ping backs GET /ready; nil reports ready unconditionally.
	Ping func(ctx context.Context) error

	// JWTSecret enables bearer auth on /api when non-empty.
	JWTSecret      []byte
	AllowedOrigins []string
}

// New returns the root handler.
func New(d Deps) http.Handler {
	api := http.NewServeMux()
	tasks.Register(api, d.Tasks, d.Logger)
	ideas.Register(api, d.Ideas, d.Logger)
	settings.Register(api, d.Settings, d.Logger)
	analytics.Register(api, d.Stats)
	ai.Register(api, d.AI)

	var apiHandler http.Handler = api
	if len(d.JWTSecret) > 0 {
		apiHandler = auth.New(d.JWTSecret).Wrap(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rootHandler)
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(d.Ping))
	mux.Handle("/api/", apiHandler)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	var h http.Handler = c.Handler(mux)
	h = loggingMiddleware(d.Logger, h)
	h = tracingMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "To-Do & Ideas API",
		"version": Version,
		"status":  "running",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func readyHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "Database error: "+err.Error())
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
