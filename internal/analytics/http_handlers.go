package analytics

import (
	"context"
	"net/http"

	"todo-ideas-backend/internal/httpx"
)

type Computer interface {
	Compute(ctx context.Context) (Stats, error)
}

func Register(mux *http.ServeMux, svc Computer) {
	mux.HandleFunc("GET /api/stats", StatsHandler(svc))
}

func StatsHandler(svc Computer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Compute(r.Context())
		if err != nil {
			httpx.WriteDBError(w, err, "Stats not found")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, st)
	}
}
