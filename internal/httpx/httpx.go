// Package httpx holds the JSON response and error conventions shared by the
// API handlers. Error bodies keep the {"detail": "..."} shape the frontend reads.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"todo-ideas-backend/internal/db"
)

// ErrBadRequest marks a request with missing or malformed input.
var ErrBadRequest = errors.New("bad request")

// MaxBodyBytes bounds request bodies; chat histories are the largest payloads.
const MaxBodyBytes = 4 << 20

type ErrorBody struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorBody{Detail: detail})
}

// BadRequest builds an error that maps to 400 with msg as the detail.
func BadRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return ErrBadRequest }

// WriteDBError maps storage errors: ErrNotFound to 404 with notFound as the
// detail, bad input to 400, everything else to 500 "Database error: ...".
func WriteDBError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		WriteError(w, http.StatusNotFound, notFound)
	case errors.Is(err, ErrBadRequest):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "Database error: "+err.Error())
	}
}

// DecodeJSON reads a single JSON object from the request body.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return BadRequest("request body is required")
		}
		return BadRequest(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

// PathID parses the {id} path segment.
func PathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, BadRequest(fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}
