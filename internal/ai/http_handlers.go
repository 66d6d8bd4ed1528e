package ai

import (
	"errors"
	"net/http"
	"strings"

	"todo-ideas-backend/internal/httpx"
)

type feedbackRequest struct {
	Prompt string `json:"prompt"`
}

type chatRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens int64     `json:"max_tokens"`
}

// Reply is the response body of both AI endpoints.
type Reply struct {
	Content []ContentBlock `json:"content"`
}

func Register(mux *http.ServeMux, g *Gateway) {
	mux.HandleFunc("POST /api/ai/feedback", FeedbackHandler(g))
	mux.HandleFunc("POST /api/ai/chat", ChatHandler(g))
}

func FeedbackHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			writeError(w, g, ErrUnavailable)
			return
		}
		var body feedbackRequest
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		blocks, err := g.Feedback(r.Context(), body.Prompt)
		if err != nil {
			writeError(w, g, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, Reply{Content: blocks})
	}
}

func ChatHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			writeError(w, g, ErrUnavailable)
			return
		}
		var body chatRequest
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		blocks, err := g.Chat(r.Context(), body.Messages, body.MaxTokens)
		if err != nil {
			writeError(w, g, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, Reply{Content: blocks})
	}
}

func writeError(w http.ResponseWriter, g *Gateway, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		env := "ANTHROPIC_API_KEY"
		if g != nil && g.CredentialEnv != "" {
			env = g.CredentialEnv
		}
		httpx.WriteError(w, http.StatusServiceUnavailable, "AI service not configured. Please add "+env+" to .env file")
	case errors.Is(err, ErrBadRequest):
		httpx.WriteError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": "))
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "AI service error: "+strings.TrimPrefix(err.Error(), ErrUpstream.Error()+": "))
	}
}
