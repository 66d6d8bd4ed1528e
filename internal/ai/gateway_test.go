package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-ideas-backend/internal/testutil"
)

type recordingProvider struct {
	calls     int
	messages  []Message
	maxTokens int64
	reply     []ContentBlock
	err       error
}

func (p *recordingProvider) Complete(_ context.Context, messages []Message, maxTokens int64) ([]ContentBlock, error) {
	p.calls++
	p.messages = messages
	p.maxTokens = maxTokens
	return p.reply, p.err
}

func TestGatewayUnavailableBeforeValidation(t *testing.T) {
	g := NewGateway(nil, "ANTHROPIC_API_KEY", testutil.DiscardLogger())

	_, err := g.Feedback(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = g.Chat(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGatewayFeedback(t *testing.T) {
	p := &recordingProvider{reply: []ContentBlock{textBlock("nice")}}
	g := NewGateway(p, "ANTHROPIC_API_KEY", testutil.DiscardLogger())

	_, err := g.Feedback(context.Background(), "")
	require.ErrorIs(t, err, ErrBadRequest)
	assert.Zero(t, p.calls)

	_, err = g.Feedback(context.Background(), "  ")
	require.NoError(t, err, "whitespace is still a prompt")
	assert.Equal(t, 1, p.calls)

	blocks, err := g.Feedback(context.Background(), "rate my idea")
	require.NoError(t, err)
	assert.Equal(t, []ContentBlock{{Type: "text", Text: "nice"}}, blocks)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "rate my idea"}}, p.messages)
	assert.Equal(t, int64(DefaultMaxTokens), p.maxTokens)
}

func TestGatewayChat(t *testing.T) {
	p := &recordingProvider{}
	g := NewGateway(p, "ANTHROPIC_API_KEY", testutil.DiscardLogger())

	_, err := g.Chat(context.Background(), []Message{}, 100)
	require.ErrorIs(t, err, ErrBadRequest)
	_, err = g.Chat(context.Background(), []Message{{Role: "robot", Content: "x"}}, 100)
	require.ErrorIs(t, err, ErrBadRequest)

	turns := []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}, {Role: RoleUser, Content: "c"}}
	blocks, err := g.Chat(context.Background(), turns, 0)
	require.NoError(t, err)
	assert.NotNil(t, blocks)
	assert.Equal(t, turns, p.messages)
	assert.Equal(t, int64(DefaultMaxTokens), p.maxTokens)

	_, err = g.Chat(context.Background(), turns, 512)
	require.NoError(t, err)
	assert.Equal(t, int64(512), p.maxTokens)

	p.err = errors.New("overloaded")
	_, err = g.Chat(context.Background(), turns, 512)
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "overloaded")
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestHandlers(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		mux := http.NewServeMux()
		Register(mux, NewGateway(nil, "ANTHROPIC_API_KEY", testutil.DiscardLogger()))

		rec := post(t, mux, "/api/ai/feedback", `{"prompt":"x"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"detail":"AI service not configured. Please add ANTHROPIC_API_KEY to .env file"}`, rec.Body.String())

		rec = post(t, mux, "/api/ai/chat", `not json`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("configured", func(t *testing.T) {
		p := &recordingProvider{reply: []ContentBlock{textBlock("ok")}}
		mux := http.NewServeMux()
		Register(mux, NewGateway(p, "OPENAI_API_KEY", testutil.DiscardLogger()))

		rec := post(t, mux, "/api/ai/feedback", `{"prompt":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"content":[{"type":"text","text":"ok"}]}`, rec.Body.String())

		rec = post(t, mux, "/api/ai/feedback", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"detail":"prompt is required"}`, rec.Body.String())

		rec = post(t, mux, "/api/ai/chat", `{"messages":[{"role":"user","content":"q"}],"max_tokens":64}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(64), p.maxTokens)

		rec = post(t, mux, "/api/ai/chat", `{"messages":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		p.err = errors.New("rate limited")
		rec = post(t, mux, "/api/ai/chat", `{"messages":[{"role":"user","content":"q"}]}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"AI service error: rate limited"}`, rec.Body.String())
	})
}
