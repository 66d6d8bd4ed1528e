package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-ideas-backend/internal/ai"
)

type cannedProvider struct {
	blocks []ai.ContentBlock
	err    error
	calls  int
}

func (p *cannedProvider) Complete(context.Context, []ai.Message, int64) ([]ai.ContentBlock, error) {
	p.calls++
	return p.blocks, p.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckAI(t *testing.T) {
	var out bytes.Buffer

	err := checkAI(context.Background(), ai.NewGateway(nil, "ANTHROPIC_API_KEY", discard()), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	p := &cannedProvider{blocks: []ai.ContentBlock{{Type: "text", Text: "OK"}}}
	require.NoError(t, checkAI(context.Background(), ai.NewGateway(p, "ANTHROPIC_API_KEY", discard()), &out))
	assert.Equal(t, 1, p.calls)
	assert.Contains(t, out.String(), "reply: OK")

	p = &cannedProvider{err: errors.New("invalid x-api-key")}
	err = checkAI(context.Background(), ai.NewGateway(p, "ANTHROPIC_API_KEY", discard()), &out)
	require.ErrorIs(t, err, ai.ErrUpstream)
	assert.Contains(t, err.Error(), "invalid x-api-key")

	p = &cannedProvider{blocks: []ai.ContentBlock{}}
	assert.Error(t, checkAI(context.Background(), ai.NewGateway(p, "ANTHROPIC_API_KEY", discard()), &out))
}
