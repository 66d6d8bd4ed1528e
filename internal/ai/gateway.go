package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnavailable = errors.New("ai: service not configured")
	ErrBadRequest  = errors.New("ai: bad request")
	ErrUpstream    = errors.New("ai: provider error")
)

// DefaultMaxTokens is the budget for feedback and for chats that give none.
const DefaultMaxTokens = 2000

// Gateway validates requests before they reach the provider. A nil Provider
// means no credential was configured.
type Gateway struct {
	Provider Provider
	Logger   *slog.Logger
	// CredentialEnv names the variable that enables the provider; it is
	// quoted back to callers when the gateway is unavailable.
	CredentialEnv string
}

func NewGateway(p Provider, credentialEnv string, logger *slog.Logger) *Gateway {
	return &Gateway{Provider: p, CredentialEnv: credentialEnv, Logger: logger}
}

func (g *Gateway) Enabled() bool {
	return g != nil && g.Provider != nil
}

// Feedback sends prompt as a single user turn.
func (g *Gateway) Feedback(ctx context.Context, prompt string) ([]ContentBlock, error) {
	if !g.Enabled() {
		return nil, ErrUnavailable
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrBadRequest)
	}
	return g.complete(ctx, []Message{{Role: RoleUser, Content: prompt}}, DefaultMaxTokens)
}

// Chat forwards the caller's turns unchanged.
func (g *Gateway) Chat(ctx context.Context, messages []Message, maxTokens int64) ([]ContentBlock, error) {
	if !g.Enabled() {
		return nil, ErrUnavailable
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages are required", ErrBadRequest)
	}
	for i, m := range messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return nil, fmt.Errorf("%w: messages[%d]: unsupported role %q", ErrBadRequest, i, m.Role)
		}
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return g.complete(ctx, messages, maxTokens)
}

func (g *Gateway) complete(ctx context.Context, messages []Message, maxTokens int64) ([]ContentBlock, error) {
	blocks, err := g.Provider.Complete(ctx, messages, maxTokens)
	if err != nil {
		g.Logger.Error("ai provider call failed", "turns", len(messages), "max_tokens", maxTokens, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	return blocks, nil
}
