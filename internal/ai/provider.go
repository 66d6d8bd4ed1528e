// Package ai forwards prompts and chat turns to the configured LLM provider
// and reshapes replies into text content blocks.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	KindAnthropic = "anthropic"
	KindOpenAI    = "openai"

	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o-mini"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textBlock(s string) ContentBlock {
	return ContentBlock{Type: "text", Text: s}
}

// Provider sends one conversation and returns the reply's text blocks.
type Provider interface {
	Complete(ctx context.Context, messages []Message, maxTokens int64) ([]ContentBlock, error)
}

// NewProvider builds the SDK-backed provider for kind. An empty model picks
// the provider default; baseURL overrides the API endpoint when set.
func NewProvider(kind, apiKey, model, baseURL string) (Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ai: missing provider api key")
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindAnthropic, "":
		if model == "" {
			model = DefaultAnthropicModel
		}
		return newAnthropicProvider(apiKey, model, strings.TrimSpace(baseURL)), nil
	case KindOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
		return newOpenAIProvider(apiKey, model, strings.TrimSpace(baseURL)), nil
	default:
		return nil, fmt.Errorf("ai: unsupported provider %q", kind)
	}
}
