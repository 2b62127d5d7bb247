package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

// Backend produces free-form decision text for a rendered prompt pair.
// Calls are bounded by the caller's context; implementations must honor
// cancellation.
type Backend interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures the chat completion backend. BaseURL and Model allow
// any OpenAI-compatible endpoint.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// ChatBackend implements Backend on an OpenAI-compatible chat model.
type ChatBackend struct {
	model *openai.ChatModel
}

// NewChatBackend creates a chat backend for the configured endpoint.
func NewChatBackend(ctx context.Context, opts Options) (*ChatBackend, error) {
	cfg := &openai.ChatModelConfig{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
	}
	if opts.MaxTokens > 0 {
		maxTokens := opts.MaxTokens
		cfg.MaxTokens = &maxTokens
	}

	model, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	return &ChatBackend{model: model}, nil
}

// Compile-time interface check.
var _ Backend = (*ChatBackend)(nil)

// Complete issues one generation request and returns the raw text.
func (b *ChatBackend) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msg, err := b.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("generate decision: %w", err)
	}

	return msg.Content, nil
}
