// Package llm wraps model generation behind a small streaming client so
// the rest of the code never touches the model runtime directly.
package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"saturday/internal/log"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request: an optional system prompt
// followed by the conversation so far, ending with the user turn to
// answer.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int // output token cap, 0 for model default
}

// Client generates completions through a registered model.
type Client struct {
	g      *genkit.Genkit
	model  string
	logger log.Logger
}

// New creates a client bound to a provider-qualified model name,
// e.g. "ollama/qwen2.5:3b".
func New(g *genkit.Genkit, model string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{g: g, model: model, logger: logger}
}

// Complete generates a completion for req. When onChunk is non-nil it is
// invoked for every streamed text fragment as it arrives; an error from
// onChunk aborts generation and is returned. The full accumulated
// response text is returned on success.
func (c *Client) Complete(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	messages := make([]*ai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(m.Content)))
			continue
		}
		messages = append(messages, ai.NewUserMessage(ai.NewTextPart(m.Content)))
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.model),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if onChunk != nil {
		opts = append(opts, ai.WithStreaming(func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			return onChunk(chunk.Text())
		}))
	}

	response, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}

	c.logger.Debug("completion finished", "model", c.model, "chars", len(response.Text()))
	return response.Text(), nil
}
