// Package anthropic adapts the Anthropic Messages API to the engine's
// TextGenerator interface. Reflection synthesis needs exactly one short
// completion per session close, so the adapter is deliberately thin.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/neurobloom/recall-go-sdk/memory"
)

// Config configures the generator.
type Config struct {
	// Model is the Claude model to use.
	Model string

	// MaxTokens caps the response length. Insights are one or two sentences;
	// the default of 300 leaves headroom.
	MaxTokens int64
}

// Generator implements memory.TextGenerator on the Anthropic API.
type Generator struct {
	client *anthropic.Client
	cfg    Config
}

var _ memory.TextGenerator = (*Generator)(nil)

// New wraps an Anthropic client.
func New(client *anthropic.Client, cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 300
	}
	return &Generator{client: client, cfg: cfg}
}

// Generate sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: g.cfg.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
