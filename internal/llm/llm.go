package llm

import "context"

// Client is a minimal chat-completion interface to allow pluggable providers.
// Complete runs one forward pass and returns the model's text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
