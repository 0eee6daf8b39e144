// Package llm provides the model client used by pipeline stages.
//
// Client is the single seam between stages and a model. ClaudeCLI talks to
// the claude binary; MockClient serves canned responses in tests.
// RetryingClient and CachingClient decorate any Client.
package llm

import (
	"context"
	"strings"
)

// Client completes prompts.
// Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Ask sends a single user prompt and returns the trimmed response text.
func Ask(ctx context.Context, c Client, prompt string) (string, error) {
	resp, err := c.Complete(ctx, CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// PromptText flattens a request into the single prompt string sent to
// text-only backends.
func PromptText(req CompletionRequest) string {
	var prompt strings.Builder
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			prompt.WriteString(msg.Content)
			prompt.WriteString("\n")
		case RoleAssistant:
			if prompt.Len() > 0 {
				prompt.WriteString("\nAssistant: ")
				prompt.WriteString(msg.Content)
				prompt.WriteString("\n\nUser: ")
			}
		}
	}
	return strings.TrimSpace(prompt.String())
}
