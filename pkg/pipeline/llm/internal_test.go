package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Internal tests for private functions

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name     string
		client   *ClaudeCLI
		req      CompletionRequest
		contains []string
		excludes []string
	}{
		{
			name:     "basic request",
			client:   NewClaudeCLI(),
			req:      CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "Hello"}}},
			contains: []string{"--print"},
			excludes: []string{"Hello", "--model"},
		},
		{
			name:   "with system prompt",
			client: NewClaudeCLI(),
			req: CompletionRequest{
				SystemPrompt: "Be helpful",
				Messages:     []Message{{Role: RoleUser, Content: "Hi"}},
			},
			contains: []string{"--system-prompt", "Be helpful"},
		},
		{
			name:     "with model from client",
			client:   NewClaudeCLI(WithModel("claude-sonnet")),
			req:      CompletionRequest{},
			contains: []string{"--model", "claude-sonnet"},
		},
		{
			name:     "with model from request overrides client",
			client:   NewClaudeCLI(WithModel("default-model")),
			req:      CompletionRequest{Model: "request-model"},
			contains: []string{"--model", "request-model"},
			excludes: []string{"default-model"},
		},
		{
			name:     "with max tokens",
			client:   NewClaudeCLI(),
			req:      CompletionRequest{MaxTokens: 1000},
			contains: []string{"--max-tokens", "1000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.client.buildArgs(tt.req)
			for _, want := range tt.contains {
				assert.Contains(t, args, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, args, unwanted)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	c := NewClaudeCLI(WithModel("m"))
	resp := c.parseResponse([]byte("  answer\n\n"), CompletionRequest{})

	assert.Equal(t, "answer", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "m", resp.Model)
}

func TestNewClaudeCLI_Defaults(t *testing.T) {
	c := NewClaudeCLI(WithClaudePath(""))

	assert.Equal(t, "claude", c.path, "empty path keeps the default")
	assert.Equal(t, 5*60, int(c.timeout.Seconds()))
}
