package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
)

// ClaudeCLI implements Client using the Claude CLI binary.
// The prompt is written to the process's stdin, so prompts that embed
// whole source files are not limited by argument length.
type ClaudeCLI struct {
	path    string
	model   string
	workdir string
	timeout time.Duration
}

// ClaudeOption configures ClaudeCLI.
type ClaudeOption func(*ClaudeCLI)

// NewClaudeCLI creates a new Claude CLI client.
// Assumes "claude" is available in PATH unless overridden with WithClaudePath.
func NewClaudeCLI(opts ...ClaudeOption) *ClaudeCLI {
	c := &ClaudeCLI{
		path:    "claude",
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithClaudePath sets the path to the claude binary.
func WithClaudePath(path string) ClaudeOption {
	return func(c *ClaudeCLI) {
		if path != "" {
			c.path = path
		}
	}
}

// WithModel sets the default model.
func WithModel(model string) ClaudeOption {
	return func(c *ClaudeCLI) { c.model = model }
}

// WithWorkdir sets the working directory for claude commands.
func WithWorkdir(dir string) ClaudeOption {
	return func(c *ClaudeCLI) { c.workdir = dir }
}

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) ClaudeOption {
	return func(c *ClaudeCLI) { c.timeout = d }
}

// Model returns the configured default model.
func (c *ClaudeCLI) Model() string {
	return c.model
}

// Complete implements Client.
func (c *ClaudeCLI) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(callCtx, c.path, c.buildArgs(req)...)
	if c.workdir != "" {
		cmd.Dir = c.workdir
	}
	cmd.Stdin = strings.NewReader(PromptText(req))
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Caller cancellation is never retried.
		if ctx.Err() != nil {
			return nil, perrors.Permanent(ctx.Err(), "claude complete")
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &perrors.TimeoutError{Operation: "claude complete", Duration: c.timeout.String()}
		}
		return nil, &perrors.ExternalCallError{
			Service:   "claude",
			Op:        "complete",
			Permanent: isStartFailure(err),
			Err:       fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	resp := c.parseResponse(stdout.Bytes(), req)
	resp.Duration = time.Since(start)
	return resp, nil
}

// isStartFailure reports whether the binary could not be started at all.
func isStartFailure(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

// buildArgs constructs CLI arguments from a request.
func (c *ClaudeCLI) buildArgs(req CompletionRequest) []string {
	args := []string{"--print"}

	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}

	if model := c.resolveModel(req); model != "" {
		args = append(args, "--model", model)
	}

	if req.MaxTokens > 0 {
		args = append(args, "--max-tokens", fmt.Sprintf("%d", req.MaxTokens))
	}

	return args
}

// resolveModel picks the request model over the client default.
func (c *ClaudeCLI) resolveModel(req CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

// parseResponse extracts response data from CLI output.
func (c *ClaudeCLI) parseResponse(data []byte, req CompletionRequest) *CompletionResponse {
	return &CompletionResponse{
		Content:      strings.TrimSpace(string(data)),
		FinishReason: "stop",
		Model:        c.resolveModel(req),
	}
}
