package llm

import (
	"context"
	"sync"
)

// MockClient is a Client for tests.
// It is safe for concurrent use.
type MockClient struct {
	mu        sync.Mutex
	response  string
	responses []string
	errs      []error
	handler   func(req CompletionRequest) (string, error)
	calls     []CompletionRequest
	index     int
}

// NewMockClient returns a client that always answers response.
func NewMockClient(response string) *MockClient {
	return &MockClient{response: response}
}

// WithResponses makes the client answer with responses in order,
// cycling back to the first after the last.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	return m
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	return m.WithErrors(err)
}

// WithErrors makes the first len(errs) calls fail with errs in order.
// A nil entry lets that call succeed. When errs has a single entry it
// applies to every call.
func (m *MockClient) WithErrors(errs ...error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = errs
	return m
}

// WithHandler answers each call with fn. It takes precedence over the
// configured responses but not over configured errors.
func (m *MockClient) WithHandler(fn func(req CompletionRequest) (string, error)) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	call := len(m.calls)
	m.calls = append(m.calls, req)

	if err := m.errorFor(call); err != nil {
		m.mu.Unlock()
		return nil, err
	}

	handler := m.handler
	content := m.response
	if handler == nil && len(m.responses) > 0 {
		content = m.responses[m.index%len(m.responses)]
		m.index++
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if handler != nil {
		var err error
		content, err = handler(req)
		if err != nil {
			return nil, err
		}
	}

	return &CompletionResponse{
		Content:      content,
		FinishReason: "stop",
		Model:        req.Model,
	}, nil
}

func (m *MockClient) errorFor(call int) error {
	switch {
	case len(m.errs) == 1:
		return m.errs[0]
	case call < len(m.errs):
		return m.errs[call]
	default:
		return nil
	}
}

// CallCount returns the number of calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of every request received.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent request, or the zero request.
func (m *MockClient) LastCall() CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return CompletionRequest{}
	}
	return m.calls[len(m.calls)-1]
}

// Reset clears recorded calls.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.index = 0
}
