package llm

import (
	"context"
	"sync"
)

// MockClient returns scripted responses in order. Used by tests of the
// generator and chat orchestrator.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []Request
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", classifyTransport(m.Name(), err)
	}
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", newError(m.Name(), ErrInvalidResponse, nil)
	}
	next := m.Responses[0]
	m.Responses = m.Responses[1:]
	return next, nil
}
