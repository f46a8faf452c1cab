package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockClient provides fake completions for testing. Responses are served
// from a scripted queue first; when the queue is empty, keyword rules on the
// prompt decide the reply.
type MockClient struct {
	mu       sync.Mutex
	queue    []scripted
	rules    []rule
	Requests []Request
}

type scripted struct {
	response string
	err      error
}

type rule struct {
	keyword  string
	response string
}

// NewMockClient creates an empty mock. Configure it with Enqueue,
// EnqueueError and Rule.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Enqueue appends a canned response served before any keyword rule.
func (m *MockClient) Enqueue(response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, scripted{response: response})
	return m
}

// EnqueueError appends a canned failure.
func (m *MockClient) EnqueueError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, scripted{err: err})
	return m
}

// Rule registers a keyword fallback: when the combined prompt contains
// keyword (case-insensitive), response is returned. Rules match in
// registration order.
func (m *MockClient) Rule(keyword, response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{keyword: strings.ToLower(keyword), response: response})
	return m
}

// Complete serves the next scripted entry, or the first matching rule.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if next.err != nil {
			return "", next.err
		}
		return next.response, nil
	}

	prompt := strings.ToLower(req.System + "\n" + req.User)
	for _, r := range m.rules {
		if strings.Contains(prompt, r.keyword) {
			return r.response, nil
		}
	}

	return "", fmt.Errorf("mock: no scripted response for request")
}

// Calls returns how many completions were served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
