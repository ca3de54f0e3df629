package llm

import (
	"context"
	"sync"
)

// Mock is a deterministic Generator for tests.
type Mock struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

func (m *Mock) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Prompts returns the prompts seen so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
