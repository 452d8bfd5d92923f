package reason

import (
	"context"
	"sync"
)

// Mock implements Runner for testing.
type Mock struct {
	// RunFunc is called when Run is invoked. If nil, echoes the input.
	RunFunc func(ctx context.Context, callID, input string) (string, error)

	mu     sync.Mutex
	inputs []string
	ended  []string
}

var _ Runner = (*Mock)(nil)

// Run calls RunFunc and records the input.
func (m *Mock) Run(ctx context.Context, callID, input string) (string, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, callID, input)
	}
	return input, nil
}

// EndSession records the ended call.
func (m *Mock) EndSession(callID string) {
	m.mu.Lock()
	m.ended = append(m.ended, callID)
	m.mu.Unlock()
}

// Inputs returns every input passed to Run, in order.
func (m *Mock) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.inputs))
	copy(out, m.inputs)
	return out
}

// Ended returns the call ids passed to EndSession.
func (m *Mock) Ended() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ended))
	copy(out, m.ended)
	return out
}
