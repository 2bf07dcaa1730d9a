package axon

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MockProvider replays scripted replies for testing.
// Replies are returned in order; once exhausted the last reply repeats.
type MockProvider struct {
	name      string
	replies   []string
	callback  func(messages []Message, temperature float32) (string, error)
	available bool
	calls     [][]Message
	mu        sync.Mutex
}

// NewMockProvider creates a provider returning replies in order.
func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{
		name:      "mock",
		replies:   replies,
		available: true,
	}
}

// NewMockProviderWithCallback creates a provider whose replies come from callback.
func NewMockProviderWithCallback(callback func(messages []Message, temperature float32) (string, error)) *MockProvider {
	return &MockProvider{
		name:      "mock-callback",
		callback:  callback,
		available: true,
	}
}

// WithName sets the provider name.
func (m *MockProvider) WithName(name string) *MockProvider {
	m.name = name
	return m
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return m.name
}

// SetAvailable toggles simulated outages.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// Call records the transcript and returns the next reply.
func (m *MockProvider) Call(_ context.Context, messages []Message, temperature float32) (*ProviderResponse, error) {
	m.mu.Lock()
	if !m.available {
		m.mu.Unlock()
		return nil, fmt.Errorf("provider %s is unavailable", m.name)
	}
	index := len(m.calls)
	m.calls = append(m.calls, slices.Clone(messages))
	callback := m.callback
	m.mu.Unlock()

	var reply string
	switch {
	case callback != nil:
		r, err := callback(messages, temperature)
		if err != nil {
			return nil, err
		}
		reply = r
	case len(m.replies) == 0:
		reply = ""
	default:
		reply = m.replies[min(index, len(m.replies)-1)]
	}

	return &ProviderResponse{
		Content: reply,
		Usage: TokenUsage{
			Prompt:     len(messages) * 10,
			Completion: len(reply) / 4,
			Total:      len(messages)*10 + len(reply)/4,
		},
	}, nil
}

// CallCount returns the number of successful calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Transcript returns the messages sent on call i.
func (m *MockProvider) Transcript(i int) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.calls) {
		return nil
	}
	return slices.Clone(m.calls[i])
}
