// Package testing provides utilities for testing axon chains and conversations.
package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/axon"
)

// Provider name constants for test helpers.
const (
	SequencedProviderName = "sequenced-mock"
	FailingProviderName   = "failing-mock"
)

// ReplyBuilder builds model replies that carry a JSON payload.
type ReplyBuilder struct {
	data     map[string]any
	keys     []string
	preamble string
	boundary string
}

// NewReplyBuilder creates a builder for a bare JSON reply.
func NewReplyBuilder() *ReplyBuilder {
	return &ReplyBuilder{data: make(map[string]any)}
}

// WithField sets a payload field.
func (b *ReplyBuilder) WithField(key string, value any) *ReplyBuilder {
	if _, ok := b.data[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.data[key] = value
	return b
}

// WithPreamble adds free text before the payload.
func (b *ReplyBuilder) WithPreamble(text string) *ReplyBuilder {
	b.preamble = text
	return b
}

// Fenced wraps the payload in a ```json block.
func (b *ReplyBuilder) Fenced() *ReplyBuilder {
	b.boundary = "fenced"
	return b
}

// Tagged wraps the payload in <json></json>.
func (b *ReplyBuilder) Tagged() *ReplyBuilder {
	b.boundary = "tagged"
	return b
}

// JSON returns the payload alone, keys in insertion order.
func (b *ReplyBuilder) JSON() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		value, err := json.Marshal(b.data[k])
		if err != nil {
			value = []byte("null")
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// Build returns the full reply text.
func (b *ReplyBuilder) Build() string {
	payload := b.JSON()
	switch b.boundary {
	case "fenced":
		payload = "```json\n" + payload + "\n```"
	case "tagged":
		payload = "<json>" + payload + "</json>"
	}
	if b.preamble == "" {
		return payload
	}
	return b.preamble + "\n" + payload
}

// TaggedCall renders a tagged tool call: <function=NAME>{...}</function>.
// args alternate key and value.
func TaggedCall(name string, args ...any) string {
	b := NewReplyBuilder()
	for i := 0; i+1 < len(args); i += 2 {
		b.WithField(fmt.Sprint(args[i]), args[i+1])
	}
	return "<function=" + name + ">" + b.JSON() + "</function>"
}

// BracketedCall renders one entry of a bracketed list: name(k=v, ...).
// String values are single-quoted with quotes and backslashes escaped.
// args alternate key and value.
func BracketedCall(name string, args ...any) string {
	parts := make([]string, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		var value string
		switch v := args[i+1].(type) {
		case string:
			escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
			value = "'" + escaped + "'"
		case float64:
			value = axon.FloatValue(v).String()
		default:
			value = fmt.Sprint(v)
		}
		parts = append(parts, fmt.Sprintf("%v=%s", args[i], value))
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// BracketedList joins calls into a bracketed list.
func BracketedList(calls ...string) string {
	return "[" + strings.Join(calls, ", ") + "]"
}

// SequencedProvider returns responses in sequence.
// After all responses are exhausted, it returns the last response repeatedly.
type SequencedProvider struct {
	responses []string
	index     atomic.Int64
}

// NewSequencedProvider creates a provider that returns responses in order.
func NewSequencedProvider(responses ...string) *SequencedProvider {
	if len(responses) == 0 {
		responses = []string{`{"error": "no responses configured"}`}
	}
	return &SequencedProvider{
		responses: responses,
	}
}

// Call returns the next response in sequence.
func (p *SequencedProvider) Call(_ context.Context, _ []axon.Message, _ float32) (*axon.ProviderResponse, error) {
	idx := int(p.index.Add(1) - 1)
	idx = min(idx, len(p.responses)-1)

	return &axon.ProviderResponse{
		Content: p.responses[idx],
		Usage: axon.TokenUsage{
			Prompt:     100,
			Completion: 50,
			Total:      150,
		},
	}, nil
}

// Name returns the provider identifier.
func (*SequencedProvider) Name() string {
	return SequencedProviderName
}

// CallCount returns the number of calls made.
func (p *SequencedProvider) CallCount() int {
	return int(p.index.Load())
}

// Reset resets the call counter.
func (p *SequencedProvider) Reset() {
	p.index.Store(0)
}

// FailingProvider fails a specified number of times before succeeding.
type FailingProvider struct {
	failCount    int
	currentCount atomic.Int64
	successResp  string
	failError    string
}

// NewFailingProvider creates a provider that fails failCount times then succeeds.
func NewFailingProvider(failCount int) *FailingProvider {
	return &FailingProvider{
		failCount:   failCount,
		successResp: `{"status": "recovered"}`,
		failError:   "simulated provider failure",
	}
}

// WithSuccessResponse sets the response returned after failures are exhausted.
func (p *FailingProvider) WithSuccessResponse(response string) *FailingProvider {
	p.successResp = response
	return p
}

// WithFailError sets the error message for failures.
func (p *FailingProvider) WithFailError(errMsg string) *FailingProvider {
	p.failError = errMsg
	return p
}

// Call fails until failCount is reached, then succeeds.
func (p *FailingProvider) Call(_ context.Context, _ []axon.Message, _ float32) (*axon.ProviderResponse, error) {
	count := p.currentCount.Add(1)
	if int(count) <= p.failCount {
		return nil, fmt.Errorf("%s (attempt %d/%d)", p.failError, count, p.failCount)
	}

	return &axon.ProviderResponse{
		Content: p.successResp,
		Usage: axon.TokenUsage{
			Prompt:     100,
			Completion: 50,
			Total:      150,
		},
	}, nil
}

// Name returns the provider identifier.
func (*FailingProvider) Name() string {
	return FailingProviderName
}

// CallCount returns the number of calls made.
func (p *FailingProvider) CallCount() int {
	return int(p.currentCount.Load())
}

// RecordedCall represents a single call to a provider.
type RecordedCall struct {
	Messages    []axon.Message
	Temperature float32
}

// Feedback returns the text of feedback messages in the call's transcript.
func (c RecordedCall) Feedback() []string {
	var out []string
	for _, msg := range c.Messages {
		text, ok := msg.Text()
		if ok && msg.Role == axon.RoleUser && strings.HasPrefix(text, axon.FeedbackPrefix) {
			out = append(out, text)
		}
	}
	return out
}

// CallRecorder wraps a provider and records all calls made to it.
type CallRecorder struct {
	provider axon.Provider
	calls    []RecordedCall
	mu       sync.Mutex
}

// NewCallRecorder wraps a provider with call recording.
func NewCallRecorder(provider axon.Provider) *CallRecorder {
	return &CallRecorder{
		provider: provider,
		calls:    make([]RecordedCall, 0),
	}
}

// Call delegates to the wrapped provider and records the call.
func (r *CallRecorder) Call(ctx context.Context, messages []axon.Message, temperature float32) (*axon.ProviderResponse, error) {
	msgCopy := make([]axon.Message, len(messages))
	copy(msgCopy, messages)

	r.mu.Lock()
	r.calls = append(r.calls, RecordedCall{
		Messages:    msgCopy,
		Temperature: temperature,
	})
	r.mu.Unlock()

	return r.provider.Call(ctx, messages, temperature)
}

// Name returns the wrapped provider's name.
func (r *CallRecorder) Name() string {
	return r.provider.Name()
}

// Calls returns a copy of all recorded calls.
func (r *CallRecorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]RecordedCall, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CallCount returns the number of calls recorded.
func (r *CallRecorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// LastCall returns the most recent call, or nil if no calls made.
func (r *CallRecorder) LastCall() *RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.calls) == 0 {
		return nil
	}
	call := r.calls[len(r.calls)-1]
	return &call
}

// LatencyProvider wraps a provider and adds artificial latency.
type LatencyProvider struct {
	provider axon.Provider
	delay    time.Duration
}

// NewLatencyProvider wraps a provider with artificial delay.
// The delay respects context cancellation.
func NewLatencyProvider(provider axon.Provider, delay time.Duration) *LatencyProvider {
	return &LatencyProvider{
		provider: provider,
		delay:    delay,
	}
}

// Call adds latency then delegates to the wrapped provider.
func (p *LatencyProvider) Call(ctx context.Context, messages []axon.Message, temperature float32) (*axon.ProviderResponse, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.provider.Call(ctx, messages, temperature)
}

// Name returns the wrapped provider's name.
func (p *LatencyProvider) Name() string {
	return p.provider.Name()
}

// UsageAccumulator tracks total token usage across sessions.
type UsageAccumulator struct {
	totalTokens atomic.Int64
	callCount   atomic.Int64
}

// NewUsageAccumulator creates a new usage accumulator.
func NewUsageAccumulator() *UsageAccumulator {
	return &UsageAccumulator{}
}

// Add accumulates usage from a session's last usage.
func (a *UsageAccumulator) Add(session *axon.Session) {
	if usage := session.LastUsage(); usage != nil {
		a.totalTokens.Add(int64(usage.Total))
		a.callCount.Add(1)
	}
}

// TotalTokens returns total tokens.
func (a *UsageAccumulator) TotalTokens() int {
	return int(a.totalTokens.Load())
}

// CallCount returns number of sessions accumulated.
func (a *UsageAccumulator) CallCount() int {
	return int(a.callCount.Load())
}
