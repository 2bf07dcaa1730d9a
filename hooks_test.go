package axon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
)

// hookEvent is a copy of the fields tests inspect, taken inside the hook.
type hookEvent struct {
	signal      capitan.Signal
	requestID   string
	provider    string
	input       string
	response    string
	feedback    string
	errMsg      string
	errType     string
	count       int
	index       int
	attempt     int
	totalTokens int
	temperature float64
}

func snapshot(e *capitan.Event) hookEvent {
	h := hookEvent{signal: e.Signal()}
	h.requestID, _ = RequestIDKey.From(e)
	h.provider, _ = ProviderKey.From(e)
	h.input, _ = InputKey.From(e)
	h.response, _ = ResponseKey.From(e)
	h.feedback, _ = FeedbackKey.From(e)
	h.errMsg, _ = ErrorKey.From(e)
	h.errType, _ = ErrorTypeKey.From(e)
	h.count, _ = ProcessorCountKey.From(e)
	h.index, _ = ProcessorIndexKey.From(e)
	h.attempt, _ = AttemptKey.From(e)
	h.totalTokens, _ = TotalTokensKey.From(e)
	h.temperature, _ = TemperatureKey.From(e)
	return h
}

// eventRecorder collects events for one session. Hooks are global, so
// events from other tests are filtered out by session ID.
type eventRecorder struct {
	sessionID string
	mu        sync.Mutex
	events    []hookEvent
	signal    chan struct{}
}

func recordEvents(t *testing.T, sessionID string, signals ...capitan.Signal) *eventRecorder {
	t.Helper()
	r := &eventRecorder{sessionID: sessionID, signal: make(chan struct{}, 64)}
	for _, sig := range signals {
		listener := capitan.Hook(sig, func(_ context.Context, e *capitan.Event) {
			if id, _ := SessionIDKey.From(e); id != r.sessionID {
				return
			}
			h := snapshot(e)
			r.mu.Lock()
			r.events = append(r.events, h)
			r.mu.Unlock()
			r.signal <- struct{}{}
		})
		t.Cleanup(func() { listener.Close() })
	}
	return r
}

// wait blocks until n events arrived or fails after a timeout.
func (r *eventRecorder) wait(t *testing.T, n int) []hookEvent {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for hook %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]hookEvent(nil), r.events...)
}

func find(events []hookEvent, sig capitan.Signal) *hookEvent {
	for i := range events {
		if events[i].signal == sig {
			return &events[i]
		}
	}
	return nil
}

// TestChainHooks verifies chain started/halted events and their fields.
func TestChainHooks(t *testing.T) {
	session := NewSession()
	rec := recordEvents(t, session.ID(), ChainStarted, ChainHalted, ChainCompleted)

	chain := NewChain(NewJSONProcessor(NoBoundary()), NewJSONProcessor(NoBoundary()))
	chain.Run(context.Background(), session, NewMessage(RoleAssistant, "not json"))

	events := rec.wait(t, 2)

	started := find(events, ChainStarted)
	if started == nil {
		t.Fatal("chain.started hook was not called")
	}
	if started.count != 2 {
		t.Errorf("Expected processor count 2, got %d", started.count)
	}

	halted := find(events, ChainHalted)
	if halted == nil {
		t.Fatal("chain.halted hook was not called")
	}
	if halted.index != 0 {
		t.Errorf("Expected halt at index 0, got %d", halted.index)
	}
	if halted.feedback == "" {
		t.Error("Feedback was not set in hook")
	}
	if find(events, ChainCompleted) != nil {
		t.Error("chain.completed should not fire for a halted run")
	}
}

// TestConversationHooks verifies the correction and completion events.
func TestConversationHooks(t *testing.T) {
	session := NewSession()
	rec := recordEvents(t, session.ID(), ConversationStarted, ConversationCorrection, ConversationCompleted)

	provider := NewMockProvider("plain text", `{"ok": true}`).WithName("hooked")
	conv := NewConversation(provider, NewChain(NewJSONProcessor(NoBoundary())), ConversationConfig{})
	if _, err := conv.Send(context.Background(), session, "question"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := rec.wait(t, 3)

	started := find(events, ConversationStarted)
	if started == nil {
		t.Fatal("conversation.started hook was not called")
	}
	if started.provider != "hooked" {
		t.Errorf("Expected provider 'hooked', got %q", started.provider)
	}
	if started.input != "question" {
		t.Errorf("Expected input 'question', got %q", started.input)
	}
	if started.temperature == 0 {
		t.Error("Temperature was not set in hook")
	}

	correction := find(events, ConversationCorrection)
	if correction == nil {
		t.Fatal("conversation.correction hook was not called")
	}
	if correction.attempt != 1 {
		t.Errorf("Expected correction on attempt 1, got %d", correction.attempt)
	}
	if correction.response != "plain text" {
		t.Errorf("Expected rejected response, got %q", correction.response)
	}

	completed := find(events, ConversationCompleted)
	if completed == nil {
		t.Fatal("conversation.completed hook was not called")
	}
	if started.requestID == "" || started.requestID != completed.requestID {
		t.Errorf("Request ID should be shared across events, got %q and %q", started.requestID, completed.requestID)
	}
	if completed.totalTokens == 0 {
		t.Error("Token usage was not set in hook")
	}
}

// TestConversationFailedHook verifies the failure event carries an error type.
func TestConversationFailedHook(t *testing.T) {
	session := NewSession()
	rec := recordEvents(t, session.ID(), ConversationFailed)

	conv := NewConversation(NewMockProvider("nope"), NewChain(NewJSONProcessor(NoBoundary())), ConversationConfig{MaxCorrections: NoCorrections})
	if _, err := conv.Send(context.Background(), session, "question"); err == nil {
		t.Fatal("expected error")
	}

	events := rec.wait(t, 1)
	if events[0].errType != "corrections_exhausted" {
		t.Errorf("Expected error type 'corrections_exhausted', got %q", events[0].errType)
	}
	if events[0].errMsg == "" {
		t.Error("Error was not set in hook")
	}
}

// TestProviderCallFailedHook verifies provider failures are reported.
func TestProviderCallFailedHook(t *testing.T) {
	provider := NewMockProvider().WithName("down")
	provider.SetAvailable(false)

	received := make(chan string, 8)
	listener := capitan.Hook(ProviderCallFailed, func(_ context.Context, e *capitan.Event) {
		if name, _ := ProviderKey.From(e); name == "down" {
			msg, _ := ErrorKey.From(e)
			received <- msg
		}
	})
	defer listener.Close()

	conv := NewConversation(provider, NewChain(), ConversationConfig{})
	if _, err := conv.Send(context.Background(), NewSession(), "question"); err == nil {
		t.Fatal("expected error")
	}

	select {
	case msg := <-received:
		if msg == "" {
			t.Error("Error was not set in hook")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for provider.call.failed hook")
	}
}

// TestProviderCallCompletedHook verifies token usage is reported per call.
func TestProviderCallCompletedHook(t *testing.T) {
	provider := NewMockProvider(`{"ok": true}`).WithName("metered")

	received := make(chan int, 8)
	listener := capitan.Hook(ProviderCallCompleted, func(_ context.Context, e *capitan.Event) {
		if name, _ := ProviderKey.From(e); name == "metered" {
			total, _ := TotalTokensKey.From(e)
			received <- total
		}
	})
	defer listener.Close()

	conv := NewConversation(provider, NewChain(NewJSONProcessor(NoBoundary())), ConversationConfig{})
	if _, err := conv.Send(context.Background(), NewSession(), "question"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case total := <-received:
		if total == 0 {
			t.Error("Token usage was not set in hook")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for provider.call.completed hook")
	}
}
