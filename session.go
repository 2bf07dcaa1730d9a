package axon

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Session holds the conversation state processors and the conversation
// loop work against: message history and the last token usage.
//
// Sessions are safe for concurrent use by multiple goroutines.
type Session struct {
	id        string
	messages  []Message
	lastUsage *TokenUsage
	revision  uint64
	mu        sync.RWMutex

	// Fork bookkeeping.
	base      uint64 // parent revision when forked
	baseLen   int    // parent length when forked
	rewritten bool   // history changed other than by appending
	usageSet  bool
}

// NewSession creates an empty session with a unique ID.
func NewSession() *Session {
	return &Session{
		id:       uuid.New().String(),
		messages: make([]Message, 0),
	}
}

// ID returns the unique identifier for this session.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Messages returns a copy of all messages in the session.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// Append adds a text message to the session.
func (s *Session) Append(role Role, content string) {
	s.AppendMessage(NewMessage(role, content))
}

// AppendMessage adds msg to the session.
func (s *Session) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.revision++
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// At returns the message at the given index.
func (s *Session) At(index int) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.messages) {
		return Message{}, fmt.Errorf("index %d out of bounds (len=%d)", index, len(s.messages))
	}
	return s.messages[index], nil
}

// Clear removes all messages from the session.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = make([]Message, 0)
	s.revision++
	s.rewritten = true
}

// Prune removes the last n exchanges (user + assistant pairs).
// Removing more than exist empties the session.
func (s *Session) Prune(n int) error {
	if n < 0 {
		return fmt.Errorf("prune count must be non-negative, got %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keep := len(s.messages) - n*2
	if keep < 0 {
		keep = 0
	}
	s.messages = slices.Clone(s.messages[:keep])
	s.revision++
	s.rewritten = true
	return nil
}

// SetMessages replaces the entire message history.
func (s *Session) SetMessages(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = slices.Clone(msgs)
	s.revision++
	s.rewritten = true
}

// LastUsage returns the token usage from the most recent provider call.
// Returns nil if no calls have been made yet.
func (s *Session) LastUsage() *TokenUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUsage == nil {
		return nil
	}
	usage := *s.lastUsage
	return &usage
}

// SetUsage records usage from a provider call.
func (s *Session) SetUsage(usage *TokenUsage) {
	if usage == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *usage
	s.lastUsage = &u
	s.usageSet = true
}

// appendExchange adds a user turn and the assistant reply under one lock
// so concurrent exchanges never interleave.
func (s *Session) appendExchange(user, assistant Message, usage *TokenUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, user, assistant)
	s.revision++
	if usage != nil {
		u := *usage
		s.lastUsage = &u
	}
}

// fork returns a private copy sharing the session ID.
func (s *Session) fork() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := &Session{
		id:       s.id,
		messages: slices.Clone(s.messages),
		revision: s.revision,
		base:     s.revision,
		baseLen:  len(s.messages),
	}
	if s.lastUsage != nil {
		u := *s.lastUsage
		f.lastUsage = &u
	}
	return f
}

// commit applies a fork's changes to s.
//
// Messages the fork only appended are added after anything s gained since
// the fork. A fork that rewrote history replaces it only when s has not
// moved; otherwise commit applies nothing and reports false.
func (s *Session) commit(f *Session) bool {
	f.mu.RLock()
	changed := f.revision != f.base
	rewritten := f.rewritten
	var msgs []Message
	if changed {
		if rewritten {
			msgs = slices.Clone(f.messages)
		} else {
			msgs = slices.Clone(f.messages[f.baseLen:])
		}
	}
	var usage *TokenUsage
	if f.usageSet && f.lastUsage != nil {
		u := *f.lastUsage
		usage = &u
	}
	base := f.base
	f.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if changed {
		if rewritten {
			if s.revision != base {
				return false
			}
			s.messages = msgs
		} else {
			s.messages = append(s.messages, msgs...)
		}
		s.revision++
	}
	if usage != nil {
		s.lastUsage = usage
	}
	return true
}
