// Package axon turns raw LLM output into structured, validated data.
//
// Axon sits between a model and the code that consumes its answers. A model
// reply enters a Chain of Processors; each processor either continues with a
// transformed message (for example the decoded JSON payload) or halts with a
// feedback message explaining what was wrong. Halting is not a failure: the
// feedback is meant to be sent back to the model so it can correct itself.
//
// The package provides:
//
//   - Content extraction: locate a payload inside free text (tag pairs,
//     fenced blocks) and decode it as JSON or YAML
//   - Tool-call parsers: the tagged form <function=NAME>{...}</function>
//     and the bracketed form [name(key=value, ...), ...]
//   - Validation: decode into a typed response and run its Validate method
//   - Conversation: a correction loop that resends feedback to a Provider
//
// Basic usage:
//
//	chain := axon.NewChain(axon.NewJSONProcessor(axon.Fenced("json")))
//	result := chain.Run(ctx, session, axon.NewMessage(axon.RoleAssistant, reply))
//	if result.Halted() {
//	    // send result.Message() back to the model
//	}
package axon

import (
	"context"
	"maps"
)

// Provider defines the interface for LLM providers.
// Providers accept conversation messages and return responses with usage stats.
type Provider interface {
	// Call sends messages to the LLM and returns the response with usage stats.
	// Messages are in chronological order (oldest first) and carry text content.
	Call(ctx context.Context, messages []Message, temperature float32) (*ProviderResponse, error)

	// Name returns the provider identifier (e.g., "openai", "anthropic")
	Name() string
}

// Validator defines the interface for response validation.
// Typed responses implement this to reject well-formed but wrong answers.
type Validator interface {
	Validate() error
}

// TokenUsage contains token counts from a provider response.
type TokenUsage struct {
	Prompt     int // Tokens used by the prompt/messages
	Completion int // Tokens used by the completion/response
	Total      int // Total tokens used
}

// ProviderResponse contains the response from an LLM provider.
type ProviderResponse struct {
	Content string     // The text response content
	Usage   TokenUsage // Token usage statistics
}

// Role identifies the author of a message.
type Role string

// Role constants for message types.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
//
// Content holds the raw text as produced by the model. Once a processor
// decodes it, Content holds the decoded value instead: a map[string]any,
// []any, scalar, ToolCall, []ToolCall or a typed response.
type Message struct {
	Role     Role
	Content  any
	Metadata map[string]string
}

// NewMessage creates a text message.
func NewMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// Text returns the content when it is still raw text.
func (m Message) Text() (string, bool) {
	s, ok := m.Content.(string)
	return s, ok
}

// WithContent returns a copy of the message carrying content.
// Metadata is copied so the original message is left untouched.
func (m Message) WithContent(content any) Message {
	return Message{Role: m.Role, Content: content, Metadata: maps.Clone(m.Metadata)}
}
