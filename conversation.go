package axon

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// DefaultMaxCorrections is the number of times a halted reply is sent
// back to the model when ConversationConfig leaves MaxCorrections at zero.
const DefaultMaxCorrections = 2

// NoCorrections disables the correction loop: the first halt fails Send.
const NoCorrections = -1

// ConversationConfig configures a Conversation.
// The zero value uses the default temperature and DefaultMaxCorrections.
type ConversationConfig struct {
	// Temperature passed to the provider. Zero or TemperatureUnset selects
	// DefaultTemperature.
	Temperature float32

	// MaxCorrections bounds how many feedback messages are sent back to the
	// model before Send gives up. Zero selects DefaultMaxCorrections and
	// NoCorrections disables correction.
	MaxCorrections int
}

func (c ConversationConfig) temperature() float32 {
	if c.Temperature == TemperatureUnset || c.Temperature == 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

func (c ConversationConfig) corrections() int {
	switch {
	case c.MaxCorrections == 0:
		return DefaultMaxCorrections
	case c.MaxCorrections < 0:
		return 0
	default:
		return c.MaxCorrections
	}
}

// Exchange flows through the provider pipeline for one model call.
type Exchange struct {
	// Input fields
	Messages    []Message // Transcript sent to the provider
	Temperature float32   // Temperature parameter for response generation

	// Metadata fields
	RequestID    string // Unique identifier shared by every attempt of a Send
	SessionID    string // ID of the conversation session
	ProviderName string // Name of the provider being used
	Attempt      int    // 1 for the first call, 2 for the first correction, ...

	// Output fields (populated by pipeline)
	Response string      // Raw text response from provider
	Usage    *TokenUsage // Token usage from provider response
}

// Conversation is the loop that owns a chain: it asks the provider for a
// reply, runs the chain on it and, when the chain halts, sends the feedback
// back to the model until the reply is accepted or corrections run out.
type Conversation struct {
	pipeline       pipz.Chainable[*Exchange]
	chain          *Chain
	providerName   string
	temperature    float32
	maxCorrections int
}

// NewConversation creates a conversation loop.
// Options decorate the provider call with reliability behaviour.
// It panics if provider or chain is nil.
func NewConversation(provider Provider, chain *Chain, config ConversationConfig, opts ...Option) *Conversation {
	if provider == nil {
		panic("axon: conversation requires a provider")
	}
	if chain == nil {
		panic("axon: conversation requires a chain")
	}

	pipeline := NewTerminal(provider)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}

	return &Conversation{
		pipeline:       pipeline,
		chain:          chain,
		providerName:   provider.Name(),
		temperature:    config.temperature(),
		maxCorrections: config.corrections(),
	}
}

// NewTerminal creates the processor that calls the provider.
func NewTerminal(provider Provider) pipz.Chainable[*Exchange] {
	return pipz.Apply("llm-call", func(ctx context.Context, ex *Exchange) (*Exchange, error) {
		capitan.Info(ctx, ProviderCallStarted,
			RequestIDKey.Field(ex.RequestID),
			ProviderKey.Field(ex.ProviderName),
			AttemptKey.Field(ex.Attempt),
		)

		resp, err := provider.Call(ctx, ex.Messages, ex.Temperature)
		if err != nil {
			capitan.Error(ctx, ProviderCallFailed,
				RequestIDKey.Field(ex.RequestID),
				ProviderKey.Field(ex.ProviderName),
				AttemptKey.Field(ex.Attempt),
				ErrorKey.Field(err.Error()),
			)
			return ex, err
		}
		ex.Response = resp.Content
		ex.Usage = &resp.Usage

		capitan.Info(ctx, ProviderCallCompleted,
			RequestIDKey.Field(ex.RequestID),
			ProviderKey.Field(ex.ProviderName),
			AttemptKey.Field(ex.Attempt),
			PromptTokensKey.Field(resp.Usage.Prompt),
			CompletionTokensKey.Field(resp.Usage.Completion),
			TotalTokensKey.Field(resp.Usage.Total),
		)
		return ex, nil
	})
}

// GetPipeline returns the provider pipeline for composition.
// Implements ServiceProvider.
func (c *Conversation) GetPipeline() pipz.Chainable[*Exchange] {
	return c.pipeline
}

// Chain returns the chain replies are run through.
func (c *Conversation) Chain() *Chain {
	return c.chain
}

// Send adds content as a user message, asks the provider for a reply and
// returns the reply as processed by the chain.
//
// The session is only updated once a reply is accepted: the user content
// and the accepted raw reply are appended and usage recorded. Rejected
// replies and their feedback are kept in a working transcript for the
// next attempt and never reach the session.
//
// When every attempt halts, Send returns a *FeedbackError wrapping
// ErrCorrectionsExhausted.
//
// A nil session runs the exchange against an empty history that is
// discarded afterwards.
func (c *Conversation) Send(ctx context.Context, session *Session, content string) (Message, error) {
	if session == nil {
		session = NewSession()
	}
	requestID := uuid.New().String()
	sessionID := session.ID()

	transcript := append(session.Messages(), NewMessage(RoleUser, content))

	capitan.Info(ctx, ConversationStarted,
		RequestIDKey.Field(requestID),
		SessionIDKey.Field(sessionID),
		ProviderKey.Field(c.providerName),
		InputKey.Field(content),
		TemperatureKey.Field(float64(c.temperature)),
	)

	attempts := 1 + c.maxCorrections
	var feedback Message
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Message{}, c.fail(ctx, requestID, sessionID, "canceled", err)
		}

		exchange := &Exchange{
			Messages:     slices.Clone(transcript),
			Temperature:  c.temperature,
			RequestID:    requestID,
			SessionID:    sessionID,
			ProviderName: c.providerName,
			Attempt:      attempt,
		}

		processed, err := c.pipeline.Process(ctx, exchange)
		if err != nil {
			return Message{}, c.fail(ctx, requestID, sessionID, "provider_error", fmt.Errorf("provider call failed: %w", err))
		}
		if processed.Response == "" {
			return Message{}, c.fail(ctx, requestID, sessionID, "empty_response", ErrNoResponse)
		}

		reply := NewMessage(RoleAssistant, processed.Response)
		result := c.chain.Run(ctx, session, reply)
		if !result.Halted() {
			session.appendExchange(
				NewMessage(RoleUser, content),
				NewMessage(RoleAssistant, processed.Response),
				processed.Usage,
			)

			fields := []capitan.Field{
				RequestIDKey.Field(requestID),
				SessionIDKey.Field(sessionID),
				ProviderKey.Field(c.providerName),
				AttemptKey.Field(attempt),
				ResponseKey.Field(processed.Response),
			}
			if processed.Usage != nil {
				fields = append(fields,
					PromptTokensKey.Field(processed.Usage.Prompt),
					CompletionTokensKey.Field(processed.Usage.Completion),
					TotalTokensKey.Field(processed.Usage.Total),
				)
			}
			capitan.Info(ctx, ConversationCompleted, fields...)
			return result.Message(), nil
		}

		feedback = result.Message()
		text, _ := feedback.Text()
		capitan.Info(ctx, ConversationCorrection,
			RequestIDKey.Field(requestID),
			SessionIDKey.Field(sessionID),
			AttemptKey.Field(attempt),
			ResponseKey.Field(processed.Response),
			FeedbackKey.Field(text),
		)
		transcript = append(transcript, reply, feedback)
	}

	return Message{}, c.fail(ctx, requestID, sessionID, "corrections_exhausted",
		&FeedbackError{Feedback: feedback, Attempts: attempts})
}

func (c *Conversation) fail(ctx context.Context, requestID, sessionID, errType string, err error) error {
	capitan.Error(ctx, ConversationFailed,
		RequestIDKey.Field(requestID),
		SessionIDKey.Field(sessionID),
		ProviderKey.Field(c.providerName),
		ErrorKey.Field(err.Error()),
		ErrorTypeKey.Field(errType),
	)
	return err
}
