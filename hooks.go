package axon

import "github.com/zoobzio/capitan"

// Signals for hook events.
const (
	ChainStarted   = capitan.Signal("axon.chain.started")
	ChainCompleted = capitan.Signal("axon.chain.completed")
	ChainHalted    = capitan.Signal("axon.chain.halted")

	ConversationStarted    = capitan.Signal("axon.conversation.started")
	ConversationCompleted  = capitan.Signal("axon.conversation.completed")
	ConversationFailed     = capitan.Signal("axon.conversation.failed")
	ConversationCorrection = capitan.Signal("axon.conversation.correction")

	ProviderCallStarted   = capitan.Signal("axon.provider.call.started")
	ProviderCallCompleted = capitan.Signal("axon.provider.call.completed")
	ProviderCallFailed    = capitan.Signal("axon.provider.call.failed")
)

// Keys for hook event fields.
var (
	// Identification.
	RequestIDKey = capitan.NewStringKey("axon.request.id")
	SessionIDKey = capitan.NewStringKey("axon.session.id")
	ProviderKey  = capitan.NewStringKey("axon.provider")

	// Chain progress.
	ProcessorCountKey = capitan.NewIntKey("axon.chain.processors")
	ProcessorIndexKey = capitan.NewIntKey("axon.chain.index")
	FeedbackKey       = capitan.NewStringKey("axon.feedback")

	// Conversation progress.
	AttemptKey     = capitan.NewIntKey("axon.attempt")
	InputKey       = capitan.NewStringKey("axon.input")
	ResponseKey    = capitan.NewStringKey("axon.response")
	TemperatureKey = capitan.NewFloat64Key("axon.temperature")

	// Error information.
	ErrorKey     = capitan.NewStringKey("axon.error")
	ErrorTypeKey = capitan.NewStringKey("axon.error.type")

	// Provider metrics.
	PromptTokensKey     = capitan.NewIntKey("axon.tokens.prompt")
	CompletionTokensKey = capitan.NewIntKey("axon.tokens.completion")
	TotalTokensKey      = capitan.NewIntKey("axon.tokens.total")
)
