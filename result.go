package axon

// FeedbackPrefix starts every feedback message. Callers match on it.
const FeedbackPrefix = "ERROR: "

// Result is the outcome of applying a processor or a chain to a message.
// A continued result carries the (possibly transformed) message; a halted
// result carries a feedback message to send back to the model.
type Result struct {
	message  Message
	halted   bool
	haltedAt int
}

// Continue accepts msg and lets the next processor see it.
func Continue(msg Message) Result {
	return Result{message: msg, haltedAt: -1}
}

// Halt stops the chain. feedback replaces the processed message.
func Halt(feedback Message) Result {
	return Result{message: feedback, halted: true, haltedAt: -1}
}

// Feedback builds the user message sent back to the model for reason.
func Feedback(reason string) Message {
	return NewMessage(RoleUser, FeedbackPrefix+reason)
}

// HaltWith halts with a feedback message built from reason.
func HaltWith(reason string) Result {
	return Halt(Feedback(reason))
}

// Halted reports whether the result stops the chain.
func (r Result) Halted() bool {
	return r.halted
}

// Message returns the continued message, or the feedback when halted.
func (r Result) Message() Message {
	return r.message
}

// HaltedAt returns the index of the processor that halted a chain run,
// or -1 when the result did not come from a halted chain.
func (r Result) HaltedAt() int {
	return r.haltedAt
}
