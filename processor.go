package axon

import "context"

// Processor is one step of a Chain.
//
// Apply receives the conversation session and the message produced by the
// previous step. It returns Continue with the message the next step should
// see, or Halt with a feedback message. Processors must not keep state
// between calls; any session changes they make are discarded when the
// chain halts.
type Processor interface {
	Apply(ctx context.Context, session *Session, msg Message) Result
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, session *Session, msg Message) Result

// Apply calls f.
func (f ProcessorFunc) Apply(ctx context.Context, session *Session, msg Message) Result {
	return f(ctx, session, msg)
}
