package axon

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// errHalted stops the underlying sequence when a processor halts.
// It never leaves this package: Run reports the halt as a Result.
var errHalted = errors.New("chain halted")

// envelope flows through the pipz sequence for one Run.
type envelope struct {
	session *Session
	message Message
	index   int
	halted  bool
}

// Chain applies processors to a message strictly in order.
//
// Each processor sees the message returned by the previous one. The first
// processor to halt stops the run: later processors are not invoked and any
// session changes made during the run are discarded. Chains are immutable
// and safe for concurrent use.
type Chain struct {
	processors []Processor
	pipeline   pipz.Chainable[*envelope]
}

// NewChain builds a chain from processors.
// It panics if any processor is nil.
func NewChain(processors ...Processor) *Chain {
	for i, p := range processors {
		if p == nil {
			panic(fmt.Sprintf("axon: nil processor at index %d", i))
		}
	}

	procs := slices.Clone(processors)
	steps := make([]pipz.Chainable[*envelope], len(procs))
	for i, p := range procs {
		steps[i] = newStep(i, p)
	}

	return &Chain{
		processors: procs,
		pipeline:   pipz.NewSequence("message-chain", steps...),
	}
}

// newStep wraps a processor as a sequence stage.
func newStep(index int, p Processor) pipz.Chainable[*envelope] {
	return pipz.Apply("message-processor", func(ctx context.Context, env *envelope) (*envelope, error) {
		env.index = index
		result := p.Apply(ctx, env.session, env.message)
		env.message = result.Message()
		if result.Halted() {
			env.halted = true
			return env, errHalted
		}
		return env, nil
	})
}

// Append returns a new chain running c's processors followed by more.
func (c *Chain) Append(more ...Processor) *Chain {
	return NewChain(append(slices.Clone(c.processors), more...)...)
}

// Len returns the number of processors.
func (c *Chain) Len() int {
	return len(c.processors)
}

// Run applies the chain to msg.
//
// Processors work on a fork of session. The fork is committed back only
// when every processor continues, so a halted run leaves session exactly
// as it was passed in. session may be nil.
//
// Messages appended by processors land after any written to session by
// other goroutines during the run. If a processor rewrote history while
// session changed underneath it, the chain runs again on a fresh fork.
//
// Run ignores cancellation of ctx: processors are synchronous and the chain
// has no suspension points.
func (c *Chain) Run(ctx context.Context, session *Session, msg Message) Result {
	ctx = context.WithoutCancel(ctx)

	var sessionID string
	if session != nil {
		sessionID = session.ID()
	}

	capitan.Info(ctx, ChainStarted,
		SessionIDKey.Field(sessionID),
		ProcessorCountKey.Field(len(c.processors)),
	)

	var env *envelope
	for {
		var work *Session
		if session != nil {
			work = session.fork()
		}
		env = c.apply(ctx, work, msg)
		if env.halted || session == nil || session.commit(work) {
			break
		}
	}

	if env.halted {
		reason, _ := env.message.Text()
		capitan.Info(ctx, ChainHalted,
			SessionIDKey.Field(sessionID),
			ProcessorIndexKey.Field(env.index),
			FeedbackKey.Field(reason),
		)
		return Result{message: env.message, halted: true, haltedAt: env.index}
	}

	capitan.Info(ctx, ChainCompleted,
		SessionIDKey.Field(sessionID),
		ProcessorCountKey.Field(len(c.processors)),
	)
	return Continue(env.message)
}

// apply runs every processor once against work.
func (c *Chain) apply(ctx context.Context, work *Session, msg Message) *envelope {
	env := &envelope{session: work, message: msg}
	if len(c.processors) > 0 {
		if _, err := c.pipeline.Process(ctx, env); err != nil && !env.halted {
			// Only a panicking processor gets here.
			panic(fmt.Errorf("axon: processor %d failed: %w", env.index, err))
		}
	}
	return env
}
