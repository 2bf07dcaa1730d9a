package axon

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/pipz"
)

// Option modifies the provider pipeline of a Conversation.
type Option func(pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange]

// WithRetry retries failed provider calls up to maxAttempts times.
// Retries cover transport failures only; rejected replies are handled by
// the correction loop.
func WithRetry(maxAttempts int) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewRetry("retry", pipeline, maxAttempts)
	}
}

// WithBackoff retries failed provider calls with exponential backoff
// starting at baseDelay.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewBackoff("backoff", pipeline, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(duration time.Duration) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewTimeout("timeout", pipeline, duration)
	}
}

// WithCircuitBreaker opens the circuit after 'failures' consecutive
// failures and keeps it open for 'recovery'.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewCircuitBreaker("circuit-breaker", pipeline, failures, recovery)
	}
}

// WithRateLimit limits provider calls to rps with the given burst.
// Every attempt Send makes is a provider call, so correction turns draw
// from the same budget. Chain processing is not limited.
func WithRateLimit(rps float64, burst int) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		rateLimiter := pipz.NewRateLimiter[*Exchange]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", rateLimiter, pipeline)
	}
}

// WithErrorHandler passes provider failures to handler.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Exchange]]) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewHandle("error-handler", pipeline, handler)
	}
}

// ServiceProvider is implemented by types that expose a provider pipeline.
type ServiceProvider interface {
	GetPipeline() pipz.Chainable[*Exchange]
}

// WithFallback tries fallback's pipeline when the primary provider fails.
func WithFallback(fallback ServiceProvider) Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.NewFallback("with-fallback", pipeline, fallback.GetPipeline())
	}
}

// WithDebug prints the transcript sent to the provider and the raw reply.
func WithDebug() Option {
	return func(pipeline pipz.Chainable[*Exchange]) pipz.Chainable[*Exchange] {
		return pipz.Apply("debug", func(ctx context.Context, ex *Exchange) (*Exchange, error) {
			fmt.Printf("\n=== DEBUG: Transcript (attempt %d) ===\n", ex.Attempt)
			for _, msg := range ex.Messages {
				text, _ := msg.Text()
				fmt.Printf("[%s] %s\n", msg.Role, text)
			}
			fmt.Println("=====================")

			processed, err := pipeline.Process(ctx, ex)
			if err != nil {
				fmt.Printf("\n=== DEBUG: Error ===\n%v\n==================\n\n", err)
				return processed, err
			}

			fmt.Println("\n=== DEBUG: Raw Response ===")
			fmt.Println(processed.Response)
			fmt.Println("===========================")

			return processed, nil
		})
	}
}
