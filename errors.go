package axon

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the conversation loop.
var (
	// ErrNoResponse is returned when a provider answers with empty content.
	ErrNoResponse = errors.New("no response from provider")

	// ErrCorrectionsExhausted is returned when the model keeps producing
	// output the chain rejects after every allowed correction.
	ErrCorrectionsExhausted = errors.New("corrections exhausted")
)

// ParseError describes why model output could not be parsed or decoded.
// Reason is written for the model: it is sent back verbatim as feedback.
type ParseError struct {
	Reason string
}

// Error returns the reason unchanged.
func (e *ParseError) Error() string {
	return e.Reason
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// FeedbackError wraps the last feedback message when the conversation
// loop gives up.
type FeedbackError struct {
	Feedback Message
	Attempts int
}

// Error implements the error interface.
func (e *FeedbackError) Error() string {
	text, _ := e.Feedback.Text()
	return fmt.Sprintf("%s after %d attempts: %s", ErrCorrectionsExhausted, e.Attempts, text)
}

// Unwrap allows errors.Is(err, ErrCorrectionsExhausted).
func (e *FeedbackError) Unwrap() error {
	return ErrCorrectionsExhausted
}
