package axon

import (
	"context"
	"encoding/json"
	"fmt"
)

// ValidateProcessor decodes the message content into T and runs its
// Validate method. Place it after a payload processor so it receives the
// decoded value; raw text content is read as JSON.
//
// On failure the feedback names the problem and includes the JSON Schema
// of T so the model can correct its answer.
type ValidateProcessor[T Validator] struct {
	schema string
}

// NewValidateProcessor creates a validation processor for T.
func NewValidateProcessor[T Validator]() *ValidateProcessor[T] {
	return &ValidateProcessor[T]{schema: schemaFor[T]()}
}

// Schema returns the JSON Schema included in feedback.
func (p *ValidateProcessor[T]) Schema() string {
	return p.schema
}

// Apply implements Processor.
func (p *ValidateProcessor[T]) Apply(_ context.Context, _ *Session, msg Message) Result {
	value, err := p.decode(msg.Content)
	if err != nil {
		return HaltWith(p.reason(err))
	}
	if err := value.Validate(); err != nil {
		return HaltWith(p.reason(err))
	}
	return Continue(msg.WithContent(value))
}

func (*ValidateProcessor[T]) decode(content any) (T, error) {
	var out T

	if typed, ok := content.(T); ok {
		return typed, nil
	}

	var data []byte
	if text, ok := content.(string); ok {
		data = []byte(text)
	} else {
		encoded, err := json.Marshal(content)
		if err != nil {
			return out, err
		}
		data = encoded
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (p *ValidateProcessor[T]) reason(err error) string {
	if p.schema == "" {
		return fmt.Sprintf("Invalid response: %s", err)
	}
	return fmt.Sprintf("Invalid response: %s\n\nExpected JSON schema:\n%s", err, p.schema)
}
