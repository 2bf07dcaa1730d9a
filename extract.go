package axon

import (
	"context"
)

// Extract locates the first payload in text and decodes it.
//
// When the boundary finds nothing the result is a ParseError reading
// "No <kind> found" and the decoder is never called. A decode failure is
// a ParseError reading "Invalid <kind> data: <diagnostic>" where the
// diagnostic is the decoder's own message.
func Extract(text string, boundary Boundary, decoder Decoder) (any, error) {
	payload, ok := boundary.Find(text)
	if !ok {
		return nil, parseErrorf("No %s found", decoder.Kind())
	}

	v, err := decoder.Decode(payload)
	if err != nil {
		return nil, parseErrorf("Invalid %s data: %s", decoder.Kind(), err.Error())
	}
	return v, nil
}

// ExtractJSON is Extract with a plain JSONDecoder.
func ExtractJSON(text string, boundary Boundary) (any, error) {
	return Extract(text, boundary, JSONDecoder{})
}

// PayloadProcessor replaces a text message with its decoded payload.
type PayloadProcessor struct {
	boundary Boundary
	decoder  Decoder
}

// NewPayloadProcessor creates a processor that extracts a payload with
// boundary and decodes it with decoder.
func NewPayloadProcessor(boundary Boundary, decoder Decoder) *PayloadProcessor {
	if decoder == nil {
		panic("axon: payload processor requires a decoder")
	}
	return &PayloadProcessor{boundary: boundary, decoder: decoder}
}

// NewJSONProcessor creates a payload processor for JSON.
func NewJSONProcessor(boundary Boundary) *PayloadProcessor {
	return NewPayloadProcessor(boundary, JSONDecoder{})
}

// NewYAMLProcessor creates a payload processor for YAML.
func NewYAMLProcessor(boundary Boundary) *PayloadProcessor {
	return NewPayloadProcessor(boundary, YAMLDecoder{})
}

// Apply implements Processor. Content that is no longer text was decoded
// by an earlier step and passes through unchanged.
func (p *PayloadProcessor) Apply(_ context.Context, _ *Session, msg Message) Result {
	text, ok := msg.Text()
	if !ok {
		return Continue(msg)
	}

	v, err := Extract(text, p.boundary, p.decoder)
	if err != nil {
		return HaltWith(err.Error())
	}
	return Continue(msg.WithContent(v))
}
