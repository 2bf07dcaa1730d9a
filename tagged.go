package axon

import (
	"context"
	"strings"
)

// Tagged tool-call markers.
const (
	taggedStart = "<function="
	taggedEnd   = "</function>"
)

// ParseTaggedToolCall parses a single call of the form
//
//	<function=NAME>{"key": "value"}</function>
//
// Surrounding whitespace is ignored. The payload must be a JSON object;
// its keys keep their order in the returned Params.
//
// Checks run in a fixed order so the diagnostic names the first problem:
// missing start tag, missing end tag, missing '>' after the name, empty
// name, then payload decoding.
func ParseTaggedToolCall(text string) (ToolCall, error) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, taggedStart) {
		return ToolCall{}, parseErrorf("Missing %s start tag", taggedStart)
	}
	if !strings.HasSuffix(text, taggedEnd) || len(text) < len(taggedStart)+len(taggedEnd) {
		return ToolCall{}, parseErrorf("Missing %s end tag", taggedEnd)
	}

	body := text[len(taggedStart) : len(text)-len(taggedEnd)]
	gt := strings.IndexByte(body, '>')
	if gt == -1 {
		return ToolCall{}, parseErrorf("Missing > after function name")
	}

	name := body[:gt]
	if name == "" {
		return ToolCall{}, parseErrorf("Empty function name")
	}

	payload := strings.TrimSpace(body[gt+1:])
	if _, err := decodeJSON([]byte(payload)); err != nil {
		return ToolCall{}, parseErrorf("Invalid JSON data: %s", err.Error())
	}
	params, err := decodeParams([]byte(payload))
	if err != nil {
		return ToolCall{}, parseErrorf("Invalid JSON data: %s", err.Error())
	}

	return ToolCall{Function: name, Parameters: params}, nil
}

// TaggedToolCallProcessor replaces a text message with the ToolCall it
// contains.
type TaggedToolCallProcessor struct{}

// NewTaggedToolCallProcessor creates a tagged tool-call processor.
func NewTaggedToolCallProcessor() *TaggedToolCallProcessor {
	return &TaggedToolCallProcessor{}
}

// Apply implements Processor.
func (*TaggedToolCallProcessor) Apply(_ context.Context, _ *Session, msg Message) Result {
	text, ok := msg.Text()
	if !ok {
		return Continue(msg)
	}
	call, err := ParseTaggedToolCall(text)
	if err != nil {
		return HaltWith(err.Error())
	}
	return Continue(msg.WithContent(call))
}
