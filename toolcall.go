package axon

import (
	"encoding/json"
	"strings"
)

// ToolCall is a function invocation extracted from model output.
// ToolCalls are only produced by a successful parse.
type ToolCall struct {
	Function   string  `json:"function_name"`
	Parameters *Params `json:"parameters"`
}

// String renders the call in bracketed form, e.g. get_user(id=7).
func (c ToolCall) String() string {
	var b strings.Builder
	b.WriteString(c.Function)
	b.WriteByte('(')
	i := 0
	for k, v := range c.Parameters.All() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v.String())
		i++
	}
	b.WriteByte(')')
	return b.String()
}

// MarshalJSON encodes the call with an always-present parameters object.
func (c ToolCall) MarshalJSON() ([]byte, error) {
	params := c.Parameters
	if params == nil {
		params = NewParams()
	}
	return json.Marshal(struct {
		Function   string  `json:"function_name"`
		Parameters *Params `json:"parameters"`
	}{c.Function, params})
}
