package axon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strconv"
)

// Params is an insertion-ordered mapping from parameter name to Value.
// Keys are unique; setting an existing key replaces its value in place.
// The zero value is ready to use.
type Params struct {
	keys   []string
	values map[string]Value
}

// NewParams returns an empty parameter map.
func NewParams() *Params {
	return &Params{values: make(map[string]Value)}
}

// Set stores value under key.
func (p *Params) Set(key string, value Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the parameter names in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// All iterates over the parameters in insertion order.
func (p *Params) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}

// Map returns the parameters as plain Go values, losing order.
func (p *Params) Map() map[string]any {
	out := make(map[string]any, p.Len())
	for k, v := range p.All() {
		out[k] = v.Any()
	}
	return out
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := NewParams()
	for k, v := range p.All() {
		c.Set(k, v)
	}
	return c
}

// Equal reports whether both maps hold the same keys in the same order
// with the same values.
func (p *Params) Equal(other *Params) bool {
	if p.Len() != other.Len() {
		return false
	}
	for i, k := range p.Keys() {
		if other.keys[i] != k || p.values[k] != other.values[k] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the parameters as a JSON object in insertion order.
func (p *Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range p.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (p *Params) UnmarshalJSON(data []byte) error {
	decoded, err := decodeParams(data)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// decodeParams reads a JSON object token by token so that key order
// survives. Nested arrays and objects are kept as compact JSON text.
func decodeParams(data []byte) (*Params, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object")
	}

	params := NewParams()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}

		value, err := paramFromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		params.Set(key, value)
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after object at char %d", dec.InputOffset())
	}
	return params, nil
}

// paramFromJSON converts one raw JSON value into a Value.
func paramFromJSON(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return Value{}, err
		}
		return StringValue(compact.String()), nil
	}
	return scalarFromJSON(trimmed)
}

// scalarFromJSON converts a JSON scalar into a Value. Null is rejected.
func scalarFromJSON(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, fmt.Errorf("empty value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case 'n':
		return Value{}, fmt.Errorf("null is not a supported value")
	case '{', '[':
		return Value{}, fmt.Errorf("expected scalar value")
	}

	return numberValue(string(data))
}

// numberValue parses a numeric literal, preferring integers.
func numberValue(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q", s)
	}
	return FloatValue(f), nil
}
