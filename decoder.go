package axon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"
)

// Decoder turns an extracted payload into a structured value.
type Decoder interface {
	// Kind names the payload format in diagnostics, e.g. "JSON".
	Kind() string
	// Decode parses payload. Errors carry the parser's own diagnostic.
	Decode(payload string) (any, error)
}

// JSONDecoder decodes JSON payloads.
//
// Objects decode to map[string]any and arrays to []any. Integral numbers
// decode to int64, other numbers to float64.
//
// With Repair set, a payload that fails to parse is passed through
// jsonrepair (trailing commas, single quotes, unquoted keys, truncated
// input) and decoded again. If the repaired text still fails, the
// diagnostic for the original payload is returned.
type JSONDecoder struct {
	Repair bool
}

// Kind implements Decoder.
func (JSONDecoder) Kind() string {
	return "JSON"
}

// Decode implements Decoder.
func (d JSONDecoder) Decode(payload string) (any, error) {
	v, err := decodeJSON([]byte(payload))
	if err == nil || !d.Repair {
		return v, err
	}

	repaired, repairErr := jsonrepair.JSONRepair(payload)
	if repairErr != nil {
		return nil, err
	}
	if v, repairedErr := decodeJSON([]byte(repaired)); repairedErr == nil {
		return v, nil
	}
	return nil, err
}

// decodeJSON validates data first so syntax errors keep their offsets,
// then decodes with numbers preserved.
func decodeJSON(data []byte) (any, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, describeJSONError(data, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, describeJSONError(data, err)
	}
	return normalizeNumbers(v), nil
}

// describeJSONError appends the position of a syntax error.
func describeJSONError(data []byte, err error) error {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}
	// Offset counts the offending byte; at end of input there is none.
	pos := int(syntaxErr.Offset) - 1
	if syntaxErr.Error() == "unexpected end of JSON input" {
		pos = len(data)
	}
	pos = max(0, min(pos, len(data)))
	line, col := lineColumn(data, pos)
	return fmt.Errorf("%s: line %d column %d (char %d)", syntaxErr.Error(), line, col, pos)
}

// lineColumn converts a byte offset to 1-based line and column.
func lineColumn(data []byte, pos int) (int, int) {
	prefix := data[:pos]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	col := pos - bytes.LastIndexByte(prefix, '\n')
	return line, col
}

// normalizeNumbers replaces json.Number with int64 or float64.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	default:
		return v
	}
}

// YAMLDecoder decodes YAML payloads.
// Mappings decode to map[string]any, sequences to []any and integers
// to int64.
type YAMLDecoder struct{}

// Kind implements Decoder.
func (YAMLDecoder) Kind() string {
	return "YAML"
}

// Decode implements Decoder.
func (YAMLDecoder) Decode(payload string) (any, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, errors.New("empty document")
	}
	var v any
	if err := yaml.Unmarshal([]byte(payload), &v); err != nil {
		return nil, err
	}
	return normalizeYAML(v), nil
}

func normalizeYAML(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeYAML(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	default:
		return v
	}
}
