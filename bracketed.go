package axon

import (
	"context"
	"strconv"
	"strings"
)

// ParseBracketedToolCalls parses a list of calls of the form
//
//	[get_user(id=7), search(query='go, rust', limit=10)]
//
// Argument values are single- or double-quoted strings, integers, floats,
// or bare words (kept as strings). Commas, parentheses and brackets inside
// quoted strings are literal; a backslash escapes the next character
// inside a string.
//
// Any malformed entry fails the whole parse: no partial list is returned.
func ParseBracketedToolCalls(text string) ([]ToolCall, error) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return nil, parseErrorf("Tool call list must start with [ and end with ]")
	}

	inner := strings.TrimSpace(text[1 : len(text)-1])
	if inner == "" {
		return []ToolCall{}, nil
	}

	entries, err := splitTopLevel(inner)
	if err != nil {
		return nil, err
	}

	calls := make([]ToolCall, 0, len(entries))
	for i, entry := range entries {
		if entry == "" {
			return nil, parseErrorf("Empty tool call at position %d", i+1)
		}
		call, err := parseBracketedCall(entry)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// splitTopLevel splits s on commas outside parentheses and quotes.
// Parts are trimmed. Unbalanced quotes, parentheses or any unquoted
// bracket are errors.
func splitTopLevel(s string) ([]string, error) {
	var (
		parts   []string
		quote   byte
		escaped bool
		depth   int
		start   int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, parseErrorf("Unbalanced parentheses in tool call list")
			}
		case '[', ']':
			return nil, parseErrorf("Unbalanced brackets in tool call list")
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	if quote != 0 {
		return nil, parseErrorf("Unbalanced quotes in tool call list")
	}
	if depth != 0 {
		return nil, parseErrorf("Unbalanced parentheses in tool call list")
	}
	return append(parts, strings.TrimSpace(s[start:])), nil
}

// parseBracketedCall parses NAME(key=value, ...).
func parseBracketedCall(entry string) (ToolCall, error) {
	open := strings.IndexByte(entry, '(')
	if open == -1 {
		return ToolCall{}, parseErrorf("Missing ( in tool call %q", entry)
	}

	name := strings.TrimSpace(entry[:open])
	if !isIdentifier(name) {
		return ToolCall{}, parseErrorf("Invalid function name %q", name)
	}
	if entry[len(entry)-1] != ')' {
		return ToolCall{}, parseErrorf("Missing ) at end of tool call %q", entry)
	}

	params := NewParams()
	args := strings.TrimSpace(entry[open+1 : len(entry)-1])
	if args == "" {
		return ToolCall{Function: name, Parameters: params}, nil
	}

	tokens, err := splitTopLevel(args)
	if err != nil {
		return ToolCall{}, err
	}
	for _, token := range tokens {
		key, value, err := parseArgument(name, token)
		if err != nil {
			return ToolCall{}, err
		}
		if params.Has(key) {
			return ToolCall{}, parseErrorf("Duplicate argument %q in call to %s", key, name)
		}
		params.Set(key, value)
	}

	return ToolCall{Function: name, Parameters: params}, nil
}

// parseArgument splits key=value on the first '=' and coerces the value.
func parseArgument(call, token string) (string, Value, error) {
	if token == "" {
		return "", Value{}, parseErrorf("Empty argument in call to %s", call)
	}
	eq := strings.IndexByte(token, '=')
	if eq == -1 {
		return "", Value{}, parseErrorf("Missing = in argument %q of call to %s", token, call)
	}

	key := strings.TrimSpace(token[:eq])
	if !isIdentifier(key) {
		return "", Value{}, parseErrorf("Invalid argument name %q in call to %s", key, call)
	}
	raw := strings.TrimSpace(token[eq+1:])
	if raw == "" {
		return "", Value{}, parseErrorf("Missing value for argument %q in call to %s", key, call)
	}

	value, err := coerceArgument(raw)
	if err != nil {
		return "", Value{}, parseErrorf("Invalid value for argument %q in call to %s: %s", key, call, err.Error())
	}
	return key, value, nil
}

// coerceArgument turns a raw argument into a Value: quoted strings are
// unquoted, then integers and floats are tried, then the raw text is kept.
func coerceArgument(raw string) (Value, error) {
	if raw[0] == '\'' || raw[0] == '"' {
		s, err := unquote(raw)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	}

	if isDecimal(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntValue(i), nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return FloatValue(f), nil
		}
	}
	return StringValue(raw), nil
}

// unquote strips matching quotes and resolves backslash escapes.
// The closing quote must be the last character.
func unquote(raw string) (string, *ParseError) {
	quote := raw[0]
	var b strings.Builder
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			i++
			switch raw[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(raw[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(raw[i])
			}
		case c == quote:
			if i != len(raw)-1 {
				return "", parseErrorf("unexpected text after closing quote")
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", parseErrorf("unterminated string")
}

// isIdentifier reports whether s is a letter or underscore followed by
// letters, digits, underscores or dots.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// isDecimal reports whether s is a plain decimal number: optional sign,
// digits with at most one point, optional exponent.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits, point := 0, false
	for ; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' && !point {
			point = true
		} else {
			break
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// BracketedToolCallProcessor replaces a text message with the list of
// ToolCalls it contains.
type BracketedToolCallProcessor struct{}

// NewBracketedToolCallProcessor creates a bracketed tool-call processor.
func NewBracketedToolCallProcessor() *BracketedToolCallProcessor {
	return &BracketedToolCallProcessor{}
}

// Apply implements Processor.
func (*BracketedToolCallProcessor) Apply(_ context.Context, _ *Session, msg Message) Result {
	text, ok := msg.Text()
	if !ok {
		return Continue(msg)
	}
	calls, err := ParseBracketedToolCalls(text)
	if err != nil {
		return HaltWith(err.Error())
	}
	return Continue(msg.WithContent(calls))
}
