package axon

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fence opens and closes a fenced block.
const fence = "```"

type boundaryKind int

const (
	boundaryNone boundaryKind = iota
	boundaryTagPair
	boundaryFenced
	boundaryFencedPlain
)

// Boundary describes where a payload sits inside model output.
//
// It is one of:
//
//   - NoBoundary: the whole text is the payload
//   - TagPair: text between an opening and a closing marker, e.g. <json> and </json>
//   - Fenced: a fenced block whose opening fence carries a language hint
//   - FencedPlain: the text between the first two fences
//
// The zero value is NoBoundary.
type Boundary struct {
	kind  boundaryKind
	open  string
	close string
	hint  string
}

// NoBoundary treats the entire input as the payload.
func NoBoundary() Boundary {
	return Boundary{kind: boundaryNone}
}

// TagPair matches text between open and close.
// It panics if either marker is empty.
func TagPair(open, close string) Boundary {
	if open == "" || close == "" {
		panic("axon: tag pair markers must not be empty")
	}
	return Boundary{kind: boundaryTagPair, open: open, close: close}
}

// Fenced matches a fenced block opened with ```hint.
// The hint is compared case-insensitively and must be followed by
// whitespace, an opening brace or bracket, or the end of the text.
// An empty hint is FencedPlain.
func Fenced(hint string) Boundary {
	if hint == "" {
		return FencedPlain()
	}
	return Boundary{kind: boundaryFenced, hint: hint}
}

// FencedPlain matches the text between the first fence and the next one.
// An info string on the opening fence is not stripped.
func FencedPlain() Boundary {
	return Boundary{kind: boundaryFencedPlain}
}

// IsNone reports whether the boundary is NoBoundary.
func (b Boundary) IsNone() bool {
	return b.kind == boundaryNone
}

// String describes the boundary.
func (b Boundary) String() string {
	switch b.kind {
	case boundaryTagPair:
		return b.open + "..." + b.close
	case boundaryFenced:
		return fence + b.hint + "..." + fence
	case boundaryFencedPlain:
		return fence + "..." + fence
	default:
		return "none"
	}
}

// Find locates the first payload in text and returns it trimmed of
// surrounding whitespace.
func (b Boundary) Find(text string) (string, bool) {
	switch b.kind {
	case boundaryTagPair:
		return between(text, 0, b.open, b.close)
	case boundaryFenced:
		return b.findFenced(text)
	case boundaryFencedPlain:
		return between(text, 0, fence, fence)
	default:
		return strings.TrimSpace(text), true
	}
}

// between returns the trimmed text between the first open at or after
// from and the next close.
func between(text string, from int, open, close string) (string, bool) {
	start := strings.Index(text[from:], open)
	if start == -1 {
		return "", false
	}
	start += from + len(open)

	end := strings.Index(text[start:], close)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}

func (b Boundary) findFenced(text string) (string, bool) {
	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], fence)
		if idx == -1 {
			return "", false
		}
		idx += from
		after := idx + len(fence)
		if b.hintAt(text, after) {
			return between(text, idx, fence+text[after:after+len(b.hint)], fence)
		}
		from = after
	}
	return "", false
}

// hintAt reports whether the hint starts at pos and is followed by
// whitespace, '{', '[' or the end of text.
func (b Boundary) hintAt(text string, pos int) bool {
	end := pos + len(b.hint)
	if end > len(text) || !strings.EqualFold(text[pos:end], b.hint) {
		return false
	}
	if end == len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.IsSpace(r) || r == '{' || r == '['
}
