package analysis

import (
	"strings"
	"unicode/utf8"
)

// Locate finds the first occurrence of needle inside text and returns its
// rune-offset span, or nil when the needle is empty or absent. Duplicate
// occurrences always resolve to the first; callers that need a later one must
// disambiguate in the needle itself.
func Locate(text, needle string) *Span {
	if needle == "" {
		return nil
	}
	byteStart := strings.Index(text, needle)
	if byteStart < 0 {
		return nil
	}
	start := utf8.RuneCountInString(text[:byteStart])
	return &Span{
		Start: start,
		End:   start + utf8.RuneCountInString(needle),
	}
}

// Span is a half-open rune-offset range [Start, End) within a document's
// extracted plain text.
type Span struct {
	Start int
	End   int
}
