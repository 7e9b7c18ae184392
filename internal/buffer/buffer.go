// Package buffer provides read access to the editor buffer a completion
// request was made in. Full-buffer scans (class declaration, parent class,
// @var hints) go through SourceBuffer so hosts can back it with their own
// document model.
package buffer

import (
	"regexp"

	"github.com/standardbeagle/magentointel/internal/types"
)

// SourceBuffer is the host's view of the whole document
type SourceBuffer interface {
	// Substring returns the text in [start, end); out-of-range bounds are clamped
	Substring(start, end int) string
	// Len returns the buffer length in bytes
	Len() int
	// FindPattern returns the span of the first match of re at or after fromOffset
	FindPattern(re *regexp.Regexp, fromOffset int) (types.Span, bool)
}

// StringBuffer is a SourceBuffer over an immutable string
type StringBuffer struct {
	text string
}

// NewStringBuffer wraps text
func NewStringBuffer(text string) *StringBuffer {
	return &StringBuffer{text: text}
}

// Substring implements SourceBuffer
func (b *StringBuffer) Substring(start, end int) string {
	start, end = b.clamp(start), b.clamp(end)
	if start >= end {
		return ""
	}
	return b.text[start:end]
}

// Len implements SourceBuffer
func (b *StringBuffer) Len() int {
	return len(b.text)
}

// FindPattern implements SourceBuffer
func (b *StringBuffer) FindPattern(re *regexp.Regexp, fromOffset int) (types.Span, bool) {
	if re == nil {
		return types.Span{}, false
	}
	from := b.clamp(fromOffset)
	loc := re.FindStringIndex(b.text[from:])
	if loc == nil {
		return types.Span{}, false
	}
	return types.Span{Start: from + loc[0], End: from + loc[1]}, true
}

// String returns the whole buffer
func (b *StringBuffer) String() string {
	return b.text
}

func (b *StringBuffer) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(b.text) {
		return len(b.text)
	}
	return i
}

// Submatch finds re at or after fromOffset and returns the given capture
// group of the matched text
func Submatch(buf SourceBuffer, re *regexp.Regexp, fromOffset, group int) (string, types.Span, bool) {
	span, ok := buf.FindPattern(re, fromOffset)
	if !ok {
		return "", types.Span{}, false
	}
	m := re.FindStringSubmatch(buf.Substring(span.Start, span.End))
	if group >= len(m) || m[group] == "" {
		return "", span, false
	}
	return m[group], span, true
}
