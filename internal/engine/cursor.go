package engine

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/magentointel/internal/types"
)

// Word is an identifier-like run of bytes in a buffer
type Word struct {
	Text string     `json:"text"`
	Span types.Span `json:"span"`
}

// TriggerAt reports whether the two bytes before offset are "->" or "::"
func TriggerAt(src string, offset int) bool {
	if offset < 2 || offset > len(src) {
		return false
	}
	op := src[offset-2 : offset]
	return op == "->" || op == "::"
}

// WordAt returns the run of [A-Za-z0-9_] bytes touching offset. The word
// is empty when offset sits between two non-word bytes.
func WordAt(src string, offset int) Word {
	offset = clampOffset(src, offset)
	start, end := offset, offset
	for start > 0 && isWordByte(src[start-1]) {
		start--
	}
	for end < len(src) && isWordByte(src[end]) {
		end++
	}
	return Word{Text: src[start:end], Span: types.Span{Start: start, End: end}}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// OffsetAt converts a 1-based line and byte column to an offset. A column
// of 0 or past the end of the line means the end of the line.
func OffsetAt(src string, line, column int) (int, error) {
	if line < 1 {
		return 0, fmt.Errorf("line %d outside buffer", line)
	}
	start := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(src[start:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("line %d outside buffer", line)
		}
		start += i + 1
	}
	end := len(src)
	if i := strings.IndexByte(src[start:], '\n'); i >= 0 {
		end = start + i
	}
	if column <= 0 || start+column-1 > end {
		return end, nil
	}
	return start + column - 1, nil
}
