package dom

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Location points at a span of the source. Offset and Size count bytes,
// Line and Column are 1-based and Column counts characters.
type Location struct {
	Filename string
	Offset   int
	Line     int
	Column   int
	Size     int
}

// Advance returns the location of the span starting after skipped, which
// must be a prefix of the text at l, and spanning size bytes.
func (l Location) Advance(skipped string, size int) Location {
	next := l
	next.Offset += len(skipped)
	if i := strings.LastIndexAny(skipped, "\r\n"); i >= 0 {
		next.Line += countLineBreaks(skipped)
		next.Column = 1 + utf8.RuneCountInString(skipped[i+1:])
	} else {
		next.Column += utf8.RuneCountInString(skipped)
	}
	next.Size = size
	return next
}

// countLineBreaks counts "\r\n", "\n" and a lone "\r" as one break each.
func countLineBreaks(s string) int {
	return strings.Count(s, "\n") + strings.Count(s, "\r") - strings.Count(s, "\r\n")
}

// End is the offset just past the span.
func (l Location) End() int {
	return l.Offset + l.Size
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}

// Slice returns the text the location spans within data, clamped to data.
func (l Location) Slice(data string) string {
	start, end := l.Offset, l.End()
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if start >= end {
		return ""
	}
	return data[start:end]
}
