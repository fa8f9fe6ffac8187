package token

import "fmt"

// Span is a half-open [Start, End) byte range into the source.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// LineCol returns the 1-based line and column of the span start in src.
func (s Span) LineCol(src string) (int, int) {
	line, col := 1, 1
	for i := 0; i < s.Start && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
