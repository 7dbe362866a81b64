// Package locate re-derives symbol columns from live source text.
//
// The engine reports a symbol and a 1-based line but never a column. Every
// position here is recomputed by reading the file at response time, so a
// result reflects the file as it is now, not as it was when analyzed.
// All exposed positions are 0-based, with columns counted in UTF-16 code
// units as editors expect.
package locate

import (
	"strings"
	"unicode/utf16"
)

// Position is a 0-based line and column.
type Position struct {
	Line      int `json:"line" yaml:"line"`
	Character int `json:"character" yaml:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Span pairs the whole-line container range with the symbol's own range.
// Selection is always contained in Range.
type Span struct {
	Range     Range `json:"range" yaml:"range"`
	Selection Range `json:"selectionRange" yaml:"selectionRange"`
}

// IsZeroWidth reports whether r starts and ends at the same position.
func (r Range) IsZeroWidth() bool {
	return r.Start == r.End
}

// Contains reports whether o lies within r.
func (r Range) Contains(o Range) bool {
	return !o.Start.before(r.Start) && !r.End.before(o.End)
}

func (p Position) before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

// LineStart returns the zero-width range at column 0 of a 0-based line.
func LineStart(line int) Range {
	p := Position{Line: max(line, 0)}
	return Range{Start: p, End: p}
}

// fallback is the zero-width span used whenever a symbol cannot be placed.
func fallback(line int) Span {
	r := LineStart(line)
	return Span{Range: r, Selection: r}
}

// StripArity removes a trailing "/N" or "//N" arity indicator.
// "foo/2" and "foo//2" both become "foo"; names without a numeric
// suffix are returned unchanged.
func StripArity(symbol string) string {
	i := strings.LastIndexByte(symbol, '/')
	if i <= 0 || i == len(symbol)-1 {
		return symbol
	}
	for _, c := range symbol[i+1:] {
		if c < '0' || c > '9' {
			return symbol
		}
	}
	name := symbol[:i]
	if strings.HasSuffix(name, "/") && len(name) > 1 {
		name = name[:len(name)-1]
	}
	return name
}

// column converts a byte offset within text to a UTF-16 column.
func column(text string, byteOffset int) int {
	n := 0
	for _, r := range text[:byteOffset] {
		n += utf16.RuneLen(r)
	}
	return n
}

// lineSpan builds the span for a match of length size at byte offset off on
// a 0-based line.
func lineSpan(line int, text string, off, size int) Span {
	return Span{
		Range: Range{
			Start: Position{Line: line},
			End:   Position{Line: line, Character: column(text, len(text))},
		},
		Selection: selection(line, text, off, size),
	}
}

func selection(line int, text string, off, size int) Range {
	return Range{
		Start: Position{Line: line, Character: column(text, off)},
		End:   Position{Line: line, Character: column(text, off+size)},
	}
}
