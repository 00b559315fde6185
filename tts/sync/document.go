package sync

import (
	"sort"
	"strings"
)

// Position is a zero-based line and column. Columns are byte offsets within
// the line.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p comes before q.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Character < q.Character)
}

// Range is a half-open span of a document.
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether r covers nothing.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Document supplies text and coordinate translation.
type Document interface {
	Text() string
	// PositionAt converts a byte offset into a position.
	PositionAt(offset int) Position
	// LineRange returns the span of a line, excluding its line break.
	LineRange(line int) Range
}

// DecorationSink renders highlights. An empty slice clears them.
type DecorationSink interface {
	SetHighlights(ranges []Range)
	Reveal(r Range)
}

// TextDocument is a Document backed by a string.
type TextDocument struct {
	uri        string
	text       string
	lineStarts []int
}

// NewTextDocument returns a document for text.
func NewTextDocument(uri, text string) *TextDocument {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &TextDocument{uri: uri, text: text, lineStarts: starts}
}

// URI returns the document identifier.
func (d *TextDocument) URI() string { return d.uri }

// Text returns the full text.
func (d *TextDocument) Text() string { return d.text }

// LineCount returns the number of lines.
func (d *TextDocument) LineCount() int { return len(d.lineStarts) }

// Line returns the text of a line without its line break.
func (d *TextDocument) Line(line int) string {
	r := d.LineRange(line)
	return d.text[d.OffsetAt(r.Start):d.OffsetAt(r.End)]
}

// PositionAt converts a byte offset into a position. Offsets are clamped to
// the text.
func (d *TextDocument) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > offset }) - 1
	return Position{Line: line, Character: offset - d.lineStarts[line]}
}

// OffsetAt converts a position into a byte offset.
func (d *TextDocument) OffsetAt(p Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lineStarts) {
		return len(d.text)
	}
	off := d.lineStarts[p.Line] + p.Character
	if end := d.lineEnd(p.Line); off > end {
		off = end
	}
	return off
}

// LineRange returns the span of a line, excluding its line break.
func (d *TextDocument) LineRange(line int) Range {
	if line < 0 {
		line = 0
	}
	if line >= len(d.lineStarts) {
		line = len(d.lineStarts) - 1
	}
	end := d.lineEnd(line)
	return Range{
		Start: Position{Line: line},
		End:   Position{Line: line, Character: end - d.lineStarts[line]},
	}
}

func (d *TextDocument) lineEnd(line int) int {
	end := len(d.text)
	if line+1 < len(d.lineStarts) {
		end = d.lineStarts[line+1] - 1
	}
	// Treat "\r\n" as one break.
	if end > d.lineStarts[line] && strings.HasSuffix(d.text[:end], "\r") {
		end--
	}
	return end
}
