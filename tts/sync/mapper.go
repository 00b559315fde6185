// Package sync maps playback time onto positions in the spoken document and
// drives the highlight shown to the reader.
package sync

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// HighlightMode selects how much text is highlighted around the current word.
type HighlightMode int

const (
	// ModeWord highlights the current word.
	ModeWord HighlightMode = iota
	// ModeSentence highlights the sentence containing the current word.
	ModeSentence
	// ModeLine highlights the line on which the current word starts.
	ModeLine
)

// String returns the string representation of the mode.
func (m HighlightMode) String() string {
	switch m {
	case ModeWord:
		return "word"
	case ModeSentence:
		return "sentence"
	case ModeLine:
		return "line"
	default:
		return "unknown"
	}
}

// ParseMode parses "word", "sentence" or "line".
func ParseMode(s string) (HighlightMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "word":
		return ModeWord, nil
	case "sentence":
		return ModeSentence, nil
	case "line":
		return ModeLine, nil
	}
	return ModeWord, fmt.Errorf("invalid highlight mode %q: must be word, sentence or line", s)
}

// WordPosition locates one word of the active document. A word is a maximal
// run of non-whitespace, including attached punctuation.
type WordPosition struct {
	Text        string
	StartOffset int // byte offset
	EndOffset   int // byte offset, exclusive
	Start       Position
	End         Position
}

// Mapper tracks the highlighted word of the active document. It is not safe
// for concurrent use.
type Mapper struct {
	sink  DecorationSink
	doc   Document
	words []WordPosition
	last  int
	mode  HighlightMode
}

// NewMapper returns a mapper that renders through sink. sink may be nil.
func NewMapper(sink DecorationSink) *Mapper {
	return &Mapper{sink: sink, last: -1, mode: ModeWord}
}

// SetActiveDocument clears the current highlight, rebuilds the word table
// and resets the cursor. A nil document detaches the mapper.
func (m *Mapper) SetActiveDocument(doc Document) {
	m.ClearHighlights()
	m.doc = doc
	m.words = nil
	if doc != nil {
		m.words = scanWords(doc)
	}
	m.last = -1
}

// Document returns the active document.
func (m *Mapper) Document() Document {
	return m.doc
}

// MapTimestamp returns the range to highlight at timestamp seconds into
// audio lasting totalDuration seconds. It returns false when there is no
// document or no words, when totalDuration is not positive, and when the
// timestamp maps to the word that is already highlighted.
func (m *Mapper) MapTimestamp(timestamp, totalDuration float64) (Range, bool) {
	if m.doc == nil || len(m.words) == 0 || !(totalDuration > 0) {
		return Range{}, false
	}

	progress := timestamp / totalDuration
	if math.IsNaN(progress) {
		progress = 0
	}
	progress = math.Max(0, math.Min(1, progress))

	n := len(m.words)
	index := int(math.Floor(progress * float64(n)))
	if index > n-1 {
		index = n - 1
	}

	if index == m.last {
		return Range{}, false
	}
	m.last = index
	return m.rangeFor(index), true
}

// HighlightAtTimestamp maps the timestamp and applies the result. It reports
// whether the highlight changed.
func (m *Mapper) HighlightAtTimestamp(timestamp, totalDuration float64) bool {
	r, ok := m.MapTimestamp(timestamp, totalDuration)
	if ok {
		m.HighlightRange(r)
	}
	return ok
}

// HighlightNext moves the highlight to the next word.
func (m *Mapper) HighlightNext() bool {
	if len(m.words) == 0 || m.last >= len(m.words)-1 {
		return false
	}
	m.last++
	m.HighlightRange(m.rangeFor(m.last))
	return true
}

// HighlightPrevious moves the highlight to the previous word.
func (m *Mapper) HighlightPrevious() bool {
	if len(m.words) == 0 || m.last <= 0 {
		return false
	}
	m.last--
	m.HighlightRange(m.rangeFor(m.last))
	return true
}

// Progress returns the highlighted word index as a fraction of the word
// count in [0, 1], or -1 when nothing is highlighted.
func (m *Mapper) Progress() float64 {
	n := len(m.words)
	if n == 0 || m.last < 0 {
		return -1
	}
	if n == 1 {
		return 1
	}
	return float64(m.last) / float64(n-1)
}

// Current returns the highlighted word index, or -1.
func (m *Mapper) Current() int {
	return m.last
}

// CurrentWord returns the highlighted word.
func (m *Mapper) CurrentWord() (WordPosition, bool) {
	if m.last < 0 || m.last >= len(m.words) {
		return WordPosition{}, false
	}
	return m.words[m.last], true
}

// HighlightRange shows r and scrolls it into view.
func (m *Mapper) HighlightRange(r Range) {
	if m.sink == nil {
		return
	}
	m.sink.SetHighlights([]Range{r})
	m.sink.Reveal(r)
}

// ClearHighlights removes the highlight and resets the cursor.
func (m *Mapper) ClearHighlights() {
	m.last = -1
	if m.sink != nil {
		m.sink.SetHighlights(nil)
	}
}

// SetMode changes the highlight mode. The current highlight is redrawn.
func (m *Mapper) SetMode(mode HighlightMode) {
	m.mode = mode
	if m.last >= 0 && m.last < len(m.words) {
		m.HighlightRange(m.rangeFor(m.last))
	}
}

// Mode returns the highlight mode.
func (m *Mapper) Mode() HighlightMode {
	return m.mode
}

// Words returns a copy of the word table.
func (m *Mapper) Words() []WordPosition {
	return append([]WordPosition(nil), m.words...)
}

// Dispose clears the highlight and detaches the document.
func (m *Mapper) Dispose() {
	m.SetActiveDocument(nil)
}

// rangeFor returns the mode-dependent range for word i.
func (m *Mapper) rangeFor(i int) Range {
	w := m.words[i]
	switch m.mode {
	case ModeLine:
		return m.doc.LineRange(w.Start.Line)
	case ModeSentence:
		start, end := sentenceBounds(m.doc.Text(), w.StartOffset)
		return Range{Start: m.doc.PositionAt(start), End: m.doc.PositionAt(end)}
	default:
		return Range{Start: w.Start, End: w.End}
	}
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// sentenceBounds scans back from offset to just after the previous
// terminator, and forward to the next terminator inclusive.
func sentenceBounds(text string, offset int) (int, int) {
	start := 0
	for i := offset - 1; i >= 0; i-- {
		if isTerminator(text[i]) {
			start = i + 1
			break
		}
	}

	end := len(text)
	for i := offset; i < len(text); i++ {
		if isTerminator(text[i]) {
			end = i + 1
			break
		}
	}
	return start, end
}

func scanWords(doc Document) []WordPosition {
	text := doc.Text()

	var words []WordPosition
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, newWord(doc, text, start, i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, newWord(doc, text, start, len(text)))
	}
	return words
}

func newWord(doc Document, text string, start, end int) WordPosition {
	return WordPosition{
		Text:        text[start:end],
		StartOffset: start,
		EndOffset:   end,
		Start:       doc.PositionAt(start),
		End:         doc.PositionAt(end),
	}
}
