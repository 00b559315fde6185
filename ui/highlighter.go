package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	ttssync "github.com/lekman/tts-code/tts/sync"
)

// highlighter is the reader's decoration sink. The mapper calls it from the
// update loop and the pager renders from it afterwards.
type highlighter struct {
	style  lipgloss.Style
	ranges []ttssync.Range
	reveal ttssync.Range

	// dirty is set when the content must be rendered again.
	dirty bool
	// revealPending is set until the pager has scrolled to reveal.
	revealPending bool
}

func newHighlighter(style lipgloss.Style) *highlighter {
	return &highlighter{style: style}
}

// SetHighlights implements sync.DecorationSink.
func (h *highlighter) SetHighlights(ranges []ttssync.Range) {
	h.ranges = append(h.ranges[:0], ranges...)
	sort.Slice(h.ranges, func(i, j int) bool {
		return h.ranges[i].Start.Before(h.ranges[j].Start)
	})
	if len(h.ranges) == 0 {
		h.revealPending = false
	}
	h.dirty = true
}

// Reveal implements sync.DecorationSink.
func (h *highlighter) Reveal(r ttssync.Range) {
	h.reveal = r
	h.revealPending = true
	h.dirty = true
}

// Highlighted returns the highlighted text of doc.
func (h *highlighter) Highlighted(doc *ttssync.TextDocument) string {
	if doc == nil {
		return ""
	}
	parts := make([]string, 0, len(h.ranges))
	for _, r := range h.ranges {
		parts = append(parts, doc.Text()[doc.OffsetAt(r.Start):doc.OffsetAt(r.End)])
	}
	return strings.Join(parts, " ")
}

// render returns doc wrapped at width with the highlights applied, and the
// wrapped row on which a pending reveal starts, or -1.
func (h *highlighter) render(doc *ttssync.TextDocument, width int) (string, int) {
	h.dirty = false
	if doc == nil {
		return "", -1
	}

	lines := markLines(doc, h.ranges, func(s string) string { return h.style.Render(s) })

	var b strings.Builder
	revealRow, row := -1, 0
	for i, line := range lines {
		if h.revealPending && i == h.reveal.Start.Line {
			plain := doc.Line(i)
			col := min(h.reveal.Start.Character, len(plain))
			revealRow = row + strings.Count(wrapLine(plain[:col], width), "\n")
		}
		wrapped := wrapLine(line, width)
		row += strings.Count(wrapped, "\n") + 1

		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(wrapped)
	}
	return b.String(), revealRow
}

// markLines splits doc into lines and passes the highlighted part of each
// through mark. ranges must be sorted and must not overlap.
func markLines(doc *ttssync.TextDocument, ranges []ttssync.Range, mark func(string) string) []string {
	lines := make([]string, doc.LineCount())
	for i := range lines {
		line := doc.Line(i)

		var b strings.Builder
		pos := 0
		for _, r := range ranges {
			start, end, ok := lineSpan(r, i, len(line))
			if !ok || start < pos {
				continue
			}
			b.WriteString(line[pos:start])
			b.WriteString(mark(line[start:end]))
			pos = end
		}
		b.WriteString(line[pos:])
		lines[i] = b.String()
	}
	return lines
}

// lineSpan returns the byte columns of r on line.
func lineSpan(r ttssync.Range, line, length int) (int, int, bool) {
	if line < r.Start.Line || line > r.End.Line {
		return 0, 0, false
	}
	start, end := 0, length
	if line == r.Start.Line {
		start = min(r.Start.Character, length)
	}
	if line == r.End.Line {
		end = min(r.End.Character, length)
	}
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

func wrapLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}
