// Package chunk splits long text into request-sized pieces for speech
// synthesis. Chunks end on sentence boundaries when possible, fall back to
// word boundaries inside an oversized sentence, and only exceed the limit when
// a single word is longer than the limit on its own.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the number of characters accepted per synthesis request.
const DefaultMaxChunkSize = 4000

// A sentence is any run of non-terminators followed by one or more terminators.
var sentenceRegex = regexp.MustCompile(`[^.!?]*[.!?]+`)

// Splitter splits text with a fixed maximum chunk size.
type Splitter struct {
	MaxChunkSize int
}

// New returns a Splitter. Non-positive sizes select DefaultMaxChunkSize.
func New(maxChunkSize int) Splitter {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return Splitter{MaxChunkSize: maxChunkSize}
}

// Split splits text into chunks of at most s.MaxChunkSize characters.
func (s Splitter) Split(text string) []string {
	return Split(text, s.MaxChunkSize)
}

// Count returns the number of chunks Split would produce.
func (s Splitter) Count(text string) int {
	return len(s.Split(text))
}

// Fits reports whether text can be sent as a single request.
func (s Splitter) Fits(text string) bool {
	return Len(text) <= s.MaxChunkSize
}

// Split splits text into trimmed, non-empty chunks of at most maxChunkSize
// characters. Empty or blank input yields no chunks.
func Split(text string, maxChunkSize int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	var (
		chunks     []string
		current    strings.Builder
		currentLen int
	)

	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			chunks = append(chunks, t)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range Sentences(text) {
		n := Len(sentence)
		if currentLen+n <= maxChunkSize {
			current.WriteString(sentence)
			currentLen += n
			continue
		}

		flush()

		if n <= maxChunkSize {
			current.WriteString(sentence)
			currentLen = n
			continue
		}

		// The sentence alone is too long: pack its words instead.
		var (
			words    strings.Builder
			wordsLen int
		)
		for _, word := range strings.Fields(sentence) {
			wl := Len(word)
			if wordsLen > 0 && wordsLen+wl+1 > maxChunkSize {
				chunks = append(chunks, words.String())
				words.Reset()
				wordsLen = 0
			}
			if wordsLen > 0 {
				words.WriteByte(' ')
				wordsLen++
			}
			words.WriteString(word)
			wordsLen += wl
		}

		// Leftover words stay open so following sentences can join them.
		current.WriteString(words.String())
		currentLen = wordsLen
	}

	flush()
	return chunks
}

// Sentences splits text at runs of sentence terminators. The returned pieces
// concatenate back to text exactly; trailing text without a terminator is the
// last piece.
func Sentences(text string) []string {
	matches := sentenceRegex.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	sentences := make([]string, 0, len(matches)+1)
	end := 0
	for _, m := range matches {
		sentences = append(sentences, text[m[0]:m[1]])
		end = m[1]
	}
	if end < len(text) {
		sentences = append(sentences, text[end:])
	}
	return sentences
}

// Len returns the length of s in characters.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}
