package chunk

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n"} {
		if chunks := Split(input, 100); len(chunks) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", input, chunks)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single sentence",
			input:    "Hello world.",
			expected: []string{"Hello world."},
		},
		{
			name:     "no terminator",
			input:    "  just some words without an ending  ",
			expected: []string{"just some words without an ending"},
		},
		{
			name:     "several sentences fit",
			input:    "One. Two! Three?",
			expected: []string{"One. Two! Three?"},
		},
		{
			name:     "trailing text kept",
			input:    "First. and then more",
			expected: []string{"First. and then more"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.input, 100)
			if len(got) != len(tt.expected) {
				t.Fatalf("Split() returned %d chunks, want %d: %q", len(got), len(tt.expected), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSplitRepeatedSentences(t *testing.T) {
	sentence := "The quick brown fox jumps ok."
	if len(sentence) != 29 {
		t.Fatalf("test sentence has %d characters, want 29", len(sentence))
	}
	text := strings.Repeat(sentence, 150)
	if len(text) != 4350 {
		t.Fatalf("test text has %d characters, want 4350", len(text))
	}

	chunks := Split(text, DefaultMaxChunkSize)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if Len(c) > DefaultMaxChunkSize {
			t.Errorf("chunk %d has %d characters", i, Len(c))
		}
		last := c[len(c)-1]
		if last != '.' && last != '!' && last != '?' {
			t.Errorf("chunk %d ends with %q", i, last)
		}
	}
}

func TestSplitSentenceBoundaries(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."
	chunks := Split(text, 40)

	expected := []string{
		"Alpha beta gamma. Delta epsilon zeta.",
		"Eta theta iota.",
	}
	if len(chunks) != len(expected) {
		t.Fatalf("got %d chunks %q, want %d", len(chunks), chunks, len(expected))
	}
	for i := range expected {
		if chunks[i] != expected[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], expected[i])
		}
	}
}

func TestSplitWordFallback(t *testing.T) {
	// One long sentence without any terminator.
	words := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 24)
	if len(chunks) < 2 {
		t.Fatalf("expected the sentence to be split by words, got %q", chunks)
	}
	for i, c := range chunks {
		if Len(c) > 24 {
			t.Errorf("chunk %d has %d characters: %q", i, Len(c), c)
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d is not trimmed: %q", i, c)
		}
	}
}

func TestSplitOversizedWord(t *testing.T) {
	long := strings.Repeat("x", 30)
	text := "tiny " + long + " end"

	chunks := Split(text, 10)
	found := false
	for _, c := range chunks {
		if c == long {
			found = true
		}
		if c != long && Len(c) > 10 {
			t.Errorf("chunk %q exceeds the limit", c)
		}
	}
	if !found {
		t.Errorf("expected oversized word as its own chunk, got %q", chunks)
	}
}

func TestSplitCountsCharactersNotBytes(t *testing.T) {
	// Each "é" is two bytes but one character.
	text := strings.Repeat("é", 10) + "."
	chunks := Split(text, 11)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(chunks), chunks)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	inputs := []string{
		"Short. Text here! Is it fine? Yes.",
		strings.Repeat("A sentence of moderate length goes here. ", 40),
		strings.Repeat("unterminated words keep flowing ", 30) + "and finally end.",
		"Mixed case. " + strings.Repeat("z", 50) + " trailing words",
	}

	for _, input := range inputs {
		chunks := Split(input, 64)
		for _, c := range chunks {
			if strings.TrimSpace(c) == "" {
				t.Errorf("empty chunk in %q", chunks)
			}
		}

		got := strings.Fields(strings.Join(chunks, " "))
		want := strings.Fields(input)
		if len(got) != len(want) {
			t.Fatalf("round trip lost words: got %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("word %d = %q, want %q", i, got[i], want[i])
				break
			}
		}
	}
}

func TestSentencesConcatenation(t *testing.T) {
	inputs := []string{
		"One. Two!! Three?! four",
		"...leading dots. Then text",
		"no terminators at all",
	}
	for _, input := range inputs {
		if got := strings.Join(Sentences(input), ""); got != input {
			t.Errorf("Sentences(%q) joined = %q", input, got)
		}
	}
}

func TestSplitterDefaults(t *testing.T) {
	s := New(0)
	if s.MaxChunkSize != DefaultMaxChunkSize {
		t.Errorf("MaxChunkSize = %d, want %d", s.MaxChunkSize, DefaultMaxChunkSize)
	}
	if !s.Fits("short") {
		t.Error("short text should fit")
	}
	if s.Count("One. Two.") != 1 {
		t.Errorf("Count = %d, want 1", s.Count("One. Two."))
	}
}
