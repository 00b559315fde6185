package ui

import ttssync "github.com/lekman/tts-code/tts/sync"

// Config contains TUI-specific configuration.
type Config struct {
	// Path of the source document. Empty when the text came from the
	// clipboard or stdin; the file is then not watched.
	Path string
	// URI identifies the document in cache keys.
	URI string
	// Note is shown in the status bar.
	Note string
	// Text is the plain text that is spoken and displayed.
	Text string
	// Selection marks Text as part of the document.
	Selection bool

	VoiceID           string
	IncludeCodeBlocks bool
	SkipSeconds       float64
	HighlightColor    string
	HighlightMode     ttssync.HighlightMode
	EnableMouse       bool

	AutoPlay bool `env:"TTS_CODE_AUTOPLAY" envDefault:"true"`
	Watch    bool `env:"TTS_CODE_WATCH"    envDefault:"true"`
}
