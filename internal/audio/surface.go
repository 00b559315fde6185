package audio

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lekman/tts-code/tts"
	"github.com/lekman/tts-code/tts/elevenlabs"
)

// TickInterval is how often a playing surface reports its position.
const TickInterval = 250 * time.Millisecond

// ErrClosed is returned by a surface after Close.
var ErrClosed = errors.New("playback surface is closed")

// Surface plays audio and reports its progress.
type Surface interface {
	// Load starts playing audio at start seconds.
	Load(audio []byte, start float64) error
	Pause() error
	Resume() error
	// Seek moves to position seconds.
	Seek(position float64) error
	// Stop ends playback without reporting Ended.
	Stop() error
	// Messages delivers reports in the order they happened.
	Messages() <-chan tts.SurfaceMessage
	Close() error
}

// New returns a surface for audio in format. PCM is played on the audio
// device when one is available; everything else gets a silent clock paced
// by bitrate.
func New(format elevenlabs.Format, bitrate int, logger *log.Logger) Surface {
	if logger == nil {
		logger = log.Default()
	}
	if format.IsPCM() {
		s, err := NewOtoSurface(format.SampleRate(), logger)
		if err == nil {
			return s
		}
		logger.Warn("Audio device unavailable, playing silently", "err", err)
		bitrate = format.Bitrate()
	}
	return NewClockSurface(bitrate, TickInterval)
}

// reporter owns a surface's message channel.
type reporter struct {
	msgs chan tts.SurfaceMessage
}

func newReporter() reporter {
	r := reporter{msgs: make(chan tts.SurfaceMessage, 64)}
	r.msgs <- tts.Ready{}
	return r
}

// Messages returns the report channel. It is closed by Close.
func (r *reporter) Messages() <-chan tts.SurfaceMessage {
	return r.msgs
}

// emit queues msg. Position reports are dropped once the channel is half
// full so state changes always have room.
func (r *reporter) emit(msg tts.SurfaceMessage) {
	if _, ok := msg.(tts.TimeUpdate); ok && len(r.msgs) >= cap(r.msgs)/2 {
		return
	}
	r.msgs <- msg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
