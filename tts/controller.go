// Package tts turns document text into speech and tracks playback. The
// Controller owns generation, the audio cache and a small playback state
// machine; the host forwards reports from its playback surface to it.
package tts

import (
	"bytes"
	"context"
	"math"
	"sync"

	"github.com/lekman/tts-code/internal/cache"
	"github.com/lekman/tts-code/tts/elevenlabs"
)

// DefaultBitrate is the bitrate used to estimate the duration of encoded
// audio. The estimate is not a measurement.
const DefaultBitrate = 128000

// DefaultSkipSeconds is the skip distance used by the host.
const DefaultSkipSeconds = 10

// Synthesizer converts text to encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...elevenlabs.SynthesizeOption) ([]byte, error)
	SynthesizeChunked(ctx context.Context, text string, onProgress elevenlabs.ProgressFunc, opts ...elevenlabs.SynthesizeOption) ([][]byte, error)
}

// SynthesizerFactory builds a Synthesizer for an API key.
type SynthesizerFactory func(apiKey string) Synthesizer

// AudioCache stores generated audio by cache key.
type AudioCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Clear() error
}

// Controller generates audio and tracks playback state. Its methods may be
// called from different goroutines; events are delivered on the calling
// goroutine after the state change is visible.
type Controller struct {
	factory SynthesizerFactory
	cache   AudioCache
	diag    *Diagnostics
	bitrate int

	mu       sync.RWMutex
	synth    Synthesizer
	state    PlaybackState
	position float64
	duration float64
	audio    []byte

	events   emitter
	disposed bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSynthesizerFactory replaces the factory used by Initialize.
func WithSynthesizerFactory(f SynthesizerFactory) ControllerOption {
	return func(c *Controller) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithCache replaces the default 100MB memory cache.
func WithCache(ac AudioCache) ControllerOption {
	return func(c *Controller) {
		if ac != nil {
			c.cache = ac
		}
	}
}

// WithDiagnostics sets the diagnostics used for logging.
func WithDiagnostics(d *Diagnostics) ControllerOption {
	return func(c *Controller) {
		if d != nil {
			c.diag = d
		}
	}
}

// WithBitrate sets the bitrate, in bits per second, used to estimate the
// duration of audio passed to Play.
func WithBitrate(bps int) ControllerOption {
	return func(c *Controller) {
		if bps > 0 {
			c.bitrate = bps
		}
	}
}

// NewController creates a controller in the stopped state. Generation fails
// with ErrNotInitialized until Initialize is called.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		factory: func(apiKey string) Synthesizer { return elevenlabs.New(apiKey) },
		cache:   cache.NewMemoryCache(cache.DefaultMemoryCapacity),
		diag:    NewDiagnosticsFromLogger(nil),
		bitrate: DefaultBitrate,
		state:   StateStopped,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize builds the synthesizer for apiKey. Calling it again replaces the
// synthesizer.
func (c *Controller) Initialize(apiKey string) {
	synth := c.factory(apiKey)

	c.mu.Lock()
	c.synth = synth
	c.mu.Unlock()

	c.diag.For("controller").Debug("Initialized")
}

// Initialized reports whether generation is possible.
func (c *Controller) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.synth != nil
}

func (c *Controller) synthesizer() Synthesizer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.synth
}

func (c *Controller) setAudio(audio []byte) {
	c.mu.Lock()
	c.audio = audio
	c.mu.Unlock()
}

// GenerateAudio returns audio for text in a single request. A cached result
// for cacheKey is returned without a request. An empty voiceID selects the
// synthesizer's default voice.
func (c *Controller) GenerateAudio(ctx context.Context, text, cacheKey, voiceID string) ([]byte, error) {
	synth := c.synthesizer()
	if synth == nil {
		return nil, ErrNotInitialized
	}
	logger := c.diag.For("controller")

	if audio, ok := c.cache.Get(cacheKey); ok {
		logger.Debug("Cache hit", "key", cacheKey, "bytes", len(audio))
		c.setAudio(audio)
		return audio, nil
	}

	done := c.diag.Timed("Generated audio", "chars", len(text), "chunked", false)
	audio, err := synth.Synthesize(ctx, text, elevenlabs.VoiceID(voiceID))
	done(err)
	if err != nil {
		return nil, err
	}

	_ = c.cache.Put(cacheKey, audio)
	c.setAudio(audio)
	return audio, nil
}

// GenerateAudioChunked is GenerateAudio for text of any length. Chunks are
// synthesized in order and concatenated into one buffer before caching.
// onProgress may be nil.
func (c *Controller) GenerateAudioChunked(ctx context.Context, text, cacheKey, voiceID string, onProgress elevenlabs.ProgressFunc) ([]byte, error) {
	synth := c.synthesizer()
	if synth == nil {
		return nil, ErrNotInitialized
	}
	logger := c.diag.For("controller")

	if audio, ok := c.cache.Get(cacheKey); ok {
		logger.Debug("Cache hit", "key", cacheKey, "bytes", len(audio))
		c.setAudio(audio)
		return audio, nil
	}

	done := c.diag.Timed("Generated audio", "chars", len(text), "chunked", true)
	parts, err := synth.SynthesizeChunked(ctx, text, onProgress, elevenlabs.VoiceID(voiceID))
	done(err)
	if err != nil {
		return nil, err
	}

	audio := bytes.Join(parts, nil)
	_ = c.cache.Put(cacheKey, audio)
	c.setAudio(audio)
	return audio, nil
}

// Play starts playback of audio at startPosition seconds and emits a
// PlayEvent carrying the audio for the surface.
func (c *Controller) Play(audio []byte, startPosition float64) {
	c.mu.Lock()
	c.audio = audio
	c.state = StatePlaying
	c.position = startPosition
	c.duration = EstimateDuration(len(audio), c.bitrate)
	ev := PlayEvent{
		Position: c.position,
		Duration: c.duration,
		Audio:    audio,
	}
	c.mu.Unlock()

	c.events.emit(ev)
}

// Pause moves to the paused state.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.state = StatePaused
	ev := PauseEvent{Position: c.position}
	c.mu.Unlock()

	c.events.emit(ev)
}

// Resume moves to the playing state.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.state = StatePlaying
	ev := ResumeEvent{Position: c.position}
	c.mu.Unlock()

	c.events.emit(ev)
}

// Stop moves to the stopped state and resets the position to 0.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.state = StateStopped
	c.position = 0
	c.mu.Unlock()

	c.events.emit(StopEvent{Position: 0})
}

// SkipForward moves the position forward by seconds, clamped to the
// duration.
func (c *Controller) SkipForward(seconds float64) {
	c.seek(func(pos float64) float64 {
		return math.Max(0, math.Min(pos+seconds, c.duration))
	})
}

// SkipBackward moves the position back by seconds, clamped at 0. The
// duration is an estimate, so positions past it are kept.
func (c *Controller) SkipBackward(seconds float64) {
	c.seek(func(pos float64) float64 {
		return math.Max(0, pos-seconds)
	})
}

// seek applies move to the position under the lock.
func (c *Controller) seek(move func(pos float64) float64) {
	c.mu.Lock()
	c.position = move(c.position)
	pos := c.position
	c.mu.Unlock()

	c.events.emit(SeekEvent{Position: pos})
}

// UpdatePosition records a position reported by the surface. The value is
// not validated.
func (c *Controller) UpdatePosition(position float64) {
	c.mu.Lock()
	c.position = position
	c.mu.Unlock()

	c.events.emit(ProgressEvent{Position: position})
}

// Dispose stops playback, clears the cache and drops all subscribers. It is
// safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.mu.Unlock()

	c.Stop()
	_ = c.cache.Clear()
	c.events.close()
	c.diag.For("controller").Debug("Disposed")
}

// Subscribe registers fn for every event and returns a function that
// removes it. Events are delivered synchronously, in call order.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	return c.events.subscribe(fn)
}

// State returns the playback state.
func (c *Controller) State() PlaybackState { return c.Snapshot().State }

// Position returns the playback position in seconds.
func (c *Controller) Position() float64 { return c.Snapshot().Position }

// Duration returns the estimated duration of the current audio in seconds.
func (c *Controller) Duration() float64 { return c.Snapshot().Duration }

// AudioData returns the current audio, or nil.
func (c *Controller) AudioData() []byte { return c.Snapshot().Audio }

// Snapshot returns a copy of the playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		State:    c.state,
		Position: c.position,
		Duration: c.duration,
		Audio:    c.audio,
	}
}

// EstimateDuration returns the playing time in seconds of n encoded bytes at
// bitrate bits per second.
func EstimateDuration(n, bitrate int) float64 {
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}
	return float64(n) * 8 / float64(bitrate)
}
