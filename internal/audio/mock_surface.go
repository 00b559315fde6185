package audio

import (
	"sync"

	"github.com/lekman/tts-code/tts"
)

// MockSurface records calls and reports like a real surface, but only moves
// when Advance is called.
type MockSurface struct {
	reporter

	mu       sync.Mutex
	bitrate  int
	state    tts.PlaybackState
	audio    []byte
	position float64
	duration float64
	closed   bool

	// Calls lists the method names in call order.
	Calls []string
	// LoadErr is returned by the next Load.
	LoadErr error
}

// NewMockSurface returns a mock surface that estimates durations at bitrate.
func NewMockSurface(bitrate int) *MockSurface {
	return &MockSurface{reporter: newReporter(), bitrate: bitrate}
}

func (m *MockSurface) record(call string) bool {
	m.Calls = append(m.Calls, call)
	return !m.closed
}

// Load implements Surface.
func (m *MockSurface) Load(audio []byte, start float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.record("Load") {
		return ErrClosed
	}
	if err := m.LoadErr; err != nil {
		m.LoadErr = nil
		return err
	}
	m.audio = audio
	m.duration = tts.EstimateDuration(len(audio), m.bitrate)
	m.position = clamp(start, 0, m.duration)
	m.state = tts.StatePlaying
	m.emit(tts.Playing{})
	return nil
}

// Pause implements Surface.
func (m *MockSurface) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.record("Pause") {
		return ErrClosed
	}
	if m.state == tts.StatePlaying {
		m.state = tts.StatePaused
		m.emit(tts.Paused{})
	}
	return nil
}

// Resume implements Surface.
func (m *MockSurface) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.record("Resume") {
		return ErrClosed
	}
	if m.state == tts.StatePaused {
		m.state = tts.StatePlaying
		m.emit(tts.Playing{})
	}
	return nil
}

// Seek implements Surface.
func (m *MockSurface) Seek(position float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.record("Seek") {
		return ErrClosed
	}
	if m.state != tts.StateStopped {
		m.position = clamp(position, 0, m.duration)
		m.emit(tts.Seeked{Position: m.position})
	}
	return nil
}

// Stop implements Surface.
func (m *MockSurface) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.record("Stop") {
		return ErrClosed
	}
	m.state = tts.StateStopped
	m.position = 0
	return nil
}

// Close implements Surface.
func (m *MockSurface) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Close")
	if !m.closed {
		m.closed = true
		close(m.msgs)
	}
	return nil
}

// Advance moves a playing surface forward by seconds and reports the new
// position, or Ended once the audio is used up.
func (m *MockSurface) Advance(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.state != tts.StatePlaying {
		return
	}
	m.position += seconds
	if m.position >= m.duration {
		m.state = tts.StateStopped
		m.position = 0
		m.emit(tts.Ended{})
		return
	}
	m.emit(tts.TimeUpdate{Position: m.position})
}

// Fail reports a playback error.
func (m *MockSurface) Fail(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.state = tts.StateStopped
		m.emit(tts.SurfaceError{Message: message})
	}
}

// State returns the surface's playback state.
func (m *MockSurface) State() tts.PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Audio returns the audio passed to the last Load.
func (m *MockSurface) Audio() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audio
}
