package audio

import (
	"sync"
	"time"

	"github.com/lekman/tts-code/tts"
)

// ClockSurface plays nothing. It keeps wall-clock time over the estimated
// duration of the audio so highlighting can follow along.
type ClockSurface struct {
	reporter
	bitrate  int
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	state    tts.PlaybackState
	duration float64
	offset   float64
	started  time.Time
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewClockSurface returns a clock for audio encoded at bitrate bits per
// second that reports every interval.
func NewClockSurface(bitrate int, interval time.Duration) *ClockSurface {
	if interval <= 0 {
		interval = TickInterval
	}
	s := &ClockSurface{
		reporter: newReporter(),
		bitrate:  bitrate,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *ClockSurface) run() {
	defer s.wg.Done()

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.tick()
		}
	}
}

func (s *ClockSurface) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != tts.StatePlaying {
		return
	}
	pos := s.position()
	if pos >= s.duration {
		s.state = tts.StateStopped
		s.offset = 0
		s.emit(tts.Ended{})
		return
	}
	s.emit(tts.TimeUpdate{Position: pos})
}

// position must be called with mu held.
func (s *ClockSurface) position() float64 {
	if s.state != tts.StatePlaying {
		return s.offset
	}
	return clamp(s.offset+s.now().Sub(s.started).Seconds(), 0, s.duration)
}

// Position returns the current position in seconds.
func (s *ClockSurface) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position()
}

// Load implements Surface.
func (s *ClockSurface) Load(audio []byte, start float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.duration = tts.EstimateDuration(len(audio), s.bitrate)
	s.offset = clamp(start, 0, s.duration)
	s.started = s.now()
	s.state = tts.StatePlaying
	s.emit(tts.Playing{})
	return nil
}

// Pause implements Surface.
func (s *ClockSurface) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != tts.StatePlaying {
		return nil
	}
	s.offset = s.position()
	s.state = tts.StatePaused
	s.emit(tts.Paused{})
	return nil
}

// Resume implements Surface.
func (s *ClockSurface) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != tts.StatePaused {
		return nil
	}
	s.started = s.now()
	s.state = tts.StatePlaying
	s.emit(tts.Playing{})
	return nil
}

// Seek implements Surface.
func (s *ClockSurface) Seek(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state == tts.StateStopped {
		return nil
	}
	s.offset = clamp(position, 0, s.duration)
	s.started = s.now()
	s.emit(tts.Seeked{Position: s.offset})
	return nil
}

// Stop implements Surface.
func (s *ClockSurface) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.state = tts.StateStopped
	s.offset = 0
	return nil
}

// Close stops the clock and closes the message channel. It is safe to call
// more than once.
func (s *ClockSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = tts.StateStopped
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	close(s.msgs)
	return nil
}
