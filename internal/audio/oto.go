//go:build !nocgo
// +build !nocgo

package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/lekman/tts-code/tts"
)

// Only one oto context may exist per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func otoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   100 * time.Millisecond,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx, otoRate = ctx, sampleRate
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio device already opened at %d Hz, cannot play %d Hz", otoRate, sampleRate)
	}
	return otoCtx, nil
}

// OtoSurface plays mono 16-bit PCM on the default audio device.
type OtoSurface struct {
	reporter
	ctx        *oto.Context
	sampleRate int
	logger     *log.Logger

	mu     sync.Mutex
	player *oto.Player
	source *pcmSource
	state  tts.PlaybackState
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewOtoSurface opens the audio device at sampleRate.
func NewOtoSurface(sampleRate int, logger *log.Logger) (*OtoSurface, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	ctx, err := otoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &OtoSurface{
		reporter:   newReporter(),
		ctx:        ctx,
		sampleRate: sampleRate,
		logger:     logger.WithPrefix("audio"),
		done:       make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *OtoSurface) run() {
	defer s.wg.Done()

	t := time.NewTicker(TickInterval)
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

func (s *OtoSurface) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != tts.StatePlaying || s.player == nil {
		return
	}
	if err := s.player.Err(); err != nil {
		s.logger.Error("Playback failed", "err", err)
		s.release()
		s.emit(tts.SurfaceError{Message: err.Error()})
		return
	}
	if !s.player.IsPlaying() {
		s.release()
		s.emit(tts.Ended{})
		return
	}
	s.emit(tts.TimeUpdate{Position: s.position()})
}

// position must be called with mu held.
func (s *OtoSurface) position() float64 {
	if s.source == nil {
		return 0
	}
	played := s.source.Offset()
	if s.player != nil {
		played -= int64(s.player.BufferedSize())
	}
	if played < 0 {
		played = 0
	}
	return s.source.seconds(played)
}

// release closes the player. It must be called with mu held.
func (s *OtoSurface) release() {
	if s.player != nil {
		s.player.Pause()
		if err := s.player.Close(); err != nil {
			s.logger.Debug("Closing player", "err", err)
		}
		s.player = nil
	}
	s.source = nil
	s.state = tts.StateStopped
}

// Load implements Surface.
func (s *OtoSurface) Load(audio []byte, start float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.release()

	src := newPCMSource(audio, s.sampleRate)
	if _, err := src.Seek(src.byteOffset(start), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek audio: %w", err)
	}

	s.source = src
	s.player = s.ctx.NewPlayer(src)
	s.player.Play()
	s.state = tts.StatePlaying
	s.logger.Debug("Playing", "seconds", src.Duration(), "start", start)
	s.emit(tts.Playing{})
	return nil
}

// Pause implements Surface.
func (s *OtoSurface) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != tts.StatePlaying {
		return nil
	}
	s.player.Pause()
	s.state = tts.StatePaused
	s.emit(tts.Paused{})
	return nil
}

// Resume implements Surface.
func (s *OtoSurface) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != tts.StatePaused {
		return nil
	}
	s.player.Play()
	s.state = tts.StatePlaying
	s.emit(tts.Playing{})
	return nil
}

// Seek implements Surface.
func (s *OtoSurface) Seek(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.player == nil {
		return nil
	}
	offset := s.source.byteOffset(position)
	if _, err := s.player.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek audio: %w", err)
	}
	s.emit(tts.Seeked{Position: s.source.seconds(offset)})
	return nil
}

// Stop implements Surface.
func (s *OtoSurface) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.release()
	return nil
}

// Close stops playback and closes the message channel. The audio device
// stays open for later surfaces.
func (s *OtoSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.release()
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	close(s.msgs)
	return nil
}
