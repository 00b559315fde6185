package tts

import (
	"context"
	"errors"
	"strings"

	"github.com/lekman/tts-code/tts/elevenlabs"
	ttssync "github.com/lekman/tts-code/tts/sync"
)

// SpeakRequest describes text to generate and play.
type SpeakRequest struct {
	URI           string // document identifier used in the cache key
	Text          string // plain text to speak; highlighting uses the same text
	Selection     bool   // text is a selection rather than the whole document
	VoiceID       string // empty selects the default voice
	StartPosition float64
}

// CacheKey returns the cache key of the request.
func (r SpeakRequest) CacheKey() string {
	if r.Selection {
		return SelectionCacheKey(r.URI, r.Text)
	}
	return CacheKey(r.URI, r.Text)
}

// Session connects a Controller to a Mapper and routes reports from the
// playback surface to both.
type Session struct {
	controller *Controller
	mapper     *ttssync.Mapper
	diag       *Diagnostics

	// OnExport is called for Export messages. It may be nil.
	OnExport func(format string, audio []byte) error
	// OnError is called with a user-facing message for SurfaceError
	// messages. It may be nil.
	OnError func(message string)
}

// NewSession returns a session. d may be nil.
func NewSession(c *Controller, m *ttssync.Mapper, d *Diagnostics) *Session {
	if d == nil {
		d = NewDiagnosticsFromLogger(nil)
	}
	return &Session{controller: c, mapper: m, diag: d}
}

// Controller returns the session's controller.
func (s *Session) Controller() *Controller { return s.controller }

// Mapper returns the session's mapper.
func (s *Session) Mapper() *ttssync.Mapper { return s.mapper }

// Generate returns audio for the request, from the cache when possible.
// Blank text fails with ErrEmptyDocument before anything is sent.
func (s *Session) Generate(ctx context.Context, req SpeakRequest, onProgress elevenlabs.ProgressFunc) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyDocument
	}
	audio, err := s.controller.GenerateAudioChunked(ctx, req.Text, req.CacheKey(), req.VoiceID, onProgress)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, s.diag.HandleError(err, "Failed to generate speech")
	}
	return audio, nil
}

// Start makes doc the highlighted document and starts playing audio.
func (s *Session) Start(doc ttssync.Document, audio []byte, startPosition float64) {
	s.mapper.SetActiveDocument(doc)
	s.controller.Play(audio, startPosition)
}

// Speak generates audio for the request and starts playback with the
// request text as the highlighted document.
func (s *Session) Speak(ctx context.Context, req SpeakRequest, onProgress elevenlabs.ProgressFunc) error {
	audio, err := s.Generate(ctx, req, onProgress)
	if err != nil {
		return err
	}
	s.Start(ttssync.NewTextDocument(req.URI, req.Text), audio, req.StartPosition)
	return nil
}

// HandleSurfaceMessage applies a report from the playback surface.
func (s *Session) HandleSurfaceMessage(msg SurfaceMessage) error {
	switch m := msg.(type) {
	case Ready:
		s.diag.Logger().Debug("Playback surface ready")
	case Playing:
		s.controller.Resume()
	case Paused:
		s.controller.Pause()
	case TimeUpdate:
		s.track(m.Position)
	case Seeked:
		s.track(m.Position)
	case Ended:
		s.controller.Stop()
		s.mapper.ClearHighlights()
	case SurfaceError:
		s.diag.Logger().Error("Playback failed", "message", m.Message)
		if s.OnError != nil {
			s.OnError(m.Message)
		}
	case Export:
		audio := s.controller.AudioData()
		if len(audio) == 0 {
			return ErrNoAudio
		}
		if s.OnExport != nil {
			return s.OnExport(m.Format, audio)
		}
	}
	return nil
}

func (s *Session) track(position float64) {
	s.controller.UpdatePosition(position)
	if d := s.controller.Duration(); d > 0 {
		s.mapper.HighlightAtTimestamp(position, d)
	}
}

// Dispose releases the controller, the mapper and the diagnostics.
func (s *Session) Dispose() {
	s.controller.Dispose()
	s.mapper.Dispose()
	s.diag.Dispose()
}
