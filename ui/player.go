package ui

import (
	"github.com/lekman/tts-code/internal/audio"
	"github.com/lekman/tts-code/tts"
)

// drive applies a controller event to the playback surface. Surfaces ignore
// requests that do not change their state, so the reports they send back
// settle after one round.
func drive(s audio.Surface, ev tts.Event) error {
	switch e := ev.(type) {
	case tts.PlayEvent:
		return s.Load(e.Audio, e.Position)
	case tts.PauseEvent:
		return s.Pause()
	case tts.ResumeEvent:
		return s.Resume()
	case tts.SeekEvent:
		return s.Seek(e.Position)
	case tts.StopEvent:
		return s.Stop()
	case tts.ProgressEvent:
		// Reported by the surface itself.
	}
	return nil
}
