package tts

import "math"

// PlaybackState is the state of the playback state machine.
type PlaybackState int

const (
	// StateStopped indicates nothing is playing and the position is 0.
	StateStopped PlaybackState = iota
	// StatePaused indicates playback is paused at the current position.
	StatePaused
	// StatePlaying indicates the surface is playing audio.
	StatePlaying
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the controller's playback state.
type Snapshot struct {
	State    PlaybackState
	Position float64 // seconds
	Duration float64 // seconds, estimated from the encoded size
	Audio    []byte
}

// IsActive returns true if audio is playing or paused.
func (s Snapshot) IsActive() bool {
	return s.State == StatePlaying || s.State == StatePaused
}

// Progress returns the position as a fraction of the duration in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := s.Position / s.Duration
	switch {
	case p < 0 || math.IsNaN(p):
		return 0
	case p > 1:
		return 1
	}
	return p
}
