package tts

// SurfaceMessage is a report from the playback surface. The concrete types
// are Ready, Playing, Paused, TimeUpdate, Seeked, Ended, SurfaceError and
// Export.
type SurfaceMessage interface {
	isSurfaceMessage()
}

// Ready indicates the surface can accept audio.
type Ready struct{}

// Playing indicates the surface started or resumed playback.
type Playing struct{}

// Paused indicates the surface paused playback.
type Paused struct{}

// TimeUpdate reports the current playback position in seconds.
type TimeUpdate struct {
	Position float64
}

// Seeked reports the position after a seek in seconds.
type Seeked struct {
	Position float64
}

// Ended indicates the surface reached the end of the audio.
type Ended struct{}

// SurfaceError reports a playback failure.
type SurfaceError struct {
	Message string
}

// Export asks the host to save the current audio.
type Export struct {
	Format string
}

func (Ready) isSurfaceMessage()        {}
func (Playing) isSurfaceMessage()      {}
func (Paused) isSurfaceMessage()       {}
func (TimeUpdate) isSurfaceMessage()   {}
func (Seeked) isSurfaceMessage()       {}
func (Ended) isSurfaceMessage()        {}
func (SurfaceError) isSurfaceMessage() {}
func (Export) isSurfaceMessage()       {}
