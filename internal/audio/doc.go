// Package audio provides playback surfaces. A surface plays the audio handed
// to it and reports what it is doing as tts.SurfaceMessage values on its
// Messages channel. PCM is played through oto/v3; other formats and builds
// without cgo use a silent clock that keeps time for highlighting.
package audio
