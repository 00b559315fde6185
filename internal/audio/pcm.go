package audio

import (
	"bytes"
	"io"
	"sync"
)

// bytesPerFrame is the size of one mono signed 16-bit sample.
const bytesPerFrame = 2

// pcmSource is a seekable PCM stream that reports how far it has been read.
// It is read by the audio driver while the surface seeks and queries it.
type pcmSource struct {
	mu         sync.Mutex
	data       []byte
	r          *bytes.Reader
	sampleRate int
}

func newPCMSource(data []byte, sampleRate int) *pcmSource {
	data = data[:len(data)-len(data)%bytesPerFrame]
	return &pcmSource{
		data:       data,
		r:          bytes.NewReader(data),
		sampleRate: sampleRate,
	}
}

func (s *pcmSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Read(p)
}

func (s *pcmSource) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Seek(offset, whence)
}

// Offset returns the number of bytes read so far.
func (s *pcmSource) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Size() - int64(s.r.Len())
}

// Duration returns the length of the stream in seconds.
func (s *pcmSource) Duration() float64 {
	return s.seconds(int64(len(s.data)))
}

func (s *pcmSource) seconds(n int64) float64 {
	return float64(n) / float64(bytesPerFrame*s.sampleRate)
}

// byteOffset returns the frame-aligned offset of position seconds.
func (s *pcmSource) byteOffset(position float64) int64 {
	frames := int64(clamp(position, 0, s.Duration()) * float64(s.sampleRate))
	return frames * bytesPerFrame
}

var _ io.ReadSeeker = (*pcmSource)(nil)
