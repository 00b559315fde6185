// Package storage writes generated audio to user-visible files.
package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"

	"github.com/lekman/tts-code/tts/elevenlabs"
)

// ErrNoAudio is returned when there is nothing to export.
var ErrNoAudio = errors.New("no audio to export")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Exporter saves audio files into a directory.
type Exporter struct {
	dir string
}

// NewExporter returns an exporter writing into dir. A leading ~ is expanded.
func NewExporter(dir string) (*Exporter, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to expand export directory: %w", err)
	}
	return &Exporter{dir: expanded}, nil
}

// DefaultExportDir returns the exports directory inside the user data
// directory.
func DefaultExportDir(app string) (string, error) {
	scope := gap.NewScope(gap.User, app)
	p, err := scope.DataPath("exports")
	if err != nil {
		return "", fmt.Errorf("unable to find data directory: %w", err)
	}
	return p, nil
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// FileName returns the name used for audio exported from the document
// named base.
func FileName(base string, format elevenlabs.Format) string {
	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "speech"
	}
	ext := ".mp3"
	if format.IsPCM() {
		ext = ".wav"
	}
	return base + "-" + uuid.NewString()[:8] + ext
}

// Save writes audio in the given format and returns the file path. PCM is
// written as a WAV file.
func (e *Exporter) Save(base string, format elevenlabs.Format, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil { //nolint:gosec
		return "", fmt.Errorf("unable to create export directory: %w", err)
	}

	data := audio
	if format.IsPCM() {
		data = WAV(audio, format.SampleRate(), 1)
	}

	path := filepath.Join(e.dir, FileName(base, format))
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return "", fmt.Errorf("unable to write audio file: %w", err)
	}
	return path, nil
}

// WAV wraps signed 16-bit little-endian PCM samples in a RIFF header.
func WAV(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm))) //nolint:gosec
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))              //nolint:gosec
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))            //nolint:gosec
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign)) //nolint:gosec
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))            //nolint:gosec
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm))) //nolint:gosec
	buf.Write(pcm)
	return buf.Bytes()
}
