package elevenlabs

import (
	"fmt"
	"strings"
)

// Format is an output format accepted by the text-to-speech endpoint.
type Format string

// Supported output formats.
const (
	FormatMP3_44100_128 Format = "mp3_44100_128"
	FormatMP3_44100_96  Format = "mp3_44100_96"
	FormatMP3_44100_64  Format = "mp3_44100_64"
	FormatPCM_16000     Format = "pcm_16000"
	FormatPCM_22050     Format = "pcm_22050"
	FormatPCM_24000     Format = "pcm_24000"
	FormatPCM_44100     Format = "pcm_44100"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatMP3_44100_128

// Formats lists every supported format.
func Formats() []Format {
	return []Format{
		FormatMP3_44100_128,
		FormatMP3_44100_96,
		FormatMP3_44100_64,
		FormatPCM_16000,
		FormatPCM_22050,
		FormatPCM_24000,
		FormatPCM_44100,
	}
}

// ParseFormat parses a format name such as "mp3_44100_128".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return DefaultFormat, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}

// IsPCM reports whether f is raw signed 16-bit little-endian mono PCM.
func (f Format) IsPCM() bool {
	return strings.HasPrefix(string(f), "pcm_")
}

// SampleRate returns the sample rate in Hz.
func (f Format) SampleRate() int {
	switch f {
	case FormatPCM_16000:
		return 16000
	case FormatPCM_22050:
		return 22050
	case FormatPCM_24000:
		return 24000
	default:
		return 44100
	}
}

// Bitrate returns the nominal bits per second of the encoded stream.
func (f Format) Bitrate() int {
	switch f {
	case FormatMP3_44100_128:
		return 128000
	case FormatMP3_44100_96:
		return 96000
	case FormatMP3_44100_64:
		return 64000
	}
	if f.IsPCM() {
		// 16-bit mono
		return f.SampleRate() * 16
	}
	return 128000
}

// Extension returns the file extension used when exporting audio.
func (f Format) Extension() string {
	if f.IsPCM() {
		return ".pcm"
	}
	return ".mp3"
}
