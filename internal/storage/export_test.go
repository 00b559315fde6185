package storage

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lekman/tts-code/tts/elevenlabs"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		base   string
		format elevenlabs.Format
		prefix string
		ext    string
	}{
		{"/docs/README.md", elevenlabs.FormatMP3_44100_128, "README-", ".mp3"},
		{"notes with spaces.markdown", elevenlabs.FormatPCM_16000, "notes-with-spaces-", ".wav"},
		{"", elevenlabs.DefaultFormat, "speech-", ".mp3"},
		{"...", elevenlabs.DefaultFormat, "speech-", ".mp3"},
	}

	for _, tt := range tests {
		got := FileName(tt.base, tt.format)
		if !strings.HasPrefix(got, tt.prefix) || !strings.HasSuffix(got, tt.ext) {
			t.Errorf("FileName(%q) = %q, want %s...%s", tt.base, got, tt.prefix, tt.ext)
		}
		if len(got) != len(tt.prefix)+8+len(tt.ext) {
			t.Errorf("FileName(%q) = %q, want 8 character suffix", tt.base, got)
		}
	}

	if FileName("a.md", elevenlabs.DefaultFormat) == FileName("a.md", elevenlabs.DefaultFormat) {
		t.Error("file names should be unique")
	}
}

func TestSaveMP3(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e, err := NewExporter(dir)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	path, err := e.Save("doc.md", elevenlabs.FormatMP3_44100_128, []byte("ID3 audio"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("saved to %s, want directory %s", path, dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != "ID3 audio" {
		t.Errorf("file content = %q", b)
	}
}

func TestSavePCMAsWAV(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	pcm := make([]byte, 3200)
	path, err := e.Save("doc.md", elevenlabs.FormatPCM_16000, pcm)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if len(b) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(b), 44+len(pcm))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:16]) != "WAVEfmt " || string(b[36:40]) != "data" {
		t.Errorf("unexpected header %q", b[:44])
	}
	if rate := binary.LittleEndian.Uint32(b[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if size := binary.LittleEndian.Uint32(b[40:44]); size != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", size, len(pcm))
	}
}

func TestSaveEmpty(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if _, err := e.Save("doc.md", elevenlabs.DefaultFormat, nil); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Save() error = %v, want ErrNoAudio", err)
	}
}

func TestNewExporterExpandsHome(t *testing.T) {
	e, err := NewExporter("~/exports")
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if strings.HasPrefix(e.Dir(), "~") {
		t.Errorf("Dir() = %s, want expanded path", e.Dir())
	}
}
