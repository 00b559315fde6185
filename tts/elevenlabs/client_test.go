package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeAPI records synthesis requests and answers with the request text as
// audio bytes.
type fakeAPI struct {
	mu       sync.Mutex
	texts    []string
	paths    []string
	keys     []string
	failAt   int // 1-based request number that fails, 0 never
	status   int
	response string
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.paths = append(f.paths, r.URL.Path+"?"+r.URL.RawQuery)
		f.keys = append(f.keys, r.Header.Get("xi-api-key"))

		var body synthesizeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		f.texts = append(f.texts, body.Text)

		if f.failAt > 0 && len(f.texts) == f.failAt {
			w.WriteHeader(f.status)
			io.WriteString(w, f.response) //nolint:errcheck
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, body.Text) //nolint:errcheck
	}
}

func newTestClient(t *testing.T, f *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithLogger(log.New(io.Discard)),
	}, opts...)
	return New("sk_test_key_123", opts...)
}

func TestSynthesizeRequest(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f)

	audio, err := c.Synthesize(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "Hello there." {
		t.Errorf("audio = %q", audio)
	}

	wantPath := "/v1/text-to-speech/" + DefaultVoiceID + "?output_format=" + string(DefaultFormat)
	if f.paths[0] != wantPath {
		t.Errorf("path = %q, want %q", f.paths[0], wantPath)
	}
	if f.keys[0] != "sk_test_key_123" {
		t.Errorf("api key header = %q", f.keys[0])
	}
}

func TestSynthesizeOptions(t *testing.T) {
	var got synthesizeBody
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path + "?" + r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.Write([]byte{1, 2, 3})              //nolint:errcheck
	}))
	defer srv.Close()

	c := New("sk_test_key_123", WithBaseURL(srv.URL), WithLogger(log.New(io.Discard)))
	_, err := c.Synthesize(context.Background(), "text",
		VoiceID("voice-x"),
		Model("model-y"),
		OutputFormat(FormatPCM_22050),
		Settings(VoiceSettings{Stability: 0.2, SimilarityBoost: 0.9}),
	)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if path != "/v1/text-to-speech/voice-x?output_format=pcm_22050" {
		t.Errorf("path = %q", path)
	}
	if got.ModelID != "model-y" {
		t.Errorf("model = %q", got.ModelID)
	}
	if got.VoiceSettings.Stability != 0.2 || got.VoiceSettings.SimilarityBoost != 0.9 {
		t.Errorf("voice settings = %+v", got.VoiceSettings)
	}
}

func TestSynthesizeDefaultsBody(t *testing.T) {
	var got synthesizeBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
	}))
	defer srv.Close()

	c := New("sk_test_key_123", WithBaseURL(srv.URL), WithLogger(log.New(io.Discard)))
	if _, err := c.Synthesize(context.Background(), "text"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got.ModelID != DefaultModelID {
		t.Errorf("model = %q, want %q", got.ModelID, DefaultModelID)
	}
	if got.VoiceSettings != DefaultVoiceSettings() {
		t.Errorf("voice settings = %+v", got.VoiceSettings)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		response  string
		wantAuth  bool
		wantLimit bool
		wantMsg   string
	}{
		{
			name:     "unauthorized status",
			status:   http.StatusUnauthorized,
			response: `{"detail":{"status":"invalid_api_key","message":"key rejected"}}`,
			wantAuth: true,
			wantMsg:  "Invalid API key: key rejected",
		},
		{
			name:     "forbidden status",
			status:   http.StatusForbidden,
			response: `{"detail":"forbidden"}`,
			wantAuth: true,
		},
		{
			name:     "auth phrase in message",
			status:   http.StatusBadRequest,
			response: `{"detail":{"message":"Invalid API Key provided"}}`,
			wantAuth: true,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			response:  `{"detail":{"message":"too many requests"}}`,
			wantLimit: true,
			wantMsg:   "Failed to generate speech: too many requests",
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			response: "boom",
			wantMsg:  "Failed to generate speech: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notified error
			f := &fakeAPI{failAt: 1, status: tt.status, response: tt.response}
			c := newTestClient(t, f, WithRateLimitNotifier(func(err error) { notified = err }))

			_, err := c.Synthesize(context.Background(), "Hello.")
			if err == nil {
				t.Fatal("expected error")
			}
			if IsAuthError(err) != tt.wantAuth {
				t.Errorf("IsAuthError() = %v, want %v (%v)", IsAuthError(err), tt.wantAuth, err)
			}
			if IsRateLimited(err) != tt.wantLimit {
				t.Errorf("IsRateLimited() = %v, want %v", IsRateLimited(err), tt.wantLimit)
			}
			if tt.wantLimit && notified == nil {
				t.Error("rate limit notifier was not called")
			}
			if !tt.wantLimit && notified != nil {
				t.Errorf("unexpected rate limit notification: %v", notified)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := New("sk_test_key_123")
	if _, err := c.Synthesize(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("error = %v, want ErrEmptyText", err)
	}
}

func TestSynthesizeMissingKey(t *testing.T) {
	f := &fakeAPI{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := New("", WithBaseURL(srv.URL))
	_, err := c.Synthesize(context.Background(), "Hello.")
	if !IsAuthError(err) {
		t.Errorf("error = %v, want authentication error", err)
	}
	if len(f.texts) != 0 {
		t.Error("request sent without an API key")
	}
}

func TestSynthesizeChunkedSingleRequest(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f, WithMaxChunkSize(100))

	var calls int
	parts, err := c.SynthesizeChunked(context.Background(), "Short text.", func(int, string) { calls++ })
	if err != nil {
		t.Fatalf("SynthesizeChunked() error = %v", err)
	}
	if len(parts) != 1 || len(f.texts) != 1 {
		t.Fatalf("got %d parts from %d requests, want 1 and 1", len(parts), len(f.texts))
	}
	if calls != 0 {
		t.Errorf("progress called %d times for a single request", calls)
	}
}

func TestSynthesizeChunkedOrderAndProgress(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f, WithMaxChunkSize(20))

	text := "First sentence. Second sentence. Third sentence."

	type progress struct {
		percent int
		message string
	}
	var got []progress
	parts, err := c.SynthesizeChunked(context.Background(), text, func(p int, m string) {
		got = append(got, progress{p, m})
	})
	if err != nil {
		t.Fatalf("SynthesizeChunked() error = %v", err)
	}

	wantTexts := []string{"First sentence.", "Second sentence.", "Third sentence."}
	if len(parts) != len(wantTexts) {
		t.Fatalf("got %d parts, want %d", len(parts), len(wantTexts))
	}
	for i, want := range wantTexts {
		if string(parts[i]) != want {
			t.Errorf("part %d = %q, want %q", i, parts[i], want)
		}
	}

	wantProgress := []progress{
		{33, "Processing chunk 1 of 3"},
		{67, "Processing chunk 2 of 3"},
		{100, "Processing chunk 3 of 3"},
	}
	if len(got) != len(wantProgress) {
		t.Fatalf("got %d progress reports, want %d", len(got), len(wantProgress))
	}
	for i := range wantProgress {
		if got[i] != wantProgress[i] {
			t.Errorf("progress %d = %+v, want %+v", i, got[i], wantProgress[i])
		}
	}
}

func TestSynthesizeChunkedFailure(t *testing.T) {
	f := &fakeAPI{failAt: 2, status: http.StatusUnauthorized, response: `{"detail":"bad key"}`}
	c := newTestClient(t, f, WithMaxChunkSize(20))

	parts, err := c.SynthesizeChunked(context.Background(), "First sentence. Second sentence. Third sentence.", nil)
	if parts != nil {
		t.Errorf("partial results returned: %d parts", len(parts))
	}

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("error = %v, want *ChunkError", err)
	}
	if chunkErr.Index != 2 || chunkErr.Total != 3 {
		t.Errorf("chunk error = %d of %d, want 2 of 3", chunkErr.Index, chunkErr.Total)
	}
	if !strings.Contains(err.Error(), "failed to process chunk 2") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsAuthError(err) {
		t.Error("authentication classification lost through ChunkError")
	}
	if len(f.texts) != 2 {
		t.Errorf("%d requests sent, want 2", len(f.texts))
	}
}

func TestSynthesizeChunkedCancel(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f, WithMaxChunkSize(20))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.SynthesizeChunked(ctx, "First sentence. Second sentence. Third sentence.", func(p int, _ string) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(f.texts) != 1 {
		t.Errorf("%d requests sent after cancel, want 1", len(f.texts))
	}
}

func TestVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"voices":[{"voice_id":"a1","name":"Rachel","category":"premade","labels":{"gender":"female","accent":"american"}},{"voice_id":"b2","name":"Adam"}]}`)
	}))
	defer srv.Close()

	c := New("sk_test_key_123", WithBaseURL(srv.URL))
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices() error = %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].ID != "a1" || voices[0].Name != "Rachel" {
		t.Errorf("voice = %+v", voices[0])
	}
	if got := voices[0].LabelString(); got != "accent=american, gender=female" {
		t.Errorf("LabelString() = %q", got)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"accepted", http.StatusOK, true},
		{"rejected", http.StatusUnauthorized, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/user" {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New("sk_test_key_123", WithBaseURL(srv.URL), WithLogger(log.New(io.Discard)))
			ok, err := c.ValidateKey(context.Background())
			if err != nil {
				t.Fatalf("ValidateKey() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("ValidateKey() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestSetDefaultVoiceID(t *testing.T) {
	c := New("sk_test_key_123")
	c.SetDefaultVoiceID("other")
	if c.DefaultVoiceID() != "other" {
		t.Errorf("DefaultVoiceID() = %q", c.DefaultVoiceID())
	}
	c.SetDefaultVoiceID("")
	if c.DefaultVoiceID() != "other" {
		t.Error("empty voice id replaced the default")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		bitrate int
		pcm     bool
	}{
		{"", FormatMP3_44100_128, 128000, false},
		{"mp3_44100_64", FormatMP3_44100_64, 64000, false},
		{"PCM_16000", FormatPCM_16000, 256000, true},
		{"pcm_44100", FormatPCM_44100, 705600, true},
	}
	for _, tt := range tests {
		f, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if f != tt.want || f.Bitrate() != tt.bitrate || f.IsPCM() != tt.pcm {
			t.Errorf("ParseFormat(%q) = %v bitrate %d pcm %v", tt.in, f, f.Bitrate(), f.IsPCM())
		}
	}
	if _, err := ParseFormat("ogg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
