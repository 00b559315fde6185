package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lekman/tts-code/internal/cache"
	"github.com/lekman/tts-code/tts/elevenlabs"
)

// fakeSynth records synthesis calls and returns canned audio.
type fakeSynth struct {
	mu      sync.Mutex
	apiKey  string
	single  int
	chunked int
	texts   []string
	parts   [][]byte
	err     error
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ ...elevenlabs.SynthesizeOption) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.single++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return bytes.Join(f.parts, nil), nil
}

func (f *fakeSynth) SynthesizeChunked(_ context.Context, text string, onProgress elevenlabs.ProgressFunc, _ ...elevenlabs.SynthesizeOption) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.chunked++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.parts {
		if onProgress != nil {
			onProgress((i+1)*100/len(f.parts), fmt.Sprintf("Processing chunk %d of %d", i+1, len(f.parts)))
		}
	}
	return f.parts, nil
}

func (f *fakeSynth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.single + f.chunked
}

func newTestController(t *testing.T, synth *fakeSynth, opts ...ControllerOption) *Controller {
	t.Helper()
	opts = append([]ControllerOption{
		WithSynthesizerFactory(func(apiKey string) Synthesizer {
			synth.apiKey = apiKey
			return synth
		}),
	}, opts...)
	c := NewController(opts...)
	c.Initialize("sk_test_key")
	return c
}

func recordEvents(c *Controller) *[]Event {
	var events []Event
	c.Subscribe(func(ev Event) { events = append(events, ev) })
	return &events
}

func TestControllerNotInitialized(t *testing.T) {
	c := NewController()
	if c.Initialized() {
		t.Fatal("new controller should not be initialized")
	}

	if _, err := c.GenerateAudio(context.Background(), "hello", "k", ""); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GenerateAudio() error = %v, want ErrNotInitialized", err)
	}
	if _, err := c.GenerateAudioChunked(context.Background(), "hello", "k", "", nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GenerateAudioChunked() error = %v, want ErrNotInitialized", err)
	}
}

func TestControllerInitializeUsesFactory(t *testing.T) {
	synth := &fakeSynth{parts: [][]byte{[]byte("a")}}
	c := newTestController(t, synth)

	if !c.Initialized() {
		t.Fatal("controller should be initialized")
	}
	if synth.apiKey != "sk_test_key" {
		t.Errorf("factory got key %q, want sk_test_key", synth.apiKey)
	}
}

func TestGenerateAudioCachesResult(t *testing.T) {
	synth := &fakeSynth{parts: [][]byte{[]byte("audio")}}
	c := newTestController(t, synth)
	ctx := context.Background()

	first, err := c.GenerateAudio(ctx, "Hello world.", "doc_1", "")
	if err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}
	second, err := c.GenerateAudio(ctx, "Hello world.", "doc_1", "")
	if err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("cached audio = %q, want %q", second, first)
	}
	if synth.calls() != 1 {
		t.Errorf("synthesis calls = %d, want 1", synth.calls())
	}
	if !bytes.Equal(c.AudioData(), first) {
		t.Error("current audio should be set after generation")
	}
}

func TestGenerateAudioChunkedSingleSequence(t *testing.T) {
	parts := [][]byte{[]byte("one-"), []byte("two-"), []byte("three")}
	synth := &fakeSynth{parts: parts}
	c := newTestController(t, synth)
	ctx := context.Background()

	var progress []int
	onProgress := func(p int, _ string) { progress = append(progress, p) }

	for i := 0; i < 2; i++ {
		audio, err := c.GenerateAudioChunked(ctx, "long text", "doc_chunked", "", onProgress)
		if err != nil {
			t.Fatalf("GenerateAudioChunked() #%d error = %v", i+1, err)
		}
		if string(audio) != "one-two-three" {
			t.Errorf("audio = %q, want concatenation of chunks", audio)
		}
	}

	if synth.chunked != 1 {
		t.Errorf("chunked calls = %d, want 1", synth.chunked)
	}
	if len(progress) != 3 || progress[2] != 100 {
		t.Errorf("progress = %v, want three reports ending at 100", progress)
	}
}

func TestGenerateAudioErrorNotCached(t *testing.T) {
	synth := &fakeSynth{err: &elevenlabs.AuthenticationError{StatusCode: 401, Message: "bad key"}}
	mem := cache.NewMemoryCache(1024)
	c := newTestController(t, synth, WithCache(mem))

	_, err := c.GenerateAudioChunked(context.Background(), "text", "k", "", nil)
	if !elevenlabs.IsAuthError(err) {
		t.Fatalf("error = %v, want authentication error", err)
	}
	if mem.Contains("k") {
		t.Error("failed generation should not be cached")
	}
	if c.AudioData() != nil {
		t.Error("failed generation should not set audio")
	}
}

func TestGenerateAudioOversizedStillReturned(t *testing.T) {
	big := bytes.Repeat([]byte{1}, 2048)
	synth := &fakeSynth{parts: [][]byte{big}}
	mem := cache.NewMemoryCache(1024)
	c := newTestController(t, synth, WithCache(mem))

	audio, err := c.GenerateAudio(context.Background(), "text", "k", "")
	if err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}
	if len(audio) != len(big) {
		t.Errorf("len(audio) = %d, want %d", len(audio), len(big))
	}
	if mem.Contains("k") {
		t.Error("oversized audio should not be cached")
	}
	if got := mem.Stats().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestPlayEstimatesDuration(t *testing.T) {
	c := newTestController(t, &fakeSynth{})
	events := recordEvents(c)

	audio := make([]byte, 16000)
	c.Play(audio, 0.25)

	snap := c.Snapshot()
	if snap.State != StatePlaying {
		t.Errorf("State = %v, want playing", snap.State)
	}
	if snap.Duration != 1.0 {
		t.Errorf("Duration = %v, want 1.0", snap.Duration)
	}
	if snap.Position != 0.25 {
		t.Errorf("Position = %v, want 0.25", snap.Position)
	}

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1", len(*events))
	}
	ev, ok := (*events)[0].(PlayEvent)
	if !ok {
		t.Fatalf("event = %T, want PlayEvent", (*events)[0])
	}
	if ev.Duration != 1.0 || ev.Position != 0.25 || len(ev.Audio) != 16000 {
		t.Errorf("PlayEvent = {%v %v %d}, want {0.25 1 16000}", ev.Position, ev.Duration, len(ev.Audio))
	}
}

func TestPlayWithBitrate(t *testing.T) {
	c := newTestController(t, &fakeSynth{}, WithBitrate(256000))
	c.Play(make([]byte, 16000), 0)

	if d := c.Duration(); d != 0.5 {
		t.Errorf("Duration = %v, want 0.5", d)
	}
}

func TestControllerStateMachine(t *testing.T) {
	c := newTestController(t, &fakeSynth{})
	events := recordEvents(c)

	if c.State() != StateStopped {
		t.Fatalf("initial state = %v, want stopped", c.State())
	}

	steps := []struct {
		name  string
		do    func()
		state PlaybackState
	}{
		{"play", func() { c.Play(make([]byte, 160000), 0) }, StatePlaying},
		{"pause", c.Pause, StatePaused},
		{"resume", c.Resume, StatePlaying},
		{"skip forward", func() { c.SkipForward(3) }, StatePlaying},
		{"skip backward", func() { c.SkipBackward(1) }, StatePlaying},
		{"update", func() { c.UpdatePosition(4.5) }, StatePlaying},
		{"stop", c.Stop, StateStopped},
	}
	for _, s := range steps {
		s.do()
		if got := c.State(); got != s.state {
			t.Errorf("after %s: state = %v, want %v", s.name, got, s.state)
		}
	}

	want := []string{"PlayEvent", "PauseEvent", "ResumeEvent", "SeekEvent", "SeekEvent", "ProgressEvent", "StopEvent"}
	if len(*events) != len(want) {
		t.Fatalf("got %d events, want %d", len(*events), len(want))
	}
	for i, ev := range *events {
		if got := fmt.Sprintf("%T", ev); got != "tts."+want[i] {
			t.Errorf("event %d = %s, want %s", i, got, want[i])
		}
	}

	if pause := (*events)[1].(PauseEvent); pause != (PauseEvent{Position: 0}) {
		t.Errorf("pause event = %+v, want position 0", pause)
	}
	if resume := (*events)[2].(ResumeEvent); resume != (ResumeEvent{Position: 0}) {
		t.Errorf("resume event = %+v, want position 0", resume)
	}
	if seek := (*events)[4].(SeekEvent); seek.Position != 2 {
		t.Errorf("seek position = %v, want 2", seek.Position)
	}
	if c.Position() != 0 {
		t.Errorf("position after stop = %v, want 0", c.Position())
	}
}

func TestSkipClamps(t *testing.T) {
	c := newTestController(t, &fakeSynth{})
	c.Play(make([]byte, 16000), 0.5)

	c.SkipForward(DefaultSkipSeconds)
	if got := c.Position(); got != 1.0 {
		t.Errorf("SkipForward position = %v, want 1.0", got)
	}

	c.SkipBackward(DefaultSkipSeconds)
	if got := c.Position(); got != 0 {
		t.Errorf("SkipBackward position = %v, want 0", got)
	}
}

func TestPauseResumeCarryPosition(t *testing.T) {
	c := newTestController(t, &fakeSynth{})
	events := recordEvents(c)

	c.Play(make([]byte, 16000), 0)
	c.UpdatePosition(50)
	c.Pause()
	c.Resume()

	evs := *events
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 4", len(evs))
	}
	if got := evs[2]; got != (PauseEvent{Position: 50}) {
		t.Errorf("pause event = %#v, want position 50", got)
	}
	if got := evs[3]; got != (ResumeEvent{Position: 50}) {
		t.Errorf("resume event = %#v, want position 50", got)
	}
}

func TestSkipBackwardPastDuration(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Controller)
		want  float64
	}{
		{
			name:  "start position",
			setup: func(c *Controller) { c.Play([]byte("test audio"), 20) },
			want:  10,
		},
		{
			name: "reported position",
			setup: func(c *Controller) {
				c.Play([]byte("test audio"), 0)
				c.UpdatePosition(50)
			},
			want: 40,
		},
		{
			name:  "floor",
			setup: func(c *Controller) { c.Play([]byte("test audio"), 4) },
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, &fakeSynth{})
			tt.setup(c)
			events := recordEvents(c)

			c.SkipBackward(DefaultSkipSeconds)
			if got := c.Position(); got != tt.want {
				t.Errorf("position = %v, want %v", got, tt.want)
			}
			if len(*events) != 1 || (*events)[0] != (SeekEvent{Position: tt.want}) {
				t.Errorf("events = %#v, want one seek to %v", *events, tt.want)
			}
		})
	}
}

func TestSkipWithoutAudio(t *testing.T) {
	c := newTestController(t, &fakeSynth{})

	c.SkipForward(5)
	if got := c.Position(); got != 0 {
		t.Errorf("position = %v, want 0 with no duration", got)
	}
}

func TestUpdatePositionNotValidated(t *testing.T) {
	c := newTestController(t, &fakeSynth{})
	c.Play(make([]byte, 16000), 0)

	c.UpdatePosition(42)
	if got := c.Position(); got != 42 {
		t.Errorf("position = %v, want 42", got)
	}
	if p := c.Snapshot().Progress(); p != 1 {
		t.Errorf("Progress() = %v, want clamped to 1", p)
	}
}

func TestUnsubscribe(t *testing.T) {
	c := newTestController(t, &fakeSynth{})

	count := 0
	unsubscribe := c.Subscribe(func(Event) { count++ })
	c.Pause()
	unsubscribe()
	c.Resume()

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
}

func TestSubscriberMayCallController(t *testing.T) {
	c := newTestController(t, &fakeSynth{})

	var seen PlaybackState
	c.Subscribe(func(ev Event) {
		if _, ok := ev.(PauseEvent); ok {
			seen = c.State()
		}
	})
	c.Play(make([]byte, 100), 0)
	c.Pause()

	if seen != StatePaused {
		t.Errorf("state seen by handler = %v, want paused", seen)
	}
}

func TestControllerDispose(t *testing.T) {
	synth := &fakeSynth{parts: [][]byte{[]byte("audio")}}
	mem := cache.NewMemoryCache(1024)
	c := newTestController(t, synth, WithCache(mem))

	if _, err := c.GenerateAudio(context.Background(), "text", "k", ""); err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}
	c.Play(c.AudioData(), 0)

	var stops, total int
	c.Subscribe(func(ev Event) {
		total++
		if _, ok := ev.(StopEvent); ok {
			stops++
		}
	})

	c.Dispose()
	c.Dispose()
	c.Resume()

	if stops != 1 || total != 1 {
		t.Errorf("stop events = %d, total = %d, want 1 and 1", stops, total)
	}
	if mem.Len() != 0 {
		t.Errorf("cache has %d entries after dispose, want 0", mem.Len())
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		n       int
		bitrate int
		want    float64
	}{
		{16000, 128000, 1.0},
		{0, 128000, 0},
		{32000, 64000, 4.0},
		{16000, 0, 1.0},
	}

	for _, tt := range tests {
		if got := EstimateDuration(tt.n, tt.bitrate); got != tt.want {
			t.Errorf("EstimateDuration(%d, %d) = %v, want %v", tt.n, tt.bitrate, got, tt.want)
		}
	}
}

func TestControllerConcurrency(t *testing.T) {
	synth := &fakeSynth{parts: [][]byte{[]byte("audio")}}
	c := newTestController(t, synth)
	c.Subscribe(func(Event) {})
	c.Play(make([]byte, 16000), 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch j % 4 {
				case 0:
					c.UpdatePosition(float64(j) / 100)
				case 1:
					c.SkipForward(0.1)
				case 2:
					_ = c.Snapshot()
				case 3:
					_, _ = c.GenerateAudio(context.Background(), "text", fmt.Sprintf("k%d", i), "")
				}
			}
		}(i)
	}
	wg.Wait()

	if synth.calls() > 10 {
		t.Errorf("synthesis calls = %d, want at most one per key", synth.calls())
	}
}
