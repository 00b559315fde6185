package tts

import "sync"

// Event is emitted by the Controller after each state-changing call. The
// concrete types are PlayEvent, PauseEvent, ResumeEvent, StopEvent,
// SeekEvent and ProgressEvent.
type Event interface {
	isEvent()
}

// PlayEvent carries the audio the surface should start playing.
type PlayEvent struct {
	Position float64
	Duration float64
	Audio    []byte
}

// PauseEvent is emitted by Pause with the position it paused at.
type PauseEvent struct {
	Position float64
}

// ResumeEvent is emitted by Resume with the position it resumes from.
type ResumeEvent struct {
	Position float64
}

// StopEvent is emitted by Stop. Position is always 0.
type StopEvent struct {
	Position float64
}

// SeekEvent is emitted by SkipForward and SkipBackward.
type SeekEvent struct {
	Position float64
}

// ProgressEvent is emitted by UpdatePosition.
type ProgressEvent struct {
	Position float64
}

func (PlayEvent) isEvent()     {}
func (PauseEvent) isEvent()    {}
func (ResumeEvent) isEvent()   {}
func (StopEvent) isEvent()     {}
func (SeekEvent) isEvent()     {}
func (ProgressEvent) isEvent() {}

// emitter delivers events synchronously to subscribers in subscription
// order. Handlers run without the lock held so they may call back into the
// controller.
type emitter struct {
	mu       sync.Mutex
	nextID   int
	handlers []subscription
	closed   bool
}

type subscription struct {
	id int
	fn func(Event)
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || fn == nil {
		return func() {}
	}
	id := e.nextID
	e.nextID++
	e.handlers = append(e.handlers, subscription{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		for i, h := range e.handlers {
			if h.id == id {
				e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
				return
			}
		}
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	handlers := append([]subscription(nil), e.handlers...)
	e.mu.Unlock()

	for _, h := range handlers {
		h.fn(ev)
	}
}

func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.handlers = nil
}
