package tts

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Diagnostics owns the logger shared by the TTS components. It is created by
// the host and passed to the components that log; there is no global state.
type Diagnostics struct {
	logger    *log.Logger
	sessionID string
	active    bool
}

// NewDiagnostics returns diagnostics writing to w at the given level. Use
// io.Discard to silence logging.
func NewDiagnostics(w io.Writer, level log.Level) *Diagnostics {
	if w == nil {
		w = io.Discard
	}
	sessionID := uuid.NewString()
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	}).With("session", sessionID[:8])

	return &Diagnostics{
		logger:    logger,
		sessionID: sessionID,
	}
}

// NewDiagnosticsFromLogger wraps an existing logger.
func NewDiagnosticsFromLogger(l *log.Logger) *Diagnostics {
	if l == nil {
		l = log.New(io.Discard)
	}
	return &Diagnostics{logger: l, sessionID: uuid.NewString()}
}

// Init marks the start of a session.
func (d *Diagnostics) Init() {
	if d.active {
		return
	}
	d.active = true
	d.logger.Info("TTS session started")
}

// Dispose marks the end of a session. It is safe to call more than once.
func (d *Diagnostics) Dispose() {
	if !d.active {
		return
	}
	d.active = false
	d.logger.Info("TTS session ended")
}

// SessionID returns the identifier attached to every log line.
func (d *Diagnostics) SessionID() string {
	return d.sessionID
}

// Logger returns the root logger.
func (d *Diagnostics) Logger() *log.Logger {
	return d.logger
}

// For returns a logger prefixed with the component name.
func (d *Diagnostics) For(component string) *log.Logger {
	return d.logger.WithPrefix(component)
}

// HandleError logs err with the message shown to the user and returns err.
func (d *Diagnostics) HandleError(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	d.logger.Error(userMessage, "err", err, "friendly", UserFriendlyMessage(err))
	return err
}

// Timed logs msg at debug level when the returned function is called, with
// the elapsed time and the outcome.
func (d *Diagnostics) Timed(msg string, keyvals ...interface{}) func(err error) {
	start := time.Now()
	return func(err error) {
		kv := append(append([]interface{}{}, keyvals...), "elapsed", time.Since(start))
		if err != nil {
			kv = append(kv, "err", err)
		}
		d.logger.Debug(msg, kv...)
	}
}
