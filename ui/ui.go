// Package ui provides the terminal reader: a pager that shows the spoken
// text, highlights the word being read and drives the playback surface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"

	"github.com/lekman/tts-code/internal/audio"
	"github.com/lekman/tts-code/internal/storage"
	"github.com/lekman/tts-code/tts"
	"github.com/lekman/tts-code/tts/elevenlabs"
	ttssync "github.com/lekman/tts-code/tts/sync"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "Stopped"
	ellipsis             = "…"
)

// Deps are the collaborators the reader drives.
type Deps struct {
	Controller *tts.Controller
	Surface    audio.Surface
	Exporter   *storage.Exporter
	Format     elevenlabs.Format
	Diag       *tts.Diagnostics
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug(
		"Starting reader",
		"path", cfg.Path,
		"chars", len(cfg.Text),
		"autoplay", cfg.AutoPlay,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, deps, lipgloss.DefaultRenderer()), opts...)
}

type (
	speakMsg                struct{}
	statusMessageTimeoutMsg struct{}

	// surfaceMsg carries a report from the playback surface.
	surfaceMsg struct{ msg tts.SurfaceMessage }

	progressUpdate struct {
		percent int
		message string
	}
	generationProgressMsg struct {
		progressUpdate
		ch <-chan progressUpdate
	}
	generatedMsg struct {
		req   tts.SpeakRequest
		audio []byte
		err   error
	}

	reloadMsg struct{}

	documentLoadedMsg struct {
		text    string
		err     error
		watched bool
	}

	exportedMsg struct {
		path string
		err  error
	}
)

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int

	// playbackErr is set by callbacks that run during Update and shown
	// once the update is done.
	playbackErr string
}

type model struct {
	common  *commonModel
	logger  *log.Logger
	session *tts.Session
	surface audio.Surface
	format  elevenlabs.Format
	hl      *highlighter
	doc     *ttssync.TextDocument
	words   int

	viewport viewport.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     keyMap

	generating bool
	genPercent int
	genMessage string
	cancel     context.CancelFunc

	exporting bool
	exported  chan string

	statusMessage      string
	statusIsError      bool
	statusMessageTimer *time.Timer

	watcher     *fsnotify.Watcher
	unsubscribe func()
	fatalErr    error
}

func newModel(cfg Config, deps Deps, r *lipgloss.Renderer) model {
	if cfg.SkipSeconds <= 0 {
		cfg.SkipSeconds = tts.DefaultSkipSeconds
	}
	diag := deps.Diag
	if diag == nil {
		diag = tts.NewDiagnosticsFromLogger(log.Default())
	}
	logger := diag.For("ui")

	common := &commonModel{cfg: cfg}
	hl := newHighlighter(highlightStyle(r, cfg.HighlightColor))
	mapper := ttssync.NewMapper(hl)
	mapper.SetMode(cfg.HighlightMode)
	session := tts.NewSession(deps.Controller, mapper, diag)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = generatingStyle

	exported := make(chan string, 1)
	m := model{
		common:   common,
		logger:   logger,
		session:  session,
		surface:  deps.Surface,
		format:   deps.Format,
		hl:       hl,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		help:     help.New(),
		keys:     newKeyMap(),
		exported: exported,
	}

	session.OnError = func(message string) {
		common.playbackErr = message
	}
	session.OnExport = func(_ string, data []byte) error {
		if deps.Exporter == nil {
			return errors.New("no export directory configured")
		}
		path, err := deps.Exporter.Save(cfg.Path, deps.Format, data)
		if err != nil {
			return err
		}
		logger.Info("Exported audio", "path", path, "size", humanize.Bytes(uint64(len(data))))
		exported <- path
		return nil
	}

	m.unsubscribe = deps.Controller.Subscribe(func(ev tts.Event) {
		if err := drive(deps.Surface, ev); err != nil {
			logger.Error("Playback surface failed", "event", fmt.Sprintf("%T", ev), "err", err)
			common.playbackErr = err.Error()
		}
	})

	if strings.TrimSpace(cfg.Text) == "" {
		m.fatalErr = tts.ErrEmptyDocument
		return m
	}
	m.setDocument(cfg.Text)

	if cfg.Watch && cfg.Path != "" {
		m.initWatcher()
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.fatalErr != nil {
		return nil
	}
	cmds := []tea.Cmd{listen(m.surface.Messages())}
	if m.watcher != nil {
		cmds = append(cmds, m.watchFile)
	}
	if m.common.cfg.AutoPlay {
		cmds = append(cmds, func() tea.Msg { return speakMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, m.quit()
		}
	}

	var (
		cmds         []tea.Cmd
		skipViewport bool
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		cmd, skipViewport = m.handleKey(msg)
		cmds = append(cmds, cmd)

	// We've received terminal dimensions, either for the first time or
	// after a resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.setSize()
		m.hl.dirty = true

	case speakMsg:
		cmds = append(cmds, m.speak())

	case generationProgressMsg:
		if m.generating {
			m.genPercent = msg.percent
			m.genMessage = msg.message
		}
		cmds = append(cmds, waitForProgress(msg.ch))

	case generatedMsg:
		cmds = append(cmds, m.handleGenerated(msg))

	case surfaceMsg:
		if err := m.session.HandleSurfaceMessage(msg.msg); err != nil {
			m.logger.Error("Unable to handle playback report", "err", err)
		}
		if _, ok := msg.msg.(tts.Ended); ok {
			cmds = append(cmds, m.showStatusMessage("Finished", false))
		}
		cmds = append(cmds, listen(m.surface.Messages()))

	// The file was changed on disk and we're reloading it
	case reloadMsg:
		cmds = append(cmds, loadDocument(m.common.cfg.Path, m.common.cfg.IncludeCodeBlocks, true))

	case documentLoadedMsg:
		cmds = append(cmds, m.handleDocumentLoaded(msg))

	case exportedMsg:
		m.exporting = false
		if msg.err != nil {
			m.logger.Error("Export failed", "err", msg.err)
			cmds = append(cmds, m.showStatusMessage(tts.UserFriendlyMessage(msg.err), true))
		} else {
			cmds = append(cmds, m.showStatusMessage("Saved "+msg.path, false))
		}

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		m.statusIsError = false

	case spinner.TickMsg:
		if m.generating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !skipViewport {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.common.playbackErr != "" {
		cmds = append(cmds, m.showStatusMessage(m.common.playbackErr, true))
		m.common.playbackErr = ""
	}
	if m.hl.dirty {
		m.refresh()
	}

	return m, tea.Batch(cmds...)
}

// handleKey applies a key press. It reports whether the key was consumed.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	ctrl := m.session.Controller()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize()
		return nil, true

	case key.Matches(msg, m.keys.PlayPause):
		return m.togglePlayback(), true

	case key.Matches(msg, m.keys.Back):
		ctrl.SkipBackward(m.common.cfg.SkipSeconds)
		return nil, true

	case key.Matches(msg, m.keys.Forward):
		ctrl.SkipForward(m.common.cfg.SkipSeconds)
		return nil, true

	case key.Matches(msg, m.keys.Stop):
		m.stop()
		return m.showStatusMessage("Stopped", false), true

	case key.Matches(msg, m.keys.Mode):
		mapper := m.session.Mapper()
		mapper.SetMode(nextMode(mapper.Mode()))
		return m.showStatusMessage("Highlighting by "+mapper.Mode().String(), false), true

	case key.Matches(msg, m.keys.Export):
		if m.exporting {
			return nil, true
		}
		m.exporting = true
		return exportAudio(m.session, m.format, m.exported), true

	case key.Matches(msg, m.keys.Copy):
		text := m.hl.Highlighted(m.doc)
		if text == "" && m.doc != nil {
			text = m.doc.Text()
		}
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		return m.showStatusMessage("Copied "+humanize.Comma(int64(len([]rune(text))))+" characters", false), true

	case key.Matches(msg, m.keys.Reload):
		if m.common.cfg.Path == "" {
			return nil, true
		}
		return loadDocument(m.common.cfg.Path, m.common.cfg.IncludeCodeBlocks, false), true

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return nil, true

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return nil, true
	}
	return nil, false
}

// togglePlayback pauses, resumes or starts speaking the document.
func (m *model) togglePlayback() tea.Cmd {
	if m.generating {
		return nil
	}
	ctrl := m.session.Controller()
	switch ctrl.State() {
	case tts.StatePlaying:
		ctrl.Pause()
	case tts.StatePaused:
		ctrl.Resume()
	default:
		// Audio for an unchanged document comes from the cache.
		return m.speak()
	}
	return nil
}

// speak starts generating audio for the document.
func (m *model) speak() tea.Cmd {
	if m.doc == nil || m.generating {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.generating = true
	m.genPercent = 0
	m.genMessage = "Generating speech"
	m.setSize()

	cfg := m.common.cfg
	req := tts.SpeakRequest{
		URI:       cfg.URI,
		Text:      m.doc.Text(),
		Selection: cfg.Selection,
		VoiceID:   cfg.VoiceID,
	}
	ch := make(chan progressUpdate, 16)
	return tea.Batch(m.spinner.Tick, generate(ctx, m.session, req, ch), waitForProgress(ch))
}

func (m *model) handleGenerated(msg generatedMsg) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.generating = false
	m.setSize()

	switch {
	case errors.Is(msg.err, context.Canceled):
		return nil
	case msg.err != nil:
		m.logger.Error("Speech generation failed", "err", msg.err)
		return m.showStatusMessage(tts.UserFriendlyMessage(msg.err), true)
	case m.doc == nil || msg.req.Text != m.doc.Text():
		m.logger.Debug("Discarding audio for a changed document")
		return nil
	}

	m.session.Start(m.doc, msg.audio, msg.req.StartPosition)
	return m.showStatusMessage("Playing "+humanize.Bytes(uint64(len(msg.audio)))+" of audio", false)
}

func (m *model) handleDocumentLoaded(msg documentLoadedMsg) tea.Cmd {
	var cmds []tea.Cmd
	switch {
	case msg.err != nil:
		m.logger.Error("Unable to reload document", "path", m.common.cfg.Path, "err", msg.err)
		cmds = append(cmds, m.showStatusMessage(tts.UserFriendlyMessage(msg.err), true))
	case m.doc == nil || msg.text != m.doc.Text():
		m.stop()
		m.setDocument(msg.text)
		cmds = append(cmds, m.showStatusMessage("Reloaded "+m.common.cfg.Note, false))
	}
	if msg.watched && m.watcher != nil {
		cmds = append(cmds, m.watchFile)
	}
	return tea.Batch(cmds...)
}

// setDocument makes text the displayed and highlighted document.
func (m *model) setDocument(text string) {
	m.doc = ttssync.NewTextDocument(m.common.cfg.URI, text)
	mapper := m.session.Mapper()
	mapper.SetActiveDocument(m.doc)
	m.words = len(mapper.Words())
	m.hl.dirty = true
}

// stop cancels generation and stops playback.
func (m *model) stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.session.Controller().Stop()
	m.session.Mapper().ClearHighlights()
}

// quit releases the session and the surface.
func (m *model) quit() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	m.session.Dispose()
	m.unsubscribe()
	if err := m.surface.Close(); err != nil {
		m.logger.Warn("Unable to close playback surface", "err", err)
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	return tea.Quit
}

// Perform stuff that needs to happen after an action. Note that the
// returned command should be sent back through the update function.
func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isError
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)

	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	if m.generating {
		fmt.Fprint(&b, m.generationView()+"\n")
	}

	// Footer
	m.statusBarView(&b)

	if m.help.ShowAll {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

func nextMode(mode ttssync.HighlightMode) ttssync.HighlightMode {
	switch mode {
	case ttssync.ModeWord:
		return ttssync.ModeSentence
	case ttssync.ModeSentence:
		return ttssync.ModeLine
	default:
		return ttssync.ModeWord
	}
}

// COMMANDS

// listen waits for the next report from the playback surface.
func listen(ch <-chan tts.SurfaceMessage) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return surfaceMsg{msg}
	}
}

func generate(ctx context.Context, s *tts.Session, req tts.SpeakRequest, ch chan<- progressUpdate) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)
		audio, err := s.Generate(ctx, req, func(percent int, message string) {
			select {
			case ch <- progressUpdate{percent: percent, message: message}:
			default:
			}
		})
		return generatedMsg{req: req, audio: audio, err: err}
	}
}

func waitForProgress(ch <-chan progressUpdate) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return generationProgressMsg{progressUpdate: p, ch: ch}
	}
}

func exportAudio(s *tts.Session, format elevenlabs.Format, paths <-chan string) tea.Cmd {
	return func() tea.Msg {
		if err := s.HandleSurfaceMessage(tts.Export{Format: format.Extension()}); err != nil {
			return exportedMsg{err: err}
		}
		select {
		case p := <-paths:
			return exportedMsg{path: p}
		default:
			return exportedMsg{}
		}
	}
}

func loadDocument(path string, includeCodeBlocks, watched bool) tea.Cmd {
	return func() tea.Msg {
		text, err := tts.ReadDocument(path, includeCodeBlocks)
		return documentLoadedMsg{text: text, err: err, watched: watched}
	}
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}

func documentNote(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
