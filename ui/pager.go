package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/lekman/tts-code/tts"
)

const statusBarHeight = 1

func (m *model) setSize() {
	w, h := m.common.width, m.common.height

	m.viewport.Width = w
	m.viewport.Height = h - statusBarHeight
	if m.generating {
		m.viewport.Height--
	}
	m.help.Width = w
	if m.help.ShowAll {
		m.viewport.Height -= lipgloss.Height(m.helpView())
	}
	m.viewport.Height = max(0, m.viewport.Height)
	m.progress.Width = max(10, min(40, w/3))

	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

// refresh renders the document with its highlights and scrolls a newly
// revealed range into view.
func (m *model) refresh() {
	content, row := m.hl.render(m.doc, m.viewport.Width)
	m.viewport.SetContent(content)
	if row < 0 {
		return
	}
	m.hl.revealPending = false
	if row < m.viewport.YOffset || row >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(max(0, row-m.viewport.Height/3))
	}
}

func (m model) statusBarView(b *strings.Builder) {
	logo := logoStyle.Render(" tts-code ")
	state := statusBarStateStyle.Render(" " + m.playbackView() + " ")
	helpNote := statusBarHelpStyle.Render(" ? Help ")

	note, style := m.noteView(), statusBarNoteStyle
	if m.statusMessage != "" {
		note, style = m.statusMessage, statusBarMessageStyle
		if m.statusIsError {
			style = statusBarErrorStyle
		}
	}

	avail := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(state)-
			ansi.PrintableRuneWidth(helpNote),
	)
	note = truncate.StringWithTail(" "+note+" ", uint(avail), ellipsis) //nolint:gosec

	// Empty space
	padding := max(0, avail-ansi.PrintableRuneWidth(note))
	note = style.Render(note + strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s", logo, note, state, helpNote)
}

// playbackView shows the playback state and position.
func (m model) playbackView() string {
	if m.generating {
		return fmt.Sprintf("%s %d%%", m.spinner.View(), m.genPercent)
	}

	snap := m.session.Controller().Snapshot()
	switch snap.State {
	case tts.StatePlaying:
		return "▶ " + formatTime(snap.Position) + "/" + formatTime(snap.Duration)
	case tts.StatePaused:
		return "⏸ " + formatTime(snap.Position) + "/" + formatTime(snap.Duration)
	default:
		return "■"
	}
}

// noteView describes the document, the current word and the audio.
func (m model) noteView() string {
	var parts []string

	note := m.common.cfg.Note
	if note == "" {
		note = documentNote(m.common.cfg.Path)
	}
	if note != "" {
		parts = append(parts, note)
	}

	mapper := m.session.Mapper()
	if cur := mapper.Current(); cur >= 0 {
		parts = append(parts, fmt.Sprintf("word %d/%d", cur+1, m.words))
	} else {
		parts = append(parts, humanize.Comma(int64(m.words))+" words")
	}
	parts = append(parts, mapper.Mode().String()+" mode")

	if n := len(m.session.Controller().AudioData()); n > 0 {
		parts = append(parts, humanize.Bytes(uint64(n)))
	}
	return strings.Join(parts, " · ")
}

// generationView shows generation progress above the status bar.
func (m model) generationView() string {
	bar := m.progress.ViewAs(float64(m.genPercent) / 100)
	head := " " + m.spinner.View() + " " + bar + " "
	room := max(0, m.common.width-ansi.PrintableRuneWidth(head))
	return head + generatingStyle.Render(runewidth.Truncate(m.genMessage, room, ellipsis))
}

func (m model) helpView() string {
	return indent(m.help.View(m.keys), 2)
}

// formatTime formats seconds as m:ss.
func formatTime(seconds float64) string {
	s := max(0, int(seconds))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func (m *model) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		m.logger.Error("error creating fsnotify watcher", "error", err)
		return
	}

	dir := filepath.Dir(m.common.cfg.Path)
	if err := m.watcher.Add(dir); err != nil {
		m.logger.Error("error adding dir to fsnotify watcher", "error", err)
		_ = m.watcher.Close()
		m.watcher = nil
		return
	}
	m.logger.Info("fsnotify watching dir", "dir", dir)
}

// watchFile waits for the document to change on disk.
func (m model) watchFile() tea.Msg {
	path := filepath.Clean(m.common.cfg.Path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			m.logger.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Debug("fsnotify error", "error", err)
		}
	}
}
