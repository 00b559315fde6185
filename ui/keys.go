package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause key.Binding
	Back      key.Binding
	Forward   key.Binding
	Stop      key.Binding
	Mode      key.Binding
	Export    key.Binding
	Copy      key.Binding
	Reload    key.Binding
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Back:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "skip back")),
		Forward:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "skip forward")),
		Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "highlight mode")),
		Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export audio")),
		Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy highlight")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("b/pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("f/pgdn", "page down")),
		Top:       key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/home", "go to top")),
		Bottom:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G/end", "go to bottom")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Back, k.Forward, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Back, k.Forward, k.Stop},
		{k.Mode, k.Export, k.Copy, k.Reload},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Top, k.Bottom, k.Help, k.Quit},
	}
}
