package ui

import "github.com/charmbracelet/lipgloss"

var (
	green     = lipgloss.Color("#04B575")
	fuchsia   = lipgloss.Color("#EE6FF8")
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(fuchsia).
			Bold(true)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg)

	statusBarStateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg)

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"})

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen)

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(red)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1F1F1")).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})

	generatingStyle = lipgloss.NewStyle().Foreground(green)
)

// highlightColors maps configured color names to ANSI colors and a
// foreground that stays readable on them.
var highlightColors = map[string]struct{ bg, fg lipgloss.Color }{
	"black":   {"0", "15"},
	"red":     {"1", "15"},
	"green":   {"2", "0"},
	"yellow":  {"3", "0"},
	"blue":    {"4", "15"},
	"magenta": {"5", "15"},
	"cyan":    {"6", "0"},
	"white":   {"7", "0"},
}

// highlightStyle returns the style for highlighted text. Unknown colors
// fall back to yellow.
func highlightStyle(r *lipgloss.Renderer, color string) lipgloss.Style {
	c, ok := highlightColors[color]
	if !ok {
		c = highlightColors["yellow"]
	}
	return r.NewStyle().Background(c.bg).Foreground(c.fg)
}
