package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lekman/tts-code/internal/markdown"
	"github.com/lekman/tts-code/tts/chunk"
)

var (
	previewPlain bool
	previewWidth uint

	previewCmd = &cobra.Command{
		Use:     "preview [FILE|URL|-]",
		Short:   "Show a document and how it will be spoken",
		Long:    paragraph(fmt.Sprintf("\n%s the document and report how many requests speaking it takes. With --plain the exact text sent for speech is printed.", keyword("Render"))),
		Example: paragraph(appName + " preview README.md\n" + appName + " preview --plain --lines 1:40 README.md"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := doc.text + "\n"
			if !previewPlain {
				out, err = renderPreview(doc, previewTermWidth(cmd))
				if err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
				return fmt.Errorf("unable to write to writer: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), previewSummary(doc.text, ttsConfig.MaxChunkSize))
			return err
		},
	}
)

func init() {
	previewCmd.Flags().BoolVarP(&previewPlain, "plain", "p", false, "print the text sent for speech")
	previewCmd.Flags().UintVarP(&previewWidth, "width", "w", 0, "word-wrap at width (set to 0 to detect)")
}

// previewTermWidth detects the terminal width, capped at 120.
func previewTermWidth(cmd *cobra.Command) int {
	if cmd.Flags().Changed("width") && previewWidth > 0 {
		return int(previewWidth) //nolint:gosec
	}
	width := 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = min(w, 120)
		}
	}
	return width
}

func renderPreview(doc document, width int) (string, error) {
	style := styles.AutoStyle
	// We want to use a special no-TTY style, when stdout is not a terminal
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		style = styles.NoTTYStyle
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	// Selections and plain text are shown as spoken.
	content := doc.text
	if !doc.selection && (doc.markdown || markdown.IsMarkdownFile(doc.note)) {
		content = string(markdown.RemoveFrontmatter(doc.source))
	}

	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

// previewSummary describes the spoken text: its size and the number of
// synthesis requests it needs.
func previewSummary(text string, maxChunkSize int) string {
	splitter := chunk.New(maxChunkSize)
	requests := splitter.Count(text)
	plural := "s"
	if requests == 1 {
		plural = ""
	}
	return subtle(strings.Join([]string{
		humanize.Comma(int64(len(strings.Fields(text)))) + " words",
		humanize.Comma(int64(chunk.Len(text))) + " characters",
		fmt.Sprintf("%d request%s of up to %s characters", requests, plural, humanize.Comma(int64(splitter.MaxChunkSize))),
	}, " · "))
}
