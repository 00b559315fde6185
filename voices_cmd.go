package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/lekman/tts-code/tts/elevenlabs"
)

var (
	voicesFilter string

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List the voices available to your account",
		Long:    paragraph(fmt.Sprintf("\n%s the ElevenLabs voices available to your account. The configured voice is marked with a star.", keyword("List"))),
		Example: paragraph(appName + " voices\n" + appName + " voices --filter british"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := newEngine(ttsConfig)
			if err != nil {
				return err
			}
			defer eng.close()

			if err := eng.initialize(true); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), ttsConfig.RequestTimeout)
			defer cancel()

			voices, err := eng.client(eng.apiKey).Voices(ctx)
			if err != nil {
				return friendlyError(err)
			}
			voices = filterVoices(voices, voicesFilter)
			if len(voices) == 0 {
				return fmt.Errorf("no voices match %q", voicesFilter)
			}
			printVoices(cmd.OutOrStdout(), voices, ttsConfig.VoiceID)
			return nil
		},
	}
)

func init() {
	voicesCmd.Flags().StringVarP(&voicesFilter, "filter", "f", "", "fuzzy filter on name, category and labels")
}

// voiceList adapts voices to fuzzy.Source.
type voiceList []elevenlabs.Voice

func (v voiceList) String(i int) string {
	return strings.Join([]string{v[i].Name, v[i].Category, v[i].LabelString()}, " ")
}

func (v voiceList) Len() int {
	return len(v)
}

// filterVoices returns the voices matching filter, best match first. An
// empty filter returns voices unchanged.
func filterVoices(voices []elevenlabs.Voice, filter string) []elevenlabs.Voice {
	if strings.TrimSpace(filter) == "" {
		return voices
	}
	matches := fuzzy.FindFrom(filter, voiceList(voices))
	out := make([]elevenlabs.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

func printVoices(w io.Writer, voices []elevenlabs.Voice, current string) {
	nameStyle := lipgloss.NewStyle().Bold(true)
	for _, v := range voices {
		mark := "  "
		if v.ID == current {
			mark = keyword("* ")
		}
		_, _ = fmt.Fprintf(w, "%s%s %s\n", mark, nameStyle.Render(v.Name), subtle(v.ID))

		var details []string
		if v.Category != "" {
			details = append(details, v.Category)
		}
		if labels := v.LabelString(); labels != "" {
			details = append(details, labels)
		}
		if len(details) > 0 {
			_, _ = fmt.Fprintf(w, "    %s\n", subtle(strings.Join(details, " · ")))
		}
	}
}
