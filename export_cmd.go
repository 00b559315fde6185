package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lekman/tts-code/tts"
	ttssync "github.com/lekman/tts-code/tts/sync"
)

var (
	exportDir string

	exportCmd = &cobra.Command{
		Use:     "export [FILE|URL|-]",
		Short:   "Generate speech for a document and save it",
		Long:    paragraph(fmt.Sprintf("\n%s speech for a document without opening the reader. PCM formats are saved as WAV files.", keyword("Generate"))),
		Example: paragraph(appName + " export README.md\n" + appName + " export --format pcm_24000 -o ~/audio notes.md"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd.Context(), args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			path, size, err := exportDocument(ctx, doc, func(percent int, message string) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%3d%% %s\n", percent, message)
			})
			if err != nil {
				return friendlyError(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s of audio to %s\n", humanize.Bytes(uint64(size)), path) //nolint:gosec
			return err
		},
	}
)

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", "", "directory to save into (default: export_dir)")
}

func exportDocument(ctx context.Context, doc document, onProgress func(int, string)) (string, int, error) {
	eng, err := newEngine(ttsConfig)
	if err != nil {
		return "", 0, err
	}
	defer eng.close()

	if err := eng.initialize(true); err != nil {
		return "", 0, err
	}

	cfg := ttsConfig
	if exportDir != "" {
		cfg.ExportDir = exportDir
	}
	exporter, err := newExporter(cfg)
	if err != nil {
		return "", 0, err
	}

	session := tts.NewSession(eng.ctrl, ttssync.NewMapper(nil), eng.diag)
	defer session.Dispose()

	audio, err := session.Generate(ctx, tts.SpeakRequest{
		URI:       doc.uri,
		Text:      doc.text,
		Selection: doc.selection,
		VoiceID:   cfg.VoiceID,
	}, onProgress)
	if err != nil {
		return "", 0, err
	}

	path, err := exporter.Save(doc.note, eng.format, audio)
	if err != nil {
		return "", 0, err
	}
	eng.diag.Logger().Info("Exported audio", "path", path, "bytes", len(audio))
	return path, len(audio), nil
}
