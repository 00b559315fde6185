// Package main provides the entry point for the tts-code CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lekman/tts-code/internal/storage"
	"github.com/lekman/tts-code/tts"
	ttssync "github.com/lekman/tts-code/tts/sync"
	"github.com/lekman/tts-code/ui"
)

const appName = "tts-code"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	debug             bool
	mouse             bool
	lines             string
	fromClipboard     bool

	// ttsConfig is loaded from viper before any command runs.
	ttsConfig tts.Config

	rootCmd = &cobra.Command{
		Use:   appName + " [FILE|URL|-]",
		Short: "Read markdown aloud in the terminal, with highlighting",
		Long: paragraph(
			fmt.Sprintf("\nRead markdown and text documents %s with ElevenLabs voices, highlighting every word as it is spoken.", keyword("aloud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"md", "markdown", "txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}

	speakCmd = &cobra.Command{
		Use:     "speak [FILE|URL|-]",
		Short:   "Speak a document in the reader",
		Example: paragraph(appName + " speak README.md\n" + appName + " speak --lines 10:20 notes.md\ncat notes.md | " + appName + " speak"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	debug = viper.GetBool("debug")
	mouse = viper.GetBool("mouse")
	if debug {
		if err := enableFileLog(); err != nil {
			return err
		}
	}

	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		// A broken config file can still be edited.
		if cmd.Name() != "config" {
			return err
		}
		log.Warn("Ignoring invalid configuration", "err", err)
		cfg = tts.DefaultConfig()
	}
	ttsConfig = cfg

	if !debug {
		log.SetLevel(cfg.Level())
	}
	log.Debug("Options validated", "command", cmd.Name(), "config", viper.ConfigFileUsed())
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(cmd.Context(), args)
	if err != nil {
		return err
	}
	return runReader(doc)
}

func runReader(doc document) error {
	// Read environment to get reader toggles
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	eng, err := newEngine(ttsConfig)
	if err != nil {
		return err
	}
	defer eng.close()

	if err := eng.initialize(true); err != nil {
		return err
	}

	exporter, err := newExporter(ttsConfig)
	if err != nil {
		return err
	}

	cfg.Path = doc.path
	cfg.URI = doc.uri
	cfg.Note = doc.note
	cfg.Text = doc.text
	cfg.Selection = doc.selection
	cfg.VoiceID = ttsConfig.VoiceID
	cfg.IncludeCodeBlocks = ttsConfig.IncludeCodeBlocks
	cfg.SkipSeconds = ttsConfig.SkipSeconds
	cfg.HighlightColor = ttsConfig.Highlight.Color
	cfg.HighlightMode = ttsConfig.Mode()
	cfg.EnableMouse = mouse

	surface := eng.surface()
	eng.diag.Init()

	// Run Bubble Tea program
	p := ui.NewProgram(cfg, ui.Deps{
		Controller: eng.ctrl,
		Surface:    surface,
		Exporter:   exporter,
		Format:     eng.format,
		Diag:       eng.diag,
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// friendlyError prefixes err with the message shown to users when the two
// differ.
func friendlyError(err error) error {
	if msg := tts.UserFriendlyMessage(err); msg != err.Error() {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

func newExporter(cfg tts.Config) (*storage.Exporter, error) {
	dir := cfg.ExportDir
	if dir == "" {
		var err error
		dir, err = storage.DefaultExportDir(appName)
		if err != nil {
			return nil, err
		}
	}
	return storage.NewExporter(dir)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write a debug log to the cache directory")
	rootCmd.PersistentFlags().StringVarP(&lines, "lines", "L", "", "speak only lines FROM:TO of the document (1-based, inclusive)")
	rootCmd.PersistentFlags().BoolVarP(&fromClipboard, "clipboard", "c", false, "speak the text on the clipboard")
	rootCmd.PersistentFlags().String("voice", "", "ElevenLabs voice ID")
	rootCmd.PersistentFlags().String("format", "", "output format, e.g. mp3_44100_128 or pcm_22050")
	rootCmd.Flags().String("mode", "", "highlight by word, sentence or line")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")
	_ = rootCmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return highlightModes(), cobra.ShellCompDirectiveNoFileComp
	})
	speakCmd.Flags().AddFlagSet(rootCmd.Flags())

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("voice_id", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("highlight.mode", rootCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("mouse", false)
	tts.SetDefaults()

	rootCmd.AddCommand(speakCmd, previewCmd, exportCmd, voicesCmd, keyCmd, cacheCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("TTS_CODE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("tts_code")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		defaultConfigFile = used
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], appName+".yml")
	configFile = defaultConfigFile
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

// highlightModes lists the values accepted by --mode.
func highlightModes() []string {
	return []string{
		ttssync.ModeWord.String(),
		ttssync.ModeSentence.String(),
		ttssync.ModeLine.String(),
	}
}
