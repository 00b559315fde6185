package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# ElevenLabs voice used for speech
voice_id: "21m00Tcm4TlvDq8ikWAM"
# ElevenLabs model
model_id: "eleven_monolingual_v1"
# mp3_22050_32, mp3_44100_64, mp3_44100_128, mp3_44100_192,
# pcm_16000, pcm_22050 or pcm_24000. PCM formats play on the audio device.
output_format: "mp3_44100_128"
# voice settings (0.0 to 1.0)
stability: 0.5
similarity_boost: 0.5

# characters per synthesis request (100 to 10000)
max_chunk_size: 4000
# throttle requests to the API (0 disables)
requests_per_minute: 0
request_timeout: "60s"

# seconds skipped by the back and forward keys
skip_seconds: 10
# describe code blocks instead of skipping them
include_code_blocks: false
# where exported audio is saved (default: user data directory)
# export_dir: "~/Music/tts-code"
# debug, info, warn or error
log_level: "info"

cache:
  # memory cache size in MiB
  memory_size: 100
  # disk cache size in MiB (0 disables the disk cache)
  disk_size: 1024
  # dir: "~/.cache/tts-code/audio"
  # zstd level (0 disables compression)
  compression_level: 3

highlight:
  # word, sentence or line
  mode: "word"
  # black, red, green, yellow, blue, magenta, cyan or white
  color: "yellow"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the " + appName + " config file",
	Long:    paragraph(fmt.Sprintf("\n%s the %s config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"), appName)),
	Example: paragraph(appName + " config\n" + appName + " config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd(appName, configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if configFile == "" {
			configFile = defaultConfigFile
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
