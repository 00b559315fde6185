package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

type logConfig struct {
	Debug bool `env:"TTS_CODE_DEBUG"`
}

// logFile is open while file logging is enabled.
var logFile *os.File

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, appName+".log"), nil
}

// setupLog discards log output unless TTS_CODE_DEBUG is set, in which case
// it is appended to a file in the cache directory. The terminal belongs to
// the reader.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	cfg, err := env.ParseAs[logConfig]()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if cfg.Debug {
		if err := enableFileLog(); err != nil {
			return nil, err
		}
	}
	return func() error {
		if logFile == nil {
			return nil
		}
		return logFile.Close()
	}, nil
}

// enableFileLog starts writing debug logs to the log file.
func enableFileLog() error {
	if logFile != nil {
		return nil
	}

	path, err := getLogFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return err //nolint:wrapcheck
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return err //nolint:wrapcheck
	}
	logFile = f
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	return nil
}
