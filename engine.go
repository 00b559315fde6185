package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/lekman/tts-code/internal/audio"
	"github.com/lekman/tts-code/internal/cache"
	"github.com/lekman/tts-code/internal/keystore"
	"github.com/lekman/tts-code/tts"
	"github.com/lekman/tts-code/tts/elevenlabs"
)

const validateTimeout = 15 * time.Second

// engine holds the TTS components shared by the commands.
type engine struct {
	cfg    tts.Config
	format elevenlabs.Format
	diag   *tts.Diagnostics
	cache  *cache.CacheManager
	ctrl   *tts.Controller
	keys   *keystore.Store
	apiKey string
}

// sessionCache keeps the disk tier when a session is disposed; only the
// memory tier belongs to the session.
type sessionCache struct {
	*cache.CacheManager
}

func (c sessionCache) Clear() error {
	return c.ClearMemory()
}

func newEngine(cfg tts.Config) (*engine, error) {
	diag := tts.NewDiagnosticsFromLogger(log.Default())

	cacheCfg := cfg.ToCacheConfig()
	if cacheCfg.DiskPath == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		cacheCfg.DiskPath = dir
	}
	cm, err := cache.NewCacheManager(cacheCfg, diag.For("cache"))
	if err != nil {
		return nil, err
	}

	keys, err := keystore.Default(appName)
	if err != nil {
		_ = cm.Close()
		return nil, err
	}

	e := &engine{
		cfg:    cfg,
		format: cfg.Format(),
		diag:   diag,
		cache:  cm,
		keys:   keys,
	}
	e.ctrl = tts.NewController(
		tts.WithSynthesizerFactory(func(apiKey string) tts.Synthesizer {
			return e.client(apiKey)
		}),
		tts.WithCache(sessionCache{cm}),
		tts.WithDiagnostics(diag),
		tts.WithBitrate(e.format.Bitrate()),
	)
	return e, nil
}

// defaultCacheDir returns the audio directory inside the user cache
// directory.
func defaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

// client returns an ElevenLabs client configured from the config file.
func (e *engine) client(apiKey string) *elevenlabs.Client {
	logger := e.diag.For("elevenlabs")
	opts := append(e.cfg.ClientOptions(logger),
		elevenlabs.WithRateLimitNotifier(func(err error) {
			logger.Warn("Rate limit exceeded", "err", err)
		}),
	)
	return elevenlabs.New(apiKey, opts...)
}

// validator checks keys against the service.
func (e *engine) validator() keystore.Validator {
	return func(key string) (bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()
		return e.client(key).ValidateKey(ctx)
	}
}

// initialize resolves the API key and initializes the controller. When
// prompt is set and no key is configured, the user is asked for one.
func (e *engine) initialize(prompt bool) error {
	var (
		key string
		src keystore.Source
		err error
	)
	if prompt {
		key, src, err = e.keys.Resolve(os.Stdin, os.Stderr, e.validator())
	} else {
		key, src, err = e.keys.Get()
	}
	if err != nil {
		return err
	}
	if err := keystore.Validate(key); err != nil {
		return fmt.Errorf("%s key: %w", src, err)
	}

	e.apiKey = key
	e.ctrl.Initialize(key)
	e.diag.Logger().Debug("Using API key", "source", src)
	return nil
}

// surface returns the playback surface for the configured format.
func (e *engine) surface() audio.Surface {
	return audio.New(e.format, e.format.Bitrate(), e.diag.For("audio"))
}

func (e *engine) close() {
	if err := e.cache.Close(); err != nil {
		e.diag.Logger().Warn("Unable to save the cache index", "err", err)
	}
}
