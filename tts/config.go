package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lekman/tts-code/internal/cache"
	"github.com/lekman/tts-code/tts/chunk"
	"github.com/lekman/tts-code/tts/elevenlabs"
	ttssync "github.com/lekman/tts-code/tts/sync"
)

// Config contains all TTS configuration options.
type Config struct {
	// Synthesis settings
	VoiceID         string  `yaml:"voice_id" env:"TTS_CODE_VOICE_ID" envDefault:"21m00Tcm4TlvDq8ikWAM"`
	ModelID         string  `yaml:"model_id" env:"TTS_CODE_MODEL_ID" envDefault:"eleven_monolingual_v1"`
	OutputFormat    string  `yaml:"output_format" env:"TTS_CODE_OUTPUT_FORMAT" envDefault:"mp3_44100_128"`
	Stability       float64 `yaml:"stability" env:"TTS_CODE_STABILITY" envDefault:"0.5"`
	SimilarityBoost float64 `yaml:"similarity_boost" env:"TTS_CODE_SIMILARITY_BOOST" envDefault:"0.5"`

	// Request settings
	MaxChunkSize      int           `yaml:"max_chunk_size" env:"TTS_CODE_MAX_CHUNK_SIZE" envDefault:"4000"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"TTS_CODE_REQUESTS_PER_MINUTE" envDefault:"0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"TTS_CODE_REQUEST_TIMEOUT" envDefault:"60s"`

	// Playback settings
	SkipSeconds float64 `yaml:"skip_seconds" env:"TTS_CODE_SKIP_SECONDS" envDefault:"10"`

	// Document settings
	IncludeCodeBlocks bool   `yaml:"include_code_blocks" env:"TTS_CODE_INCLUDE_CODE_BLOCKS" envDefault:"false"`
	ExportDir         string `yaml:"export_dir" env:"TTS_CODE_EXPORT_DIR"`

	LogLevel string `yaml:"log_level" env:"TTS_CODE_LOG_LEVEL" envDefault:"info"`

	Cache     CacheConfig     `yaml:"cache"`
	Highlight HighlightConfig `yaml:"highlight"`
}

// CacheConfig contains audio cache settings. Sizes are in MiB.
type CacheConfig struct {
	MemorySize       int64  `yaml:"memory_size" env:"TTS_CODE_CACHE_MEMORY_SIZE" envDefault:"100"`
	DiskSize         int64  `yaml:"disk_size" env:"TTS_CODE_CACHE_DISK_SIZE" envDefault:"1024"`
	Dir              string `yaml:"dir" env:"TTS_CODE_CACHE_DIR"`
	CompressionLevel int    `yaml:"compression_level" env:"TTS_CODE_CACHE_COMPRESSION_LEVEL" envDefault:"3"`
}

// HighlightConfig contains highlighting settings.
type HighlightConfig struct {
	Mode  string `yaml:"mode" env:"TTS_CODE_HIGHLIGHT_MODE" envDefault:"word"`
	Color string `yaml:"color" env:"TTS_CODE_HIGHLIGHT_COLOR" envDefault:"yellow"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		VoiceID:         elevenlabs.DefaultVoiceID,
		ModelID:         elevenlabs.DefaultModelID,
		OutputFormat:    string(elevenlabs.DefaultFormat),
		Stability:       elevenlabs.DefaultStability,
		SimilarityBoost: elevenlabs.DefaultSimilarityBoost,

		MaxChunkSize:      chunk.DefaultMaxChunkSize,
		RequestsPerMinute: 0,
		RequestTimeout:    elevenlabs.DefaultTimeout,

		SkipSeconds: DefaultSkipSeconds,
		LogLevel:    "info",

		Cache: CacheConfig{
			MemorySize:       100,
			DiskSize:         1024,
			CompressionLevel: cache.DefaultCompressionLevel,
		},
		Highlight: HighlightConfig{
			Mode:  "word",
			Color: "yellow",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := elevenlabs.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("%w: must be one of %v", err, elevenlabs.Formats())
	}

	if c.Stability < 0 || c.Stability > 1 {
		return fmt.Errorf("stability must be between 0.0 and 1.0, got %f", c.Stability)
	}
	if c.SimilarityBoost < 0 || c.SimilarityBoost > 1 {
		return fmt.Errorf("similarity_boost must be between 0.0 and 1.0, got %f", c.SimilarityBoost)
	}

	if c.MaxChunkSize < 100 || c.MaxChunkSize > 10000 {
		return fmt.Errorf("max_chunk_size must be between 100 and 10000, got %d", c.MaxChunkSize)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute cannot be negative, got %d", c.RequestsPerMinute)
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request_timeout must be at least 1 second, got %v", c.RequestTimeout)
	}
	if c.SkipSeconds <= 0 {
		return fmt.Errorf("skip_seconds must be positive, got %v", c.SkipSeconds)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	if c.Cache.MemorySize < 1 {
		return fmt.Errorf("cache.memory_size must be at least 1 MiB, got %d", c.Cache.MemorySize)
	}
	if c.Cache.DiskSize < 0 {
		return fmt.Errorf("cache.disk_size cannot be negative, got %d", c.Cache.DiskSize)
	}
	if c.Cache.CompressionLevel < 0 || c.Cache.CompressionLevel > 22 {
		return fmt.Errorf("cache.compression_level must be between 0 and 22, got %d", c.Cache.CompressionLevel)
	}

	if _, err := ttssync.ParseMode(c.Highlight.Mode); err != nil {
		return err
	}
	validColors := []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}
	colorValid := false
	for _, color := range validColors {
		if strings.EqualFold(c.Highlight.Color, color) {
			colorValid = true
			c.Highlight.Color = strings.ToLower(c.Highlight.Color)
			break
		}
	}
	if !colorValid {
		return fmt.Errorf("invalid highlight color '%s': must be one of %v", c.Highlight.Color, validColors)
	}

	return nil
}

// Format returns the configured output format.
func (c *Config) Format() elevenlabs.Format {
	f, err := elevenlabs.ParseFormat(c.OutputFormat)
	if err != nil {
		return elevenlabs.DefaultFormat
	}
	return f
}

// Mode returns the configured highlight mode.
func (c *Config) Mode() ttssync.HighlightMode {
	m, _ := ttssync.ParseMode(c.Highlight.Mode)
	return m
}

// Level returns the configured log level.
func (c *Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// ClientOptions converts the configuration to ElevenLabs client options.
func (c *Config) ClientOptions(logger *log.Logger) []elevenlabs.Option {
	return []elevenlabs.Option{
		elevenlabs.WithVoiceID(c.VoiceID),
		elevenlabs.WithModelID(c.ModelID),
		elevenlabs.WithFormat(c.Format()),
		elevenlabs.WithVoiceSettings(elevenlabs.VoiceSettings{
			Stability:       c.Stability,
			SimilarityBoost: c.SimilarityBoost,
		}),
		elevenlabs.WithMaxChunkSize(c.MaxChunkSize),
		elevenlabs.WithRequestsPerMinute(c.RequestsPerMinute),
		elevenlabs.WithTimeout(c.RequestTimeout),
		elevenlabs.WithLogger(logger),
	}
}

// ToCacheConfig converts the configuration to a cache configuration. The
// disk tier is disabled when no directory is set.
func (c *Config) ToCacheConfig() *cache.CacheConfig {
	return &cache.CacheConfig{
		MemoryCapacity:   c.Cache.MemorySize * 1024 * 1024,
		DiskCapacity:     c.Cache.DiskSize * 1024 * 1024,
		DiskPath:         c.Cache.Dir,
		CompressionLevel: c.Cache.CompressionLevel,
	}
}
