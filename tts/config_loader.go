package tts

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads TTS configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	// Synthesis settings
	if viper.IsSet("voice_id") {
		cfg.VoiceID = viper.GetString("voice_id")
	}
	if viper.IsSet("model_id") {
		cfg.ModelID = viper.GetString("model_id")
	}
	if viper.IsSet("output_format") {
		cfg.OutputFormat = viper.GetString("output_format")
	}
	if viper.IsSet("stability") {
		cfg.Stability = viper.GetFloat64("stability")
	}
	if viper.IsSet("similarity_boost") {
		cfg.SimilarityBoost = viper.GetFloat64("similarity_boost")
	}

	// Request settings
	if viper.IsSet("max_chunk_size") {
		cfg.MaxChunkSize = viper.GetInt("max_chunk_size")
	}
	if viper.IsSet("requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("requests_per_minute")
	}
	if viper.IsSet("request_timeout") {
		if d, err := time.ParseDuration(viper.GetString("request_timeout")); err == nil {
			cfg.RequestTimeout = d
		}
	}

	// Playback and document settings
	if viper.IsSet("skip_seconds") {
		cfg.SkipSeconds = viper.GetFloat64("skip_seconds")
	}
	if viper.IsSet("include_code_blocks") {
		cfg.IncludeCodeBlocks = viper.GetBool("include_code_blocks")
	}
	if viper.IsSet("export_dir") {
		cfg.ExportDir = viper.GetString("export_dir")
	}
	if viper.IsSet("log_level") {
		cfg.LogLevel = viper.GetString("log_level")
	}

	cfg.Cache = loadCacheConfig(cfg.Cache)
	cfg.Highlight = loadHighlightConfig(cfg.Highlight)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	return cfg, nil
}

// loadCacheConfig loads cache configuration from Viper.
func loadCacheConfig(cfg CacheConfig) CacheConfig {
	if viper.IsSet("cache.memory_size") {
		cfg.MemorySize = viper.GetInt64("cache.memory_size")
	}
	if viper.IsSet("cache.disk_size") {
		cfg.DiskSize = viper.GetInt64("cache.disk_size")
	}
	if viper.IsSet("cache.dir") {
		cfg.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.compression_level") {
		cfg.CompressionLevel = viper.GetInt("cache.compression_level")
	}
	return cfg
}

// loadHighlightConfig loads highlighting configuration from Viper.
func loadHighlightConfig(cfg HighlightConfig) HighlightConfig {
	if viper.IsSet("highlight.mode") {
		cfg.Mode = viper.GetString("highlight.mode")
	}
	if viper.IsSet("highlight.color") {
		cfg.Color = viper.GetString("highlight.color")
	}
	return cfg
}

// SetDefaults sets default values in Viper for TTS configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("voice_id", defaults.VoiceID)
	viper.SetDefault("model_id", defaults.ModelID)
	viper.SetDefault("output_format", defaults.OutputFormat)
	viper.SetDefault("stability", defaults.Stability)
	viper.SetDefault("similarity_boost", defaults.SimilarityBoost)

	viper.SetDefault("max_chunk_size", defaults.MaxChunkSize)
	viper.SetDefault("requests_per_minute", defaults.RequestsPerMinute)
	viper.SetDefault("request_timeout", defaults.RequestTimeout.String())

	viper.SetDefault("skip_seconds", defaults.SkipSeconds)
	viper.SetDefault("include_code_blocks", defaults.IncludeCodeBlocks)
	viper.SetDefault("log_level", defaults.LogLevel)

	viper.SetDefault("cache.memory_size", defaults.Cache.MemorySize)
	viper.SetDefault("cache.disk_size", defaults.Cache.DiskSize)
	viper.SetDefault("cache.compression_level", defaults.Cache.CompressionLevel)

	viper.SetDefault("highlight.mode", defaults.Highlight.Mode)
	viper.SetDefault("highlight.color", defaults.Highlight.Color)
}
