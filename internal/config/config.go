// Package config loads service configuration from environment variables and
// an optional config file. All tunables used by the preparation pipeline are
// surfaced here so nothing is hard-coded at call sites.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable for the transcript preparation pipeline.
type Config struct {
	// OpenAIAPIKey authenticates transcription and chat calls.
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	// TranscriptionModel is the speech-to-text model name.
	TranscriptionModel string `mapstructure:"transcription_model"`
	// ChatModel is the default generation model name.
	ChatModel string `mapstructure:"chat_model"`

	// TempDir is the root for per-request scratch directories.
	TempDir string `mapstructure:"temp_dir"`

	// MaxUploadBytes is the provider's hard single-file limit.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	// TargetChunkBytes is the desired size of each split chunk.
	TargetChunkBytes int64 `mapstructure:"target_chunk_bytes"`
	// AbsoluteMaxBytes is the ceiling beyond which uploads are rejected
	// outright rather than split.
	AbsoluteMaxBytes int64 `mapstructure:"absolute_max_bytes"`
	// MaxChunkSeconds caps the duration of a single chunk.
	MaxChunkSeconds float64 `mapstructure:"max_chunk_seconds"`
	// MinChunkSeconds floors the duration of a single chunk.
	MinChunkSeconds float64 `mapstructure:"min_chunk_seconds"`

	// BeginningRatio is the share of the truncation budget given to the
	// start of the transcript; the remainder goes to the end.
	BeginningRatio float64 `mapstructure:"beginning_ratio"`
}

// Load reads configuration with precedence: env vars, then config file,
// then defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("openai_api_key", "")
	v.SetDefault("transcription_model", "whisper-1")
	v.SetDefault("chat_model", "gpt-4o")
	v.SetDefault("temp_dir", os.TempDir())
	v.SetDefault("max_upload_bytes", int64(25*1024*1024))
	v.SetDefault("target_chunk_bytes", int64(20*1024*1024))
	v.SetDefault("absolute_max_bytes", int64(500*1024*1024))
	v.SetDefault("max_chunk_seconds", float64(20*60))
	v.SetDefault("min_chunk_seconds", float64(60))
	v.SetDefault("beginning_ratio", 0.6)

	v.SetConfigName("podforge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/podforge")

	v.SetEnvPrefix("podforge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// OPENAI_API_KEY is the conventional name; honor it when the prefixed
	// variable is not set.
	if v.GetString("openai_api_key") == "" {
		v.Set("openai_api_key", os.Getenv("OPENAI_API_KEY"))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants between related limits.
func (c *Config) Validate() error {
	if c.TargetChunkBytes > c.MaxUploadBytes {
		return fmt.Errorf("target_chunk_bytes (%d) must not exceed max_upload_bytes (%d)", c.TargetChunkBytes, c.MaxUploadBytes)
	}
	if c.AbsoluteMaxBytes < c.MaxUploadBytes {
		return fmt.Errorf("absolute_max_bytes (%d) must be at least max_upload_bytes (%d)", c.AbsoluteMaxBytes, c.MaxUploadBytes)
	}
	if c.BeginningRatio <= 0 || c.BeginningRatio >= 1 {
		return fmt.Errorf("beginning_ratio must be in (0, 1), got %.2f", c.BeginningRatio)
	}
	if c.MinChunkSeconds <= 0 || c.MaxChunkSeconds <= c.MinChunkSeconds {
		return fmt.Errorf("chunk duration bounds invalid: min=%.0f max=%.0f", c.MinChunkSeconds, c.MaxChunkSeconds)
	}
	return nil
}
