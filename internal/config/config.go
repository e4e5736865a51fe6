// Package config loads wakeaudio settings from defaults, a YAML file and
// WAKEAUDIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

// DefaultPath is where `wakeaudio init` writes the config file.
const DefaultPath = ".wakeaudio/config.yaml"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Interval     time.Duration `mapstructure:"interval"`
	LogLevel     string        `mapstructure:"log_level"`
	DropClosed   bool          `mapstructure:"drop_closed"`
	SampleRate   int           `mapstructure:"sample_rate"`
	ChannelCount int           `mapstructure:"channel_count"`
	Tone         bool          `mapstructure:"tone"`
}

func Defaults() Config {
	return Config{
		Interval:     100 * time.Millisecond,
		LogLevel:     "INFO",
		SampleRate:   44100,
		ChannelCount: 1,
	}
}

// Level returns the parsed log level.
func (c Config) Level() game_log.Level {
	return game_log.LevelFromString(c.LogLevel)
}

func (c Config) Validate() error {
	var problems []string
	if c.Interval <= 0 {
		problems = append(problems, fmt.Sprintf("interval must be positive, got %v", c.Interval))
	}
	if !game_log.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	if c.SampleRate <= 0 {
		problems = append(problems, fmt.Sprintf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.ChannelCount != 1 && c.ChannelCount != 2 {
		problems = append(problems, fmt.Sprintf("channel_count must be 1 or 2, got %d", c.ChannelCount))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// NewViper returns a viper instance seeded with defaults and bound to the
// environment. path may be empty.
func NewViper(path string) *viper.Viper {
	d := Defaults()
	v := viper.New()
	v.SetDefault("interval", d.Interval)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("drop_closed", d.DropClosed)
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("channel_count", d.ChannelCount)
	v.SetDefault("tone", d.Tone)
	v.SetEnvPrefix("wakeaudio")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// Load reads path (if non-empty) over the defaults and validates the result.
func Load(path string) (Config, error) {
	return LoadViper(NewViper(path))
}

// LoadViper unmarshals and validates an already prepared viper instance.
// A config file that was set but does not exist is an error.
func LoadViper(v *viper.Viper) (Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type fileConfig struct {
	Interval     string `yaml:"interval"`
	LogLevel     string `yaml:"log_level"`
	DropClosed   bool   `yaml:"drop_closed"`
	SampleRate   int    `yaml:"sample_rate"`
	ChannelCount int    `yaml:"channel_count"`
	Tone         bool   `yaml:"tone"`
}

// WriteDefaultConfig writes the defaults to path, creating parent
// directories.
func WriteDefaultConfig(path string) error {
	d := Defaults()
	data, err := yaml.Marshal(fileConfig{
		Interval:     d.Interval.String(),
		LogLevel:     d.LogLevel,
		DropClosed:   d.DropClosed,
		SampleRate:   d.SampleRate,
		ChannelCount: d.ChannelCount,
		Tone:         d.Tone,
	})
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
