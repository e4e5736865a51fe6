package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.Equal(t, game_log.LevelInfo, cfg.Level())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `interval: 250ms
log_level: debug
drop_closed: true
channel_count: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.Interval)
	require.Equal(t, game_log.LevelDebug, cfg.Level())
	require.True(t, cfg.DropClosed)
	require.Equal(t, 2, cfg.ChannelCount)
	require.Equal(t, 44100, cfg.SampleRate, "unset keys keep their default")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "interval: 250ms\n")
	t.Setenv("WAKEAUDIO_INTERVAL", "50ms")
	t.Setenv("WAKEAUDIO_DROP_CLOSED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50*time.Millisecond, cfg.Interval)
	require.True(t, cfg.DropClosed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `interval: 0s
log_level: loud
channel_count: 6
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Contains(t, err.Error(), "interval must be positive")
	require.Contains(t, err.Error(), `unknown log_level "loud"`)
	require.Contains(t, err.Error(), "channel_count must be 1 or 2")
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestWriteDefaultConfig_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".wakeaudio", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "interval: 100ms")
	require.Contains(t, string(data), "log_level: INFO")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}
