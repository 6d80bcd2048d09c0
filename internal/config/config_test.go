package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "", cfg.Image.URL)
	assert.Equal(t, 100, cfg.Image.PlaceholderSize)
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puzzle.yaml")
	body := `server:
  addr: ":9999"
image:
  url: ""
  fetch_timeout: 3s
event:
  id: autumn
  dir: ./events
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "", cfg.Image.URL)
	assert.Equal(t, 3*time.Second, cfg.Image.FetchTimeout)
	assert.Equal(t, "autumn", cfg.Event.ID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("addr and event", func(t *testing.T) {
		t.Setenv("PUZZLE_ADDR", ":7000")
		t.Setenv("PUZZLE_EVENTS_DIR", "/srv/events")
		t.Setenv("PUZZLE_EVENT_ID", "winter")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, "/srv/events", cfg.Event.Dir)
		assert.Equal(t, "winter", cfg.Event.ID)
	})

	t.Run("image url override", func(t *testing.T) {
		t.Setenv("PUZZLE_IMAGE_URL", " https://example.com/a.png ")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a.png", cfg.Image.URL)
	})

	t.Run("timeouts and level", func(t *testing.T) {
		t.Setenv("PUZZLE_IMAGE_TIMEOUT", "250ms")
		t.Setenv("PUZZLE_IMAGE_MAX_BYTES", "1024")
		t.Setenv("PUZZLE_LOG_LEVEL", "WARN")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.Image.FetchTimeout)
		assert.Equal(t, int64(1024), cfg.Image.MaxBytes)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("malformed timeout is reported", func(t *testing.T) {
		t.Setenv("PUZZLE_IMAGE_TIMEOUT", "15 seconds")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PUZZLE_IMAGE_TIMEOUT")
	})

	t.Run("malformed max bytes is reported", func(t *testing.T) {
		t.Setenv("PUZZLE_IMAGE_MAX_BYTES", "20MB")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PUZZLE_IMAGE_MAX_BYTES")
	})

	t.Run("invalid level fails validation", func(t *testing.T) {
		t.Setenv("PUZZLE_LOG_LEVEL", "loud")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Level")
	})
}
