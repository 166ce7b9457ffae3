package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/orrery/internal/config"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, domain.DefaultTuning(), cfg.DomainTuning())

	state, err := cfg.PlaybackState()
	require.NoError(t, err)
	assert.Equal(t, domain.StatePlaying, state)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orrery.yaml")
	content := `
transport: ws
source: ws://producer:9000/chunks
follow: true
tuning:
  low_watermark: 2s
  trail_capacity: 50
retry:
  max: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("ORRERY_TRAIL_CAPACITY", "25")
	t.Setenv("ORRERY_INITIAL_STATE", "paused")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.TransportWebsocket, cfg.Transport)
	assert.Equal(t, "ws://producer:9000/chunks", cfg.Source)
	assert.True(t, cfg.Follow)
	assert.Equal(t, 2*time.Second, cfg.Tuning.LowWatermark)
	assert.Equal(t, 25, cfg.Tuning.TrailCapacity, "environment wins over the file")
	assert.Equal(t, 800, cfg.Tuning.HighCursorThreshold, "untouched keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Retry.Max)
	assert.Equal(t, "paused", cfg.InitialState)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("Bad Yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tuning: [1, 2"), 0o644))
		_, err := config.Load(path)
		assert.Error(t, err)
	})

	t.Run("Bad Env", func(t *testing.T) {
		t.Setenv("ORRERY_SAFETY_MARGIN", "lots")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "parse env:")
	})

	t.Run("Unknown Transport", func(t *testing.T) {
		t.Setenv("ORRERY_TRANSPORT", "carrier-pigeon")
		_, err := config.Load("")
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("Zero Capacity", func(t *testing.T) {
		t.Setenv("ORRERY_TRAIL_CAPACITY", "0")
		_, err := config.Load("")
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestFixedSession(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = config.TransportRedis
	cfg.SessionID = "s1"
	cfg.EntityCount = 3

	sc := cfg.FixedSession()
	assert.False(t, cfg.NeedsHandshake())
	assert.Equal(t, "s1", sc.SessionID)
	assert.Equal(t, 30, sc.FPS)
	assert.Equal(t, 3, sc.EntityCount)
	assert.NoError(t, sc.Validate())

	cfg.Transport = config.TransportWebsocket
	assert.True(t, cfg.NeedsHandshake())
}
