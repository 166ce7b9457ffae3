package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/orrery/internal/config"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/adapters/process"
	"github.com/aretw0/orrery/pkg/adapters/sqlite"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBase(t *testing.T) {
	assert.Equal(t, "http://localhost:5000", httpBase("ws://localhost:5000/ws"))
	assert.Equal(t, "https://example.org/producer", httpBase("wss://example.org/producer/ws/"))
	assert.Equal(t, "http://plain", httpBase("http://plain"))
}

func TestOpenSource_FixedSessionTransportsNeedSessionID(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = config.TransportReplay
	_, err := openSource(context.Background(), cfg, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg.Transport = config.TransportRedis
	_, err = openSource(context.Background(), cfg, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestOpenSource_ReplayPlaysArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.db")
	archive, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = archive.Append(context.Background(), "s1", []domain.Frame{{{ID: "a"}}})
	require.NoError(t, err)
	require.NoError(t, archive.Close())

	cfg := config.Default()
	cfg.Transport = config.TransportReplay
	cfg.Source = path
	cfg.SessionID = "s1"

	src, err := openSource(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer src.Close()
	assert.Nil(t, src.starter)

	sc, err := sessionConfig(context.Background(), cfg, src)
	require.NoError(t, err)
	assert.Equal(t, "s1", sc.SessionID)

	frames, err := src.fetcher.FetchChunk(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestPlayerOptions(t *testing.T) {
	cfg := config.Default()
	opts, err := playerOptions(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, opts, 5)

	cfg.InitialState = "spinning"
	_, err = playerOptions(cfg, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSpawnProducer(t *testing.T) {
	cfg := config.Default()
	proc, err := spawnProducer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, proc)

	cfg.Spawn = "nbody"
	cfg.Producers = filepath.Join(t.TempDir(), "producers.yaml")
	_, err = spawnProducer(context.Background(), cfg, logging.NewNop())
	assert.ErrorIs(t, err, process.ErrNotRegistered)
}
