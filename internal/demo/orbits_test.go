package demo_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/orrery/internal/demo"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrbitSource_ContinuesAcrossChunks(t *testing.T) {
	src := demo.NewOrbitSource(demo.SolarSystem(), 0.01, 10)

	a, err := src.NextChunk(context.Background())
	require.NoError(t, err)
	b, err := src.NextChunk(context.Background())
	require.NoError(t, err)
	require.Len(t, a, 10)
	require.Len(t, b, 10)

	earthA, ok := a[9].Lookup("Earth")
	require.True(t, ok)
	earthB, ok := b[0].Lookup("Earth")
	require.True(t, ok)

	// One frame of 0.01 years moves the earth about 2*pi*0.01 AU.
	assert.InDelta(t, 0.0628, earthA.Position.Distance(earthB.Position), 1e-3)
	assert.InDelta(t, 1.0, earthB.Position.Len(), 1e-9, "orbit radius is preserved")

	sun, _ := b[0].Lookup("Sun")
	assert.Zero(t, sun.Position.Len())
}

func TestOrbitSource_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := demo.NewOrbitSource(demo.SolarSystem(), 0.01, 10).NextChunk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionConfig(t *testing.T) {
	cfg := demo.SessionConfig("s", "Solar System", 30, 0.01, demo.SolarSystem())
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9, cfg.EntityCount)
	assert.Equal(t, "Sun", cfg.EntityIDs[0])
	assert.InDelta(t, 1.0, cfg.InitialPositions["Earth"].Len(), 1e-9)
}

func TestRegister_ServesDemoSimulations(t *testing.T) {
	p := orreryhttp.NewProducer(nil)
	demo.Register(p, 10)
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	c := orreryhttp.NewClient(srv.URL)
	cfg, err := c.StartSession(context.Background(), demo.KeyInnerPlanets)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.EntityCount)
	assert.Equal(t, []string{"Sun", "Mercury", "Venus", "Earth", "Mars"}, cfg.EntityIDs)
	require.Len(t, cfg.InitialPositions, 5)

	frames, err := c.FetchChunk(context.Background(), cfg.SessionID)
	require.NoError(t, err)
	assert.Len(t, frames, 10)
	assert.Len(t, frames[0], 5)
}
