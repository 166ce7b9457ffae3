package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FetcherFactory builds a Fetcher preloaded with the given chunks for sessionID.
type FetcherFactory func(t *testing.T, sessionID string, chunks [][]domain.Frame) Fetcher

// RunFetcherContract runs a suite of tests to verify that a Fetcher implementation
// adheres to the defined interface contract: chunks come back in order, frames keep
// identity and positions, an exhausted source yields an empty chunk
// and an unknown session never sees another session's frames.
func RunFetcherContract(t *testing.T, factory FetcherFactory) {
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405")

	chunks := [][]domain.Frame{
		{contractFrame(0), contractFrame(1)},
		{contractFrame(2)},
	}

	t.Run("Chunks In Order", func(t *testing.T) {
		f := factory(t, sessionID, chunks)

		for i, want := range chunks {
			got, err := f.FetchChunk(ctx, sessionID)
			require.NoError(t, err, "chunk %d", i)
			require.Len(t, got, len(want), "chunk %d", i)
			for j := range want {
				assert.Equal(t, want[j].IDs(), got[j].IDs())
				for k := range want[j] {
					assert.InDelta(t, want[j][k].Position.X, got[j][k].Position.X, 1e-9)
					assert.InDelta(t, want[j][k].Position.Y, got[j][k].Position.Y, 1e-9)
					assert.InDelta(t, want[j][k].Position.Z, got[j][k].Position.Z, 1e-9)
				}
			}
		}
	})

	t.Run("Exhausted Source Is Empty", func(t *testing.T) {
		f := factory(t, sessionID+"-drained", chunks[:1])

		_, err := f.FetchChunk(ctx, sessionID+"-drained")
		require.NoError(t, err)

		got, err := f.FetchChunk(ctx, sessionID+"-drained")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Unknown Session Does Not Leak", func(t *testing.T) {
		f := factory(t, sessionID+"-known", chunks)

		got, err := f.FetchChunk(ctx, "unknown-"+sessionID)
		if err == nil {
			assert.Empty(t, got)
		}
	})
}

func contractFrame(step int) domain.Frame {
	s := float64(step)
	return domain.Frame{
		{ID: "Sun", Name: "Sun", Position: domain.Vec3{}},
		{ID: "Earth", Name: "Earth", Position: domain.Vec3{X: 1 - s*0.01, Y: s * 0.1, Z: 0}},
	}
}
