package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/orrery/pkg/adapters/memory"
	"github.com/aretw0/orrery/pkg/adapters/sqlite"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openArchive(t *testing.T) *sqlite.Archive {
	t.Helper()
	a, err := sqlite.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func frames(ids ...string) []domain.Frame {
	out := make([]domain.Frame, len(ids))
	for i, id := range ids {
		out[i] = domain.Frame{{ID: id, Position: domain.Vec3{X: float64(i)}}}
	}
	return out
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestArchive_AppendNext(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()

	seq, err := a.Append(ctx, "s1", frames("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	seq, err = a.Append(ctx, "s1", frames("c"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
	_, err = a.Append(ctx, "s2", frames("z"))
	require.NoError(t, err)

	c, ok, err := a.Next(ctx, "s1", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), c.Seq)
	assert.Len(t, c.Frames, 2)
	assert.False(t, c.CreatedAt.IsZero())

	c, ok, err = a.Next(ctx, "s1", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", c.Frames[0][0].ID)

	_, ok, err = a.Next(ctx, "s1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err := a.Recordings(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "s1", recs[0].SessionID)
	assert.Equal(t, int64(2), recs[0].Chunks)
	assert.Equal(t, int64(3), recs[0].Frames)

	require.NoError(t, a.Delete(ctx, "s1"))
	recs, err = a.Recordings(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestArchive_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = a.Append(context.Background(), "s1", frames("a"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = sqlite.Open(path)
	require.NoError(t, err)
	defer a.Close()
	_, ok, err := a.Next(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplay_Contract(t *testing.T) {
	ports.RunFetcherContract(t, func(t *testing.T, sessionID string, chunks [][]domain.Frame) ports.Fetcher {
		a := openArchive(t)
		for _, c := range chunks {
			_, err := a.Append(context.Background(), sessionID, c)
			require.NoError(t, err)
		}
		return sqlite.NewReplay(a)
	})
}

func TestRecorder_TeesIntoArchive(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()

	src := memory.NewFetcher()
	src.PushChunk("s1", frames("a", "b"))
	src.Fail("s1", assert.AnError)
	src.PushChunk("s1", frames("c"))

	rec := sqlite.NewRecorder(src, a, nil)

	got, err := rec.FetchChunk(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = rec.FetchChunk(ctx, "s1")
	assert.ErrorIs(t, err, assert.AnError)

	_, err = rec.FetchChunk(ctx, "s1")
	require.NoError(t, err)

	got, err = rec.FetchChunk(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	replay := sqlite.NewReplay(a)
	first, err := replay.FetchChunk(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, frames("a", "b"), first)
	second, err := replay.FetchChunk(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, frames("c"), second)
	done, err := replay.FetchChunk(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, done)

	replay.Rewind("s1")
	again, err := replay.FetchChunk(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}
