package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/orrery/pkg/adapters/memory"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Contract(t *testing.T) {
	ports.RunFetcherContract(t, func(t *testing.T, sessionID string, chunks [][]domain.Frame) ports.Fetcher {
		f := memory.NewFetcher()
		for _, c := range chunks {
			f.PushChunk(sessionID, c)
		}
		return f
	})
}

func TestFetcher_Fail(t *testing.T) {
	f := memory.NewFetcher()
	boom := errors.New("boom")
	f.Fail("s1", boom)

	_, err := f.FetchChunk(context.Background(), "s1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.Calls("s1"))
}

func TestFetcher_HoldHonoursContext(t *testing.T) {
	f := memory.NewFetcher()
	f.Hold()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchChunk(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcher_Release(t *testing.T) {
	f := memory.NewFetcher()
	f.PushChunk("s1", []domain.Frame{{{ID: "a"}}})
	f.Hold()

	done := make(chan []domain.Frame, 1)
	go func() {
		frames, _ := f.FetchChunk(context.Background(), "s1")
		done <- frames
	}()

	assert.Eventually(t, func() bool { return f.Calls("s1") == 1 }, time.Second, time.Millisecond)
	f.Release()

	select {
	case frames := <-done:
		assert.Len(t, frames, 1)
	case <-time.After(time.Second):
		t.Fatal("fetch did not return after Release")
	}
	assert.Equal(t, 1, f.MaxConcurrent())
}

func TestFetcher_StartSession(t *testing.T) {
	f := memory.NewFetcher()
	f.AddSimulation("solar", domain.SessionConfig{SessionID: "abc", FPS: 30})

	cfg, err := f.StartSession(context.Background(), "solar")
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.SessionID)

	_, err = f.StartSession(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
