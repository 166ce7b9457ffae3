package runtime_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/orrery/internal/runtime"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/require"
)

// manualClock is a ports.Clock moved by hand.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// orbit builds n frames of a two-body system starting at step start.
// The sun is fixed at the origin; the earth moves on the unit circle.
func orbit(start, n int) []domain.Frame {
	out := make([]domain.Frame, n)
	for i := range out {
		a := float64(start+i) * 0.01
		out[i] = domain.Frame{
			{ID: "sun", Name: "Sun", Position: domain.Vec3{}},
			{ID: "earth", Name: "Earth", Position: domain.Vec3{X: math.Cos(a), Y: math.Sin(a)}},
		}
	}
	return out
}

func session(id string) domain.SessionConfig {
	return domain.SessionConfig{
		SessionID:     id,
		Name:          "two-body",
		FPS:           30,
		YearsPerFrame: 0.01,
		EntityCount:   2,
	}
}

// awaitResult waits for the next fetch outcome of e.
func awaitResult(t *testing.T, e *runtime.Engine) runtime.FetchResult {
	t.Helper()
	select {
	case res := <-e.Results():
		return res
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for fetch result")
		return runtime.FetchResult{}
	}
}

// hookCounter counts lifecycle events.
type hookCounter struct {
	mu          sync.Mutex
	fetchStart  int
	fetchDone   int
	fetchErrors int
	compacts    []*domain.BufferEvent
	stalls      int
	rejects     []*domain.FrameEvent
}

func (h *hookCounter) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFetchStart: func(_ context.Context, _ *domain.FetchEvent) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.fetchStart++
		},
		OnFetchDone: func(_ context.Context, e *domain.FetchEvent) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.fetchDone++
			if e.Err != nil {
				h.fetchErrors++
			}
		},
		OnCompact: func(_ context.Context, e *domain.BufferEvent) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.compacts = append(h.compacts, e)
		},
		OnStall: func(_ context.Context, _ *domain.BufferEvent) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.stalls++
		},
		OnReject: func(_ context.Context, e *domain.FrameEvent) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.rejects = append(h.rejects, e)
		},
	}
}

func (h *hookCounter) starts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fetchStart
}
