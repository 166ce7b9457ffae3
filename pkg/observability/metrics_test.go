package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(id string) domain.EventBase {
	return domain.EventBase{SessionID: id, Timestamp: time.Now()}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	h := m.Hooks()
	ctx := context.Background()

	h.OnFetchDone(ctx, &domain.FetchEvent{EventBase: base("s1"), Frames: 30, Duration: time.Millisecond})
	h.OnFetchDone(ctx, &domain.FetchEvent{EventBase: base("s1")})
	h.OnFetchDone(ctx, &domain.FetchEvent{EventBase: base("s1"), Err: errors.New("boom")})
	h.OnCompact(ctx, &domain.BufferEvent{EventBase: base("s1"), Dropped: 800})
	h.OnTick(ctx, &domain.BufferEvent{EventBase: base("s1"), Advanced: true, RemainingSeconds: 4.5})
	h.OnTick(ctx, &domain.BufferEvent{EventBase: base("s1"), RemainingSeconds: 4.5})
	h.OnStall(ctx, &domain.BufferEvent{EventBase: base("s1")})
	h.OnReject(ctx, &domain.FrameEvent{EventBase: base("s1")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("s1", observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("s1", observability.OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("s1", observability.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compactions.WithLabelValues("s1")))
	assert.Equal(t, 800.0, testutil.ToFloat64(m.FramesDropped.WithLabelValues("s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesPlayed.WithLabelValues("s1")))
	assert.Equal(t, 4.5, testutil.ToFloat64(m.RemainingSeconds.WithLabelValues("s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stalls.WithLabelValues("s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesRejected.WithLabelValues("s1")))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{
		OnStall: func(context.Context, *domain.BufferEvent) { order = append(order, "a") },
	}
	b := domain.LifecycleHooks{
		OnStall: func(context.Context, *domain.BufferEvent) { order = append(order, "b") },
		OnTick:  func(context.Context, *domain.BufferEvent) { order = append(order, "tick") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnStall(context.Background(), &domain.BufferEvent{})
	h.OnTick(context.Background(), &domain.BufferEvent{})

	assert.Equal(t, []string{"a", "b", "tick"}, order)
	assert.Nil(t, h.OnReject)
}
