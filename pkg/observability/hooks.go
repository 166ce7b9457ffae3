package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/orrery/pkg/domain"
)

// LogHooks logs fetch and buffer events. Ticks are not logged.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFetchStart: func(ctx context.Context, e *domain.FetchEvent) {
			logger.DebugContext(ctx, "fetch started", "session_id", e.SessionID, "attempt", e.Attempt)
		},
		OnFetchDone: func(ctx context.Context, e *domain.FetchEvent) {
			if e.Err != nil {
				return
			}
			logger.DebugContext(ctx, "fetch done",
				"session_id", e.SessionID,
				"attempt", e.Attempt,
				"frames", e.Frames,
				"duration", e.Duration,
			)
		},
		OnStall: func(ctx context.Context, e *domain.BufferEvent) {
			logger.InfoContext(ctx, "playback waiting for data", "session_id", e.SessionID, "cursor", e.Cursor)
		},
	}
}

// Combine merges hook sets; each event is delivered to every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnFetchStart = chain(out.OnFetchStart, h.OnFetchStart)
		out.OnFetchDone = chain(out.OnFetchDone, h.OnFetchDone)
		out.OnCompact = chain(out.OnCompact, h.OnCompact)
		out.OnTick = chain(out.OnTick, h.OnTick)
		out.OnStall = chain(out.OnStall, h.OnStall)
		out.OnReject = chain(out.OnReject, h.OnReject)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
