package ports

import (
	"context"

	"github.com/aretw0/orrery/pkg/domain"
)

// Fetcher delivers the next chunk of frames for a producer session.
// Implementations must return frames in producer order. A failure is transient from the
// engine's point of view: the buffer is left untouched and the request is retried later.
type Fetcher interface {
	FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, sessionID string) ([]domain.Frame, error)

// FetchChunk calls f(ctx, sessionID).
func (f FetcherFunc) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	return f(ctx, sessionID)
}

// SessionStarter asks a producer to start a named simulation.
type SessionStarter interface {
	StartSession(ctx context.Context, simulation string) (domain.SessionConfig, error)
}
