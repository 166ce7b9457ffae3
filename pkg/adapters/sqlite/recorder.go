package sqlite

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// Recorder tees every non-empty chunk fetched through it into an archive.
// A failed write is logged; playback still gets the frames.
type Recorder struct {
	next    ports.Fetcher
	archive *Archive
	logger  *slog.Logger
}

var _ ports.Fetcher = (*Recorder)(nil)

// NewRecorder wraps next.
func NewRecorder(next ports.Fetcher, archive *Archive, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{next: next, archive: archive, logger: logger}
}

// FetchChunk delegates and archives the result.
func (r *Recorder) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	frames, err := r.next.FetchChunk(ctx, sessionID)
	if err != nil || len(frames) == 0 {
		return frames, err
	}
	if seq, aerr := r.archive.Append(ctx, sessionID, frames); aerr != nil {
		r.logger.Warn("archive write failed", "session_id", sessionID, "error", aerr)
	} else {
		r.logger.Debug("chunk archived", "session_id", sessionID, "seq", seq, "frames", len(frames))
	}
	return frames, nil
}

// Replay serves archived chunks in order, then empty chunks.
type Replay struct {
	archive *Archive

	mu     sync.Mutex
	cursor map[string]int64
}

var _ ports.Fetcher = (*Replay)(nil)

// NewReplay reads from archive.
func NewReplay(archive *Archive) *Replay {
	return &Replay{archive: archive, cursor: make(map[string]int64)}
}

// FetchChunk returns the chunk after the last one served for sessionID.
func (r *Replay) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	r.mu.Lock()
	after := r.cursor[sessionID]
	r.mu.Unlock()

	c, ok, err := r.archive.Next(ctx, sessionID, after)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Frame{}, nil
	}

	r.mu.Lock()
	r.cursor[sessionID] = c.Seq
	r.mu.Unlock()
	return c.Frames, nil
}

// Rewind restarts sessionID from its first chunk.
func (r *Replay) Rewind(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cursor, sessionID)
}
