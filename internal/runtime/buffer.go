package runtime

import (
	"github.com/aretw0/orrery/pkg/domain"
)

// Buffer is the ordered sequence of fetched frames plus the playback cursor.
// Frames are only appended at the tail until Compact drops the played prefix.
// Invariant: 0 <= cursor <= Len().
type Buffer struct {
	frames []domain.Frame
	cursor int
}

// NewBuffer creates an empty buffer with the cursor at 0.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append concatenates a chunk at the tail. Producer ordering is trusted.
// It never moves the cursor, so it is safe to interleave with playback.
func (b *Buffer) Append(chunk []domain.Frame) int {
	b.frames = append(b.frames, chunk...)
	return len(b.frames)
}

// Current returns the frame under the cursor, or domain.ErrNoData when the
// cursor has caught up with the tail.
func (b *Buffer) Current() (domain.Frame, error) {
	if b.cursor >= len(b.frames) {
		return nil, domain.ErrNoData
	}
	return b.frames[b.cursor], nil
}

// Advance moves the cursor one frame forward. It refuses to pass the tail.
func (b *Buffer) Advance() bool {
	if b.cursor >= len(b.frames) {
		return false
	}
	b.cursor++
	return true
}

// Compact drops every frame before the cursor and resets the cursor to 0.
// The unplayed suffix is copied so the played prefix can be collected.
// Must not run while a fetch is in flight. Returns the number of dropped frames.
func (b *Buffer) Compact() int {
	dropped := b.cursor
	if dropped == 0 {
		return 0
	}
	rest := make([]domain.Frame, len(b.frames)-b.cursor)
	copy(rest, b.frames[b.cursor:])
	b.frames = rest
	b.cursor = 0
	return dropped
}

// Remaining is the number of frames not yet played.
func (b *Buffer) Remaining() int {
	return len(b.frames) - b.cursor
}

// RemainingSeconds is (length - cursor) / fps.
func (b *Buffer) RemainingSeconds(fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(b.Remaining()) / float64(fps)
}

// Len is the number of buffered frames, played or not.
func (b *Buffer) Len() int {
	return len(b.frames)
}

// Cursor is the index of the next frame to play.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Frames returns a copy of the buffered sequence.
func (b *Buffer) Frames() []domain.Frame {
	out := make([]domain.Frame, len(b.frames))
	copy(out, b.frames)
	return out
}
