package runtime

import (
	"fmt"

	"github.com/aretw0/orrery/pkg/domain"
)

// PlaybackClock is the play/pause state machine plus the simulated time counter.
type PlaybackClock struct {
	state         domain.PlaybackState
	yearsPerFrame float64
	frames        uint64
}

// NewPlaybackClock creates a clock in the given initial state.
func NewPlaybackClock(initial domain.PlaybackState, yearsPerFrame float64) (*PlaybackClock, error) {
	switch initial {
	case domain.StatePlaying, domain.StatePaused:
	default:
		return nil, fmt.Errorf("%w: unknown playback state %q", domain.ErrInvalidConfig, initial)
	}
	return &PlaybackClock{state: initial, yearsPerFrame: yearsPerFrame}, nil
}

// State returns the current playback state.
func (c *PlaybackClock) State() domain.PlaybackState {
	return c.state
}

// Playing reports whether the cursor should advance on the next tick.
func (c *PlaybackClock) Playing() bool {
	return c.state == domain.StatePlaying
}

// Play resumes playback. Returns false when already playing.
func (c *PlaybackClock) Play() bool {
	if c.state == domain.StatePlaying {
		return false
	}
	c.state = domain.StatePlaying
	return true
}

// Pause holds playback. Returns false when already paused.
func (c *PlaybackClock) Pause() bool {
	if c.state == domain.StatePaused {
		return false
	}
	c.state = domain.StatePaused
	return true
}

// Advance counts one presented frame.
func (c *PlaybackClock) Advance() {
	c.frames++
}

// FramesPlayed is the number of frames presented so far.
func (c *PlaybackClock) FramesPlayed() uint64 {
	return c.frames
}

// ElapsedYears is the simulated time covered by the presented frames.
func (c *PlaybackClock) ElapsedYears() float64 {
	return float64(c.frames) * c.yearsPerFrame
}

// Reset zeroes the counters without touching the playback state.
func (c *PlaybackClock) Reset() {
	c.frames = 0
}
