package domain

import (
	"fmt"
	"time"
)

// MaxFPS is the highest playback rate accepted. Above it the tick interval
// rounds toward zero.
const MaxFPS = 1000

// SessionConfig identifies one playback run on the producer. Supplied once, read-only afterwards.
type SessionConfig struct {
	SessionID     string  `json:"session_id" yaml:"session_id" mapstructure:"session_id"`
	Name          string  `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	FPS           int     `json:"fps" yaml:"fps" mapstructure:"fps"`
	YearsPerFrame float64 `json:"years_per_frame" yaml:"years_per_frame" mapstructure:"years_per_frame"`
	EntityCount   int     `json:"entity_count" yaml:"entity_count" mapstructure:"entity_count"`

	// EntityIDs is the identity set announced by the producer, if any.
	// When empty, the first valid frame establishes it.
	EntityIDs []string `json:"entity_ids,omitempty" yaml:"entity_ids,omitempty" mapstructure:"entity_ids"`

	// InitialPositions are the positions announced before the first frame.
	// They anchor each entity's trail so the first frame already draws a segment.
	InitialPositions map[string]Vec3 `json:"initial_positions,omitempty" yaml:"initial_positions,omitempty" mapstructure:"initial_positions"`
}

// Validate checks the invariants the engine relies on.
func (c SessionConfig) Validate() error {
	if c.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidConfig)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS)
	}
	if c.FPS > MaxFPS {
		return fmt.Errorf("%w: fps must be at most %d, got %d", ErrInvalidConfig, MaxFPS, c.FPS)
	}
	if c.YearsPerFrame < 0 {
		return fmt.Errorf("%w: years_per_frame must not be negative", ErrInvalidConfig)
	}
	if c.EntityCount < 0 {
		return fmt.Errorf("%w: entity_count must not be negative", ErrInvalidConfig)
	}
	for id, pos := range c.InitialPositions {
		if !pos.IsFinite() {
			return fmt.Errorf("%w: initial position of %s is not finite", ErrInvalidConfig, id)
		}
	}
	if len(c.EntityIDs) > 0 && c.EntityCount > 0 && len(c.EntityIDs) != c.EntityCount {
		return fmt.Errorf("%w: %d entity ids for entity_count %d", ErrInvalidConfig, len(c.EntityIDs), c.EntityCount)
	}
	return nil
}

// TickInterval is the real-time duration of one simulated frame.
func (c SessionConfig) TickInterval() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}
