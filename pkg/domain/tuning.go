package domain

import (
	"fmt"
	"time"
)

// Defaults observed in the original viewer.
const (
	DefaultLowWatermark        = 5 * time.Second
	DefaultHighCursorThreshold = 800
	DefaultSafetyMargin        = 200
	DefaultTrailCapacity       = 100
	DefaultTrailEpsilon        = 1e-4
)

// Tuning holds the buffering and trail thresholds of a player.
type Tuning struct {
	// LowWatermark is the remaining buffered playback time at or below which a prefetch starts.
	LowWatermark time.Duration `yaml:"low_watermark" json:"low_watermark"`
	// HighCursorThreshold is the number of consumed frames at which compaction becomes eligible.
	HighCursorThreshold int `yaml:"high_cursor_threshold" json:"high_cursor_threshold"`
	// SafetyMargin is the minimum number of unplayed frames required to compact.
	SafetyMargin int `yaml:"safety_margin" json:"safety_margin"`
	// TrailCapacity is K, the maximum number of segments kept per entity.
	TrailCapacity int `yaml:"trail_capacity" json:"trail_capacity"`
	// TrailEpsilon is the minimum distance between positions that produces a segment.
	TrailEpsilon float64 `yaml:"trail_epsilon" json:"trail_epsilon"`
}

// DefaultTuning returns the thresholds of the original viewer.
func DefaultTuning() Tuning {
	return Tuning{
		LowWatermark:        DefaultLowWatermark,
		HighCursorThreshold: DefaultHighCursorThreshold,
		SafetyMargin:        DefaultSafetyMargin,
		TrailCapacity:       DefaultTrailCapacity,
		TrailEpsilon:        DefaultTrailEpsilon,
	}
}

// Validate rejects thresholds the engine cannot honour.
func (t Tuning) Validate() error {
	if t.LowWatermark <= 0 {
		return fmt.Errorf("%w: low watermark must be positive", ErrInvalidConfig)
	}
	if t.HighCursorThreshold <= 0 {
		return fmt.Errorf("%w: high cursor threshold must be positive", ErrInvalidConfig)
	}
	if t.SafetyMargin < 0 {
		return fmt.Errorf("%w: safety margin must not be negative", ErrInvalidConfig)
	}
	if t.TrailCapacity <= 0 {
		return fmt.Errorf("%w: trail capacity must be positive", ErrInvalidConfig)
	}
	if t.TrailEpsilon < 0 {
		return fmt.Errorf("%w: trail epsilon must not be negative", ErrInvalidConfig)
	}
	return nil
}
