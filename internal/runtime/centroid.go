package runtime

import (
	"github.com/aretw0/orrery/pkg/domain"
)

// Centroid returns the arithmetic mean of the entity positions.
// The second result is false for an empty frame.
func Centroid(frame domain.Frame) (domain.Vec3, bool) {
	if len(frame) == 0 {
		return domain.Vec3{}, false
	}
	var sum domain.Vec3
	for _, e := range frame {
		sum = sum.Add(e.Position)
	}
	return sum.Scale(1 / float64(len(frame))), true
}

// CentroidTracker holds the follow toggle and the last computed target.
type CentroidTracker struct {
	enabled bool
	target  domain.Vec3
}

// NewCentroidTracker creates a tracker with follow mode set to enabled.
func NewCentroidTracker(enabled bool) *CentroidTracker {
	return &CentroidTracker{enabled: enabled}
}

// Enabled reports whether follow mode is on.
func (c *CentroidTracker) Enabled() bool {
	return c.enabled
}

// SetEnabled switches follow mode. Turning it off recenters the target on the origin.
func (c *CentroidTracker) SetEnabled(on bool) {
	c.enabled = on
	if !on {
		c.target = domain.Vec3{}
	}
}

// Toggle flips follow mode and returns the new value.
func (c *CentroidTracker) Toggle() bool {
	c.SetEnabled(!c.enabled)
	return c.enabled
}

// Update recomputes the target from frame when follow mode is on.
// An empty frame keeps the previous target.
func (c *CentroidTracker) Update(frame domain.Frame) (domain.Vec3, bool) {
	if !c.enabled {
		return c.target, false
	}
	if p, ok := Centroid(frame); ok {
		c.target = p
	}
	return c.target, true
}

// Target is the last computed follow target.
func (c *CentroidTracker) Target() domain.Vec3 {
	return c.target
}
