package ports

import "github.com/aretw0/orrery/pkg/domain"

// RenderAdapter is the push-only interface the engine draws through.
// Calls arrive on the playback goroutine; implementations must not block it.
type RenderAdapter interface {
	// OnFrame delivers the positions of every entity for the current tick.
	OnFrame(entities domain.Frame)

	// OnTrailSegmentAdded announces a new trail segment for an entity.
	OnTrailSegmentAdded(entityID string, segment domain.TrailSegment)

	// OnTrailSegmentRemoved announces that a segment left the trail and its resources can be released.
	OnTrailSegmentRemoved(entityID string, segment domain.TrailSegment)

	// OnCentroid delivers the follow target.
	OnCentroid(point domain.Vec3)
}

// NopRenderer discards every draw instruction.
type NopRenderer struct{}

func (NopRenderer) OnFrame(domain.Frame)                              {}
func (NopRenderer) OnTrailSegmentAdded(string, domain.TrailSegment)   {}
func (NopRenderer) OnTrailSegmentRemoved(string, domain.TrailSegment) {}
func (NopRenderer) OnCentroid(domain.Vec3)                            {}
