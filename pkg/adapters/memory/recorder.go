package memory

import (
	"sync"

	"github.com/aretw0/orrery/pkg/domain"
)

// Recorder implements ports.RenderAdapter by recording every call.
// Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	frames    []domain.Frame
	added     []domain.TrailSegment
	removed   []domain.TrailSegment
	centroids []domain.Vec3
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnFrame(entities domain.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, entities)
}

func (r *Recorder) OnTrailSegmentAdded(entityID string, segment domain.TrailSegment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, segment)
}

func (r *Recorder) OnTrailSegmentRemoved(entityID string, segment domain.TrailSegment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, segment)
}

func (r *Recorder) OnCentroid(point domain.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.centroids = append(r.centroids, point)
}

// Frames returns a copy of the presented frames.
func (r *Recorder) Frames() []domain.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Frame(nil), r.frames...)
}

// Added returns a copy of the announced segments.
func (r *Recorder) Added() []domain.TrailSegment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TrailSegment(nil), r.added...)
}

// Removed returns a copy of the disposed segments.
func (r *Recorder) Removed() []domain.TrailSegment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TrailSegment(nil), r.removed...)
}

// Centroids returns a copy of the follow targets.
func (r *Recorder) Centroids() []domain.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Vec3(nil), r.centroids...)
}

// Live is the number of segments added and not yet removed for entityID.
func (r *Recorder) Live(entityID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.added {
		if s.EntityID == entityID {
			n++
		}
	}
	for _, s := range r.removed {
		if s.EntityID == entityID {
			n--
		}
	}
	return n
}
