package runtime

import (
	"github.com/aretw0/orrery/pkg/domain"
)

// Trail is the bounded FIFO of line segments behind one entity.
// Segments are stored in a ring; when full, the oldest one is evicted
// before the new one is appended.
type Trail struct {
	entityID string
	capacity int
	epsilon  float64

	ring  []domain.TrailSegment
	head  int // index of the oldest segment
	count int
	seq   uint64

	anchor    domain.Vec3
	hasAnchor bool
}

// NewTrail creates an empty trail that keeps at most capacity segments and
// ignores moves shorter than epsilon.
func NewTrail(entityID string, capacity int, epsilon float64) *Trail {
	if capacity <= 0 {
		capacity = domain.DefaultTrailCapacity
	}
	return &Trail{
		entityID: entityID,
		capacity: capacity,
		epsilon:  epsilon,
		ring:     make([]domain.TrailSegment, capacity),
	}
}

// Seed sets the anchor to a known starting position. It has no effect once
// the trail has an anchor.
func (t *Trail) Seed(pos domain.Vec3) {
	if t.hasAnchor {
		return
	}
	t.anchor = pos
	t.hasAnchor = true
}

// Observe records a new position for the entity.
// Without a seed, the first observation only sets the anchor. Later observations farther than
// epsilon from the anchor produce a segment anchor->pos and move the anchor.
// Returns the added segment, if any, and the segment evicted to make room, if any.
func (t *Trail) Observe(pos domain.Vec3, color string) (added, evicted *domain.TrailSegment) {
	if !t.hasAnchor {
		t.anchor = pos
		t.hasAnchor = true
		return nil, nil
	}
	if t.anchor.Distance(pos) <= t.epsilon {
		return nil, nil
	}
	added, evicted = t.push(t.anchor, pos, color)
	t.anchor = pos
	return added, evicted
}

func (t *Trail) push(from, to domain.Vec3, color string) (*domain.TrailSegment, *domain.TrailSegment) {
	var evicted *domain.TrailSegment
	if t.count == t.capacity {
		old := t.ring[t.head]
		evicted = &old
		t.ring[t.head] = domain.TrailSegment{}
		t.head = (t.head + 1) % t.capacity
		t.count--
	}

	t.seq++
	seg := domain.TrailSegment{
		EntityID: t.entityID,
		From:     from,
		To:       to,
		Seq:      t.seq,
		Color:    color,
	}
	t.ring[(t.head+t.count)%t.capacity] = seg
	t.count++

	return &seg, evicted
}

// Len is the number of live segments.
func (t *Trail) Len() int {
	return t.count
}

// Anchor returns the last recorded position, if any.
func (t *Trail) Anchor() (domain.Vec3, bool) {
	return t.anchor, t.hasAnchor
}

// Segments returns the live segments, oldest first.
func (t *Trail) Segments() []domain.TrailSegment {
	out := make([]domain.TrailSegment, 0, t.count)
	for i := 0; i < t.count; i++ {
		out = append(out, t.ring[(t.head+i)%t.capacity])
	}
	return out
}

// Drain removes every segment, oldest first, and forgets the anchor.
func (t *Trail) Drain() []domain.TrailSegment {
	out := t.Segments()
	for i := range t.ring {
		t.ring[i] = domain.TrailSegment{}
	}
	t.head = 0
	t.count = 0
	t.hasAnchor = false
	return out
}
