package memory_test

import (
	"testing"

	"github.com/aretw0/orrery/pkg/adapters/memory"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/stretchr/testify/assert"
)

var _ ports.RenderAdapter = (*memory.Recorder)(nil)

func TestRecorder_Live(t *testing.T) {
	r := memory.NewRecorder()
	s1 := domain.TrailSegment{EntityID: "earth", Seq: 1}
	s2 := domain.TrailSegment{EntityID: "earth", Seq: 2}

	r.OnTrailSegmentAdded("earth", s1)
	r.OnTrailSegmentAdded("earth", s2)
	r.OnTrailSegmentRemoved("earth", s1)
	r.OnCentroid(domain.Vec3{X: 1})

	assert.Equal(t, 1, r.Live("earth"))
	assert.Equal(t, 0, r.Live("mars"))
	assert.Equal(t, []domain.TrailSegment{s1}, r.Removed())
	assert.Equal(t, []domain.Vec3{{X: 1}}, r.Centroids())
}
