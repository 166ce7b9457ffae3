package runtime_test

import (
	"testing"

	"github.com/aretw0/orrery/internal/runtime"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCentroid(t *testing.T) {
	frame := domain.Frame{
		{ID: "a", Position: domain.Vec3{X: 2}},
		{ID: "b", Position: domain.Vec3{Y: 4}},
	}

	c, ok := runtime.Centroid(frame)
	assert.True(t, ok)
	assert.Equal(t, domain.Vec3{X: 1, Y: 2}, c)

	_, ok = runtime.Centroid(nil)
	assert.False(t, ok)
}

func TestCentroidTracker(t *testing.T) {
	tr := runtime.NewCentroidTracker(false)

	_, updated := tr.Update(domain.Frame{{ID: "a", Position: domain.Vec3{X: 3}}})
	assert.False(t, updated, "disabled tracker does not report")

	assert.True(t, tr.Toggle())
	target, updated := tr.Update(domain.Frame{{ID: "a", Position: domain.Vec3{X: 3}}})
	assert.True(t, updated)
	assert.Equal(t, domain.Vec3{X: 3}, target)

	target, _ = tr.Update(domain.Frame{})
	assert.Equal(t, domain.Vec3{X: 3}, target, "empty frame keeps the previous target")

	assert.False(t, tr.Toggle())
	assert.Equal(t, domain.Vec3{}, tr.Target())
}
