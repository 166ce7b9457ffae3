package runtime_test

import (
	"math"
	"testing"

	"github.com/aretw0/orrery/internal/runtime"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestFrameValidator(t *testing.T) {
	good := domain.Frame{{ID: "sun"}, {ID: "earth", Position: domain.Vec3{X: 1}}}

	tests := []struct {
		name  string
		ids   []string
		frame domain.Frame
		ok    bool
	}{
		{"matches announced set", []string{"sun", "earth"}, good, true},
		{"order may differ", []string{"earth", "sun"}, good, true},
		{"missing entity", []string{"sun", "earth", "mars"}, good, false},
		{"unknown entity", []string{"sun", "mars"}, good, false},
		{"duplicate entity", nil, domain.Frame{{ID: "sun"}, {ID: "sun"}}, false},
		{"blank identity", nil, domain.Frame{{Name: ""}}, false},
		{"non-finite position", nil, domain.Frame{{ID: "sun", Position: domain.Vec3{X: math.NaN()}}}, false},
		{"empty frame cannot establish a set", nil, domain.Frame{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := runtime.NewFrameValidator(tc.ids, 0).Validate(tc.frame)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrFrameRejected)
			}
		})
	}
}

func TestFrameValidator_FirstFrameEstablishesSet(t *testing.T) {
	v := runtime.NewFrameValidator(nil, 0)
	assert.False(t, v.Known())

	assert.NoError(t, v.Validate(domain.Frame{{ID: "sun"}, {ID: "earth"}}))
	assert.True(t, v.Known())
	assert.False(t, v.Fixed())

	assert.ErrorIs(t, v.Validate(domain.Frame{{ID: "sun"}}), domain.ErrFrameRejected)

	v.Forget()
	assert.False(t, v.Known())
}

func TestFrameValidator_CountGuardsLearnedSet(t *testing.T) {
	v := runtime.NewFrameValidator(nil, 2)

	assert.ErrorIs(t, v.Validate(domain.Frame{{ID: "sun"}}), domain.ErrFrameRejected)
	assert.False(t, v.Known(), "a short frame must not establish the set")

	assert.NoError(t, v.Validate(domain.Frame{{ID: "sun"}, {ID: "earth"}}))
	assert.True(t, v.Known())
	assert.ErrorIs(t, v.Validate(domain.Frame{{ID: "sun"}, {ID: "mars"}}), domain.ErrFrameRejected)
}

func TestNormalize_UsesNameAsIdentity(t *testing.T) {
	in := domain.Frame{{Name: "Earth"}, {ID: "sun", Name: "Sun"}}
	out := runtime.Normalize(in)

	assert.Equal(t, []string{"Earth", "sun"}, out.IDs())
	assert.Empty(t, in[0].ID, "input frame is not mutated")
}
