package runtime

import (
	"fmt"

	"github.com/aretw0/orrery/pkg/domain"
)

// FrameValidator checks every frame against the identity set of the session.
// Order inside a frame is free; membership and count are not.
type FrameValidator struct {
	ids   map[string]struct{}
	fixed bool
	count int
}

// NewFrameValidator creates a validator. With a non-empty ids the identity set is
// fixed up front; otherwise the first accepted frame establishes it. A positive
// count is the announced entity count: a frame of any other size can neither
// be accepted nor establish the set.
func NewFrameValidator(ids []string, count int) *FrameValidator {
	v := &FrameValidator{count: count}
	if len(ids) > 0 {
		v.ids = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			v.ids[id] = struct{}{}
		}
		v.fixed = true
	}
	return v
}

// Normalize fills missing identities from names so producers that only send
// labels still get stable trails.
func Normalize(frame domain.Frame) domain.Frame {
	for _, e := range frame {
		if e.ID == "" {
			out := make(domain.Frame, len(frame))
			copy(out, frame)
			for i := range out {
				if out[i].ID == "" {
					out[i].ID = out[i].Name
				}
			}
			return out
		}
	}
	return frame
}

// Validate returns an error wrapping domain.ErrFrameRejected when frame does not
// carry exactly the session's entities with finite positions.
func (v *FrameValidator) Validate(frame domain.Frame) error {
	seen := make(map[string]struct{}, len(frame))
	for i, e := range frame {
		if e.ID == "" {
			return fmt.Errorf("%w: entity %d has no identity", domain.ErrFrameRejected, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate entity %q", domain.ErrFrameRejected, e.ID)
		}
		seen[e.ID] = struct{}{}
		if !e.Position.IsFinite() {
			return fmt.Errorf("%w: entity %q has a non-finite position", domain.ErrFrameRejected, e.ID)
		}
	}

	if v.ids == nil {
		if len(frame) == 0 {
			return fmt.Errorf("%w: empty frame", domain.ErrFrameRejected)
		}
		if v.count > 0 && len(frame) != v.count {
			return fmt.Errorf("%w: expected %d entities, got %d", domain.ErrFrameRejected, v.count, len(frame))
		}
		v.ids = seen
		return nil
	}

	if len(frame) != len(v.ids) {
		return fmt.Errorf("%w: expected %d entities, got %d", domain.ErrFrameRejected, len(v.ids), len(frame))
	}
	for id := range seen {
		if _, ok := v.ids[id]; !ok {
			return fmt.Errorf("%w: unknown entity %q", domain.ErrFrameRejected, id)
		}
	}
	return nil
}

// Known reports whether the identity set has been established.
func (v *FrameValidator) Known() bool {
	return v.ids != nil
}

// Fixed reports whether the identity set came from the session configuration.
func (v *FrameValidator) Fixed() bool {
	return v.fixed
}

// Forget drops a learned identity set. A fixed set is kept.
func (v *FrameValidator) Forget() {
	if !v.fixed {
		v.ids = nil
	}
}
