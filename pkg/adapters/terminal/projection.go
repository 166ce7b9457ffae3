package terminal

import (
	"math"

	"github.com/aretw0/orrery/pkg/domain"
)

// cellAspect compensates for terminal cells being about twice as tall as wide.
const cellAspect = 2.0

// Projection maps simulation XY coordinates onto screen cells.
// Z is dropped.
type Projection struct {
	Scale  float64     // cells per simulation unit, vertically
	Center domain.Vec3 // simulation point drawn in the middle of the screen
	Width  int
	Height int
}

// Project returns the cell for p and whether it is on screen.
func (p Projection) Project(v domain.Vec3) (x, y int, ok bool) {
	fx := float64(p.Width)/2 + (v.X-p.Center.X)*p.Scale*cellAspect
	fy := float64(p.Height)/2 - (v.Y-p.Center.Y)*p.Scale
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0, 0, false
	}
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && y >= 0 && x < p.Width && y < p.Height
}

// Zoom multiplies the scale by factor, keeping it within sane bounds.
func (p Projection) Zoom(factor float64) Projection {
	p.Scale = math.Min(math.Max(p.Scale*factor, 1e-6), 1e6)
	return p
}
