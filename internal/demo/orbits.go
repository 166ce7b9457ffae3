// Package demo generates synthetic simulation chunks for local runs and tests.
package demo

import (
	"context"
	"math"
	"sync"

	"github.com/aretw0/orrery/pkg/domain"
)

// Body is one body on a circular heliocentric orbit.
type Body struct {
	Name        string
	Color       string
	Orbit       float64 // semi-major axis in AU; 0 keeps the body at the origin
	Phase       float64 // initial angle in radians
	Inclination float64 // radians
}

// SolarSystem returns the sun and the eight planets.
func SolarSystem() []Body {
	return []Body{
		{Name: "Sun", Color: "#ffcc00"},
		{Name: "Mercury", Color: "#b1adad", Orbit: 0.387, Phase: 0.4, Inclination: 0.122},
		{Name: "Venus", Color: "#e6c229", Orbit: 0.723, Phase: 1.2, Inclination: 0.059},
		{Name: "Earth", Color: "#2f6fdf", Orbit: 1.0, Phase: 2.1},
		{Name: "Mars", Color: "#c1440e", Orbit: 1.524, Phase: 3.3, Inclination: 0.032},
		{Name: "Jupiter", Color: "#d8ca9d", Orbit: 5.203, Phase: 4.0, Inclination: 0.023},
		{Name: "Saturn", Color: "#ead6b8", Orbit: 9.537, Phase: 5.1, Inclination: 0.043},
		{Name: "Uranus", Color: "#d1e7e7", Orbit: 19.19, Phase: 0.9, Inclination: 0.013},
		{Name: "Neptune", Color: "#5b5ddf", Orbit: 30.07, Phase: 2.7, Inclination: 0.031},
	}
}

// OrbitSource produces consecutive chunks of a Keplerian circular-orbit system.
// Safe for concurrent use.
type OrbitSource struct {
	mu            sync.Mutex
	bodies        []Body
	yearsPerFrame float64
	chunkSize     int
	step          int
}

// NewOrbitSource creates a source emitting chunkSize frames per call.
func NewOrbitSource(bodies []Body, yearsPerFrame float64, chunkSize int) *OrbitSource {
	if chunkSize <= 0 {
		chunkSize = 300
	}
	return &OrbitSource{bodies: bodies, yearsPerFrame: yearsPerFrame, chunkSize: chunkSize}
}

// NextChunk returns the next chunkSize frames.
func (s *OrbitSource) NextChunk(ctx context.Context) ([]domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	start := s.step
	s.step += s.chunkSize
	s.mu.Unlock()

	out := make([]domain.Frame, s.chunkSize)
	for i := range out {
		out[i] = s.frame(float64(start+i) * s.yearsPerFrame)
	}
	return out, nil
}

func (s *OrbitSource) frame(years float64) domain.Frame {
	f := make(domain.Frame, len(s.bodies))
	for i, b := range s.bodies {
		f[i] = domain.EntitySnapshot{
			ID:       b.Name,
			Name:     b.Name,
			Color:    b.Color,
			Position: position(b, years),
		}
	}
	return f
}

func position(b Body, years float64) domain.Vec3 {
	if b.Orbit == 0 {
		return domain.Vec3{}
	}
	// Kepler's third law with the period in years and the axis in AU.
	period := math.Pow(b.Orbit, 1.5)
	a := b.Phase + 2*math.Pi*years/period
	return domain.Vec3{
		X: b.Orbit * math.Cos(a),
		Y: b.Orbit * math.Sin(a) * math.Cos(b.Inclination),
		Z: b.Orbit * math.Sin(a) * math.Sin(b.Inclination),
	}
}

// SessionConfig returns the configuration a producer announces for bodies.
func SessionConfig(sessionID, name string, fps int, yearsPerFrame float64, bodies []Body) domain.SessionConfig {
	ids := make([]string, len(bodies))
	initial := make(map[string]domain.Vec3, len(bodies))
	for i, b := range bodies {
		ids[i] = b.Name
		initial[b.Name] = position(b, 0)
	}
	return domain.SessionConfig{
		SessionID:        sessionID,
		Name:             name,
		FPS:              fps,
		YearsPerFrame:    yearsPerFrame,
		EntityCount:      len(bodies),
		EntityIDs:        ids,
		InitialPositions: initial,
	}
}
