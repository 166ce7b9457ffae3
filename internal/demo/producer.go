package demo

import (
	"github.com/aretw0/orrery/internal/dto"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
)

// Demo simulation keys.
const (
	KeySolarSystem  = "solar_system"
	KeyInnerPlanets = "inner_planets"

	demoFPS       = 30
	yearsPerFrame = 0.01
)

// InnerPlanetBodies is the Sun with Mercury to Mars.
func InnerPlanetBodies() []Body {
	return SolarSystem()[:5]
}

// Simulation describes bodies as a simulation a producer can start.
func Simulation(name string, bodies []Body, chunkSize int) orreryhttp.Simulation {
	infos := make([]dto.BodyInfo, len(bodies))
	for i, b := range bodies {
		pos := position(b, 0)
		infos[i] = dto.BodyInfo{ID: b.Name, Name: b.Name, Color: b.Color, Pos: &pos}
	}
	return orreryhttp.Simulation{
		Name:          name,
		FPS:           demoFPS,
		YearsPerFrame: yearsPerFrame,
		Bodies:        infos,
		New: func() orreryhttp.Source {
			return NewOrbitSource(bodies, yearsPerFrame, chunkSize)
		},
	}
}

// Register makes the demo simulations startable on p.
func Register(p *orreryhttp.Producer, chunkSize int) {
	p.Register(KeySolarSystem, Simulation("Solar System", SolarSystem(), chunkSize))
	p.Register(KeyInnerPlanets, Simulation("Inner Planets", InnerPlanetBodies(), chunkSize))
}
