package dto

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// StartRequest asks a producer to launch a named simulation.
type StartRequest struct {
	SimulationName string `json:"simulation_name"`
}

// StartResponse is the producer's reply to a start request.
type StartResponse struct {
	SessionID    string       `json:"session_id" mapstructure:"session_id"`
	SystemConfig SystemConfig `json:"system_config" mapstructure:"system_config"`
	Error        string       `json:"error,omitempty" mapstructure:"error"`
}

// SystemConfig describes the simulated system.
type SystemConfig struct {
	Name              string     `json:"name" mapstructure:"name"`
	FPS               int        `json:"fps" mapstructure:"fps"`
	YearsPerFrame     float64    `json:"years_per_frame" mapstructure:"years_per_frame"`
	CurrentNBodies    int        `json:"current_n_bodies" mapstructure:"current_n_bodies"`
	InitialBodiesData []BodyInfo `json:"initial_bodies_data,omitempty" mapstructure:"initial_bodies_data"`
	Bodies            []BodyInfo `json:"bodies,omitempty" mapstructure:"bodies"`
}

// BodyInfo is the static description of one body.
type BodyInfo struct {
	ID     string  `json:"id,omitempty" mapstructure:"id"`
	Name   string  `json:"name" mapstructure:"name"`
	Mass   float64 `json:"mass,omitempty" mapstructure:"mass"`
	Color  string  `json:"color,omitempty" mapstructure:"color"`
	Radius float64 `json:"radius,omitempty" mapstructure:"radius"`
	// Pos is the starting position, as an [x, y, z] array or an object.
	Pos *domain.Vec3 `json:"pos,omitempty" mapstructure:"pos"`
}

// DecodeStartResponse parses a start reply into the session configuration.
func DecodeStartResponse(data []byte) (domain.SessionConfig, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.SessionConfig{}, fmt.Errorf("decode start response: %w", err)
	}

	var resp StartResponse
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       vectorHook,
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return domain.SessionConfig{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.SessionConfig{}, fmt.Errorf("decode start response: %w", err)
	}
	if resp.Error != "" {
		return domain.SessionConfig{}, fmt.Errorf("producer error: %s", resp.Error)
	}
	return resp.SessionConfig(), nil
}

// SessionConfig converts the reply into the engine configuration.
// The body list fixes the identity set when it is complete.
func (r StartResponse) SessionConfig() domain.SessionConfig {
	sc := r.SystemConfig
	bodies := sc.InitialBodiesData
	if len(bodies) == 0 {
		bodies = sc.Bodies
	}

	cfg := domain.SessionConfig{
		SessionID:     r.SessionID,
		Name:          sc.Name,
		FPS:           sc.FPS,
		YearsPerFrame: sc.YearsPerFrame,
		EntityCount:   sc.CurrentNBodies,
	}
	if cfg.EntityCount == 0 {
		cfg.EntityCount = len(bodies)
	}
	if len(bodies) > 0 && len(bodies) == cfg.EntityCount {
		cfg.EntityIDs = make([]string, 0, len(bodies))
		for _, b := range bodies {
			cfg.EntityIDs = append(cfg.EntityIDs, b.key())
		}
	}
	for _, b := range bodies {
		if b.Pos == nil {
			continue
		}
		if cfg.InitialPositions == nil {
			cfg.InitialPositions = make(map[string]domain.Vec3, len(bodies))
		}
		cfg.InitialPositions[b.key()] = *b.Pos
	}
	return cfg
}

func (b BodyInfo) key() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// NewStartResponse builds the reply a producer sends for cfg. Bodies without
// a position take theirs from cfg.InitialPositions.
func NewStartResponse(cfg domain.SessionConfig, bodies []BodyInfo) StartResponse {
	if len(cfg.InitialPositions) > 0 {
		withPos := make([]BodyInfo, len(bodies))
		for i, b := range bodies {
			if pos, ok := cfg.InitialPositions[b.key()]; ok && b.Pos == nil {
				b.Pos = &pos
			}
			withPos[i] = b
		}
		bodies = withPos
	}
	return StartResponse{
		SessionID: cfg.SessionID,
		SystemConfig: SystemConfig{
			Name:              cfg.Name,
			FPS:               cfg.FPS,
			YearsPerFrame:     cfg.YearsPerFrame,
			CurrentNBodies:    cfg.EntityCount,
			InitialBodiesData: bodies,
		},
	}
}
