package dto

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var vec3Type = reflect.TypeOf(domain.Vec3{})

// ErrorResponse is the body producers send instead of a chunk on failure.
type ErrorResponse struct {
	Error string `json:"error" mapstructure:"error"`
}

// DecodeChunk parses a producer response into frames.
// Positions and velocities may be sent as [x, y, z] or {"x", "y", "z"}.
// Entities without an id get their name as identity.
// Anything that is not an array of arrays of objects wraps domain.ErrMalformedChunk.
func DecodeChunk(data []byte) ([]domain.Frame, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedChunk, err)
	}
	return DecodeChunkValue(raw)
}

// DecodeChunkValue is DecodeChunk for an already unmarshalled JSON value.
func DecodeChunkValue(raw any) ([]domain.Frame, error) {
	switch v := raw.(type) {
	case nil:
		return []domain.Frame{}, nil
	case map[string]any:
		if msg, ok := v["error"].(string); ok {
			return nil, fmt.Errorf("producer error: %s", msg)
		}
		return nil, fmt.Errorf("%w: expected an array of frames, got an object", domain.ErrMalformedChunk)
	case []any:
		frames := make([]domain.Frame, 0, len(v))
		for i, f := range v {
			frame, err := decodeFrame(f)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
			frames = append(frames, frame)
		}
		return frames, nil
	default:
		return nil, fmt.Errorf("%w: expected an array of frames, got %T", domain.ErrMalformedChunk, raw)
	}
}

func decodeFrame(raw any) (domain.Frame, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: frame is %T, not an array", domain.ErrMalformedChunk, raw)
	}
	frame := make(domain.Frame, 0, len(items))
	for j, item := range items {
		var ent domain.EntitySnapshot
		if err := decode(item, &ent); err != nil {
			return nil, fmt.Errorf("%w: entity %d: %v", domain.ErrMalformedChunk, j, err)
		}
		if ent.ID == "" {
			ent.ID = ent.Name
		}
		frame = append(frame, ent)
	}
	return frame, nil
}

func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: vectorHook,
		Result:     output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// vectorHook turns a three element array into a Vec3 map.
func vectorHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != vec3Type || from.Kind() != reflect.Slice {
		return data, nil
	}
	arr, ok := data.([]any)
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("vector must have 3 components")
	}
	return map[string]any{"x": arr[0], "y": arr[1], "z": arr[2]}, nil
}

// EncodeChunk serialises frames in the producer wire format.
func EncodeChunk(frames []domain.Frame) ([]byte, error) {
	if frames == nil {
		frames = []domain.Frame{}
	}
	data, err := json.Marshal(frames)
	if err != nil {
		return nil, fmt.Errorf("encode chunk: %w", err)
	}
	return data, nil
}
