package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFetchStart EventType = "fetch_start"
	EventFetchDone  EventType = "fetch_done"
	EventCompact    EventType = "compact"
	EventStall      EventType = "stall"
	EventReject     EventType = "frame_rejected"
	EventTick       EventType = "tick"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// FetchEvent describes one chunk request and, once finished, its outcome.
type FetchEvent struct {
	EventBase
	Attempt  int           `json:"attempt"`
	Frames   int           `json:"frames,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// BufferEvent describes buffer occupancy after a tick or a compaction.
type BufferEvent struct {
	EventBase
	Cursor           int     `json:"cursor"`
	Length           int     `json:"length"`
	Dropped          int     `json:"dropped,omitempty"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Advanced         bool    `json:"advanced"`
}

// FrameEvent describes a frame that failed validation.
type FrameEvent struct {
	EventBase
	Cursor int    `json:"cursor"`
	Reason string `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the playback goroutine and must not block.
type LifecycleHooks struct {
	OnFetchStart func(context.Context, *FetchEvent)
	OnFetchDone  func(context.Context, *FetchEvent)
	OnCompact    func(context.Context, *BufferEvent)
	OnTick       func(context.Context, *BufferEvent)
	OnStall      func(context.Context, *BufferEvent)
	OnReject     func(context.Context, *FrameEvent)
}
