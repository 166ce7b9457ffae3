package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// StreamManager fans session updates out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // SessionID -> set of channels
	logger      *slog.Logger
}

// StreamOption configures a StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets the logger for dropped and unencodable updates.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewStreamManager creates a manager with no subscribers. It logs nothing
// unless WithStreamLogger is given.
func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a buffered channel for the updates of sessionID. The
// returned func unsubscribes and closes the channel; calling it twice is safe.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast never blocks: slow subscribers lose messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Debug("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Subscribers is the number of live subscriptions for sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Update is one SSE message.
type Update struct {
	Type      string                 `json:"type"`
	Positions map[string]domain.Vec3 `json:"positions,omitempty"`
	Segment   *domain.TrailSegment   `json:"segment,omitempty"`
	Centroid  *domain.Vec3           `json:"centroid,omitempty"`
}

// Update types.
const (
	UpdateFrame          = "frame"
	UpdateSegmentAdded   = "segment_added"
	UpdateSegmentRemoved = "segment_removed"
	UpdateCentroid       = "centroid"
)

// StreamRenderer is a ports.RenderAdapter that publishes draw instructions to SSE subscribers.
// Nothing is encoded while nobody listens.
type StreamRenderer struct {
	sessionID string
	streams   *StreamManager
}

var _ ports.RenderAdapter = (*StreamRenderer)(nil)

// NewStreamRenderer publishes under sessionID on streams and logs through
// the manager's logger.
func NewStreamRenderer(sessionID string, streams *StreamManager) *StreamRenderer {
	return &StreamRenderer{sessionID: sessionID, streams: streams}
}

func (r *StreamRenderer) OnFrame(entities domain.Frame) {
	if r.streams.Subscribers(r.sessionID) == 0 {
		return
	}
	pos := make(map[string]domain.Vec3, len(entities))
	for _, e := range entities {
		pos[e.ID] = e.Position
	}
	r.publish(Update{Type: UpdateFrame, Positions: pos})
}

func (r *StreamRenderer) OnTrailSegmentAdded(_ string, seg domain.TrailSegment) {
	if r.streams.Subscribers(r.sessionID) == 0 {
		return
	}
	r.publish(Update{Type: UpdateSegmentAdded, Segment: &seg})
}

func (r *StreamRenderer) OnTrailSegmentRemoved(_ string, seg domain.TrailSegment) {
	if r.streams.Subscribers(r.sessionID) == 0 {
		return
	}
	r.publish(Update{Type: UpdateSegmentRemoved, Segment: &seg})
}

func (r *StreamRenderer) OnCentroid(p domain.Vec3) {
	if r.streams.Subscribers(r.sessionID) == 0 {
		return
	}
	r.publish(Update{Type: UpdateCentroid, Centroid: &p})
}

func (r *StreamRenderer) publish(u Update) {
	data, err := json.Marshal(u)
	if err != nil {
		r.streams.logger.Error("SSE: encode update failed", "session_id", r.sessionID, "error", err)
		return
	}
	r.streams.Broadcast(r.sessionID, string(data))
}
