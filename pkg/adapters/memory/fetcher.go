package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/orrery/pkg/domain"
)

// step is one scripted response.
type step struct {
	frames []domain.Frame
	err    error
}

// Fetcher implements ports.Fetcher and ports.SessionStarter from scripted data.
// Each session has a queue of responses; a drained queue yields empty chunks.
// Safe for concurrent use.
type Fetcher struct {
	mu          sync.Mutex
	scripts     map[string][]step
	simulations map[string]domain.SessionConfig
	calls       map[string]int

	gate    chan struct{}
	active  int
	maxSeen int
}

// NewFetcher creates an empty scripted fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		scripts:     make(map[string][]step),
		simulations: make(map[string]domain.SessionConfig),
		calls:       make(map[string]int),
	}
}

// PushChunk queues one chunk for sessionID.
func (f *Fetcher) PushChunk(sessionID string, chunk []domain.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[sessionID] = append(f.scripts[sessionID], step{frames: chunk})
}

// Fail queues one failing response for sessionID.
func (f *Fetcher) Fail(sessionID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[sessionID] = append(f.scripts[sessionID], step{err: err})
}

// AddSimulation registers a simulation that StartSession can launch.
func (f *Fetcher) AddSimulation(name string, cfg domain.SessionConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulations[name] = cfg
}

// Hold makes every subsequent fetch block until Release is called or its context ends.
func (f *Fetcher) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

// Release unblocks held fetches.
func (f *Fetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// FetchChunk pops the next scripted response for sessionID.
func (f *Fetcher) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	f.mu.Lock()
	f.calls[sessionID]++
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	gate := f.gate
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.scripts[sessionID]
	if len(queue) == 0 {
		return []domain.Frame{}, nil
	}
	next := queue[0]
	f.scripts[sessionID] = queue[1:]
	return next.frames, next.err
}

// StartSession returns the configuration registered for simulation.
func (f *Fetcher) StartSession(ctx context.Context, simulation string) (domain.SessionConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.simulations[simulation]
	if !ok {
		return domain.SessionConfig{}, fmt.Errorf("simulation %q: %w", simulation, domain.ErrSessionNotFound)
	}
	return cfg, nil
}

// Calls is the number of FetchChunk calls made for sessionID.
func (f *Fetcher) Calls(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sessionID]
}

// MaxConcurrent is the highest number of FetchChunk calls observed running at once.
func (f *Fetcher) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}
