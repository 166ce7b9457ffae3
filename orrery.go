package orrery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/internal/runtime"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// Player is the high-level entry point of the library: one playback session.
// It owns a single goroutine that ticks the engine at the session fps, applies
// fetch results and runs control commands. Every exported method is safe for
// concurrent use.
type Player struct {
	mu      sync.Mutex
	engine  *runtime.Engine
	logger  *slog.Logger
	cancel  context.CancelFunc
	running bool
	closed  bool

	cmds     chan command
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type command struct {
	fn   func(*runtime.Engine)
	done chan struct{}
}

// Option defines a functional option for configuring the Player.
type Option func(*playerOptions)

type playerOptions struct {
	logger  *slog.Logger
	runtime []runtime.Option
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *playerOptions) {
		o.logger = logger
	}
}

// WithRenderer sets the adapter that receives per-tick draw instructions.
func WithRenderer(r ports.RenderAdapter) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithRenderer(r))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithLifecycleHooks(hooks))
	}
}

// WithTuning overrides watermark, compaction and trail thresholds.
func WithTuning(t domain.Tuning) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithTuning(t))
	}
}

// WithRetryPolicy overrides the backoff applied after failed or empty fetches.
func WithRetryPolicy(p ports.RetryPolicy) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithRetryPolicy(p))
	}
}

// WithClock replaces the real-time clock used for retry deadlines.
func WithClock(c ports.Clock) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithClock(c))
	}
}

// WithInitialState selects PLAYING (default) or PAUSED at start.
func WithInitialState(s domain.PlaybackState) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithInitialState(s))
	}
}

// WithFollow enables centroid follow mode from the first frame.
func WithFollow(on bool) Option {
	return func(o *playerOptions) {
		o.runtime = append(o.runtime, runtime.WithFollow(on))
	}
}

// New creates a Player for cfg. Playback does not begin until Start.
func New(cfg domain.SessionConfig, fetcher ports.Fetcher, opts ...Option) (*Player, error) {
	o := playerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	rtOpts := append([]runtime.Option{runtime.WithLogger(o.logger)}, o.runtime...)
	engine, err := runtime.NewEngine(ctx, cfg, fetcher, rtOpts...)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Player{
		engine: engine,
		logger: o.logger,
		cancel: cancel,
		cmds:   make(chan command),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// NewFromSimulation asks starter to launch simulation and returns a Player for the new session.
func NewFromSimulation(ctx context.Context, starter ports.SessionStarter, fetcher ports.Fetcher, simulation string, opts ...Option) (*Player, error) {
	cfg, err := starter.StartSession(ctx, simulation)
	if err != nil {
		return nil, fmt.Errorf("start simulation %q: %w", simulation, err)
	}
	return New(cfg, fetcher, opts...)
}

// Start launches the playback loop. It returns when the loop is running; the loop
// stops when ctx is cancelled or Close is called.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.ErrSessionClosed
	}
	if p.running {
		return errors.New("player already started")
	}
	p.running = true

	interval := p.engine.Config().TickInterval()
	p.logger.Info("playback started",
		"session_id", p.engine.Config().SessionID,
		"fps", p.engine.Config().FPS,
		"state", p.engine.Status().State,
	)
	go p.loop(ctx, interval)
	return nil
}

func (p *Player) loop(ctx context.Context, interval time.Duration) {
	defer close(p.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return
		case <-p.stop:
			p.shutdown()
			return
		case <-ticker.C:
			if err := p.engine.Tick(); err != nil {
				p.logger.Error("tick failed", "error", err)
			}
		case res := <-p.engine.Results():
			p.engine.Complete(res)
		case cmd := <-p.cmds:
			cmd.fn(p.engine)
			close(cmd.done)
			if next := p.engine.Config().TickInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (p *Player) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.Close()
	p.cancel()
	p.closed = true
	p.logger.Info("playback stopped", "session_id", p.engine.Config().SessionID)
}

// do runs fn as the engine owner: on the loop goroutine once started, inline before.
func (p *Player) do(fn func(*runtime.Engine)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if !p.running {
		defer p.mu.Unlock()
		fn(p.engine)
		return nil
	}
	p.mu.Unlock()

	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case p.cmds <- cmd:
	case <-p.done:
		return domain.ErrSessionClosed
	}
	<-cmd.done
	return nil
}

// Play resumes playback. Calling it while playing has no effect.
func (p *Player) Play() error {
	var err error
	if doErr := p.do(func(e *runtime.Engine) { _, err = e.Play() }); doErr != nil {
		return doErr
	}
	return err
}

// Pause holds playback on the current frame. Calling it while paused has no effect.
func (p *Player) Pause() error {
	var err error
	if doErr := p.do(func(e *runtime.Engine) { _, err = e.Pause() }); doErr != nil {
		return doErr
	}
	return err
}

// ToggleFollow flips camera follow mode and returns the new value.
func (p *Player) ToggleFollow() (bool, error) {
	var (
		on  bool
		err error
	)
	if doErr := p.do(func(e *runtime.Engine) { on, err = e.ToggleFollow() }); doErr != nil {
		return false, doErr
	}
	return on, err
}

// Reset discards the buffer and trails and switches to cfg.
// Fetches issued for the previous configuration are ignored.
func (p *Player) Reset(cfg domain.SessionConfig) error {
	var err error
	if doErr := p.do(func(e *runtime.Engine) { err = e.Reset(cfg) }); doErr != nil {
		return doErr
	}
	if err == nil {
		p.logger.Info("playback reset", "session_id", cfg.SessionID)
	}
	return err
}

// Status returns a snapshot of the session. It keeps working after Close.
func (p *Player) Status() domain.Status {
	var st domain.Status
	if err := p.do(func(e *runtime.Engine) { st = e.Status() }); err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.engine.Status()
	}
	return st
}

// Positions returns the latest accepted position of every entity, keyed by identity.
func (p *Player) Positions() map[string]domain.Vec3 {
	var pos map[string]domain.Vec3
	if err := p.do(func(e *runtime.Engine) { pos = e.Positions() }); err != nil {
		return nil
	}
	return pos
}

// Trail returns the live trail of one entity, oldest segment first.
func (p *Player) Trail(entityID string) []domain.TrailSegment {
	var segs []domain.TrailSegment
	if err := p.do(func(e *runtime.Engine) { segs = e.Trail(entityID) }); err != nil {
		return nil
	}
	return segs
}

// Config returns the session configuration in use.
func (p *Player) Config() domain.SessionConfig {
	var cfg domain.SessionConfig
	if err := p.do(func(e *runtime.Engine) { cfg = e.Config() }); err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.engine.Config()
	}
	return cfg
}

// SessionID is the producer session being played.
func (p *Player) SessionID() string {
	return p.Config().SessionID
}

// Done is closed when the playback loop has exited.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Close stops the tick loop, cancels any in-flight fetch and disposes every trail
// segment. Later control calls return domain.ErrSessionClosed. Close is idempotent.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if !p.running {
		defer p.mu.Unlock()
		p.engine.Close()
		p.cancel()
		p.closed = true
		close(p.done)
		return nil
	}
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	return nil
}
