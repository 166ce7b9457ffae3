package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// Engine is the playback core of one session.
// It is not safe for concurrent use: a single owner calls Tick, Complete and the
// control methods, and receives fetch results from Results.
type Engine struct {
	ctx      context.Context
	cfg      domain.SessionConfig
	tuning   domain.Tuning
	fetcher  ports.Fetcher
	renderer ports.RenderAdapter
	hooks    domain.LifecycleHooks
	rootLog  *slog.Logger
	logger   *slog.Logger
	clock    ports.Clock

	buffer    *Buffer
	playback  *PlaybackClock
	validator *FrameValidator
	centroid  *CentroidTracker
	prefetch  *PrefetchController
	trails    map[string]*Trail

	lastGood domain.Frame
	stalled  bool
	closed   bool
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	renderer ports.RenderAdapter
	hooks    domain.LifecycleHooks
	tuning   domain.Tuning
	retry    ports.RetryPolicy
	retrySet bool
	clock    ports.Clock
	initial  domain.PlaybackState
	follow   bool
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithRenderer sets the adapter that receives draw instructions.
func WithRenderer(r ports.RenderAdapter) Option {
	return func(o *engineOptions) {
		o.renderer = r
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *engineOptions) {
		o.hooks = hooks
	}
}

// WithTuning overrides the buffering and trail thresholds.
func WithTuning(t domain.Tuning) Option {
	return func(o *engineOptions) {
		o.tuning = t
	}
}

// WithRetryPolicy overrides the backoff used after failed or empty fetches.
// A nil policy retries on the next tick.
func WithRetryPolicy(p ports.RetryPolicy) Option {
	return func(o *engineOptions) {
		o.retry = p
		o.retrySet = true
	}
}

// WithClock replaces the real-time clock.
func WithClock(c ports.Clock) Option {
	return func(o *engineOptions) {
		o.clock = c
	}
}

// WithInitialState sets whether playback starts PLAYING or PAUSED.
func WithInitialState(s domain.PlaybackState) Option {
	return func(o *engineOptions) {
		o.initial = s
	}
}

// WithFollow enables centroid follow mode from the first tick.
func WithFollow(on bool) Option {
	return func(o *engineOptions) {
		o.follow = on
	}
}

// NewEngine creates the core for one session. ctx bounds every fetch the engine starts.
func NewEngine(ctx context.Context, cfg domain.SessionConfig, fetcher ports.Fetcher, opts ...Option) (*Engine, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", domain.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := engineOptions{
		logger:   logging.NewNop(),
		renderer: ports.NopRenderer{},
		tuning:   domain.DefaultTuning(),
		clock:    ports.SystemClock{},
		initial:  domain.StatePlaying,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.tuning.Validate(); err != nil {
		return nil, err
	}
	if !o.retrySet {
		o.retry = NewRetryPolicy(0, 0, 0)
	}

	playback, err := NewPlaybackClock(o.initial, cfg.YearsPerFrame)
	if err != nil {
		return nil, err
	}

	return &Engine{
		ctx:       ctx,
		cfg:       cfg,
		tuning:    o.tuning,
		fetcher:   fetcher,
		renderer:  o.renderer,
		hooks:     o.hooks,
		rootLog:   o.logger,
		logger:    o.logger.With("session_id", cfg.SessionID),
		clock:     o.clock,
		buffer:    NewBuffer(),
		playback:  playback,
		validator: NewFrameValidator(cfg.EntityIDs, cfg.EntityCount),
		centroid:  NewCentroidTracker(o.follow),
		prefetch:  NewPrefetchController(fetcher, o.tuning, o.retry, o.clock),
		trails:    seedTrails(cfg, o.tuning),
	}, nil
}

// Results delivers fetch outcomes; pass each one to Complete.
func (e *Engine) Results() <-chan FetchResult {
	return e.prefetch.Results()
}

// Config returns the session configuration in use.
func (e *Engine) Config() domain.SessionConfig {
	return e.cfg
}

// Tick runs one fixed-rate step: present a frame if playing, then decide on
// prefetch and compaction.
func (e *Engine) Tick() error {
	if e.closed {
		return domain.ErrSessionClosed
	}

	advanced := false
	if e.playback.Playing() {
		frame, err := e.buffer.Current()
		switch {
		case errors.Is(err, domain.ErrNoData):
			e.stall()
		case err != nil:
			return err
		default:
			e.stalled = false
			e.present(frame)
			e.buffer.Advance()
			e.playback.Advance()
			advanced = true
		}
	}

	e.maybeFetch()
	e.maybeCompact()

	if e.hooks.OnTick != nil {
		e.hooks.OnTick(e.ctx, e.bufferEvent(domain.EventTick, 0, advanced))
	}
	return nil
}

func (e *Engine) present(frame domain.Frame) {
	frame = Normalize(frame)
	if err := e.validator.Validate(frame); err != nil {
		e.logger.Warn("frame rejected", "cursor", e.buffer.Cursor(), "reason", err.Error())
		if e.hooks.OnReject != nil {
			e.hooks.OnReject(e.ctx, &domain.FrameEvent{
				EventBase: e.base(domain.EventReject),
				Cursor:    e.buffer.Cursor(),
				Reason:    err.Error(),
			})
		}
		if e.lastGood != nil {
			e.renderer.OnFrame(e.lastGood)
		}
		return
	}

	e.lastGood = frame
	e.renderer.OnFrame(frame)

	for _, ent := range frame {
		trail, ok := e.trails[ent.ID]
		if !ok {
			trail = NewTrail(ent.ID, e.tuning.TrailCapacity, e.tuning.TrailEpsilon)
			e.trails[ent.ID] = trail
		}
		added, evicted := trail.Observe(ent.Position, ent.Color)
		if evicted != nil {
			e.renderer.OnTrailSegmentRemoved(ent.ID, *evicted)
		}
		if added != nil {
			e.renderer.OnTrailSegmentAdded(ent.ID, *added)
		}
	}

	if target, ok := e.centroid.Update(frame); ok {
		e.renderer.OnCentroid(target)
	}
}

func (e *Engine) stall() {
	if e.stalled || e.playback.FramesPlayed() == 0 {
		return
	}
	e.stalled = true
	e.logger.Debug("playback stalled", "cursor", e.buffer.Cursor(), "fetch_in_flight", e.prefetch.InFlight())
	if e.hooks.OnStall != nil {
		e.hooks.OnStall(e.ctx, e.bufferEvent(domain.EventStall, 0, false))
	}
}

func (e *Engine) maybeFetch() {
	if !e.prefetch.ShouldFetch(e.buffer.RemainingSeconds(e.cfg.FPS)) {
		return
	}
	attempt, err := e.prefetch.Start(e.ctx, e.cfg.SessionID)
	if err != nil {
		return
	}
	if e.hooks.OnFetchStart != nil {
		e.hooks.OnFetchStart(e.ctx, &domain.FetchEvent{
			EventBase: e.base(domain.EventFetchStart),
			Attempt:   attempt,
		})
	}
}

func (e *Engine) maybeCompact() {
	if !e.prefetch.ShouldCompact(e.buffer.Cursor(), e.buffer.Len()) {
		return
	}
	dropped := e.buffer.Compact()
	e.logger.Debug("buffer compacted", "dropped", dropped, "remaining", e.buffer.Remaining())
	if e.hooks.OnCompact != nil {
		e.hooks.OnCompact(e.ctx, e.bufferEvent(domain.EventCompact, dropped, false))
	}
}

// Complete applies a fetch result. Results from a previous generation or arriving
// after Close are discarded and reported as false.
func (e *Engine) Complete(res FetchResult) bool {
	if e.closed {
		return false
	}
	retryIn, current := e.prefetch.Complete(res)
	if !current {
		e.logger.Debug("discarding stale fetch", "generation", res.Generation)
		return false
	}

	if res.Err != nil {
		e.logger.Warn("fetch failed",
			"attempt", res.Attempt,
			"retry_in", retryIn,
			"error", res.Err,
		)
	} else {
		e.buffer.Append(res.Frames)
	}

	if e.hooks.OnFetchDone != nil {
		e.hooks.OnFetchDone(e.ctx, &domain.FetchEvent{
			EventBase: e.base(domain.EventFetchDone),
			Attempt:   res.Attempt,
			Frames:    len(res.Frames),
			Duration:  res.Duration,
			Err:       res.Err,
		})
	}
	return true
}

// Play resumes playback. Returns false when already playing.
func (e *Engine) Play() (bool, error) {
	if e.closed {
		return false, domain.ErrSessionClosed
	}
	return e.playback.Play(), nil
}

// Pause holds playback on the current frame. Returns false when already paused.
func (e *Engine) Pause() (bool, error) {
	if e.closed {
		return false, domain.ErrSessionClosed
	}
	return e.playback.Pause(), nil
}

// ToggleFollow flips centroid follow mode and returns the new value.
// Turning it off recenters the renderer on the origin.
func (e *Engine) ToggleFollow() (bool, error) {
	if e.closed {
		return false, domain.ErrSessionClosed
	}
	on := e.centroid.Toggle()
	if on {
		if e.lastGood != nil {
			if target, ok := e.centroid.Update(e.lastGood); ok {
				e.renderer.OnCentroid(target)
			}
		}
	} else {
		e.renderer.OnCentroid(domain.Vec3{})
	}
	return on, nil
}

// Reset disposes all trails, discards the buffer and any outstanding fetch, and
// installs cfg. Playback state and follow mode are kept.
func (e *Engine) Reset(cfg domain.SessionConfig) error {
	if e.closed {
		return domain.ErrSessionClosed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.prefetch.Invalidate()
	e.disposeTrails()
	e.trails = seedTrails(cfg, e.tuning)

	e.cfg = cfg
	e.logger = e.rootLog.With("session_id", cfg.SessionID)
	e.buffer = NewBuffer()
	e.validator = NewFrameValidator(cfg.EntityIDs, cfg.EntityCount)
	e.playback.yearsPerFrame = cfg.YearsPerFrame
	e.playback.Reset()
	e.lastGood = nil
	e.stalled = false
	return nil
}

// Close stops accepting work, cancels the outstanding fetch and disposes every
// trail segment through the renderer. It is idempotent.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.prefetch.Invalidate()
	e.disposeTrails()
	e.closed = true
}

// seedTrails anchors a trail at every announced initial position.
func seedTrails(cfg domain.SessionConfig, tuning domain.Tuning) map[string]*Trail {
	trails := make(map[string]*Trail, len(cfg.InitialPositions))
	for id, pos := range cfg.InitialPositions {
		t := NewTrail(id, tuning.TrailCapacity, tuning.TrailEpsilon)
		t.Seed(pos)
		trails[id] = t
	}
	return trails
}

func (e *Engine) disposeTrails() {
	ids := make([]string, 0, len(e.trails))
	for id := range e.trails {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, seg := range e.trails[id].Drain() {
			e.renderer.OnTrailSegmentRemoved(id, seg)
		}
	}
	e.trails = make(map[string]*Trail)
}

// Status returns a snapshot of the session.
func (e *Engine) Status() domain.Status {
	return domain.Status{
		SessionID:        e.cfg.SessionID,
		State:            e.playback.State(),
		Following:        e.centroid.Enabled(),
		Cursor:           e.buffer.Cursor(),
		Buffered:         e.buffer.Len(),
		RemainingSeconds: e.buffer.RemainingSeconds(e.cfg.FPS),
		ElapsedYears:     e.playback.ElapsedYears(),
		FramesPlayed:     e.playback.FramesPlayed(),
		FetchInFlight:    e.prefetch.InFlight(),
		FailureStreak:    e.prefetch.Failures(),
		Stalled:          e.stalled,
		Closed:           e.closed,
	}
}

// Positions returns the latest accepted position of every entity.
func (e *Engine) Positions() map[string]domain.Vec3 {
	out := make(map[string]domain.Vec3, len(e.lastGood))
	for _, ent := range e.lastGood {
		out[ent.ID] = ent.Position
	}
	return out
}

// LastFrame returns the last accepted frame, or nil before the first one.
func (e *Engine) LastFrame() domain.Frame {
	return e.lastGood
}

// Trail returns the live trail segments of one entity, oldest first.
func (e *Engine) Trail(entityID string) []domain.TrailSegment {
	t, ok := e.trails[entityID]
	if !ok {
		return nil
	}
	return t.Segments()
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.clock.Now(),
		Type:      t,
		SessionID: e.cfg.SessionID,
	}
}

func (e *Engine) bufferEvent(t domain.EventType, dropped int, advanced bool) *domain.BufferEvent {
	return &domain.BufferEvent{
		EventBase:        e.base(t),
		Cursor:           e.buffer.Cursor(),
		Length:           e.buffer.Len(),
		Dropped:          dropped,
		RemainingSeconds: e.buffer.RemainingSeconds(e.cfg.FPS),
		Advanced:         advanced,
	}
}
