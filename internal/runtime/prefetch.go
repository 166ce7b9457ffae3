package runtime

import (
	"context"
	"time"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/orrery/internal/runtime"

// FetchResult is the outcome of one asynchronous chunk request.
// It is produced by the fetch goroutine and applied by the owner via Engine.Complete.
type FetchResult struct {
	Generation uint64
	SessionID  string
	Attempt    int
	Frames     []domain.Frame
	Err        error
	Duration   time.Duration
}

// PrefetchController issues single-flight fetches and decides when the buffer may be compacted.
// Only the in-flight flag gates compaction; it is set before the goroutine starts and
// cleared only when the owner applies the result.
type PrefetchController struct {
	fetcher ports.Fetcher
	clock   ports.Clock
	retry   ports.RetryPolicy
	tuning  domain.Tuning
	tracer  trace.Tracer

	results chan FetchResult

	inFlight   bool
	generation uint64
	cancel     context.CancelFunc
	attempt    int
	failures   int
	nextAt     time.Time
}

// NewPrefetchController creates a controller. A nil retry policy retries on the next tick.
func NewPrefetchController(fetcher ports.Fetcher, tuning domain.Tuning, retry ports.RetryPolicy, clock ports.Clock) *PrefetchController {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &PrefetchController{
		fetcher: fetcher,
		clock:   clock,
		retry:   retry,
		tuning:  tuning,
		tracer:  otel.Tracer(tracerName),
		results: make(chan FetchResult, 1),
	}
}

// Results is where fetch goroutines post their outcome.
func (p *PrefetchController) Results() <-chan FetchResult {
	return p.results
}

// InFlight reports whether a fetch is outstanding.
func (p *PrefetchController) InFlight() bool {
	return p.inFlight
}

// Failures is the number of consecutive failed fetches.
func (p *PrefetchController) Failures() int {
	return p.failures
}

// Generation identifies the current session incarnation.
func (p *PrefetchController) Generation() uint64 {
	return p.generation
}

// ShouldFetch reports whether a fetch must start now.
func (p *PrefetchController) ShouldFetch(remainingSeconds float64) bool {
	if p.inFlight {
		return false
	}
	if !p.nextAt.IsZero() && p.clock.Now().Before(p.nextAt) {
		return false
	}
	return remainingSeconds <= p.tuning.LowWatermark.Seconds()
}

// Start launches one asynchronous fetch for sessionID. It returns domain.ErrFetchInFlight
// when another fetch is outstanding.
func (p *PrefetchController) Start(ctx context.Context, sessionID string) (int, error) {
	if p.inFlight {
		return p.attempt, domain.ErrFetchInFlight
	}
	p.inFlight = true
	p.attempt++

	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	gen := p.generation
	attempt := p.attempt
	started := p.clock.Now()

	go func() {
		defer cancel()

		spanCtx, span := p.tracer.Start(fetchCtx, "orrery.fetch_chunk",
			trace.WithAttributes(
				attribute.String("session.id", sessionID),
				attribute.Int("fetch.attempt", attempt),
			))
		frames, err := p.fetcher.FetchChunk(spanCtx, sessionID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
		} else {
			span.SetAttributes(attribute.Int("fetch.frames", len(frames)))
		}
		span.End()

		res := FetchResult{
			Generation: gen,
			SessionID:  sessionID,
			Attempt:    attempt,
			Frames:     frames,
			Err:        err,
			Duration:   p.clock.Now().Sub(started),
		}
		select {
		case p.results <- res:
		case <-fetchCtx.Done():
		}
	}()

	return attempt, nil
}

// Complete releases the single-flight guard for a result of the current generation
// and schedules the next attempt. It returns false for stale results, which must be ignored.
func (p *PrefetchController) Complete(res FetchResult) (retryIn time.Duration, current bool) {
	if res.Generation != p.generation {
		return 0, false
	}
	p.inFlight = false
	p.cancel = nil

	switch {
	case res.Err != nil:
		p.failures++
		retryIn = p.backOff()
	case len(res.Frames) == 0:
		retryIn = p.backOff()
	default:
		p.failures = 0
		p.nextAt = time.Time{}
		if p.retry != nil {
			p.retry.Reset()
		}
	}
	return retryIn, true
}

func (p *PrefetchController) backOff() time.Duration {
	if p.retry == nil {
		p.nextAt = time.Time{}
		return 0
	}
	d := p.retry.NextBackOff()
	if d < 0 {
		// Policy gave up; keep polling at the watermark interval.
		d = p.tuning.LowWatermark
	}
	p.nextAt = p.clock.Now().Add(d)
	return d
}

// ShouldCompact reports whether the played prefix can be dropped.
func (p *PrefetchController) ShouldCompact(cursor, length int) bool {
	if p.inFlight {
		return false
	}
	return cursor >= p.tuning.HighCursorThreshold && length-cursor >= p.tuning.SafetyMargin
}

// Invalidate cancels any outstanding fetch and moves to a new generation so its
// result is discarded.
func (p *PrefetchController) Invalidate() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.inFlight = false
	p.attempt = 0
	p.failures = 0
	p.nextAt = time.Time{}
	if p.retry != nil {
		p.retry.Reset()
	}
}
