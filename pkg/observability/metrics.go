package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors fed by LifecycleHooks.
type Metrics struct {
	Fetches          *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	Compactions      *prometheus.CounterVec
	FramesDropped    *prometheus.CounterVec
	FramesPlayed     *prometheus.CounterVec
	Stalls           *prometheus.CounterVec
	FramesRejected   *prometheus.CounterVec
	RemainingSeconds *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_fetches_total",
				Help: "Completed chunk fetches by outcome",
			},
			[]string{"session_id", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_fetch_duration_seconds",
				Help:    "Duration of chunk fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"session_id"},
		),
		Compactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_compactions_total",
				Help: "Buffer compactions",
			},
			[]string{"session_id"},
		),
		FramesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_frames_dropped_total",
				Help: "Played frames released by compaction",
			},
			[]string{"session_id"},
		),
		FramesPlayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_frames_played_total",
				Help: "Frames the cursor advanced over",
			},
			[]string{"session_id"},
		),
		Stalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_stalls_total",
				Help: "Times playback ran out of buffered frames",
			},
			[]string{"session_id"},
		),
		FramesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_frames_rejected_total",
				Help: "Frames that failed identity validation",
			},
			[]string{"session_id"},
		),
		RemainingSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orrery_buffer_remaining_seconds",
				Help: "Buffered playback time ahead of the cursor",
			},
			[]string{"session_id"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.Fetches, m.FetchDuration, m.Compactions, m.FramesDropped,
		m.FramesPlayed, m.Stalls, m.FramesRejected, m.RemainingSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFetchDone: func(_ context.Context, e *domain.FetchEvent) {
			outcome := OutcomeOK
			switch {
			case e.Err != nil:
				outcome = OutcomeError
			case e.Frames == 0:
				outcome = OutcomeEmpty
			}
			m.Fetches.WithLabelValues(e.SessionID, outcome).Inc()
			m.FetchDuration.WithLabelValues(e.SessionID).Observe(e.Duration.Seconds())
		},
		OnCompact: func(_ context.Context, e *domain.BufferEvent) {
			m.Compactions.WithLabelValues(e.SessionID).Inc()
			m.FramesDropped.WithLabelValues(e.SessionID).Add(float64(e.Dropped))
		},
		OnTick: func(_ context.Context, e *domain.BufferEvent) {
			if e.Advanced {
				m.FramesPlayed.WithLabelValues(e.SessionID).Inc()
			}
			m.RemainingSeconds.WithLabelValues(e.SessionID).Set(e.RemainingSeconds)
		},
		OnStall: func(_ context.Context, e *domain.BufferEvent) {
			m.Stalls.WithLabelValues(e.SessionID).Inc()
		},
		OnReject: func(_ context.Context, e *domain.FrameEvent) {
			m.FramesRejected.WithLabelValues(e.SessionID).Inc()
		},
	}
}
