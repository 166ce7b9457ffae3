package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/orrery"
	"github.com/aretw0/orrery/internal/config"
	"github.com/aretw0/orrery/internal/runtime"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/aretw0/orrery/pkg/adapters/process"
	"github.com/aretw0/orrery/pkg/adapters/redis"
	"github.com/aretw0/orrery/pkg/adapters/sqlite"
	"github.com/aretw0/orrery/pkg/adapters/ws"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// leaseTTL bounds how long a crashed player keeps a Redis session claimed.
const leaseTTL = 30 * time.Second

// source is the producer side of a session: where chunks come from and how sessions start.
type source struct {
	fetcher ports.Fetcher
	starter ports.SessionStarter // nil when the transport has no handshake
	closers []func() error
}

func (s *source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// openSource connects the transport named by cfg.
func openSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (*source, error) {
	src := &source{}
	switch cfg.Transport {
	case config.TransportHTTP:
		client := orreryhttp.NewClient(cfg.Source, orreryhttp.WithClientLogger(logger))
		src.fetcher, src.starter = client, client

	case config.TransportWebsocket:
		f := ws.NewFetcher(cfg.Source, ws.WithLogger(logger))
		src.fetcher = f
		src.starter = orreryhttp.NewClient(httpBase(cfg.Source), orreryhttp.WithClientLogger(logger))
		src.closers = append(src.closers, f.Close)

	case config.TransportRedis:
		if cfg.SessionID == "" {
			return nil, fmt.Errorf("%w: the redis transport needs a session id", domain.ErrInvalidConfig)
		}
		q := redis.New(cfg.Source, redis.WithPrefix(cfg.RedisPrefix))
		lease, err := q.Acquire(ctx, cfg.SessionID, leaseTTL)
		if err != nil {
			q.Close()
			return nil, fmt.Errorf("claim session %s: %w", cfg.SessionID, err)
		}
		keepCtx, stop := context.WithCancel(ctx)
		go func() {
			if err := lease.Keep(keepCtx); err != nil {
				logger.Warn("redis lease lost", "session_id", cfg.SessionID, "error", err)
			}
		}()
		src.fetcher = q
		src.closers = append(src.closers, q.Close, func() error {
			stop()
			return lease.Release(context.Background())
		})

	case config.TransportReplay:
		if cfg.SessionID == "" {
			return nil, fmt.Errorf("%w: replay needs a session id", domain.ErrInvalidConfig)
		}
		archive, err := sqlite.Open(cfg.Source)
		if err != nil {
			return nil, err
		}
		src.fetcher = sqlite.NewReplay(archive)
		src.closers = append(src.closers, archive.Close)
		return src, nil
	}

	if cfg.Archive != "" {
		archive, err := sqlite.Open(cfg.Archive)
		if err != nil {
			src.Close()
			return nil, err
		}
		src.fetcher = sqlite.NewRecorder(src.fetcher, archive, logger)
		src.closers = append(src.closers, archive.Close)
	}
	return src, nil
}

// spawnProducer launches cfg.Spawn and waits until it answers. It returns nil when nothing is spawned.
func spawnProducer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*process.Process, error) {
	if cfg.Spawn == "" {
		return nil, nil
	}
	producers, err := process.LoadProducers(cfg.Producers)
	if err != nil {
		return nil, err
	}
	sup := process.NewSupervisor(process.WithRegistry(producers), process.WithLogger(logger))
	proc, err := sup.Start(ctx, cfg.Spawn)
	if err != nil {
		return nil, err
	}
	ready := proc.Config.Ready
	if ready == "" && cfg.NeedsHandshake() {
		ready = httpBase(cfg.Source) + "/list_scenarios"
	}
	if err := proc.WaitReady(ctx, ready); err != nil {
		proc.Stop()
		return nil, err
	}
	return proc, nil
}

// httpBase derives the handshake endpoint from a websocket url: ws://host/ws -> http://host.
func httpBase(wsURL string) string {
	u := strings.TrimSuffix(strings.TrimSuffix(wsURL, "/"), "/ws")
	switch {
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	}
	return u
}

// sessionConfig returns the session to play: started on the producer, or the fixed one from cfg.
func sessionConfig(ctx context.Context, cfg config.Config, src *source) (domain.SessionConfig, error) {
	if src.starter == nil || cfg.SessionID != "" {
		return cfg.FixedSession(), nil
	}
	return src.starter.StartSession(ctx, cfg.Simulation)
}

// playerOptions translates cfg into player options.
func playerOptions(cfg config.Config, logger *slog.Logger) ([]orrery.Option, error) {
	state, err := cfg.PlaybackState()
	if err != nil {
		return nil, err
	}
	return []orrery.Option{
		orrery.WithLogger(logger),
		orrery.WithTuning(cfg.DomainTuning()),
		orrery.WithRetryPolicy(runtime.NewRetryPolicy(cfg.Retry.Initial, cfg.Retry.Max, cfg.Retry.Multiplier)),
		orrery.WithInitialState(state),
		orrery.WithFollow(cfg.Follow),
	}, nil
}
