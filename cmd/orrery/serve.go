package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/orrery"
	"github.com/aretw0/orrery/internal/config"
	"github.com/aretw0/orrery/internal/demo"
	"github.com/aretw0/orrery/internal/presentation/tui"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/aretw0/orrery/pkg/adapters/ws"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/observability"
	"github.com/aretw0/orrery/pkg/runner"
	"github.com/aretw0/orrery/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host playback sessions behind an HTTP control API",
	Long: `Runs a demo producer and hosts playback sessions against it.

Routes:
- /sessions: list, status, play, pause, follow, delete, positions and SSE draw events
- /metrics: Prometheus metrics
- /producer: the demo producer (POST /start_simulation, GET /state/{id}, /ws)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("simulation") {
			cfg.Simulation, _ = cmd.Flags().GetString("simulation")
		}
		count, _ := cmd.Flags().GetInt("sessions")
		chunkSize, _ := cmd.Flags().GetInt("chunk-size")

		logger, closeLog, err := newLogger(cmd, cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		tui.PrintBanner(os.Stderr)

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()
		return serve(ctx, cfg, count, chunkSize, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().String("simulation", "", "Demo simulation to host")
	serveCmd.Flags().Int("sessions", 1, "Number of sessions to start")
	serveCmd.Flags().Int("chunk-size", 300, "Frames per producer chunk")
}

func serve(ctx context.Context, cfg config.Config, count, chunkSize int, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	producer := orreryhttp.NewProducer(logger)
	demo.Register(producer, chunkSize)

	streams := orreryhttp.NewStreamManager(orreryhttp.WithStreamLogger(logger))
	sessions := session.NewManager(session.WithLogger(logger))
	defer sessions.CloseAll()

	router := chi.NewRouter()
	router.Handle("/producer/ws", ws.NewHandler(producer.Source, logger))
	router.Mount("/producer", producer.Handler())
	router.Mount("/", orreryhttp.NewHandler(sessions,
		orreryhttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		orreryhttp.WithStreams(streams),
		orreryhttp.WithLogger(logger),
	))

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("orrery server listening", "address", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	client := orreryhttp.NewClient(fmt.Sprintf("http://127.0.0.1:%d/producer", port), orreryhttp.WithClientLogger(logger))
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
	for i := 0; i < count; i++ {
		if err := host(ctx, cfg, client, sessions, streams, hooks, logger); err != nil {
			logger.Error("session start failed", "error", err)
		}
	}

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		logger.Info("orrery server stopped")
		return nil
	}
}

// host starts one session on the producer and adds its player to sessions.
func host(ctx context.Context, cfg config.Config, client *orreryhttp.Client, sessions *session.Manager,
	streams *orreryhttp.StreamManager, hooks domain.LifecycleHooks, logger *slog.Logger) error {
	sc, err := client.StartSession(ctx, cfg.Simulation)
	if err != nil {
		return err
	}
	opts, err := playerOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts = append(opts,
		orrery.WithRenderer(orreryhttp.NewStreamRenderer(sc.SessionID, streams)),
		orrery.WithLifecycleHooks(hooks),
	)
	p, err := orrery.New(sc, client, opts...)
	if err != nil {
		return err
	}
	if err := p.Start(ctx); err != nil {
		p.Close()
		return err
	}
	return sessions.Add(sc.SessionID, p)
}
