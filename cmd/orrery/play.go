package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/orrery"
	"github.com/aretw0/orrery/internal/config"
	"github.com/aretw0/orrery/internal/presentation/tui"
	"github.com/aretw0/orrery/pkg/adapters/loam"
	"github.com/aretw0/orrery/pkg/adapters/terminal"
	"github.com/aretw0/orrery/pkg/observability"
	"github.com/aretw0/orrery/pkg/runner"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a simulation in the terminal",
	Long: `Connects to a producer, starts (or joins) a session and plays it back.

Transports:
- http (default): POST /start_simulation, then GET /state/{session_id} per chunk.
- ws: one websocket connection; sessions still start over HTTP.
- redis: pops chunks a producer pushed to a Redis list. Needs --session.
- replay: replays a session recorded with --archive. Needs --session.

Keys: space play/pause, f follow, +/- zoom, q quit.
With --headless, commands (play, pause, follow, status, positions, quit) are read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyPlayFlags(cmd, &cfg); err != nil {
			return err
		}
		headless, _ := cmd.Flags().GetBool("headless")

		logger, closeLog, err := newLogger(cmd, cfg, !headless)
		if err != nil {
			return err
		}
		defer closeLog()

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		if headless {
			console, _ := cmd.Flags().GetString("console")
			return playHeadless(ctx, cfg, logger, console, sm)
		}
		return playTerminal(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().String("transport", "", "Transport: http, ws, redis or replay")
	playCmd.Flags().String("source", "", "Producer URL, Redis address or archive path")
	playCmd.Flags().String("simulation", "", "Simulation to start on the producer")
	playCmd.Flags().String("session", "", "Join an existing session instead of starting one")
	playCmd.Flags().String("scenario", "", "Load transport, source and simulation from the scenario catalog")
	playCmd.Flags().String("archive", "", "Record every fetched chunk into this SQLite file")
	playCmd.Flags().String("spawn", "", "Launch this producer from the producers file first")
	playCmd.Flags().String("producers", "", "Producers file (default producers.yaml)")
	playCmd.Flags().Bool("paused", false, "Start paused")
	playCmd.Flags().Bool("follow", false, "Start following the centroid")
	playCmd.Flags().Bool("headless", false, "Do not draw; log progress instead")
	playCmd.Flags().String("console", "text", "Headless command console on stdin: text, json or off")
	addSessionShapeFlags(playCmd)
}

// addSessionShapeFlags adds the flags describing sessions joined without a handshake.
func addSessionShapeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("fps", 30, "Frames per second (redis and replay)")
	cmd.Flags().Float64("years-per-frame", 0.01, "Simulated years per frame (redis and replay)")
	cmd.Flags().Int("entity-count", 0, "Entities per frame, 0 to learn from the first frame (redis and replay)")
}

// applyPlayFlags layers the scenario and then explicit flags over cfg.
func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) error {
	if id, _ := cmd.Flags().GetString("scenario"); id != "" {
		catalog, err := loam.Open(cfg.Scenarios)
		if err != nil {
			return err
		}
		s, err := catalog.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return err
		}
		cfg.Simulation = s.Simulation
		if s.Source != "" {
			cfg.Source = s.Source
		}
		if s.Transport != "" {
			cfg.Transport = s.Transport
		}
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport, _ = flags.GetString("transport")
	}
	if flags.Changed("source") {
		cfg.Source, _ = flags.GetString("source")
	}
	if flags.Changed("simulation") {
		cfg.Simulation, _ = flags.GetString("simulation")
	}
	if flags.Changed("session") {
		cfg.SessionID, _ = flags.GetString("session")
	}
	if flags.Changed("archive") {
		cfg.Archive, _ = flags.GetString("archive")
	}
	if flags.Changed("spawn") {
		cfg.Spawn, _ = flags.GetString("spawn")
	}
	if flags.Changed("producers") {
		cfg.Producers, _ = flags.GetString("producers")
	}
	if flags.Changed("fps") {
		cfg.FPS, _ = flags.GetInt("fps")
	}
	if flags.Changed("years-per-frame") {
		cfg.YearsPerFrame, _ = flags.GetFloat64("years-per-frame")
	}
	if flags.Changed("entity-count") {
		cfg.EntityCount, _ = flags.GetInt("entity-count")
	}
	if paused, _ := flags.GetBool("paused"); paused {
		cfg.InitialState = "paused"
	}
	if follow, _ := flags.GetBool("follow"); follow {
		cfg.Follow = true
	}
	return cfg.Validate()
}

// newPlayer opens the source and builds a started player on it.
func newPlayer(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...orrery.Option) (*orrery.Player, *source, error) {
	proc, err := spawnProducer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		if proc != nil {
			proc.Stop()
		}
		return nil, nil, err
	}
	if proc != nil {
		// closers run in reverse: the producer stops after the transport
		src.closers = append([]func() error{proc.Stop}, src.closers...)
	}
	sc, err := sessionConfig(ctx, cfg, src)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	opts, err := playerOptions(cfg, logger)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	p, err := orrery.New(sc, src.fetcher, append(opts, extra...)...)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	if err := p.Start(ctx); err != nil {
		p.Close()
		src.Close()
		return nil, nil, err
	}
	logger.Info("playback started", "session_id", sc.SessionID, "name", sc.Name, "fps", sc.FPS, "transport", cfg.Transport)
	return p, src, nil
}

func playTerminal(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	r := terminal.NewRenderer(screen)
	p, src, err := newPlayer(ctx, cfg, logger, orrery.WithRenderer(r))
	if err != nil {
		return err
	}
	defer src.Close()
	defer p.Close()

	return r.Run(ctx, p)
}

func playHeadless(ctx context.Context, cfg config.Config, logger *slog.Logger, console string, sm *runner.SignalManager) error {
	var handler runner.IOHandler
	switch console {
	case "text":
		handler = runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	case "json":
		handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
	case "off", "":
	default:
		return fmt.Errorf("unknown console %q: want text, json or off", console)
	}

	p, src, err := newPlayer(ctx, cfg, logger, orrery.WithLifecycleHooks(observability.LogHooks(logger)))
	if err != nil {
		return err
	}
	defer src.Close()
	defer p.Close()

	consoleDone := make(chan error, 1)
	if handler != nil {
		r := runner.NewRunner(runner.WithHandler(handler), runner.WithLogger(logger))
		go func() { consoleDone <- r.Run(ctx, p) }()
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			st := p.Status()
			fmt.Printf("stopped after %d frames (%.2f years)\n", st.FramesPlayed, st.ElapsedYears)
			return nil
		case <-p.Done():
			return nil
		case err := <-consoleDone:
			if errors.Is(err, io.EOF) {
				// stdin closed: keep playing until interrupted
				sm.CheckRace()
				consoleDone = nil
				continue
			}
			return err
		case <-ticker.C:
			st := p.Status()
			logger.Info("playback",
				"state", st.State,
				"years", st.ElapsedYears,
				"buffered", st.Buffered-st.Cursor,
				"remaining_seconds", st.RemainingSeconds,
				"failures", st.FailureStreak)
		}
	}
}
