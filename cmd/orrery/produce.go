package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/orrery/internal/demo"
	"github.com/aretw0/orrery/pkg/adapters/redis"
	"github.com/aretw0/orrery/pkg/runner"
	"github.com/spf13/cobra"
)

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Push demo chunks into Redis for play --transport redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("redis")
		sessionID, _ := cmd.Flags().GetString("session")
		depth, _ := cmd.Flags().GetInt64("depth")
		chunkSize, _ := cmd.Flags().GetInt("chunk-size")
		if sessionID == "" {
			return fmt.Errorf("--session is required")
		}

		logger, closeLog, err := newLogger(cmd, cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		q := redis.New(addr, redis.WithPrefix(cfg.RedisPrefix), redis.WithTTL(10*time.Minute))
		defer q.Close()

		src := demo.NewOrbitSource(demo.SolarSystem(), cfg.YearsPerFrame, chunkSize)
		fmt.Fprintf(cmd.ErrOrStderr(), "play with: orrery play --transport redis --source %s --session %s --entity-count %d\n",
			addr, sessionID, len(demo.SolarSystem()))
		return produce(ctx, q, src, sessionID, depth, logger)
	},
}

func init() {
	rootCmd.AddCommand(produceCmd)

	produceCmd.Flags().String("redis", "localhost:6379", "Redis address")
	produceCmd.Flags().String("session", "", "Session id to publish under")
	produceCmd.Flags().Int64("depth", 4, "Chunks to keep queued ahead of the player")
	produceCmd.Flags().Int("chunk-size", 300, "Frames per chunk")
}

// produce keeps depth chunks queued for sessionID until ctx is done.
func produce(ctx context.Context, q *redis.Queue, src *demo.OrbitSource, sessionID string, depth int64, logger *slog.Logger) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		pending, err := q.Pending(ctx, sessionID)
		if err != nil && ctx.Err() == nil {
			return err
		}
		for ; pending < depth && ctx.Err() == nil; pending++ {
			frames, err := src.NextChunk(ctx)
			if err != nil {
				break
			}
			if err := q.Publish(ctx, sessionID, frames); err != nil {
				return err
			}
			logger.Debug("chunk published", "session_id", sessionID, "frames", len(frames))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
