package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/orrery/internal/config"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orrery",
	Short: "Orrery plays back streamed simulation frames",
	Long: `Orrery buffers frames streamed by a simulation producer and plays them back at a
fixed rate, prefetching ahead of the playhead and drawing entity trails.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "orrery.yaml", "Configuration file (missing file is ignored)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
}

// loadConfig resolves the configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// newLogger builds the command logger. quiet drops logs that would go to stderr.
func newLogger(cmd *cobra.Command, cfg config.Config, quiet bool) (*slog.Logger, func(), error) {
	level := logging.ParseLevel(cfg.LogLevel)
	file, _ := cmd.Flags().GetString("log-file")
	if file == "" {
		if quiet {
			return logging.NewNop(), func() {}, nil
		}
		return logging.New(level), func() {}, nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewWithWriter(io.Writer(f), level), func() { f.Close() }, nil
}
