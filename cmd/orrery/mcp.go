package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/orrery/pkg/adapters/mcp"
	"github.com/aretw0/orrery/pkg/runner"
	"github.com/aretw0/orrery/pkg/session"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts a headless playback session and exposes its controls as MCP tools
(list_sessions, status, play, pause, toggle_follow).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyPlayFlags(cmd, &cfg); err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("mcp-transport")
		addr, _ := cmd.Flags().GetString("addr")

		// Logs must not corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger, closeLog, err := newLogger(cmd, cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		p, src, err := newPlayer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer src.Close()

		sessions := session.NewManager(session.WithLogger(logger))
		defer sessions.CloseAll()
		if err := sessions.Add(p.SessionID(), p); err != nil {
			p.Close()
			return err
		}

		srv := mcp.NewServer(sessions, mcp.WithLogger(logger))
		switch transport {
		case "stdio":
			logger.Info("Starting Orrery MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Orrery MCP Server (SSE)", "address", addr)
			if err := srv.ServeSSE(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("mcp-transport", "stdio", "MCP transport: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Listen address (only for SSE)")
	mcpCmd.Flags().String("transport", "", "Producer transport: http, ws, redis or replay")
	mcpCmd.Flags().String("source", "", "Producer URL, Redis address or archive path")
	mcpCmd.Flags().String("simulation", "", "Simulation to start on the producer")
	mcpCmd.Flags().String("session", "", "Join an existing session instead of starting one")
	mcpCmd.Flags().String("scenario", "", "Load transport, source and simulation from the scenario catalog")
	mcpCmd.Flags().String("archive", "", "Record every fetched chunk into this SQLite file")
	mcpCmd.Flags().Bool("paused", false, "Start paused")
	mcpCmd.Flags().Bool("follow", false, "Start following the centroid")
	addSessionShapeFlags(mcpCmd)
}
