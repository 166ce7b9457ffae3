package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/orrery"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionArgs selects the session a tool acts on.
type SessionArgs struct {
	SessionID string `json:"session_id" jsonschema_description:"The playback session id"`
}

// SessionList is the result of list_sessions.
type SessionList struct {
	Sessions []domain.Status `json:"sessions" jsonschema_description:"Status of every hosted session"`
}

// Server exposes a session manager's control surface as MCP tools.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the MCP server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("orrery-mcp", strings.TrimSpace(orrery.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List every playback session with its buffer and playback status."),
		mcp.WithOutputSchema[SessionList](),
	), mcp.NewStructuredToolHandler(s.handleList))

	sessionTool := func(name, description string) mcp.Tool {
		return mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("The playback session id")),
			mcp.WithOutputSchema[domain.Status](),
		)
	}

	s.mcpServer.AddTool(sessionTool("status",
		"Get the playback state, buffer level and elapsed simulated years of a session."),
		mcp.NewStructuredToolHandler(s.handleStatus))
	s.mcpServer.AddTool(sessionTool("play",
		"Resume playback. Has no effect on a session that is already playing."),
		mcp.NewStructuredToolHandler(s.handlePlay))
	s.mcpServer.AddTool(sessionTool("pause",
		"Hold playback on the current frame. Fetching continues in the background."),
		mcp.NewStructuredToolHandler(s.handlePause))
	s.mcpServer.AddTool(sessionTool("toggle_follow",
		"Toggle the camera following the centroid of all entities."),
		mcp.NewStructuredToolHandler(s.handleToggleFollow))
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionList, error) {
	return SessionList{Sessions: s.sessions.List()}, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.Status, error) {
	c, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return domain.Status{}, err
	}
	return c.Status(), nil
}

func (s *Server) handlePlay(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.Status, error) {
	c, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return domain.Status{}, err
	}
	if err := c.Play(); err != nil {
		return domain.Status{}, fmt.Errorf("play failed: %w", err)
	}
	return c.Status(), nil
}

func (s *Server) handlePause(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.Status, error) {
	c, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return domain.Status{}, err
	}
	if err := c.Pause(); err != nil {
		return domain.Status{}, fmt.Errorf("pause failed: %w", err)
	}
	return c.Status(), nil
}

func (s *Server) handleToggleFollow(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.Status, error) {
	c, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return domain.Status{}, err
	}
	if _, err := c.ToggleFollow(); err != nil {
		return domain.Status{}, fmt.Errorf("toggle follow failed: %w", err)
	}
	return c.Status(), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("orrery://sessions", "Playback sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.List())
		if err != nil {
			return nil, errors.New("failed to encode sessions")
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "orrery://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
