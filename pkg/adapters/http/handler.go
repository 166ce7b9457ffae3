package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/orrery"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/aretw0/orrery/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the control surface of the sessions in a Manager.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	metrics  http.Handler
	logger   *slog.Logger
}

// HandlerOption configures the control API.
type HandlerOption func(*Server)

// WithMetrics mounts h (usually promhttp) on GET /metrics.
func WithMetrics(h http.Handler) HandlerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams shares a StreamManager with the renderers of the hosted sessions.
func WithStreams(sm *StreamManager) HandlerOption {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP control API for sessions.
func NewHandler(sessions *session.Manager, opts ...HandlerOption) http.Handler {
	s := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/info", s.info)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.list)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.status)
			r.Delete("/", s.remove)
			r.Get("/positions", s.positions)
			r.Get("/events", s.events)
			r.Post("/play", s.play)
			r.Post("/pause", s.pause)
			r.Post("/follow", s.follow)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"app":      "orrery",
		"version":  strings.TrimSpace(orrery.Version),
		"sessions": len(s.Sessions.IDs()),
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.Sessions.List())
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c.Status())
}

func (s *Server) positions(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c.Positions())
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := c.Play(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c.Status())
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := c.Pause(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c.Status())
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if _, err := c.ToggleFollow(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c.Status())
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Remove(id); err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("session removed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// events streams draw instructions of one session as server-sent events.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, s.logger, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.Done():
			fmt.Fprintf(w, "event: closed\ndata: %s\n\n", id)
			flusher.Flush()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (ports.Controller, bool) {
	c, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return c, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionClosed):
		code = http.StatusGone
	case errors.Is(err, domain.ErrInvalidConfig):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, s.logger, code, err.Error())
}
