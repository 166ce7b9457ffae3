package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/aretw0/orrery/internal/dto"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Source produces the chunks of one running simulation.
type Source interface {
	NextChunk(ctx context.Context) ([]domain.Frame, error)
}

// Simulation is a named system the producer can start.
type Simulation struct {
	Name          string
	FPS           int
	YearsPerFrame float64
	Bodies        []dto.BodyInfo
	New           func() Source
}

// Producer serves the producer wire protocol: POST /start_simulation,
// GET /state/{session_id} and GET /list_scenarios. It backs the demo mode and tests.
type Producer struct {
	mu          sync.Mutex
	simulations map[string]Simulation
	sessions    map[string]Source
	logger      *slog.Logger
}

// NewProducer creates a producer with no simulations.
func NewProducer(logger *slog.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Producer{
		simulations: make(map[string]Simulation),
		sessions:    make(map[string]Source),
		logger:      logger,
	}
}

// Register makes sim startable under key.
func (p *Producer) Register(key string, sim Simulation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.simulations[key] = sim
}

// Open attaches src to an existing session id.
func (p *Producer) Open(sessionID string, src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID] = src
}

// Source returns the source attached to sessionID.
func (p *Producer) Source(sessionID string) (Source, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	src, ok := p.sessions[sessionID]
	return src, ok
}

// Handler returns the producer routes.
func (p *Producer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/start_simulation", p.start)
	r.Get("/state/{sessionID}", p.state)
	r.Get("/list_scenarios", p.list)
	return r
}

func (p *Producer) start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, p.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	p.mu.Lock()
	sim, ok := p.simulations[req.SimulationName]
	if !ok {
		p.mu.Unlock()
		writeError(w, p.logger, http.StatusNotFound, "unknown simulation: "+req.SimulationName)
		return
	}
	id := uuid.NewString()
	p.sessions[id] = sim.New()
	p.mu.Unlock()

	p.logger.Info("simulation started", "session_id", id, "simulation", req.SimulationName)
	cfg := domain.SessionConfig{
		SessionID:     id,
		Name:          sim.Name,
		FPS:           sim.FPS,
		YearsPerFrame: sim.YearsPerFrame,
		EntityCount:   len(sim.Bodies),
	}
	writeJSON(w, p.logger, http.StatusOK, dto.NewStartResponse(cfg, sim.Bodies))
}

func (p *Producer) state(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	src, ok := p.Source(id)
	if !ok {
		writeError(w, p.logger, http.StatusNotFound, "session not found")
		return
	}

	frames, err := src.NextChunk(r.Context())
	if err != nil {
		p.logger.Warn("chunk generation failed", "session_id", id, "err", err)
		writeError(w, p.logger, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := dto.EncodeChunk(frames)
	if err != nil {
		writeError(w, p.logger, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

type scenarioInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	PlanetCount int    `json:"planet_count"`
}

func (p *Producer) list(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	out := make([]scenarioInfo, 0, len(p.simulations))
	for key, sim := range p.simulations {
		out = append(out, scenarioInfo{Key: key, Name: sim.Name, PlanetCount: len(sim.Bodies)})
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	writeJSON(w, p.logger, http.StatusOK, out)
}

// QueueSource replays a fixed list of chunks, then empty chunks.
type QueueSource struct {
	mu     sync.Mutex
	chunks [][]domain.Frame
}

// NewQueueSource creates a source over chunks.
func NewQueueSource(chunks ...[]domain.Frame) *QueueSource {
	return &QueueSource{chunks: chunks}
}

// NextChunk pops the next chunk.
func (q *QueueSource) NextChunk(ctx context.Context) ([]domain.Frame, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return []domain.Frame{}, nil
	}
	next := q.chunks[0]
	q.chunks = q.chunks[1:]
	return next, nil
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, code int, msg string) {
	writeJSON(w, logger, code, dto.ErrorResponse{Error: msg})
}
