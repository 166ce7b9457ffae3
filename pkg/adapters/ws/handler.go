package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aretw0/orrery/internal/dto"
	"github.com/aretw0/orrery/internal/logging"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/gorilla/websocket"
)

// Lookup resolves a session id to its chunk source.
type Lookup func(sessionID string) (orreryhttp.Source, bool)

// Handler serves chunk requests over websocket connections.
type Handler struct {
	lookup   Lookup
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler serves sources found through lookup.
func NewHandler(lookup Lookup, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		lookup: lookup,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and answers chunk requests until the peer goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, h.reply(r, payload)); err != nil {
			return
		}
	}
}

func (h *Handler) reply(r *http.Request, payload []byte) []byte {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return replyError("invalid request")
	}
	if req.Op != OpNext {
		return replyError("unknown op: " + req.Op)
	}
	src, ok := h.lookup(req.SessionID)
	if !ok {
		return replyError("session not found")
	}
	frames, err := src.NextChunk(r.Context())
	if err != nil {
		h.logger.Warn("chunk generation failed", "session_id", req.SessionID, "error", err)
		return replyError(err.Error())
	}
	data, err := dto.EncodeChunk(frames)
	if err != nil {
		return replyError(err.Error())
	}
	return data
}

func replyError(msg string) []byte {
	data, _ := json.Marshal(dto.ErrorResponse{Error: msg})
	return data
}
