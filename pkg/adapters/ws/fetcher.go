package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/orrery/internal/dto"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/gorilla/websocket"
)

// OpNext asks the producer for the next chunk of a session.
const OpNext = "next"

// Request is the message a fetcher sends for every chunk.
type Request struct {
	Op        string `json:"op"`
	SessionID string `json:"session_id"`
}

// Fetcher pulls chunks over a single websocket connection.
// The connection is dialled on first use and redialled after any transport error.
// Requests are serialized; one reply answers one request.
type Fetcher struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ ports.Fetcher = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(f *Fetcher) {
		f.dialer = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher for a ws:// or wss:// url.
func NewFetcher(url string, opts ...Option) *Fetcher {
	f := &Fetcher{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchChunk sends a next request and decodes the reply.
func (f *Fetcher) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	// Cancelling ctx unblocks the read below. A cancel that is already
	// running must finish before the connection is handed to the next call.
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		conn.SetReadDeadline(time.Now())
		conn.SetWriteDeadline(time.Now())
	})
	defer func() {
		if !stop() {
			<-fired
		}
	}()

	if err := conn.WriteJSON(Request{Op: OpNext, SessionID: sessionID}); err != nil {
		f.drop()
		return nil, f.transportError(ctx, "send request", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		f.drop()
		return nil, f.transportError(ctx, "read reply", err)
	}
	return dto.DecodeChunk(payload)
}

// Close closes the connection, if any.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := f.conn.Close()
	f.conn = nil
	return err
}

func (f *Fetcher) connect(ctx context.Context) (*websocket.Conn, error) {
	if f.conn != nil {
		return f.conn, nil
	}
	conn, resp, err := f.dialer.DialContext(ctx, f.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", f.url, err)
	}
	f.logger.Debug("websocket connected", "url", f.url)
	f.conn = conn
	return conn, nil
}

func (f *Fetcher) drop() {
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

func (f *Fetcher) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		f.logger.Warn("websocket closed by producer", "code", ce.Code, "text", ce.Text)
	}
	return fmt.Errorf("%s: %w", op, err)
}
