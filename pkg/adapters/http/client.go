package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/orrery/internal/dto"
	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// maxBody caps how much of a producer response is read.
const maxBody = 64 << 20

// StatusError is returned when the producer answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("producer returned %d", e.Code)
	}
	return fmt.Sprintf("producer returned %d: %s", e.Code, e.Message)
}

// Client talks to a simulation producer over HTTP.
// It implements ports.Fetcher and ports.SessionStarter.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var (
	_ ports.Fetcher        = (*Client)(nil)
	_ ports.SessionStarter = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClientLogger sets the logger used for request diagnostics.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the producer at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession launches simulation on the producer (POST /start_simulation).
func (c *Client) StartSession(ctx context.Context, simulation string) (domain.SessionConfig, error) {
	body, err := json.Marshal(dto.StartRequest{SimulationName: simulation})
	if err != nil {
		return domain.SessionConfig{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start_simulation", bytes.NewReader(body))
	if err != nil {
		return domain.SessionConfig{}, fmt.Errorf("build start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return domain.SessionConfig{}, fmt.Errorf("start simulation %q: %w", simulation, err)
	}
	cfg, err := dto.DecodeStartResponse(data)
	if err != nil {
		return domain.SessionConfig{}, err
	}
	c.logger.Info("simulation started", "session_id", cfg.SessionID, "name", cfg.Name, "fps", cfg.FPS)
	return cfg, nil
}

// FetchChunk downloads the next chunk of frames (GET /state/{session_id}).
func (c *Client) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/state/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("build state request: %w", err)
	}
	data, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chunk: %w", err)
	}
	return dto.DecodeChunk(data)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var er dto.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			se.Message = er.Error
		} else {
			se.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
		}
		return nil, se
	}
	return data, nil
}

// IsNotFound reports whether err is a 404 from the producer.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
