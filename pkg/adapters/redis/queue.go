package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/orrery/internal/dto"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapter touches.
const DefaultPrefix = "orrery:"

// Queue is a Redis list per session holding JSON-encoded chunks.
// Producers RPUSH with Publish; players LPOP one chunk per FetchChunk.
type Queue struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.Fetcher = (*Queue)(nil)

// Option configures a Queue.
type Option func(*Queue)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(q *Queue) {
		q.prefix = prefix
	}
}

// WithTTL expires a session's list when nothing is published for ttl.
// Zero keeps lists forever.
func WithTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		q.ttl = ttl
	}
}

// New connects to the Redis server at addr.
func New(addr string, opts ...Option) *Queue {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Queue {
	q := &Queue{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) key(sessionID string) string {
	return q.prefix + sessionID + ":chunks"
}

// FetchChunk pops the oldest chunk. An empty list yields an empty chunk.
func (q *Queue) FetchChunk(ctx context.Context, sessionID string) ([]domain.Frame, error) {
	data, err := q.client.LPop(ctx, q.key(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return []domain.Frame{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis lpop: %w", err)
	}
	return dto.DecodeChunk(data)
}

// Publish appends frames as one chunk.
func (q *Queue) Publish(ctx context.Context, sessionID string, frames []domain.Frame) error {
	data, err := dto.EncodeChunk(frames)
	if err != nil {
		return err
	}
	key := q.key(sessionID)
	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if q.ttl > 0 {
		pipe.Expire(ctx, key, q.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Pending reports how many chunks wait in the session's list.
func (q *Queue) Pending(ctx context.Context, sessionID string) (int64, error) {
	return q.client.LLen(ctx, q.key(sessionID)).Result()
}

// Drop deletes the session's list.
func (q *Queue) Drop(ctx context.Context, sessionID string) error {
	return q.client.Del(ctx, q.key(sessionID)).Err()
}

// Close closes the underlying client.
func (q *Queue) Close() error {
	return q.client.Close()
}
