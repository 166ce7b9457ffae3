package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLeaseHeld is returned when another consumer owns the session.
var ErrLeaseHeld = errors.New("session is consumed elsewhere")

// releaseScript deletes the lease only if we still own it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// renewScript extends the lease only if we still own it.
const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// Lease marks one player as the only consumer of a session's chunk list.
type Lease struct {
	client *backend.Client
	key    string
	token  string
	ttl    time.Duration
}

// Acquire takes the consumer lease for sessionID using SET NX PX.
func (q *Queue) Acquire(ctx context.Context, sessionID string, ttl time.Duration) (*Lease, error) {
	l := &Lease{
		client: q.client,
		key:    q.prefix + sessionID + ":consumer",
		token:  uuid.NewString(),
		ttl:    ttl,
	}
	ok, err := q.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lease: %w", err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	return l, nil
}

// Renew extends the lease by its ttl. It fails with ErrLeaseHeld once the lease was lost.
func (l *Lease) Renew(ctx context.Context) error {
	n, err := l.client.Eval(ctx, renewScript, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis error renewing lease: %w", err)
	}
	if n == 0 {
		return ErrLeaseHeld
	}
	return nil
}

// Keep renews the lease every ttl/2 until ctx is done.
func (l *Lease) Keep(ctx context.Context) error {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Renew(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Release gives the lease up.
func (l *Lease) Release(ctx context.Context) error {
	return l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}
