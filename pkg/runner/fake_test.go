package runner

import (
	"sync"

	"github.com/aretw0/orrery/pkg/domain"
)

type fakeController struct {
	mu        sync.Mutex
	status    domain.Status
	positions map[string]domain.Vec3
	closed    bool
	done      chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{
		status: domain.Status{SessionID: "s1", State: domain.StatePaused},
		done:   make(chan struct{}),
	}
}

func (c *fakeController) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	c.status.State = domain.StatePlaying
	return nil
}

func (c *fakeController) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	c.status.State = domain.StatePaused
	return nil
}

func (c *fakeController) ToggleFollow() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, domain.ErrSessionClosed
	}
	c.status.Following = !c.status.Following
	return c.status.Following, nil
}

func (c *fakeController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeController) Positions() map[string]domain.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.Vec3, len(c.positions))
	for k, v := range c.positions {
		out[k] = v
	}
	return out
}

func (c *fakeController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.status.Closed = true
		close(c.done)
	}
	return nil
}

func (c *fakeController) Done() <-chan struct{} { return c.done }
