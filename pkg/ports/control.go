package ports

import "github.com/aretw0/orrery/pkg/domain"

// Controller is the control surface of one running playback session.
// It is satisfied by *orrery.Player and used by the session manager, the
// HTTP control API and the MCP server.
type Controller interface {
	Play() error
	Pause() error
	ToggleFollow() (bool, error)
	Status() domain.Status
	Positions() map[string]domain.Vec3
	Close() error
	Done() <-chan struct{}
}
