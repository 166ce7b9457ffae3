package terminal_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/orrery/pkg/adapters/terminal"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu     sync.Mutex
	status domain.Status
	done   chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{status: domain.Status{State: domain.StatePaused}, done: make(chan struct{})}
}

func (c *fakeController) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = domain.StatePlaying
	return nil
}

func (c *fakeController) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = domain.StatePaused
	return nil
}

func (c *fakeController) ToggleFollow() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Following = !c.status.Following
	return c.status.Following, nil
}

func (c *fakeController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeController) Positions() map[string]domain.Vec3 { return nil }
func (c *fakeController) Close() error                      { return nil }
func (c *fakeController) Done() <-chan struct{}             { return c.done }

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(80, 24)
	t.Cleanup(s.Fini)
	return s
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestPalette(t *testing.T) {
	assert.Equal(t, tcell.NewHexColor(0xffcc00), terminal.Palette("#FFCC00", 3))
	assert.Equal(t, tcell.ColorRed, terminal.Palette("red", 0))
	assert.Equal(t, terminal.Palette("", 0), terminal.Palette("not-a-color", 0))
	assert.Equal(t, terminal.Palette("", 2), terminal.Palette("", 11))
	assert.NotEqual(t, terminal.Palette("", 0), terminal.Palette("", 1))
	assert.Equal(t, 'E', terminal.Glyph("Earth"))
	assert.Equal(t, '*', terminal.Glyph(""))
}

func TestProjection(t *testing.T) {
	p := terminal.Projection{Scale: 2, Width: 80, Height: 24}

	x, y, ok := p.Project(domain.Vec3{})
	assert.True(t, ok)
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)

	x, y, ok = p.Project(domain.Vec3{X: 1, Y: 1, Z: 99})
	assert.True(t, ok)
	assert.Equal(t, 44, x, "x is stretched for the cell aspect")
	assert.Equal(t, 10, y, "screen y grows downwards")

	p.Center = domain.Vec3{X: 1, Y: 1}
	x, y, _ = p.Project(domain.Vec3{X: 1, Y: 1})
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)

	_, _, ok = p.Project(domain.Vec3{X: 100})
	assert.False(t, ok)

	assert.InDelta(t, 2.5, p.Zoom(1.25).Scale, 1e-9)
	assert.Equal(t, 2.0, p.Scale, "Zoom returns a copy")
}

func TestRenderer_DrawsBodiesTrailsAndStatus(t *testing.T) {
	s := newScreen(t)
	r := terminal.NewRenderer(s, terminal.WithScale(1))

	r.OnFrame(domain.Frame{
		{ID: "sun", Name: "Sun", Color: "#ffcc00"},
		{ID: "earth", Name: "Earth", Position: domain.Vec3{X: 5}},
	})
	r.OnTrailSegmentAdded("earth", domain.TrailSegment{EntityID: "earth", Seq: 1, To: domain.Vec3{X: 5, Y: 2}})
	r.Draw(domain.Status{State: domain.StatePlaying, ElapsedYears: 1.5, Cursor: 3, Buffered: 10})

	// Height minus the status row is 23, so the center row is 11.
	mainc, _, style, _ := s.GetContent(40, 11)
	assert.Equal(t, 'S', mainc)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.NewHexColor(0xffcc00), fg)

	mainc, _, _, _ = s.GetContent(50, 11)
	assert.Equal(t, 'E', mainc)

	mainc, _, _, _ = s.GetContent(50, 9)
	assert.Equal(t, '·', mainc)

	assert.Contains(t, r.StatusLine(), "playing")
	assert.Contains(t, r.StatusLine(), "1.50 yr")
	mainc, _, _, _ = s.GetContent(1, 23)
	assert.Equal(t, 'p', mainc)

	r.OnTrailSegmentRemoved("earth", domain.TrailSegment{EntityID: "earth", Seq: 1})
	assert.Zero(t, r.TrailLen("earth"))
}

func TestRenderer_FollowRecenters(t *testing.T) {
	s := newScreen(t)
	r := terminal.NewRenderer(s)
	r.OnCentroid(domain.Vec3{X: 3, Y: 4})
	assert.Equal(t, domain.Vec3{X: 3, Y: 4}, r.Projection().Center)
}

func TestRenderer_Keys(t *testing.T) {
	s := newScreen(t)
	r := terminal.NewRenderer(s, terminal.WithScale(4))
	ctrl := newFakeController()

	keep, err := r.HandleEvent(key(' '), ctrl)
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, domain.StatePlaying, ctrl.Status().State)

	r.HandleEvent(key(' '), ctrl)
	assert.Equal(t, domain.StatePaused, ctrl.Status().State)

	r.HandleEvent(key('f'), ctrl)
	assert.True(t, ctrl.Status().Following)

	r.HandleEvent(key('+'), ctrl)
	assert.InDelta(t, 5.0, r.Projection().Scale, 1e-9)
	r.HandleEvent(key('-'), ctrl)
	r.HandleEvent(key('-'), ctrl)
	assert.InDelta(t, 3.2, r.Projection().Scale, 1e-9)

	keep, _ = r.HandleEvent(key('q'), ctrl)
	assert.False(t, keep)
	keep, _ = r.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ctrl)
	assert.False(t, keep)

	r.HandleEvent(tcell.NewEventResize(120, 40), ctrl)
	assert.Equal(t, 120, r.Projection().Width)
}

func TestRenderer_RunQuitsOnKey(t *testing.T) {
	s := newScreen(t)
	r := terminal.NewRenderer(s, terminal.WithRefresh(5*time.Millisecond))
	ctrl := newFakeController()

	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background(), ctrl) }()

	assert.Eventually(t, func() bool {
		return r.StatusLine() != ""
	}, time.Second, 5*time.Millisecond)
	s.InjectKey(tcell.KeyRune, 'f', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after q")
	}
	assert.True(t, ctrl.Status().Following)
}

func TestRenderer_RunStopsWithSession(t *testing.T) {
	s := newScreen(t)
	r := terminal.NewRenderer(s)
	ctrl := newFakeController()
	close(ctrl.done)

	assert.NoError(t, r.Run(context.Background(), ctrl))
}

// blockingScreen holds Show until release is closed.
type blockingScreen struct {
	tcell.SimulationScreen
	showing chan struct{}
	release chan struct{}
}

func (s *blockingScreen) Show() {
	close(s.showing)
	<-s.release
	s.SimulationScreen.Show()
}

func TestRenderer_SlowShowDoesNotBlockUpdates(t *testing.T) {
	s := &blockingScreen{
		SimulationScreen: newScreen(t),
		showing:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	r := terminal.NewRenderer(s, terminal.WithScale(1))

	drawn := make(chan struct{})
	go func() {
		defer close(drawn)
		r.Draw(domain.Status{State: domain.StatePlaying})
	}()
	<-s.showing

	updated := make(chan struct{})
	go func() {
		defer close(updated)
		r.OnFrame(domain.Frame{{ID: "sun", Name: "Sun"}})
		r.OnTrailSegmentAdded("sun", domain.TrailSegment{Seq: 1, To: domain.Vec3{X: 1}})
		r.OnCentroid(domain.Vec3{X: 2})
	}()

	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("updates blocked while the screen was showing")
	}
	assert.Equal(t, domain.Vec3{X: 2}, r.Projection().Center)
	assert.Equal(t, 1, r.TrailLen("sun"))

	close(s.release)
	<-drawn
	assert.Contains(t, r.StatusLine(), "playing")
}
