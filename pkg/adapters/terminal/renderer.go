// Package terminal draws a playback session in a terminal with tcell.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/gdamore/tcell/v2"
)

const (
	// DefaultRefresh is how often the screen is redrawn, independent of the playback rate.
	DefaultRefresh = 50 * time.Millisecond
	// DefaultScale fits the inner planets of a solar system on an 80x24 screen.
	DefaultScale = 5.0

	zoomStep = 1.25
)

type body struct {
	name  string
	pos   domain.Vec3
	color tcell.Color
	glyph rune
}

// Renderer implements ports.RenderAdapter on a tcell screen.
// Draw instructions only update a snapshot; Run redraws it on its own clock.
type Renderer struct {
	screen  tcell.Screen
	refresh time.Duration

	mu     sync.Mutex
	proj   Projection
	bodies []body
	order  map[string]int
	trails map[string]map[uint64]domain.TrailSegment
	status string
}

var _ ports.RenderAdapter = (*Renderer)(nil)

// Option configures a Renderer.
type Option func(*Renderer)

// WithRefresh sets the redraw interval.
func WithRefresh(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.refresh = d
		}
	}
}

// WithScale sets the initial zoom.
func WithScale(scale float64) Option {
	return func(r *Renderer) {
		if scale > 0 {
			r.proj.Scale = scale
		}
	}
}

// NewRenderer draws on an initialized screen.
func NewRenderer(screen tcell.Screen, opts ...Option) *Renderer {
	r := &Renderer{
		screen:  screen,
		refresh: DefaultRefresh,
		proj:    Projection{Scale: DefaultScale},
		order:   make(map[string]int),
		trails:  make(map[string]map[uint64]domain.TrailSegment),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.proj.Width, r.proj.Height = screen.Size()
	return r
}

func (r *Renderer) OnFrame(entities domain.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = r.bodies[:0]
	for _, e := range entities {
		idx, ok := r.order[e.ID]
		if !ok {
			idx = len(r.order)
			r.order[e.ID] = idx
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		r.bodies = append(r.bodies, body{
			name:  name,
			pos:   e.Position,
			color: Palette(e.Color, idx),
			glyph: Glyph(name),
		})
	}
}

func (r *Renderer) OnTrailSegmentAdded(entityID string, seg domain.TrailSegment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	segs, ok := r.trails[entityID]
	if !ok {
		segs = make(map[uint64]domain.TrailSegment)
		r.trails[entityID] = segs
	}
	segs[seg.Seq] = seg
}

func (r *Renderer) OnTrailSegmentRemoved(entityID string, seg domain.TrailSegment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	segs := r.trails[entityID]
	delete(segs, seg.Seq)
	if len(segs) == 0 {
		delete(r.trails, entityID)
	}
}

func (r *Renderer) OnCentroid(p domain.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proj.Center = p
}

// Projection returns the current view.
func (r *Renderer) Projection() Projection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proj
}

// TrailLen reports how many segments of entityID are on screen.
func (r *Renderer) TrailLen(entityID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trails[entityID])
}

// Run redraws the screen and handles keys until ctx is done, the user quits
// or ctrl closes. Keys: space play/pause, f follow, +/- zoom, q quit.
func (r *Renderer) Run(ctx context.Context, ctrl ports.Controller) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go r.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()

	r.Draw(ctrl.Status())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ctrl.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			keep, err := r.HandleEvent(ev, ctrl)
			if err != nil || !keep {
				return err
			}
			r.Draw(ctrl.Status())
		case <-ticker.C:
			r.Draw(ctrl.Status())
		}
	}
}

// HandleEvent applies one terminal event and reports whether to keep running.
func (r *Renderer) HandleEvent(ev tcell.Event, ctrl ports.Controller) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false, nil
		case tcell.KeyRune:
		default:
			return true, nil
		}
		switch ev.Rune() {
		case 'q':
			return false, nil
		case ' ':
			if ctrl.Status().State == domain.StatePlaying {
				return true, ignoreClosed(ctrl.Pause())
			}
			return true, ignoreClosed(ctrl.Play())
		case 'f':
			_, err := ctrl.ToggleFollow()
			return true, ignoreClosed(err)
		case '+', '=':
			r.zoom(zoomStep)
		case '-', '_':
			r.zoom(1 / zoomStep)
		}
	case *tcell.EventResize:
		r.mu.Lock()
		r.proj.Width, r.proj.Height = ev.Size()
		r.mu.Unlock()
		r.screen.Sync()
	}
	return true, nil
}

func (r *Renderer) zoom(factor float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proj = r.proj.Zoom(factor)
}

type cell struct {
	x, y  int
	glyph rune
	style tcell.Style
}

// Draw paints the current snapshot and a status line. The snapshot is taken
// under the lock; painting and Show run without it so a slow terminal never
// holds up the playback goroutine.
func (r *Renderer) Draw(st domain.Status) {
	cells, proj := r.snapshot()
	status := statusLine(st, proj.Scale)

	r.screen.Clear()
	for _, c := range cells {
		r.screen.SetContent(c.x, c.y, c.glyph, nil, c.style)
	}
	drawText(r.screen, 0, proj.Height, status, tcell.StyleDefault.Reverse(true))
	r.screen.Show()

	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
}

// snapshot projects trails and bodies onto screen cells. The returned
// projection excludes the status row.
func (r *Renderer) snapshot() ([]cell, Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proj := r.proj
	// The last row is the status line.
	proj.Height--

	ids := make([]string, 0, len(r.trails))
	for id := range r.trails {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cells := make([]cell, 0, len(r.bodies))
	for _, id := range ids {
		style := tcell.StyleDefault.Foreground(Palette("", r.order[id])).Dim(true)
		for _, seg := range r.trails[id] {
			if seg.Color != "" {
				style = style.Foreground(Palette(seg.Color, r.order[id]))
			}
			if x, y, ok := proj.Project(seg.To); ok {
				cells = append(cells, cell{x: x, y: y, glyph: '·', style: style})
			}
		}
	}
	for _, b := range r.bodies {
		if x, y, ok := proj.Project(b.pos); ok {
			cells = append(cells, cell{x: x, y: y, glyph: b.glyph, style: tcell.StyleDefault.Foreground(b.color).Bold(true)})
		}
	}
	return cells, proj
}

// StatusLine returns the last status line drawn.
func (r *Renderer) StatusLine() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func statusLine(st domain.Status, scale float64) string {
	follow := "off"
	if st.Following {
		follow = "on"
	}
	return fmt.Sprintf(" %s | %.2f yr | buffer %d/%d (%.1fs) | follow %s | zoom %.2f ",
		st.State, st.ElapsedYears, st.Cursor, st.Buffered, st.RemainingSeconds, follow, scale)
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, domain.ErrSessionClosed) {
		return nil
	}
	return err
}
