package visualization

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/solaproject/sola/internal/sola"
)

// State is the lifecycle state of a Timeline.
type State int

const (
	// Idle: not measured yet, or nothing to show.
	Idle State = iota
	// Scaled: scales are built and nodes seeded, no simulation running.
	Scaled
	// Simulating: a simulation loop is publishing frames.
	Simulating
	// Settled: the simulation cooled down.
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scaled:
		return "scaled"
	case Simulating:
		return "simulating"
	case Settled:
		return "settled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Timeline lays out lanes of nodes on a time axis. Node positions are in
// unzoomed canvas coordinates; the zoom only changes the display scale.
type Timeline struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	width  float64
	height float64
	lanes  []Lane
	nodes  []Node
	base   TimeScale
	bands  BandScale
	zoom   ZoomTransform
	sim    *Simulation
}

// NewTimeline creates an unmeasured timeline.
func NewTimeline(config Config, logger *slog.Logger) *Timeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Timeline{config: config, logger: logger, zoom: Identity}
}

// Config returns the layout parameters.
func (t *Timeline) Config() Config {
	return t.config
}

// State returns the lifecycle state.
func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Size returns the measured canvas size.
func (t *Timeline) Size() (width, height float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

// Resize sets the canvas size, stopping any simulation and rebuilding
// the scales. A non-positive size returns the timeline to Idle.
func (t *Timeline) Resize(width, height float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop()
	t.width, t.height = width, height
	t.rescale()
}

// SetLanes replaces the lanes, stopping any simulation. Nodes already on
// the timeline keep their positions; new nodes start at their scale
// position.
func (t *Timeline) SetLanes(lanes []Lane) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop()
	t.lanes = lanes
	t.rescale()
}

func (t *Timeline) measured() bool {
	return t.width > 0 && t.height > 0
}

func (t *Timeline) rescale() {
	if !t.measured() {
		t.state = Idle
		return
	}

	labels := make([]string, len(t.lanes))
	for i, lane := range t.lanes {
		labels[i] = lane.Label
	}
	t.bands = NewBandScale(labels, t.height-t.config.CanvasMarginY, t.config.CanvasMarginY)

	min, max, ok := extent(t.lanes)
	if !ok {
		t.nodes = nil
		t.state = Idle
		return
	}
	padding := t.config.TimelinePadding
	t.base = NewTimeScale(
		time.Date(min.Year()-padding, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(max.Year()+padding, time.January, 1, 0, 0, 0, 0, time.UTC),
		t.config.CanvasMarginX,
		t.width-t.config.CanvasMarginX,
	)

	previous := make(map[sola.EntityRef]Node, len(t.nodes))
	for _, n := range t.nodes {
		previous[n.Key()] = n
	}
	t.nodes = t.nodes[:0:0]
	for _, lane := range t.lanes {
		for _, n := range lane.Nodes {
			if p, ok := previous[n.Key()]; ok {
				n.X, n.Y = p.X, p.Y
			} else {
				n.X, n.Y = t.target(lane.Label, n)
			}
			t.nodes = append(t.nodes, n)
		}
	}

	t.zoom = NewZoom(t.config, t.width, t.height).Constrain(t.zoom)
	t.state = Scaled
}

// target is where the x and y forces pull n.
func (t *Timeline) target(lane string, n Node) (x, y float64) {
	y, _ = t.bands.Center(lane)
	return t.base.Scale(n.Date), y
}

func (t *Timeline) bodies() []Body {
	bodies := make([]Body, 0, len(t.nodes))
	i := 0
	for _, lane := range t.lanes {
		for _, n := range lane.Nodes {
			tx, ty := t.target(lane.Label, n)
			current := t.nodes[i]
			bodies = append(bodies, Body{X: current.X, Y: current.Y, TargetX: tx, TargetY: ty})
			i++
		}
	}
	return bodies
}

func (t *Timeline) apply(bodies []Body) {
	for i := range t.nodes {
		if i < len(bodies) {
			t.nodes[i].X, t.nodes[i].Y = bodies[i].X, bodies[i].Y
		}
	}
}

// Settle runs a fresh simulation synchronously for at most maxTicks
// ticks (zero: until it cools down) and returns the node positions.
func (t *Timeline) Settle(maxTicks int) []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Idle {
		return nil
	}
	t.stop()
	sim := NewSimulation(t.bodies(), ForcesFrom(t.config), t.config.FastForward)
	frame := sim.Settle(maxTicks)
	t.apply(frame.Bodies)
	t.state = Settled
	t.logger.Debug("timeline settled", "nodes", len(t.nodes), "ticks", frame.Tick, "alpha", frame.Alpha)
	return slices.Clone(t.nodes)
}

// Start runs the simulation in the background, applying every published
// frame to the nodes. The returned channel receives node snapshots,
// latest first, and is closed when the simulation settles or stops.
func (t *Timeline) Start(ctx context.Context, interval time.Duration) (<-chan []Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Idle {
		return nil, fmt.Errorf("timeline is %s", t.state)
	}
	t.stop()

	sim := NewSimulation(t.bodies(), ForcesFrom(t.config), t.config.FastForward)
	frames := sim.Subscribe()
	t.sim = sim
	t.state = Simulating
	sim.Start(ctx, interval)

	out := make(chan []Node, 1)
	go func() {
		defer close(out)
		for frame := range frames {
			t.mu.Lock()
			if t.sim != sim {
				t.mu.Unlock()
				return
			}
			t.apply(frame.Bodies)
			if frame.Settled {
				t.state = Settled
			}
			nodes := slices.Clone(t.nodes)
			t.mu.Unlock()

			select {
			case out <- nodes:
			default:
				select {
				case <-out:
				default:
				}
				out <- nodes
			}
		}
		t.mu.Lock()
		if t.sim == sim && t.state == Simulating {
			t.state = Settled
		}
		t.mu.Unlock()
	}()
	return out, nil
}

// Stop halts a running simulation, keeping the current positions.
func (t *Timeline) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop()
}

func (t *Timeline) stop() {
	if t.sim == nil {
		return
	}
	t.sim.Stop()
	t.sim = nil
	if t.state == Simulating {
		t.state = Scaled
	}
}

// Zoom sets the zoom transform, constrained to the scale extent and the
// canvas. The simulation keeps running undisturbed.
func (t *Timeline) Zoom(transform ZoomTransform) ZoomTransform {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zoom = NewZoom(t.config, t.width, t.height).Constrain(transform)
	return t.zoom
}

// ZoomBy scales the view by factor around the display point (px, py).
func (t *Timeline) ZoomBy(factor, px, py float64) ZoomTransform {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zoom = NewZoom(t.config, t.width, t.height).ScaleBy(t.zoom, factor, px, py)
	return t.zoom
}

// PanBy moves the view by (dx, dy) display pixels.
func (t *Timeline) PanBy(dx, dy float64) ZoomTransform {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zoom = NewZoom(t.config, t.width, t.height).TranslateBy(t.zoom, dx, dy)
	return t.zoom
}

// Transform returns the current zoom transform.
func (t *Timeline) Transform() ZoomTransform {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zoom
}

// XScale returns the display time scale, with the zoom applied.
func (t *Timeline) XScale() TimeScale {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zoom.RescaleX(t.base)
}

// BandScale returns the lane scale.
func (t *Timeline) BandScale() BandScale {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bands
}

// Nodes returns a snapshot of the nodes with their unzoomed positions.
func (t *Timeline) Nodes() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.nodes)
}

// Display maps an unzoomed node position to display coordinates.
func (t *Timeline) Display(n Node) (x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zoom.ApplyX(n.X), n.Y
}

// HitTest returns the node drawn at the display point (px, py). Nodes
// drawn later are on top and win.
func (t *Timeline) HitTest(px, py float64) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.config.NodeRadius
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		if math.Hypot(t.zoom.ApplyX(n.X)-px, n.Y-py) <= r {
			return n, true
		}
	}
	return Node{}, false
}

// Click reports the entity under the display point, for selection.
func (t *Timeline) Click(px, py float64) (sola.EntityRef, bool) {
	n, ok := t.HitTest(px, py)
	if !ok {
		return sola.EntityRef{}, false
	}
	return n.Key(), true
}

// Hover returns the node under the display point and where to place a
// width x height tooltip for it inside the canvas.
func (t *Timeline) Hover(px, py, width, height float64) (Node, TooltipPosition, bool) {
	n, ok := t.HitTest(px, py)
	if !ok {
		return Node{}, TooltipPosition{}, false
	}
	x, y := t.Display(n)
	w, h := t.Size()
	pos := PlaceTooltip(nodeRect(x, y, t.config.NodeRadius), width, height, Rect{Width: w, Height: h})
	return n, pos, true
}

// NodeStyle is the presentation of one node.
type NodeStyle struct {
	Fill    string
	Opacity float64
}

// Style colors n: the selection color overrides the type color, and
// nodes that are neither selected nor highlighted are dimmed.
func (c Config) Style(n Node, selected, highlighted bool) NodeStyle {
	style := NodeStyle{Fill: n.Color, Opacity: 1}
	if selected {
		style.Fill = c.NodeSelectionColor
	}
	if !selected && !highlighted {
		style.Opacity = c.NodeHighlightOpacity
	}
	return style
}
