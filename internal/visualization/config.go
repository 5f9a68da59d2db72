// Package visualization lays out SOLA entities on a zoomable,
// force-directed timeline and renders it, and the duration timeline of a
// single entity, as SVG.
package visualization

import "github.com/solaproject/sola/internal/sola"

// Config holds the layout and styling parameters of the timelines.
type Config struct {
	CanvasMarginX float64 `toml:"canvas_margin_x"`
	CanvasMarginY float64 `toml:"canvas_margin_y"`

	MinScale float64 `toml:"min_scale"`
	MaxScale float64 `toml:"max_scale"`

	CollideStrength float64 `toml:"collide_strength"`
	XStrength       float64 `toml:"x_strength"`
	YStrength       float64 `toml:"y_strength"`

	// NodeRadius is the circle radius; NodePadding the minimum gap
	// between two circles.
	NodeRadius  float64 `toml:"node_radius"`
	NodePadding float64 `toml:"node_padding"`

	NodeSelectionColor string `toml:"node_selection_color"`
	// NodeHighlightOpacity is applied to nodes that are neither selected
	// nor highlighted.
	NodeHighlightOpacity float64 `toml:"node_highlight_opacity"`

	// TimelinePadding pads the time axis on both ends, in years.
	TimelinePadding int `toml:"timeline_padding"`

	// FastForward is the number of extra ticks computed per published
	// frame; 5 publishes every sixth tick.
	FastForward int `toml:"fast_forward"`

	Colors Colors `toml:"-"`
}

// Colors assigns a fill color to each entity type.
type Colors struct {
	Event       string `toml:"event"`
	Institution string `toml:"institution"`
	Passage     string `toml:"passage"`
	Person      string `toml:"person"`
	Place       string `toml:"place"`
	Publication string `toml:"publication"`
}

// For returns the color of t.
func (c Colors) For(t sola.EntityType) string {
	switch t {
	case sola.Event:
		return c.Event
	case sola.Institution:
		return c.Institution
	case sola.Passage:
		return c.Passage
	case sola.Person:
		return c.Person
	case sola.Place:
		return c.Place
	case sola.Publication:
		return c.Publication
	}
	return "currentColor"
}

// DefaultColors returns the site palette.
func DefaultColors() Colors {
	return Colors{
		Event:       "#D97706",
		Institution: "#0284C7",
		Passage:     "#E11D48",
		Person:      "#7C3AED",
		Place:       "#0D9488",
		Publication: "#4B5563",
	}
}

// DefaultConfig returns the parameters used on the site.
func DefaultConfig() Config {
	return Config{
		CanvasMarginX:        20,
		CanvasMarginY:        20,
		MinScale:             0.75,
		MaxScale:             15,
		CollideStrength:      1.25,
		XStrength:            0.75,
		YStrength:            0.1,
		NodeRadius:           5,
		NodePadding:          1,
		NodeSelectionColor:   "#38A169",
		NodeHighlightOpacity: 0.15,
		TimelinePadding:      25,
		FastForward:          5,
		Colors:               DefaultColors(),
	}
}

// collideRadius keeps circle centres 2*NodeRadius + NodePadding apart.
func (c Config) collideRadius() float64 {
	return c.NodeRadius + c.NodePadding/2
}
