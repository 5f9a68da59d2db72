package visualization

import (
	"fmt"
	"math"
)

// ZoomTransform is a uniform scale K followed by a translation (X, Y):
// a point p maps to p*K + (X, Y).
type ZoomTransform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that changes nothing.
var Identity = ZoomTransform{K: 1}

// IsIdentity reports whether t changes nothing.
func (t ZoomTransform) IsIdentity() bool {
	return t == Identity
}

// ApplyX maps an unzoomed x coordinate to the display.
func (t ZoomTransform) ApplyX(x float64) float64 {
	return x*t.K + t.X
}

// ApplyY maps an unzoomed y coordinate to the display.
func (t ZoomTransform) ApplyY(y float64) float64 {
	return y*t.K + t.Y
}

// InvertX maps a display x coordinate back to unzoomed space.
func (t ZoomTransform) InvertX(x float64) float64 {
	return (x - t.X) / t.K
}

// InvertY maps a display y coordinate back to unzoomed space.
func (t ZoomTransform) InvertY(y float64) float64 {
	return (y - t.Y) / t.K
}

// Translate moves t by (dx, dy) in unzoomed units.
func (t ZoomTransform) Translate(dx, dy float64) ZoomTransform {
	return ZoomTransform{K: t.K, X: t.X + t.K*dx, Y: t.Y + t.K*dy}
}

func (t ZoomTransform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.K)
}

// RescaleX returns a copy of scale whose domain is what the transform
// shows across the scale's range. Only the horizontal axis zooms.
func (t ZoomTransform) RescaleX(scale TimeScale) TimeScale {
	r0, r1 := scale.Range()
	return NewTimeScale(scale.Invert(t.InvertX(r0)), scale.Invert(t.InvertX(r1)), r0, r1)
}

// Zoom constrains transforms to a scale extent and keeps the viewport
// inside [0,0]..[Width,Height].
type Zoom struct {
	Width, Height      float64
	MinScale, MaxScale float64
}

// NewZoom creates the zoom behaviour of a timeline of the given size.
func NewZoom(config Config, width, height float64) Zoom {
	return Zoom{Width: width, Height: height, MinScale: config.MinScale, MaxScale: config.MaxScale}
}

// ScaleBy zooms by factor around the display point (px, py).
func (z Zoom) ScaleBy(t ZoomTransform, factor, px, py float64) ZoomTransform {
	k := z.clampScale(t.K * factor)
	x := px - (px-t.X)/t.K*k
	y := py - (py-t.Y)/t.K*k
	return z.Constrain(ZoomTransform{K: k, X: x, Y: y})
}

// TranslateBy pans by (dx, dy) display pixels.
func (z Zoom) TranslateBy(t ZoomTransform, dx, dy float64) ZoomTransform {
	return z.Constrain(ZoomTransform{K: t.K, X: t.X + dx, Y: t.Y + dy})
}

// Constrain clamps the scale and shifts t so the viewport stays within the
// translate extent. When the viewport is larger than the extent, it is
// centred.
func (z Zoom) Constrain(t ZoomTransform) ZoomTransform {
	if k := z.clampScale(t.K); k != t.K {
		t = ZoomTransform{K: k, X: t.X, Y: t.Y}
	}
	dx0 := t.InvertX(0)
	dx1 := t.InvertX(z.Width) - z.Width
	dy0 := t.InvertY(0)
	dy1 := t.InvertY(z.Height) - z.Height
	return t.Translate(constrainAxis(dx0, dx1), constrainAxis(dy0, dy1))
}

func constrainAxis(d0, d1 float64) float64 {
	if d1 > d0 {
		return (d0 + d1) / 2
	}
	if v := math.Min(0, d0); v != 0 {
		return v
	}
	return math.Max(0, d1)
}

func (z Zoom) clampScale(k float64) float64 {
	if z.MaxScale > 0 {
		k = math.Min(k, z.MaxScale)
	}
	if z.MinScale > 0 {
		k = math.Max(k, z.MinScale)
	}
	return k
}
