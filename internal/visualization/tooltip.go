package visualization

import "math"

// Tooltip placement parameters, in pixels.
const (
	TooltipOffset       = 4
	TooltipArrowSize    = 8
	TooltipArrowPadding = 4
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// Placement is the side of the anchor a tooltip is shown on.
type Placement string

const (
	PlacementBottom Placement = "bottom"
	PlacementTop    Placement = "top"
)

// TooltipPosition is where to draw a tooltip box. ArrowX is the left edge
// of the arrow relative to the box.
type TooltipPosition struct {
	X, Y      float64
	Placement Placement
	ArrowX    float64
}

// PlaceTooltip positions a width x height tooltip below anchor, or above
// it when it would overflow the bottom of the viewport and fits above. It
// is centred on the anchor and then shifted to stay inside the viewport.
// The arrow points at the anchor centre but keeps TooltipArrowPadding
// from the box corners.
func PlaceTooltip(anchor Rect, width, height float64, viewport Rect) TooltipPosition {
	pos := TooltipPosition{Placement: PlacementBottom}

	pos.Y = anchor.Y + anchor.Height + TooltipOffset
	top := anchor.Y - TooltipOffset - height
	if pos.Y+height > viewport.Y+viewport.Height && top >= viewport.Y {
		pos.Y = top
		pos.Placement = PlacementTop
	}

	center := anchor.X + anchor.Width/2
	pos.X = center - width/2
	if maxX := viewport.X + viewport.Width - width; pos.X > maxX {
		pos.X = maxX
	}
	if pos.X < viewport.X {
		pos.X = viewport.X
	}

	arrow := center - pos.X - TooltipArrowSize/2
	pos.ArrowX = math.Max(TooltipArrowPadding, math.Min(arrow, width-TooltipArrowSize-TooltipArrowPadding))
	return pos
}

// nodeRect is the bounding box of a circle drawn at (x, y).
func nodeRect(x, y, r float64) Rect {
	return Rect{X: x - r, Y: y - r, Width: 2 * r, Height: 2 * r}
}
