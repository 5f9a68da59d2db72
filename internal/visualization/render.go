package visualization

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
)

const clipPathID = "timeline-clip"

// RenderOptions controls the SVG output of a timeline.
type RenderOptions struct {
	Locale string
	// Ticks is the approximate number of time axis ticks; default 10.
	Ticks int
	// Selected and Highlighted drive Style; nil means false and true.
	Selected    func(sola.EntityRef) bool
	Highlighted func(sola.EntityRef) bool
}

func (o RenderOptions) style(c Config, n Node) NodeStyle {
	selected := o.Selected != nil && o.Selected(n.Key())
	highlighted := o.Highlighted == nil || o.Highlighted(n.Key())
	return c.Style(n, selected, highlighted)
}

// Render writes the timeline as a standalone SVG document: the node
// circles clipped to the canvas, time axes on top and bottom and lane
// labels on both sides.
func (t *Timeline) Render(w io.Writer, opts RenderOptions) error {
	if opts.Ticks <= 0 {
		opts.Ticks = 10
	}
	width, height := t.Size()
	xScale := t.XScale()
	bands := t.BandScale()
	nodes := t.Nodes()
	zoom := t.Transform()
	c := t.config
	labels := i18n.For(opts.Locale)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="sans-serif" font-size="10">`+"\n",
		width, height, width, height)
	fmt.Fprintf(bw, `<defs><clipPath id="%s"><rect x="%g" y="%g" width="%g" height="%g" fill="none"/></clipPath></defs>`+"\n",
		clipPathID, c.CanvasMarginX, c.CanvasMarginY, width-2*c.CanvasMarginX, height-2*c.CanvasMarginY)

	fmt.Fprintf(bw, `<g class="canvas" clip-path="url(#%s)">`+"\n", clipPathID)
	for _, n := range nodes {
		style := opts.style(c, n)
		fmt.Fprintf(bw, `<circle data-id="%d" data-type="%s" cx="%.2f" cy="%.2f" r="%g" fill="%s"`,
			n.ID, n.Type, zoom.ApplyX(n.X), n.Y, c.NodeRadius, html.EscapeString(style.Fill))
		if style.Opacity < 1 {
			fmt.Fprintf(bw, ` opacity="%g"`, style.Opacity)
		}
		fmt.Fprintf(bw, `><title>%s: %s</title></circle>`+"\n",
			html.EscapeString(labels.EntityType(n.Type, false)), html.EscapeString(n.Label))
	}
	bw.WriteString("</g>\n")

	if len(nodes) > 0 {
		ticks := xScale.Ticks(opts.Ticks)
		writeTimeAxis(bw, "x-axis-top", xScale, ticks, c.CanvasMarginY, -1, opts.Locale)
		writeTimeAxis(bw, "x-axis-bottom", xScale, ticks, height-c.CanvasMarginY, 1, opts.Locale)
	}
	writeLaneAxis(bw, "y-axis-left", bands, c.CanvasMarginX, -90)
	writeLaneAxis(bw, "y-axis-right", bands, width-c.CanvasMarginX, 90)

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// writeTimeAxis draws a horizontal axis at y. dir is -1 for ticks and
// labels above the line, 1 for below.
func writeTimeAxis(w *bufio.Writer, class string, scale TimeScale, ticks []time.Time, y, dir float64, locale string) {
	r0, r1 := scale.Range()
	fmt.Fprintf(w, `<g class="%s" transform="translate(0,%g)" fill="none" text-anchor="middle">`+"\n", class, y)
	fmt.Fprintf(w, `<path stroke="currentColor" d="M%g,%gV0H%gV%g"/>`+"\n", r0, dir*6, r1, dir*6)
	baseline := "0.71em"
	if dir < 0 {
		baseline = "0em"
	}
	for _, tick := range ticks {
		x := scale.Scale(tick)
		if x < r0 || x > r1 {
			continue
		}
		fmt.Fprintf(w, `<g class="tick" transform="translate(%.2f,0)"><line stroke="currentColor" y2="%g"/><text fill="currentColor" y="%g" dy="%s">%s</text></g>`+"\n",
			x, dir*6, dir*9, baseline, html.EscapeString(i18n.FormatTick(locale, tick)))
	}
	w.WriteString("</g>\n")
}

// writeLaneAxis writes the lane labels along a vertical line at x,
// rotated by angle degrees.
func writeLaneAxis(w *bufio.Writer, class string, bands BandScale, x, angle float64) {
	fmt.Fprintf(w, `<g class="%s" transform="translate(%g,0)" fill="none" text-anchor="middle">`+"\n", class, x)
	for _, label := range bands.Labels() {
		y, ok := bands.Center(label)
		if !ok {
			continue
		}
		fmt.Fprintf(w, `<g class="tick" transform="translate(0,%.2f)"><text fill="currentColor" transform="rotate(%g)">%s</text></g>`+"\n",
			y, angle, html.EscapeString(label))
	}
	w.WriteString("</g>\n")
}
