package visualization

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"time"

	"github.com/solaproject/sola/internal/sola"
)

const (
	// durationAxisOffset pads the axis by this fraction of the date range.
	durationAxisOffset = 0.25
	// durationPadding is the default blur, as a fraction of the axis span.
	durationPadding = 0.25
	// durationMinOffset is the minimum axis padding, in milliseconds.
	durationMinOffset = 3 * float64(year/time.Millisecond)

	durationFill     = "hsl(0, 0%, 56%)"
	durationFade     = "hsl(0, 0%, 100%)"
	durationMinWidth = 10.0
)

// DatePoint is one end of a duration bar. Date and Blur are in
// milliseconds since the epoch; Blur is the width of the uncertain part.
type DatePoint struct {
	Date float64 `json:"date"`
	Blur float64 `json:"blur"`
}

// Time returns the date of p.
func (p DatePoint) Time() time.Time {
	return time.UnixMilli(int64(math.Round(p.Date))).UTC()
}

// Fill is how a duration bar is painted.
type Fill string

const (
	FillSolid     Fill = "solid"
	FillFadeLeft  Fill = "fade-to-left"
	FillFadeRight Fill = "fade-to-right"
	FillFadeBoth  Fill = "fade-to-both"
)

// Duration is the time span of one entity with its uncertainty. All
// values are milliseconds since the epoch.
type Duration struct {
	MinDate   float64   `json:"min_date"`
	MaxDate   float64   `json:"max_date"`
	BeginAxis float64   `json:"begin_axis"`
	EndAxis   float64   `json:"end_axis"`
	Start     DatePoint `json:"start"`
	End       DatePoint `json:"end"`
}

func parseMillis(values ...*string) []float64 {
	var out []float64
	for _, v := range values {
		if v == nil {
			continue
		}
		t, err := ParseDate(*v)
		if err != nil {
			continue
		}
		out = append(out, millis(t))
	}
	return out
}

func spread(values []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return hi - lo
}

// ComputeDuration derives the duration of e from its date fields. An
// exact boundary has no blur. A boundary known as a range is blurred by
// the range width. A single inexact boundary is moved outwards by the
// default blur. It reports false when e has no primary date or no date
// parses.
func ComputeDuration(e sola.Entity) (Duration, bool) {
	if !e.HasPrimaryDate() {
		return Duration{}, false
	}
	startDates := parseMillis(e.StartStartDate, e.StartDate, e.StartEndDate)
	endDates := parseMillis(e.EndStartDate, e.EndDate, e.EndEndDate)
	dates := append(append(append([]float64{}, startDates...), parseMillis(e.PrimaryDate)...), endDates...)
	if len(dates) == 0 {
		return Duration{}, false
	}

	d := Duration{MinDate: math.Inf(1), MaxDate: math.Inf(-1)}
	for _, v := range dates {
		d.MinDate = math.Min(d.MinDate, v)
		d.MaxDate = math.Max(d.MaxDate, v)
	}
	offset := math.Max((d.MaxDate-d.MinDate)*durationAxisOffset, durationMinOffset)
	d.BeginAxis = d.MinDate - offset
	d.EndAxis = d.MaxDate + offset
	blur := durationPadding * (d.EndAxis - d.BeginAxis)

	switch {
	case e.StartDateIsExact != nil && *e.StartDateIsExact:
		d.Start = DatePoint{Date: d.MinDate}
	case len(startDates) >= 2:
		d.Start = DatePoint{Date: d.MinDate, Blur: rangeOr(spread(startDates), blur)}
	default:
		d.Start = DatePoint{Date: d.MinDate - blur, Blur: blur}
	}

	switch {
	case e.EndDateIsExact != nil && *e.EndDateIsExact:
		d.End = DatePoint{Date: d.MaxDate}
	case len(endDates) >= 2:
		d.End = DatePoint{Date: d.MaxDate, Blur: rangeOr(spread(endDates), blur)}
	default:
		d.End = DatePoint{Date: d.MaxDate + blur, Blur: blur}
	}
	return d, true
}

func rangeOr(width, fallback float64) float64 {
	if width == 0 {
		return fallback
	}
	return width
}

// Range is the span of the parsed dates.
func (d Duration) Range() float64 {
	return d.MaxDate - d.MinDate
}

// Fill picks the bar paint from the blurred sides.
func (d Duration) Fill() Fill {
	switch {
	case d.Start.Blur != 0 && d.End.Blur != 0:
		return FillFadeBoth
	case d.End.Blur != 0:
		return FillFadeRight
	case d.Start.Blur != 0:
		return FillFadeLeft
	}
	return FillSolid
}

// GradientOffsets returns the gradient stops where the fade of each side
// meets the solid part. Blurs are measured against the date range and
// each fade covers at most half. A collapsed range has no fade stops.
func (d Duration) GradientOffsets() (left, right float64) {
	r := d.Range()
	if r <= 0 {
		return 0, 1
	}
	return math.Min(d.Start.Blur/r, 0.5), 1 - math.Min(d.End.Blur/r, 0.5)
}

// RenderDuration writes the duration bar of e on a time axis as an SVG
// document of the given width. Entities without a primary date produce
// no output.
func RenderDuration(w io.Writer, e sola.Entity, width float64, c Config, locale string) error {
	d, ok := ComputeDuration(e)
	if !ok {
		return nil
	}
	height := 2*c.CanvasMarginY + 2*c.NodeRadius
	scale := NewTimeScale(
		time.UnixMilli(int64(d.BeginAxis)).UTC(),
		time.UnixMilli(int64(d.EndAxis)).UTC(),
		c.CanvasMarginX, width-c.CanvasMarginX,
	)
	left, right := d.GradientOffsets()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="sans-serif" font-size="10">`+"\n",
		width, height, width, height)
	bw.WriteString("<defs>\n")
	writeGradient(bw, FillFadeRight, []gradientStop{{0, durationFill}, {right, durationFill}, {1, durationFade}})
	writeGradient(bw, FillFadeLeft, []gradientStop{{0, durationFade}, {left, durationFill}, {1, durationFill}})
	writeGradient(bw, FillFadeBoth, []gradientStop{{0, durationFade}, {left, durationFill}, {right, durationFill}, {1, durationFade}})
	bw.WriteString("</defs>\n")

	x0, x1 := scale.Scale(d.Start.Time()), scale.Scale(d.End.Time())
	barWidth := math.Abs(x1 - x0)
	if barWidth == 0 {
		barWidth = durationMinWidth
	}
	fill := durationFill
	if f := d.Fill(); f != FillSolid {
		fill = "url(#" + string(f) + ")"
	}
	fmt.Fprintf(bw, `<g class="timeline-canvas"><rect rx="%g" x="%.2f" y="%g" width="%.2f" height="%g" fill="%s"/></g>`+"\n",
		c.NodeRadius, math.Min(x0, x1), c.CanvasMarginY-c.NodeRadius, barWidth, 2*c.NodeRadius, fill)

	writeTimeAxis(bw, "timeline-x-axis-top", scale, scale.Ticks(10), c.CanvasMarginY, -1, locale)
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

type gradientStop struct {
	offset float64
	color  string
}

func writeGradient(w *bufio.Writer, id Fill, stops []gradientStop) {
	fmt.Fprintf(w, `<linearGradient id="%s" x1="0" y1="0" x2="1" y2="0">`, id)
	for _, stop := range stops {
		fmt.Fprintf(w, `<stop offset="%.4g" stop-color="%s"/>`, stop.offset, html.EscapeString(stop.color))
	}
	w.WriteString("</linearGradient>\n")
}
