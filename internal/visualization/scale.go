package visualization

import (
	"math"
	"time"
)

// TimeScale maps dates linearly onto a pixel range.
type TimeScale struct {
	d0, d1 time.Time
	r0, r1 float64
}

// NewTimeScale creates a scale from [d0, d1] to [r0, r1].
func NewTimeScale(d0, d1 time.Time, r0, r1 float64) TimeScale {
	return TimeScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the date interval.
func (s TimeScale) Domain() (time.Time, time.Time) {
	return s.d0, s.d1
}

// Range returns the pixel interval.
func (s TimeScale) Range() (float64, float64) {
	return s.r0, s.r1
}

func millis(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// Scale maps a date to a pixel position.
func (s TimeScale) Scale(t time.Time) float64 {
	span := millis(s.d1) - millis(s.d0)
	if span == 0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (millis(t)-millis(s.d0))/span*(s.r1-s.r0)
}

// Invert maps a pixel position back to a date.
func (s TimeScale) Invert(x float64) time.Time {
	width := s.r1 - s.r0
	if width == 0 {
		return s.d0
	}
	ms := millis(s.d0) + (x-s.r0)/width*(millis(s.d1)-millis(s.d0))
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

// Ticks returns about count evenly spaced, human friendly dates inside
// the domain: month starts for short ranges, otherwise January 1st of
// years that are multiples of 1, 2 or 5 times a power of ten.
func (s TimeScale) Ticks(count int) []time.Time {
	if count < 1 {
		count = 10
	}
	start, stop := s.d0, s.d1
	if stop.Before(start) {
		start, stop = stop, start
	}
	target := stop.Sub(start) / time.Duration(count)

	switch {
	case target < 2*month:
		return monthTicks(start, stop, 1)
	case target < 6*month:
		return monthTicks(start, stop, 3)
	}
	step := int(tickIncrement(float64(start.Year()), float64(stop.Year()), count))
	if step < 1 {
		step = 1
	}
	return yearTicks(start, stop, step)
}

func monthTicks(start, stop time.Time, every int) []time.Time {
	var ticks []time.Time
	t := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for (int(t.Month())-1)%every != 0 || t.Before(start) {
		t = t.AddDate(0, 1, 0)
	}
	for !t.After(stop) {
		ticks = append(ticks, t)
		t = t.AddDate(0, every, 0)
	}
	return ticks
}

func yearTicks(start, stop time.Time, every int) []time.Time {
	var ticks []time.Time
	y := int(math.Ceil(float64(start.Year())/float64(every))) * every
	for ; ; y += every {
		t := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		if t.After(stop) {
			break
		}
		if !t.Before(start) {
			ticks = append(ticks, t)
		}
	}
	return ticks
}

// tickIncrement returns a step of 1, 2 or 5 times a power of ten that
// splits [start, stop] into about count intervals.
func tickIncrement(start, stop float64, count int) float64 {
	step := math.Abs(stop-start) / float64(count)
	if step == 0 {
		return 1
	}
	power := math.Pow(10, math.Floor(math.Log10(step)))
	switch ratio := step / power; {
	case ratio >= math.Sqrt(50):
		power *= 10
	case ratio >= math.Sqrt(10):
		power *= 5
	case ratio >= math.Sqrt(2):
		power *= 2
	}
	return power
}

// BandScale divides a pixel range into equal bands, one per label. As
// with a reversed range, the first label gets the band at r0.
type BandScale struct {
	labels []string
	r0, r1 float64
}

// NewBandScale creates a band scale over [r0, r1].
func NewBandScale(labels []string, r0, r1 float64) BandScale {
	return BandScale{labels: labels, r0: r0, r1: r1}
}

// Bandwidth returns the height of one band.
func (s BandScale) Bandwidth() float64 {
	if len(s.labels) == 0 {
		return 0
	}
	return math.Abs(s.r1-s.r0) / float64(len(s.labels))
}

// Band returns the start of the band of label, the edge nearest the
// smaller range value.
func (s BandScale) Band(label string) (float64, bool) {
	for i, l := range s.labels {
		if l != label {
			continue
		}
		lo := math.Min(s.r0, s.r1)
		index := i
		if s.r1 < s.r0 {
			index = len(s.labels) - 1 - i
		}
		return lo + float64(index)*s.Bandwidth(), true
	}
	return 0, false
}

// Center returns the middle of the band of label.
func (s BandScale) Center(label string) (float64, bool) {
	start, ok := s.Band(label)
	return start + s.Bandwidth()/2, ok
}

// Labels returns the band labels in domain order.
func (s BandScale) Labels() []string {
	return s.labels
}
