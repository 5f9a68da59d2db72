package visualization

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaproject/sola/internal/sola"
)

var yearMillis = float64(year / time.Millisecond)

func TestComputeDuration_NoPrimaryDate(t *testing.T) {
	_, ok := ComputeDuration(sola.Entity{StartDate: ptr("1850-01-01")})
	assert.False(t, ok)

	_, ok = ComputeDuration(sola.Entity{PrimaryDate: ptr("around 1850")})
	assert.False(t, ok, "no parseable date")

	var buf bytes.Buffer
	require.NoError(t, RenderDuration(&buf, sola.Entity{}, 400, DefaultConfig(), "de"))
	assert.Zero(t, buf.Len())
}

func TestComputeDuration_InexactEndIsPadded(t *testing.T) {
	primary := "1850-01-01"
	d, ok := ComputeDuration(sola.Entity{
		PrimaryDate:      &primary,
		StartDateIsExact: ptr(true),
		EndDateIsExact:   ptr(false),
	})
	require.True(t, ok)

	p := millis(jan1(1850))
	assert.Equal(t, p, d.MinDate)
	assert.Equal(t, p, d.MaxDate)
	assert.InDelta(t, 3*yearMillis, p-d.BeginAxis, 1, "minimum axis padding")

	assert.Equal(t, DatePoint{Date: p}, d.Start)
	assert.NotZero(t, d.End.Blur)
	assert.InDelta(t, 0.25*(d.EndAxis-d.BeginAxis), d.End.Date-p, 1)
	assert.Equal(t, d.End.Blur, d.End.Date-p)

	assert.Equal(t, FillFadeRight, d.Fill())
	left, right := d.GradientOffsets()
	assert.Equal(t, 0.0, left, "a single date has no range to fade over")
	assert.Equal(t, 1.0, right)
}

func TestComputeDuration_StartRange(t *testing.T) {
	d, ok := ComputeDuration(sola.Entity{
		PrimaryDate:    ptr("1805-01-01"),
		StartStartDate: ptr("1800-01-01"),
		StartEndDate:   ptr("1810-01-01"),
		EndDate:        ptr("1850-01-01"),
		EndDateIsExact: ptr(true),
	})
	require.True(t, ok)

	assert.Equal(t, millis(jan1(1800)), d.Start.Date)
	assert.Equal(t, millis(jan1(1810))-millis(jan1(1800)), d.Start.Blur)
	assert.Equal(t, DatePoint{Date: millis(jan1(1850))}, d.End)
	assert.Equal(t, millis(jan1(1850))-millis(jan1(1800)), d.Range())

	// The axis is padded by a quarter of the fifty year range.
	assert.InDelta(t, d.Range()/4, d.MinDate-d.BeginAxis, 1)

	assert.Equal(t, FillFadeLeft, d.Fill())
	left, right := d.GradientOffsets()
	assert.InDelta(t, 0.2, left, 0.001)
	assert.Equal(t, 1.0, right)
}

func TestComputeDuration_CollapsedRangeUsesDefault(t *testing.T) {
	d, ok := ComputeDuration(sola.Entity{
		PrimaryDate:    ptr("1800-01-01"),
		StartStartDate: ptr("1800-01-01"),
		StartEndDate:   ptr("1800-01-01"),
		EndDateIsExact: ptr(true),
	})
	require.True(t, ok)
	assert.Equal(t, millis(jan1(1800)), d.Start.Date, "a range starts at its earliest date")
	assert.InDelta(t, 0.25*(d.EndAxis-d.BeginAxis), d.Start.Blur, 1)
}

func TestComputeDuration_BothExact(t *testing.T) {
	d, ok := ComputeDuration(sola.Entity{
		PrimaryDate:      ptr("1800-01-01"),
		StartDate:        ptr("1800-01-01"),
		EndDate:          ptr("1820-01-01"),
		StartDateIsExact: ptr(true),
		EndDateIsExact:   ptr(true),
	})
	require.True(t, ok)
	assert.Equal(t, FillSolid, d.Fill())
	assert.True(t, jan1(1800).Equal(d.Start.Time()))
	assert.True(t, jan1(1820).Equal(d.End.Time()))
}

func TestComputeDuration_BothInexact(t *testing.T) {
	d, ok := ComputeDuration(sola.Entity{
		PrimaryDate: ptr("1800-01-01"),
		StartDate:   ptr("1800-01-01"),
		EndDate:     ptr("1900-01-01"),
	})
	require.True(t, ok)
	assert.Equal(t, FillFadeBoth, d.Fill())
	assert.Less(t, d.Start.Date, d.MinDate)
	assert.Greater(t, d.End.Date, d.MaxDate)

	// Both blurs are a quarter of the 150 year axis, measured against the
	// 100 year date range.
	left, right := d.GradientOffsets()
	assert.InDelta(t, 0.375, left, 0.001)
	assert.InDelta(t, 0.625, right, 0.001)
}

func TestGradientOffsets_CappedAtHalf(t *testing.T) {
	d := Duration{
		MinDate: 0, MaxDate: 100,
		Start: DatePoint{Date: -80, Blur: 80},
		End:   DatePoint{Date: 100, Blur: 10},
	}
	left, right := d.GradientOffsets()
	assert.Equal(t, 0.5, left)
	assert.InDelta(t, 0.9, right, 1e-9)
}

func TestRenderDuration(t *testing.T) {
	var buf bytes.Buffer
	err := RenderDuration(&buf, sola.Entity{
		PrimaryDate:      ptr("1850-01-01"),
		StartDateIsExact: ptr(true),
	}, 400, DefaultConfig(), "en")
	require.NoError(t, err)
	svg := buf.String()

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Equal(t, 1, strings.Count(svg, "<rect"))
	assert.Contains(t, svg, `fill="url(#fade-to-right)"`)
	assert.Contains(t, svg, `rx="5"`)
	assert.Contains(t, svg, `y="15"`)
	for _, id := range []string{"fade-to-left", "fade-to-right", "fade-to-both"} {
		assert.Contains(t, svg, `<linearGradient id="`+id+`"`)
	}
	assert.Contains(t, svg, ">1850</text>")
}
