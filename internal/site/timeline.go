package site

import (
	"context"
	"io"
	"log/slog"

	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/visualization"
)

// Default size of server-rendered timelines.
const (
	DefaultTimelineWidth  = 960
	DefaultTimelineHeight = 320
)

// TimelineRequest describes one timeline rendering.
type TimelineRequest struct {
	Locale    string
	Filter    dataset.Filter
	Term      string
	Selection *dataset.Selection
	Width     float64
	Height    float64
	// Ticks bounds the layout simulation; zero runs it until it cools.
	Ticks int
}

// TimelineView is a laid out timeline ready to render.
type TimelineView struct {
	Timeline  *visualization.Timeline
	Options   visualization.RenderOptions
	Anomalies []visualization.Anomaly
	// Partial is set when some entity types failed to load.
	Partial bool
}

// Render writes the timeline SVG.
func (v *TimelineView) Render(w io.Writer) error {
	return v.Timeline.Render(w, v.Options)
}

// BuildTimeline loads the entities, the filtered passages and the
// selection, and lays them out. It fails only if no entity type could be
// loaded or a requested filter or selection fails.
func BuildTimeline(ctx context.Context, data *dataset.Service, config visualization.Config, logger *slog.Logger, req TimelineRequest) (*TimelineView, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if req.Width <= 0 {
		req.Width = DefaultTimelineWidth
	}
	if req.Height <= 0 {
		req.Height = DefaultTimelineHeight
	}

	collections, err := data.Entities(ctx, req.Locale)
	partial := false
	if err != nil {
		if !anyLoaded(collections) {
			return nil, err
		}
		partial = true
		logger.Warn("timeline is missing entity types", "locale", req.Locale, "error", err)
	}

	passages, err := data.FilteredPassages(ctx, req.Locale, req.Filter, req.Term)
	if err != nil {
		return nil, err
	}

	var selected *sola.EntityDetails
	if req.Selection != nil {
		selected, err = data.Entity(ctx, req.Locale, *req.Selection)
		if err != nil {
			return nil, err
		}
	}
	highlight := dataset.NewHighlight(passages, selected)

	var byType [sola.EntityTypeCount][]visualization.Node
	var anomalies []visualization.Anomaly
	for _, t := range sola.EntityTypes() {
		nodes, skipped := visualization.ProjectAll(collections.Of(t), config.Colors)
		byType[t] = nodes
		anomalies = append(anomalies, skipped...)
	}
	for _, a := range anomalies {
		logger.Warn("entity has no usable primary date", "type", a.Entity.Type, "id", a.Entity.ID, "error", a.Reason)
	}

	labels := i18n.For(req.Locale)
	lanes := visualization.Lanes(byType, visualization.LaneLabels{Passages: labels.Passages, Other: labels.Other})

	tl := visualization.NewTimeline(config, logger)
	tl.SetLanes(lanes)
	tl.Resize(req.Width, req.Height)
	tl.Settle(req.Ticks)

	opts := visualization.RenderOptions{
		Locale:      req.Locale,
		Highlighted: highlight.Contains,
	}
	if req.Selection != nil {
		ref := req.Selection.Ref()
		opts.Selected = func(r sola.EntityRef) bool { return r == ref }
	}

	return &TimelineView{Timeline: tl, Options: opts, Anomalies: anomalies, Partial: partial}, nil
}

func anyLoaded(c *dataset.Collections) bool {
	for _, state := range c.States {
		if state.Status == dataset.StatusSuccess {
			return true
		}
	}
	return false
}
