package visualization

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/solaproject/sola/internal/sola"
)

// Node is an entity placed on the timeline. X and Y are owned by the
// simulation and are in unzoomed canvas coordinates.
type Node struct {
	ID    int             `json:"id"`
	Label string          `json:"label"`
	Date  time.Time       `json:"date"`
	Type  sola.EntityType `json:"type"`
	Color string          `json:"color"`
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
}

// Key identifies a node within one timeline.
func (n Node) Key() sola.EntityRef {
	return sola.EntityRef{ID: n.ID, Type: n.Type}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01",
	"2006",
}

// ParseDate parses the date formats the backend emits. Dates are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Project maps an entity with a primary date to a node. It fails when the
// primary date is missing or malformed.
func Project(e sola.Entity, color string) (Node, error) {
	if !e.HasPrimaryDate() {
		return Node{}, fmt.Errorf("%s %d has no primary date", e.Type, e.ID)
	}
	date, err := ParseDate(*e.PrimaryDate)
	if err != nil {
		return Node{}, fmt.Errorf("%s %d: %w", e.Type, e.ID, err)
	}
	return Node{ID: e.ID, Label: e.Name, Date: date, Type: e.Type, Color: color}, nil
}

// Anomaly is an entity left off the timeline that was expected to have a
// date.
type Anomaly struct {
	Entity sola.EntityRef
	Reason error
}

// ProjectAll projects every dated entity, in ascending id order. Entities
// without a usable primary date are skipped; unless they are places,
// which commonly lack dates, they are reported as anomalies.
func ProjectAll(entities map[int]sola.Entity, colors Colors) ([]Node, []Anomaly) {
	var nodes []Node
	var anomalies []Anomaly
	for _, id := range slices.Sorted(maps.Keys(entities)) {
		e := entities[id]
		node, err := Project(e, colors.For(e.Type))
		if err != nil {
			if e.Type != sola.Place {
				anomalies = append(anomalies, Anomaly{Entity: e.Ref(), Reason: err})
			}
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, anomalies
}

// Lane is a horizontal band of the timeline.
type Lane struct {
	Label string
	Nodes []Node
}

// LaneLabels names the two timeline lanes.
type LaneLabels struct {
	Passages string
	Other    string
}

// Lanes puts passages in their own lane and all other types together, in
// entity type order.
func Lanes(byType [sola.EntityTypeCount][]Node, labels LaneLabels) []Lane {
	passages := Lane{Label: labels.Passages, Nodes: slices.Clone(byType[sola.Passage])}
	other := Lane{Label: labels.Other}
	for _, t := range sola.EntityTypes() {
		if t != sola.Passage {
			other.Nodes = append(other.Nodes, byType[t]...)
		}
	}
	return []Lane{passages, other}
}

func extent(lanes []Lane) (min, max time.Time, ok bool) {
	for _, lane := range lanes {
		for _, n := range lane.Nodes {
			if !ok {
				min, max, ok = n.Date, n.Date, true
				continue
			}
			if n.Date.Before(min) {
				min = n.Date
			}
			if n.Date.After(max) {
				max = n.Date
			}
		}
	}
	return min, max, ok
}
