package visualization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaproject/sola/internal/sola"
)

func ptr[T any](v T) *T { return &v }

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"1850-03-07", time.Date(1850, 3, 7, 0, 0, 0, 0, time.UTC), false},
		{"1850-03", time.Date(1850, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"1850", time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2020-01-02T03:04:05Z", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{" 1850-03-07 ", time.Date(1850, 3, 7, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"circa 1850", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.True(t, tt.expected.Equal(got), "%q: expected %v, got %v", tt.input, tt.expected, got)
	}
}

func TestProject(t *testing.T) {
	node, err := Project(sola.Entity{ID: 4, Type: sola.Person, Name: "Basil", PrimaryDate: ptr("0330")}, "#7C3AED")
	require.NoError(t, err)
	assert.Equal(t, 4, node.ID)
	assert.Equal(t, "Basil", node.Label)
	assert.Equal(t, 330, node.Date.Year())
	assert.Equal(t, "#7C3AED", node.Color)
	assert.Equal(t, sola.EntityRef{ID: 4, Type: sola.Person}, node.Key())

	_, err = Project(sola.Entity{ID: 5, Type: sola.Person, PrimaryDate: ptr("")}, "")
	assert.Error(t, err)
}

func TestProjectAll_UndatedPlaceIsNotAnomalous(t *testing.T) {
	places := map[int]sola.Entity{1: {ID: 1, Type: sola.Place}}
	nodes, anomalies := ProjectAll(places, DefaultColors())
	assert.Empty(t, nodes)
	assert.Empty(t, anomalies)

	persons := map[int]sola.Entity{1: {ID: 1, Type: sola.Person}}
	nodes, anomalies = ProjectAll(persons, DefaultColors())
	assert.Empty(t, nodes)
	require.Len(t, anomalies, 1)
	assert.Equal(t, sola.EntityRef{ID: 1, Type: sola.Person}, anomalies[0].Entity)
	assert.Error(t, anomalies[0].Reason)
}

func TestProjectAll(t *testing.T) {
	entities := map[int]sola.Entity{
		9: {ID: 9, Type: sola.Passage, Name: "late", PrimaryDate: ptr("0400-01-01")},
		2: {ID: 2, Type: sola.Passage, Name: "early", PrimaryDate: ptr("0350-01-01")},
		5: {ID: 5, Type: sola.Passage, Name: "broken", PrimaryDate: ptr("sometime")},
	}
	nodes, anomalies := ProjectAll(entities, DefaultColors())

	require.Len(t, nodes, 2)
	assert.Equal(t, 2, nodes[0].ID)
	assert.Equal(t, 9, nodes[1].ID)
	assert.Equal(t, "#E11D48", nodes[0].Color)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 5, anomalies[0].Entity.ID)
}

func TestLanes(t *testing.T) {
	var byType [sola.EntityTypeCount][]Node
	byType[sola.Passage] = []Node{{ID: 1, Type: sola.Passage}}
	byType[sola.Person] = []Node{{ID: 2, Type: sola.Person}}
	byType[sola.Event] = []Node{{ID: 3, Type: sola.Event}}

	lanes := Lanes(byType, LaneLabels{Passages: "Passagen", Other: "Andere"})
	require.Len(t, lanes, 2)
	assert.Equal(t, "Passagen", lanes[0].Label)
	assert.Len(t, lanes[0].Nodes, 1)
	assert.Equal(t, "Andere", lanes[1].Label)
	require.Len(t, lanes[1].Nodes, 2)
	assert.Equal(t, sola.Event, lanes[1].Nodes[0].Type)
	assert.Equal(t, sola.Person, lanes[1].Nodes[1].Type)
}

func TestColorsFor(t *testing.T) {
	colors := DefaultColors()
	assert.Equal(t, "#0D9488", colors.For(sola.Place))
	assert.Equal(t, "currentColor", colors.For(sola.EntityType(42)))
}
