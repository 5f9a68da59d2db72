package sola

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	got := Sanitize(Query{
		"a": nil,
		"b": "",
		"c": []int{},
		"d": "x",
		"e": []int{1},
	})
	assert.Equal(t, Query{"d": "x", "e": []int{1}}, got)
}

func TestSanitize_NilPointers(t *testing.T) {
	var name *string
	got := Sanitize(Query{"name": name, "limit": 0})
	assert.Equal(t, Query{"limit": 0}, got, "zero numbers are values, not absence")
}

func TestQueryEncode(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"single array value", Query{"kind__id__in": []int{5}}, "kind__id__in=5"},
		{"sorted keys", Query{"offset": 0, "limit": 10}, "limit=10&offset=0"},
		{"nil skipped", Query{"search": nil, "limit": 1}, "limit=1"},
		{"empty array skipped", Query{"kind__id__in": []int{}}, ""},
		{"entity type", Query{"contenttype": Person}, "contenttype=Person"},
		{"bool", Query{"highlight": true}, "highlight=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Encode())
		})
	}
}

func TestQueryEncode_JoinsWithComma(t *testing.T) {
	values := Query{"id__in": []int{1, 2, 3}}.Values()
	assert.Equal(t, []string{"1,2,3"}, values["id__in"])
}

func TestQueryWith_DoesNotMutate(t *testing.T) {
	base := Query{"limit": 10}
	merged := base.With(Query{"search": "x"})
	assert.Len(t, base, 1)
	assert.Equal(t, Query{"limit": 10, "search": "x"}, merged)
}

func TestParseEntityType(t *testing.T) {
	for _, input := range []string{"person", "Person", "PERSON", " person "} {
		got, err := ParseEntityType(input)
		require.NoError(t, err, input)
		assert.Equal(t, Person, got)
	}

	_, err := ParseEntityType("Manuscript")
	assert.Error(t, err)
}

func TestEntityTypeText(t *testing.T) {
	for _, entityType := range EntityTypes() {
		text, err := entityType.MarshalText()
		require.NoError(t, err)

		var decoded EntityType
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, entityType, decoded)
	}
	assert.Equal(t, "publication", Publication.Path())
}

func TestEntityTypeText_UnknownName(t *testing.T) {
	var e Entity
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"type":"Manuscript","name":"Codex"}`), &e))
	assert.Equal(t, InvalidEntityType, e.Type)
	assert.False(t, e.Type.Valid())

	data, err := json.Marshal(e)
	require.NoError(t, err)
	var decoded Entity
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, InvalidEntityType, decoded.Type)
}
