package sola

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListEntities_TagsTypeAndLocalisesName(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		writeJSON(t, w, map[string]any{
			"count": 2,
			"results": []map[string]any{
				{"id": 1, "name": "Predigt", "name_english": "Sermon", "kind": []any{}, "text": []any{}},
				{"id": 2, "name": "Brief", "name_english": "", "kind": []any{}, "text": []any{}},
			},
		})
	})

	results, err := client.ListEntities(context.Background(), Passage, "en", Query{"limit": 10})
	require.NoError(t, err)

	assert.Equal(t, "/apis/api/entities/passage/", gotPath)
	assert.Equal(t, "10", gotQuery.Get("limit"))
	require.Len(t, results.Results, 2)
	assert.Equal(t, Passage, results.Results[0].Type)
	assert.Equal(t, "Sermon", results.Results[0].Name)
	assert.Equal(t, "Brief", results.Results[1].Name, "empty english name keeps the original")
}

func TestListEntities_DefaultLocaleKeepsName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{{"id": 1, "name": "Predigt", "name_english": "Sermon"}},
		})
	})

	results, err := client.ListEntities(context.Background(), Passage, "de", nil)
	require.NoError(t, err)
	assert.Equal(t, "Predigt", results.Results[0].Name)
}

func TestListEntities_PersonsHaveNoKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{{"id": 3, "name": "Augustinus", "kind": []map[string]any{{"id": 1, "label": "x"}}}},
		})
	})

	results, err := client.ListEntities(context.Background(), Person, "de", nil)
	require.NoError(t, err)
	assert.Equal(t, Person, results.Results[0].Type)
	assert.Empty(t, results.Results[0].Kind)
}

func TestEntities_UsesPayloadType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apis/api/entities/", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{
				{"id": 1, "name": "Wien", "type": "Place"},
				{"id": 2, "name": "Synode", "type": "Event"},
			},
		})
	})

	results, err := client.Entities(context.Background(), "de", nil)
	require.NoError(t, err)
	assert.Equal(t, Place, results.Results[0].Type)
	assert.Equal(t, Event, results.Results[1].Type)
}

func TestEntities_UnknownTypeDoesNotFailPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{
				{"id": 1, "name": "Wien", "type": "Place"},
				{"id": 2, "name": "Codex", "type": "Manuscript"},
			},
		})
	})

	results, err := client.Entities(context.Background(), "de", nil)
	require.NoError(t, err)
	require.Len(t, results.Results, 2)
	assert.Equal(t, Place, results.Results[0].Type)
	assert.Equal(t, InvalidEntityType, results.Results[1].Type)
}

func TestEntityByID_DecodesRelations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apis/api/entities/publication/7/", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"id":   7,
			"name": "De civitate Dei",
			"relations": []map[string]any{
				{
					"id":             11,
					"label":          "is author of",
					"relation_type":  map[string]any{"id": 187, "label": "is author of"},
					"related_entity": map[string]any{"id": 3, "label": "Augustinus", "type": "Person"},
				},
			},
		})
	})

	details, err := client.EntityByID(context.Background(), Publication, 7, "de")
	require.NoError(t, err)
	assert.Equal(t, Publication, details.Type)
	require.Len(t, details.Relations, 1)
	assert.Equal(t, Person, details.Relations[0].RelatedEntity.Type)
	assert.Equal(t, 187, details.Relations[0].RelationType.ID)
}

func TestClient_NonOKIsHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := client.EntityByID(context.Background(), Event, 1, "de")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.True(t, IsNotFound(err))
}

func TestClient_ArraysAreCommaJoined(t *testing.T) {
	var raw string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		writeJSON(t, w, map[string]any{"results": []any{}})
	})

	_, err := client.ListEntities(context.Background(), Passage, "de", Query{"kind__id__in": []int{5}})
	require.NoError(t, err)
	assert.Equal(t, "kind__id__in=5", raw)

	_, err = client.ListEntities(context.Background(), Passage, "de", Query{"topic__id__in": []int{1, 2, 3}})
	require.NoError(t, err)
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"1,2,3"}, values["topic__id__in"])
}

func TestBibliography_SendsObjectPK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bibsonomy/save_get/", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("object_pk"))
		assert.Equal(t, "Passage", r.URL.Query().Get("contenttype"))
		writeJSON(t, w, []map[string]any{{"pk": 1, "title": "Patrologia Latina"}})
	})

	refs, err := client.Bibliography(context.Background(), 42, Query{"contenttype": Passage, "attribute": "include"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Patrologia Latina", refs[0].Title)
}

func TestNewClient_RejectsRelativeBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "/relative"})
	assert.Error(t, err)
}
