package dataset

import (
	"context"
	"net/http"
	"sync"

	"github.com/solaproject/sola/internal/sola"
)

// fakeRepo is an in-memory Repository recording calls and queries.
type fakeRepo struct {
	mu sync.Mutex

	entities   map[sola.EntityType][]sola.Entity
	passages   []sola.Entity // ListEntities(Passage) when a filter query is sent
	search     []sola.Entity
	details    map[sola.EntityRef]*sola.EntityDetails
	topics     []sola.Vocabulary
	types      []sola.Vocabulary
	textTypes  []sola.TextType
	texts      map[int]*sola.TextDetails
	bible      []sola.PassagePublicationRelation
	references []sola.BibsonomyReference
	failing    map[sola.EntityType]error

	calls   map[string]int
	queries map[string]sola.Query
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		entities: map[sola.EntityType][]sola.Entity{},
		details:  map[sola.EntityRef]*sola.EntityDetails{},
		texts:    map[int]*sola.TextDetails{},
		failing:  map[sola.EntityType]error{},
		calls:    map[string]int{},
		queries:  map[string]sola.Query{},
	}
}

func (f *fakeRepo) record(op string, query sola.Query) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.queries[op] = query
}

func (f *fakeRepo) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func results[T any](items []T) *sola.Results[T] {
	return &sola.Results[T]{Count: len(items), Limit: sola.DefaultPageLimit, Results: items}
}

func (f *fakeRepo) Entities(_ context.Context, _ string, query sola.Query) (*sola.Results[sola.Entity], error) {
	f.record("entities", query)
	return results(f.search), nil
}

func (f *fakeRepo) ListEntities(_ context.Context, t sola.EntityType, _ string, query sola.Query) (*sola.Results[sola.Entity], error) {
	if len(query) > 1 && t == sola.Passage {
		f.record("passages", query)
		return results(f.passages), nil
	}
	f.record("list."+t.Path(), query)
	if err := f.failing[t]; err != nil {
		return nil, err
	}
	return results(f.entities[t]), nil
}

func (f *fakeRepo) EntityByID(_ context.Context, t sola.EntityType, id int, _ string) (*sola.EntityDetails, error) {
	f.record("entity", nil)
	details, ok := f.details[sola.EntityRef{ID: id, Type: t}]
	if !ok {
		return nil, &sola.HTTPError{StatusCode: http.StatusNotFound}
	}
	return details, nil
}

func (f *fakeRepo) PassageTopics(_ context.Context, _ string, query sola.Query) (*sola.Results[sola.Vocabulary], error) {
	f.record("topics", query)
	return results(f.topics), nil
}

func (f *fakeRepo) PassageTypes(_ context.Context, _ string, query sola.Query) (*sola.Results[sola.Vocabulary], error) {
	f.record("types", query)
	return results(f.types), nil
}

func (f *fakeRepo) TextTypes(_ context.Context, _ string, query sola.Query) (*sola.Results[sola.TextType], error) {
	f.record("texttypes", query)
	return results(f.textTypes), nil
}

func (f *fakeRepo) TextByID(_ context.Context, id int, query sola.Query) (*sola.TextDetails, error) {
	f.record("text", query)
	text, ok := f.texts[id]
	if !ok {
		return nil, &sola.HTTPError{StatusCode: http.StatusNotFound}
	}
	return text, nil
}

func (f *fakeRepo) PassagePublicationRelations(_ context.Context, query sola.Query) (*sola.Results[sola.PassagePublicationRelation], error) {
	f.record("bible", query)
	return results(f.bible), nil
}

func (f *fakeRepo) Bibliography(_ context.Context, _ int, query sola.Query) ([]sola.BibsonomyReference, error) {
	f.record("bibliography", query)
	return f.references, nil
}

func ptr[T any](v T) *T {
	return &v
}

func vocab(id int, name string, parent *int) sola.Vocabulary {
	v := sola.Vocabulary{ID: id, Name: name}
	if parent != nil {
		v.ParentClass = &sola.Ref{ID: *parent}
	}
	return v
}

func entity(t sola.EntityType, id int, name string) sola.Entity {
	return sola.Entity{ID: id, Type: t, Name: name, Kind: []sola.Ref{}, Text: []sola.Ref{}}
}
