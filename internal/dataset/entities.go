package dataset

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/parallel"
	"github.com/solaproject/sola/internal/sola"
)

// EntityMap keys entities by id. Maps handed out by this package are
// always freshly built; callers replace them wholesale instead of
// mutating them.
type EntityMap map[int]sola.Entity

// Sorted returns the entities ordered by id.
func (m EntityMap) Sorted() []sola.Entity {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b sola.Entity) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func keyByID(entities []sola.Entity) EntityMap {
	out := make(EntityMap, len(entities))
	for _, e := range entities {
		out[e.ID] = e
	}
	return out
}

// Status is the lifecycle of one per-type query.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "loading"
	}
}

// QueryState tracks one per-type query independently of the others.
type QueryState struct {
	Status Status
	Err    error
}

// Collections holds one id map and one query state per entity type.
type Collections struct {
	ByType [sola.EntityTypeCount]EntityMap
	States [sola.EntityTypeCount]QueryState
}

// NewCollections returns empty collections with every type loading.
func NewCollections() *Collections {
	c := &Collections{}
	for i := range c.ByType {
		c.ByType[i] = EntityMap{}
	}
	return c
}

// Of returns the map of one type; never nil.
func (c *Collections) Of(t sola.EntityType) EntityMap {
	if !t.Valid() || c.ByType[t] == nil {
		return EntityMap{}
	}
	return c.ByType[t]
}

// Lookup finds an entity by type and id.
func (c *Collections) Lookup(ref sola.EntityRef) (sola.Entity, bool) {
	e, ok := c.Of(ref.Type)[ref.ID]
	return e, ok
}

// Len counts entities across all types.
func (c *Collections) Len() int {
	n := 0
	for _, m := range c.ByType {
		n += len(m)
	}
	return n
}

// Complete reports whether every type loaded successfully.
func (c *Collections) Complete() bool {
	for _, state := range c.States {
		if state.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// GroupByType groups a mixed entity list by its type discriminator into
// fresh id maps. Entities with an invalid type are dropped.
func GroupByType(entities []sola.Entity) *Collections {
	c := NewCollections()
	for _, e := range entities {
		if !e.Type.Valid() {
			continue
		}
		c.ByType[e.Type][e.ID] = e
	}
	for i := range c.States {
		c.States[i] = QueryState{Status: StatusSuccess}
	}
	return c
}

// ProgressFunc is told the final state of each type as it completes.
type ProgressFunc func(t sola.EntityType, state QueryState)

// Entities fetches all six collections concurrently. Each type's state is
// recorded on its own; the returned error joins the failures, and the
// collections of successful types are usable even when it is non-nil.
func (s *Service) Entities(ctx context.Context, locale string) (*Collections, error) {
	return s.EntitiesWithProgress(ctx, locale, nil)
}

// EntitiesWithProgress is Entities with a per-type completion callback.
func (s *Service) EntitiesWithProgress(ctx context.Context, locale string, progress ProgressFunc) (*Collections, error) {
	query := s.pageQuery()
	types := sola.EntityTypes()

	tasks := make([]parallel.Task[[]sola.Entity], len(types))
	for i, t := range types {
		tasks[i] = parallel.Task[[]sola.Entity]{
			Name: t.String(),
			Fn: func(ctx context.Context) ([]sola.Entity, error) {
				return s.listEntities(ctx, t, locale, query)
			},
		}
	}

	var onDone func(parallel.Result[[]sola.Entity])
	if progress != nil {
		onDone = func(r parallel.Result[[]sola.Entity]) {
			t, _ := sola.ParseEntityType(r.Name)
			progress(t, stateOf(r.Err))
		}
	}

	results := parallel.Run(ctx, tasks, s.config.Concurrency, onDone)

	collections := NewCollections()
	for i, r := range results {
		t := types[i]
		collections.States[t] = stateOf(r.Err)
		if r.Err != nil {
			s.logger.Warn("entity collection failed", "type", t, "locale", locale, "error", r.Err)
			continue
		}
		collections.ByType[t] = keyByID(r.Value)
		s.logger.Debug("entity collection loaded", "type", t, "locale", locale, "count", len(r.Value), "elapsed", r.Elapsed)
	}
	return collections, parallel.Errors(results)
}

func stateOf(err error) QueryState {
	if err != nil {
		return QueryState{Status: StatusError, Err: err}
	}
	return QueryState{Status: StatusSuccess}
}

func (s *Service) listEntities(ctx context.Context, t sola.EntityType, locale string, query sola.Query) ([]sola.Entity, error) {
	k := cache.Key{Operation: OpEntities, Locale: locale, Params: t.Path() + "?" + query.Encode()}
	return cache.Fetch(ctx, s.cache, k, func(ctx context.Context) ([]sola.Entity, error) {
		res, err := s.repo.ListEntities(ctx, t, locale, query)
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	})
}

// EntitiesOfType fetches a single collection.
func (s *Service) EntitiesOfType(ctx context.Context, t sola.EntityType, locale string) (EntityMap, error) {
	entities, err := s.listEntities(ctx, t, locale, s.pageQuery())
	if err != nil {
		return nil, err
	}
	return keyByID(entities), nil
}
